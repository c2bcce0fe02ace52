package outline

import (
	"context"

	"go.uber.org/zap"

	"research-backend/internal/domain"
	"research-backend/internal/llm"
	"research-backend/internal/prompts"
)

// Refiner revises an outline from interview transcripts.
type Refiner struct {
	client llm.Client
	logger *zap.Logger
}

// NewRefiner builds a Refiner.
func NewRefiner(client llm.Client, logger *zap.Logger) *Refiner {
	return &Refiner{
		client: client,
		logger: logger.Named("outline"),
	}
}

// Refine produces the next outline version from the transcripts. Unusable
// model output keeps the current outline unchanged: the caller reads an
// unchanged outline as convergence, and a degraded round must never destroy
// structure already built. The error return is reserved for context
// cancellation.
func (r *Refiner) Refine(ctx context.Context, topic domain.Topic, current domain.Outline, transcripts []domain.Transcript) (domain.Outline, error) {
	if err := ctx.Err(); err != nil {
		return current, err
	}

	reply, err := r.client.Complete(ctx, llm.Request{
		System: prompts.RefineOutlineSystem(topic.Title, prompts.RenderOutline(current)),
		User:   prompts.RefineOutlineUser(prompts.RenderTranscripts(transcripts)),
	})
	if err != nil {
		if ctx.Err() != nil {
			return current, ctx.Err()
		}
		r.logger.Warn("outline refinement failed, keeping current outline",
			zap.Int("version", current.Version),
			zap.Error(err),
		)
		return current, nil
	}

	next, err := Parse(reply)
	if err != nil {
		r.logger.Warn("outline reply unusable, keeping current outline",
			zap.Int("version", current.Version),
			zap.Error(err),
		)
		return current, nil
	}

	if next.Title == "" {
		next.Title = current.Title
	}
	next.Version = current.Version + 1
	return next, nil
}
