// Package scope validates a raw topic and prepares the initial research
// inputs before any interview starts.
package scope

import (
	"context"
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"research-backend/internal/domain"
	"research-backend/internal/llm"
	"research-backend/internal/outline"
	"research-backend/internal/prompts"
	apperrors "research-backend/pkg/errors"
)

// TopicScoper validates a raw topic string. A typed ABORTED error halts the
// pipeline before the core starts.
type TopicScoper interface {
	Scope(ctx context.Context, raw string) (domain.Topic, error)
}

// LLMScoper is the default scoper: one validation call, one best-effort
// related-topics call, and one initial-outline call.
type LLMScoper struct {
	client llm.Client
	logger *zap.Logger
}

// NewLLMScoper builds the default scoper.
func NewLLMScoper(client llm.Client, logger *zap.Logger) *LLMScoper {
	return &LLMScoper{
		client: client,
		logger: logger.Named("scope"),
	}
}

// Scope validates and cleans up the raw topic, then gathers related topics
// used to diversify the first round of personas. An explicit rejection by
// the model aborts the run; an unreadable verdict does not, because a
// formatting hiccup is no reason to refuse research.
func (s *LLMScoper) Scope(ctx context.Context, raw string) (domain.Topic, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return domain.Topic{}, apperrors.NewValidation("topic is required")
	}

	reply, err := s.client.Complete(ctx, llm.Request{User: prompts.TopicValidation(raw)})
	if err != nil {
		return domain.Topic{}, apperrors.NewUnavailable("topic validation unavailable", err)
	}

	verdict, ok := parseVerdict(reply)
	if !ok {
		s.logger.Warn("topic verdict unreadable, proceeding with raw topic",
			zap.String("topic", raw),
		)
		verdict = topicVerdict{IsValid: true}
	}
	if !verdict.IsValid {
		msg := strings.TrimSpace(verdict.Message)
		if msg == "" {
			msg = "topic was judged not researchable"
		}
		return domain.Topic{}, apperrors.NewAborted("research aborted before interviews: "+msg, nil)
	}

	title := strings.TrimSpace(verdict.Topic)
	if title == "" {
		title = raw
	}

	return domain.NewTopic(raw, title, s.relatedTopics(ctx, title)), nil
}

// InitialOutline drafts the pre-research outline. The draft only seeds the
// refinement loop, so an unusable reply degrades to a stub rather than
// failing the run; interviews will rebuild the structure from evidence.
func (s *LLMScoper) InitialOutline(ctx context.Context, topic domain.Topic) (domain.Outline, error) {
	if err := ctx.Err(); err != nil {
		return domain.Outline{}, err
	}

	reply, err := s.client.Complete(ctx, llm.Request{User: prompts.InitialOutline(topic.Title)})
	if err != nil {
		if ctx.Err() != nil {
			return domain.Outline{}, ctx.Err()
		}
		s.logger.Warn("initial outline unavailable, starting from a stub", zap.Error(err))
		return stubOutline(topic), nil
	}

	o, err := outline.Parse(reply)
	if err != nil {
		s.logger.Warn("initial outline unusable, starting from a stub", zap.Error(err))
		return stubOutline(topic), nil
	}
	if o.Title == "" {
		o.Title = topic.Title
	}
	o.Version = 1
	return o, nil
}

func (s *LLMScoper) relatedTopics(ctx context.Context, title string) []string {
	reply, err := s.client.Complete(ctx, llm.Request{User: prompts.RelatedTopics(title)})
	if err != nil {
		s.logger.Warn("related topics unavailable", zap.Error(err))
		return nil
	}

	raw, ok := llm.ExtractJSON(reply)
	if !ok {
		return nil
	}
	var related []string
	if err := json.Unmarshal([]byte(raw), &related); err != nil {
		return nil
	}

	out := related[:0]
	for _, r := range related {
		if r = strings.TrimSpace(r); r != "" {
			out = append(out, r)
		}
	}
	return out
}

type topicVerdict struct {
	IsValid bool   `json:"isValid"`
	Topic   string `json:"topic"`
	Message string `json:"message"`
}

func parseVerdict(reply string) (topicVerdict, bool) {
	raw, ok := llm.ExtractJSON(reply)
	if !ok {
		return topicVerdict{}, false
	}
	var v topicVerdict
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return topicVerdict{}, false
	}
	return v, true
}

func stubOutline(topic domain.Topic) domain.Outline {
	return domain.Outline{
		Title:    topic.Title,
		Sections: []domain.Section{{Title: "Overview"}},
		Version:  1,
	}
}
