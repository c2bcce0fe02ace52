// Package personas synthesizes the editorial team that interviews experts
// about a topic. Each persona carries a role and focus; the pair is the
// identity used to keep the team distinct.
package personas

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"research-backend/internal/domain"
	"research-backend/internal/llm"
	"research-backend/internal/prompts"
	apperrors "research-backend/pkg/errors"
)

// Config bounds persona generation.
type Config struct {
	Count      int // personas requested per round
	MaxRetries int // extra model requests when output comes back degenerate
}

// DefaultConfig returns the generation bounds used when the config file
// does not override them.
func DefaultConfig() Config {
	return Config{Count: 3, MaxRetries: 2}
}

// Generator produces distinct research perspectives via the language model.
type Generator struct {
	client llm.Client
	config Config
	logger *zap.Logger
}

// NewGenerator builds a Generator.
func NewGenerator(client llm.Client, config Config, logger *zap.Logger) *Generator {
	return &Generator{
		client: client,
		config: config,
		logger: logger.Named("personas"),
	}
}

// Generate returns up to Count distinct personas for the topic. Hints steer
// diversity: related topics on the first round, the refined outline's
// section titles afterwards.
//
// Invalid entries and duplicates (same role and focus after case folding)
// are discarded. When a request comes back short, the model is asked again
// up to the retry bound, after which the round proceeds with however many
// distinct personas accumulated. Zero usable personas is a terminal error;
// without perspectives there is nothing to interview.
func (g *Generator) Generate(ctx context.Context, topic domain.Topic, hints []string) ([]domain.Persona, error) {
	distinct := make([]domain.Persona, 0, g.config.Count)
	seen := make(map[string]bool)

	for attempt := 0; attempt <= g.config.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		batch, err := g.request(ctx, topic, hints)
		if err != nil {
			g.logger.Warn("persona generation attempt failed",
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
			continue
		}

		for _, p := range batch {
			if !p.Valid() {
				continue
			}
			if seen[p.Key()] {
				g.logger.Debug("discarding duplicate persona",
					zap.String("role", p.Role),
					zap.String("focus", p.Focus),
				)
				continue
			}
			seen[p.Key()] = true
			p.ID = uuid.New().String()
			distinct = append(distinct, p)
			if len(distinct) == g.config.Count {
				return distinct, nil
			}
		}
	}

	if len(distinct) == 0 {
		return nil, apperrors.NewAborted("research aborted before interviews: no usable personas", nil)
	}

	g.logger.Info("proceeding with fewer personas than requested",
		zap.Int("got", len(distinct)),
		zap.Int("want", g.config.Count),
	)
	return distinct, nil
}

func (g *Generator) request(ctx context.Context, topic domain.Topic, hints []string) ([]domain.Persona, error) {
	reply, err := g.client.Complete(ctx, llm.Request{
		System: prompts.PerspectivesSystem(g.config.Count, hints),
		User:   prompts.PerspectivesUser(topic.Title),
	})
	if err != nil {
		return nil, err
	}

	raw, ok := llm.ExtractJSON(reply)
	if !ok {
		return nil, fmt.Errorf("persona reply carried no JSON")
	}

	var decoded []struct {
		Name        string `json:"name"`
		Role        string `json:"role"`
		Affiliation string `json:"affiliation"`
		Focus       string `json:"focus"`
	}
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return nil, fmt.Errorf("decode personas: %w", err)
	}

	out := make([]domain.Persona, 0, len(decoded))
	for _, d := range decoded {
		p := domain.Persona{
			Name:        strings.TrimSpace(d.Name),
			Role:        strings.TrimSpace(d.Role),
			Affiliation: strings.TrimSpace(d.Affiliation),
			Focus:       strings.TrimSpace(d.Focus),
		}
		if p.Name == "" {
			p.Name = p.Role
		}
		out = append(out, p)
	}
	return out, nil
}
