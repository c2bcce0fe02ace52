// Package outline turns model replies into outline values and revises them
// with interview evidence. One Refine call is one round; the convergence
// loop belongs to the orchestrator.
package outline

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"research-backend/internal/domain"
	"research-backend/internal/llm"
)

type sectionJSON struct {
	Title    string        `json:"title"`
	Summary  string        `json:"summary"`
	Children []sectionJSON `json:"children"`
}

type outlineJSON struct {
	Title    string        `json:"title"`
	Sections []sectionJSON `json:"sections"`
}

// Parse extracts an outline from a model reply. The reply may wrap the JSON
// in prose or a fenced block. Sections without a title are dropped; an
// outline without sections is unusable.
func Parse(reply string) (domain.Outline, error) {
	raw, ok := llm.ExtractJSON(reply)
	if !ok {
		return domain.Outline{}, errors.New("reply carried no JSON outline")
	}

	var decoded outlineJSON
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return domain.Outline{}, fmt.Errorf("decode outline: %w", err)
	}

	o := domain.Outline{
		Title:    strings.TrimSpace(decoded.Title),
		Sections: convertSections(decoded.Sections),
	}
	if len(o.Sections) == 0 {
		return domain.Outline{}, errors.New("outline has no sections")
	}
	return o, nil
}

func convertSections(in []sectionJSON) []domain.Section {
	out := make([]domain.Section, 0, len(in))
	for _, s := range in {
		title := strings.TrimSpace(s.Title)
		if title == "" {
			continue
		}
		out = append(out, domain.Section{
			Title:    title,
			Summary:  strings.TrimSpace(s.Summary),
			Children: convertSections(s.Children),
		})
	}
	return out
}
