package export_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"research-backend/internal/domain"
	"research-backend/internal/export"
)

func sampleResult() *domain.Result {
	return &domain.Result{
		Topic: domain.Topic{Raw: "urban beekeeping", Title: "Urban Beekeeping"},
		Outline: domain.Outline{
			Title: "Urban Beekeeping",
			Sections: []domain.Section{
				{Title: "History", Summary: "From rooftop hives to city ordinances"},
				{Title: "Practice", Children: []domain.Section{
					{Title: "Hive placement"},
					{Title: "Seasonal care"},
				}},
			},
			Version: 2,
		},
		Citations: []domain.Citation{
			{Index: 1, URL: "https://example.com/hives", Title: "Rooftop Hives"},
			{Index: 2, URL: "https://example.com/rules"},
		},
		Transcripts: []domain.Transcript{
			{
				Persona: domain.Persona{Name: "Riya", Role: "Urban ecologist"},
				Turns: []domain.Turn{
					{Question: "Where did city hives start?", Answer: "Paris rooftops.", Citations: []int{1}, Grounded: true},
				},
				EndReason: domain.EndReasonTurnLimit,
			},
			{
				Persona:   domain.Persona{Name: "Ben", Role: "Policy analyst"},
				Turns:     []domain.Turn{{Question: "What rules apply?", Answer: "Varies by city."}},
				EndReason: domain.EndReasonBudget,
				Partial:   true,
			},
		},
		Rounds:    2,
		Converged: true,
	}
}

func TestMarkdownRendersFullReport(t *testing.T) {
	report := export.Markdown(sampleResult())

	assert.True(t, strings.HasPrefix(report, "# Urban Beekeeping\n"))
	assert.Contains(t, report, "Rounds: 2. Converged: true. Sources: 2.")

	assert.Contains(t, report, "- **History**: From rooftop hives to city ordinances")
	assert.Contains(t, report, "  - **Hive placement**")
	assert.Contains(t, report, "  - **Seasonal care**")

	assert.Contains(t, report, "1. [Rooftop Hives](https://example.com/hives)")
	assert.Contains(t, report, "2. <https://example.com/rules>")

	assert.Contains(t, report, "### Riya (Urban ecologist)")
	assert.Contains(t, report, "**Q:** Where did city hives start?")
	assert.Contains(t, report, "**A:** Paris rooftops. (sources: [1])")
	assert.Contains(t, report, "### Ben (Policy analyst)")
	assert.Contains(t, report, "Interview cut short: budget_exhausted.")
}

func TestMarkdownOmitsEmptySections(t *testing.T) {
	res := &domain.Result{
		Topic:   domain.Topic{Raw: "x", Title: "X"},
		Outline: domain.Outline{Title: "X", Sections: []domain.Section{{Title: "Only"}}},
		Rounds:  1,
	}

	report := export.Markdown(res)

	assert.NotContains(t, report, "## References")
	assert.NotContains(t, report, "## Interviews")
}

func TestHTMLConvertsHeadingsAndLists(t *testing.T) {
	html, err := export.HTML(sampleResult())
	require.NoError(t, err)

	assert.Contains(t, html, "<h1>Urban Beekeeping</h1>")
	assert.Contains(t, html, "<h2>Outline</h2>")
	assert.Contains(t, html, "<li>")
	assert.Contains(t, html, `<a href="https://example.com/hives">Rooftop Hives</a>`)
}

func TestReportWriterWritesMarkdown(t *testing.T) {
	var buf bytes.Buffer
	w := export.NewReportWriter(&buf, export.FormatMarkdown)

	require.NoError(t, w.Write(context.Background(), sampleResult()))

	assert.Contains(t, buf.String(), "# Urban Beekeeping")
	assert.Contains(t, buf.String(), "## References")
}

func TestReportWriterWritesHTML(t *testing.T) {
	var buf bytes.Buffer
	w := export.NewReportWriter(&buf, export.FormatHTML)

	require.NoError(t, w.Write(context.Background(), sampleResult()))

	assert.Contains(t, buf.String(), "<h1>Urban Beekeeping</h1>")
}
