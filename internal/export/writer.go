package export

import (
	"context"
	"fmt"
	"io"

	"research-backend/internal/domain"
)

// Format selects the report rendering.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
)

// ReportWriter streams finished runs to an io.Writer as rendered reports.
// It satisfies the engine's downstream writer contract.
type ReportWriter struct {
	out    io.Writer
	format Format
}

// NewReportWriter returns a writer that renders runs in the given format.
// An unknown format falls back to Markdown.
func NewReportWriter(out io.Writer, format Format) *ReportWriter {
	return &ReportWriter{out: out, format: format}
}

// Write renders the result and writes it to the underlying destination.
func (w *ReportWriter) Write(_ context.Context, res *domain.Result) error {
	var report string
	switch w.format {
	case FormatHTML:
		rendered, err := HTML(res)
		if err != nil {
			return err
		}
		report = rendered
	default:
		report = Markdown(res)
	}
	if _, err := io.WriteString(w.out, report); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
