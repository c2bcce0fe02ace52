// Package export renders finished research runs as outline and
// bibliography reports. The report is a research artifact, not the final
// article; drafting prose belongs to a downstream writer.
package export

import (
	"fmt"
	"strings"

	"research-backend/internal/domain"
)

// Markdown renders the run as a readable report: header, refined outline,
// numbered bibliography, and the interview appendix.
func Markdown(res *domain.Result) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", res.Outline.Title)
	fmt.Fprintf(&b, "Research report. Rounds: %d. Converged: %t. Sources: %d.\n\n",
		res.Rounds, res.Converged, len(res.Citations))

	b.WriteString("## Outline\n\n")
	writeSections(&b, res.Outline.Sections, 0)

	if len(res.Citations) > 0 {
		b.WriteString("\n## References\n\n")
		for _, c := range res.Citations {
			if c.Title != "" {
				fmt.Fprintf(&b, "%d. [%s](%s)\n", c.Index, c.Title, c.URL)
			} else {
				fmt.Fprintf(&b, "%d. <%s>\n", c.Index, c.URL)
			}
		}
	}

	if len(res.Transcripts) > 0 {
		b.WriteString("\n## Interviews\n\n")
		for _, tr := range res.Transcripts {
			fmt.Fprintf(&b, "### %s (%s)\n\n", tr.Persona.Name, tr.Persona.Role)
			for _, turn := range tr.Turns {
				fmt.Fprintf(&b, "**Q:** %s\n\n", turn.Question)
				fmt.Fprintf(&b, "**A:** %s", turn.Answer)
				if len(turn.Citations) > 0 {
					b.WriteString(" (sources:")
					for _, idx := range turn.Citations {
						fmt.Fprintf(&b, " [%d]", idx)
					}
					b.WriteString(")")
				}
				b.WriteString("\n\n")
			}
			if tr.Partial {
				fmt.Fprintf(&b, "Interview cut short: %s.\n\n", tr.EndReason)
			}
		}
	}

	return b.String()
}

func writeSections(b *strings.Builder, sections []domain.Section, depth int) {
	for _, s := range sections {
		fmt.Fprintf(b, "%s- **%s**", strings.Repeat("  ", depth), s.Title)
		if s.Summary != "" {
			fmt.Fprintf(b, ": %s", s.Summary)
		}
		b.WriteString("\n")
		writeSections(b, s.Children, depth+1)
	}
}
