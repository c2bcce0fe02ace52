package domain

import "strings"

// Section is one outline node. Children hold nested subsections to any
// depth, though refinement rarely produces more than two levels.
type Section struct {
	Title    string    `json:"title"`
	Summary  string    `json:"summary,omitempty"`
	Children []Section `json:"children,omitempty"`
}

// Outline is the structured plan for an article. Version counts how many
// refinements produced it, starting at 0 for the initial draft.
type Outline struct {
	Title    string    `json:"title"`
	Sections []Section `json:"sections"`
	Version  int       `json:"version"`
}

// Empty reports whether the outline has no content at all.
func (o Outline) Empty() bool {
	return strings.TrimSpace(o.Title) == "" && len(o.Sections) == 0
}

// StructurallyEqual reports whether two outlines share the same title and
// the same section titles in the same order, at every depth. Summaries are
// ignored so rewording a description does not count as structural change.
func (o Outline) StructurallyEqual(other Outline) bool {
	if !titleEqual(o.Title, other.Title) {
		return false
	}
	return sectionsEqual(o.Sections, other.Sections)
}

// SectionTitles returns the top-level section titles, used to steer
// perspective regeneration between refinement rounds.
func (o Outline) SectionTitles() []string {
	titles := make([]string, 0, len(o.Sections))
	for _, s := range o.Sections {
		titles = append(titles, s.Title)
	}
	return titles
}

func sectionsEqual(a, b []Section) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !titleEqual(a[i].Title, b[i].Title) {
			return false
		}
		if !sectionsEqual(a[i].Children, b[i].Children) {
			return false
		}
	}
	return true
}

func titleEqual(a, b string) bool {
	return strings.TrimSpace(a) == strings.TrimSpace(b)
}
