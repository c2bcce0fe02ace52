// Package domain holds the core types of the research engine: topics,
// personas, citations, interview transcripts, and outlines. Types here are
// plain values with no infrastructure dependencies.
package domain

import "strings"

// Topic is a validated research subject. Raw preserves the caller's input,
// Title is the scoped form used in prompts, and Related seeds the editorial
// perspectives.
type Topic struct {
	Raw     string   `json:"raw"`
	Title   string   `json:"title"`
	Related []string `json:"related,omitempty"`
}

// NewTopic builds a Topic, falling back to the raw input when scoping did
// not produce a distinct title.
func NewTopic(raw, title string, related []string) Topic {
	raw = strings.TrimSpace(raw)
	title = strings.TrimSpace(title)
	if title == "" {
		title = raw
	}
	return Topic{Raw: raw, Title: title, Related: related}
}

func (t Topic) String() string {
	return t.Title
}
