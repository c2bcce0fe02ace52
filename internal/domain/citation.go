package domain

// Citation is a single source recorded in the reference store. Index is the
// stable 1-based position assigned at first insert; it never changes for
// the lifetime of a run.
type Citation struct {
	Index   int    `json:"index"`
	URL     string `json:"url"`
	Title   string `json:"title,omitempty"`
	Content string `json:"content,omitempty"`
}
