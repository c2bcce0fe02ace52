package domain

// Result is what a completed run hands to the caller and any downstream
// writer. Citations are densely indexed 1..N in insertion order.
type Result struct {
	Topic       Topic        `json:"topic"`
	Outline     Outline      `json:"outline"`
	Citations   []Citation   `json:"citations"`
	Transcripts []Transcript `json:"transcripts"`
	Rounds      int          `json:"rounds"`
	Converged   bool         `json:"converged"`
}
