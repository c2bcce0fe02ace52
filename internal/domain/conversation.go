package domain

// EndReason explains why an interview session reached its terminal state.
type EndReason string

const (
	EndReasonTurnLimit        EndReason = "turn_limit"
	EndReasonSignal           EndReason = "end_signal"
	EndReasonRepeatedQuestion EndReason = "repeated_question"
	EndReasonBudget           EndReason = "budget_exhausted"
	EndReasonEditorFailed     EndReason = "editor_failed"
)

// Turn is one completed question/answer exchange. A turn only exists once
// both halves are present; a question whose answer never arrived is not
// recorded.
type Turn struct {
	Question  string `json:"question"`
	Answer    string `json:"answer"`
	Citations []int  `json:"citations,omitempty"`
	Grounded  bool   `json:"grounded"`
}

// Transcript is the finalized record of one interview. Once produced it is
// treated as read-only.
type Transcript struct {
	Persona   Persona   `json:"persona"`
	Turns     []Turn    `json:"turns"`
	EndReason EndReason `json:"endReason"`
	Partial   bool      `json:"partial"`
}

// Empty reports whether the interview produced no usable exchanges.
func (t Transcript) Empty() bool {
	return len(t.Turns) == 0
}
