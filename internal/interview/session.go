// Package interview runs one bounded editor/expert conversation and feeds
// the sources it surfaces into the shared reference store.
//
// A session walks a small state machine:
//
//	START → ASKING → AWAITING_ANSWER → ASKING → … → DONE
//
// It reaches DONE when the editor signals it is finished, the turn cap is
// hit, the same question comes back twice in a row, or the wall-clock
// budget runs out.
package interview

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"go.uber.org/zap"

	"research-backend/internal/domain"
	"research-backend/internal/expert"
	"research-backend/internal/llm"
	"research-backend/internal/prompts"
	"research-backend/internal/search"
	"research-backend/internal/store"
)

// State identifies a position in the session lifecycle.
type State int

const (
	StateStart State = iota
	StateAsking
	StateAwaitingAnswer
	StateDone
)

func (s State) String() string {
	switch s {
	case StateStart:
		return "start"
	case StateAsking:
		return "asking"
	case StateAwaitingAnswer:
		return "awaiting_answer"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// Config bounds a single interview.
type Config struct {
	MaxTurns      int           // completed exchanges before the session closes
	SessionBudget time.Duration // wall clock per interview, 0 disables
}

// DefaultConfig returns the interview bounds used when the config file does
// not override them.
func DefaultConfig() Config {
	return Config{MaxTurns: 3, SessionBudget: 2 * time.Minute}
}

// Expert answers the editor's questions. Satisfied by expert.Responder.
type Expert interface {
	Answer(ctx context.Context, question string, rc expert.Context) (expert.Answer, error)
}

// Params carries everything one session needs. Refs is the run-wide store
// shared by every session; writes to it stand even when this session is
// cut short.
type Params struct {
	Client  llm.Client
	Expert  Expert
	Refs    *store.ReferenceStore
	Config  Config
	Logger  *zap.Logger
	Topic   domain.Topic
	Persona domain.Persona
	Outline string // rendered current outline shown to the editor
}

// Session is one interview in progress. Sessions are single-use: construct,
// Run once, read the transcript.
type Session struct {
	client  llm.Client
	expert  Expert
	refs    *store.ReferenceStore
	config  Config
	logger  *zap.Logger
	topic   domain.Topic
	persona domain.Persona
	outline string

	state   State
	history []llm.Message
	turns   []domain.Turn
}

// NewSession builds a session in the START state.
func NewSession(p Params) *Session {
	return &Session{
		client:  p.Client,
		expert:  p.Expert,
		refs:    p.Refs,
		config:  p.Config,
		logger:  p.Logger.Named("interview"),
		topic:   p.Topic,
		persona: p.Persona,
		outline: p.Outline,
	}
}

// State reports where the session currently is in its lifecycle.
func (s *Session) State() State {
	return s.state
}

// Run drives the interview to completion and returns its transcript. The
// transcript comes back even when the session is cut short, because a
// truncated conversation still carries usable references. The error return
// is reserved for sessions that were interrupted before producing anything.
func (s *Session) Run(ctx context.Context) (domain.Transcript, error) {
	if s.config.SessionBudget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.SessionBudget)
		defer cancel()
	}

	s.state = StateStart
	s.history = []llm.Message{{Role: "user", Content: prompts.ExpertGreeting(s.topic.Title)}}

	endReason := domain.EndReasonTurnLimit
	partial := false

	for len(s.turns) < s.config.MaxTurns {
		s.state = StateAsking
		question, wantsEnd, err := s.nextQuestion(ctx)
		if err != nil {
			if ctx.Err() != nil {
				endReason, partial = domain.EndReasonBudget, true
			} else {
				endReason, partial = domain.EndReasonEditorFailed, true
			}
			s.logger.Warn("editor turn failed",
				zap.String("persona", s.persona.Name),
				zap.Error(err),
			)
			break
		}
		if wantsEnd {
			endReason = domain.EndReasonSignal
			break
		}
		if prev, ok := s.previousQuestion(); ok && normalizeQuestion(question) == prev {
			s.logger.Info("editor repeated the previous question, closing interview",
				zap.String("persona", s.persona.Name),
				zap.String("question", question),
			)
			endReason = domain.EndReasonRepeatedQuestion
			break
		}

		s.state = StateAwaitingAnswer
		ans, err := s.expert.Answer(ctx, question, expert.Context{Topic: s.topic, Focus: s.persona.Focus})
		if err != nil {
			endReason, partial = domain.EndReasonBudget, true
			break
		}

		s.turns = append(s.turns, domain.Turn{
			Question:  question,
			Answer:    ans.Text,
			Citations: s.record(ans.Cited),
			Grounded:  ans.Grounded,
		})
		s.history = append(s.history,
			llm.Message{Role: "assistant", Content: question},
			llm.Message{Role: "user", Content: ans.Text},
		)
	}

	s.state = StateDone
	s.logger.Info("interview finished",
		zap.String("persona", s.persona.Name),
		zap.Int("turns", len(s.turns)),
		zap.String("end_reason", string(endReason)),
		zap.Bool("partial", partial),
	)

	transcript := domain.Transcript{
		Persona:   s.persona,
		Turns:     s.turns,
		EndReason: endReason,
		Partial:   partial,
	}
	if transcript.Empty() && partial {
		return transcript, fmt.Errorf("interview with %s produced no exchanges: %s", s.persona.Name, endReason)
	}
	return transcript, nil
}

// nextQuestion asks the model, playing the editor, for its next utterance.
// The history invariant holds throughout the session: the last entry is
// always the expert's most recent line, which becomes the user prompt.
func (s *Session) nextQuestion(ctx context.Context) (string, bool, error) {
	last := len(s.history) - 1
	reply, err := s.client.Complete(ctx, llm.Request{
		System:  prompts.InterviewQuestionSystem(s.persona, s.outline),
		History: s.history[:last],
		User:    s.history[last].Content,
	})
	if err != nil {
		return "", false, err
	}

	question, wantsEnd := parseQuestion(reply)
	if question == "" && !wantsEnd {
		return "", false, errors.New("editor produced an empty question")
	}
	return question, wantsEnd || isEndSignal(question), nil
}

func (s *Session) previousQuestion() (string, bool) {
	if len(s.turns) == 0 {
		return "", false
	}
	return normalizeQuestion(s.turns[len(s.turns)-1].Question), true
}

// record registers cited sources in the shared store and returns their
// indices in citation order, without repeats.
func (s *Session) record(cited []search.Result) []int {
	var indices []int
	seen := make(map[int]bool)
	for _, src := range cited {
		idx := s.refs.InsertOrGet(src.URL, src.Title, src.Content)
		if idx == 0 || seen[idx] {
			continue
		}
		seen[idx] = true
		indices = append(indices, idx)
	}
	return indices
}

// parseQuestion accepts both the requested JSON shape and plain text, since
// models drift from the format under long histories.
func parseQuestion(reply string) (string, bool) {
	if raw, ok := llm.ExtractJSON(reply); ok {
		var decoded struct {
			Question   string `json:"question"`
			WantsToEnd bool   `json:"wantsToEnd"`
		}
		if err := json.Unmarshal([]byte(raw), &decoded); err == nil {
			q := strings.TrimSpace(decoded.Question)
			if q != "" || decoded.WantsToEnd {
				return q, decoded.WantsToEnd
			}
		}
	}
	return strings.TrimSpace(reply), false
}

var endPhrase = strings.ToLower(strings.TrimSuffix(prompts.EndSignal, "!"))

// isEndSignal catches editors that speak the closing phrase without setting
// the structured flag.
func isEndSignal(question string) bool {
	return strings.Contains(strings.ToLower(question), endPhrase)
}

// normalizeQuestion lowers case, strips punctuation, and collapses runs of
// whitespace so trivial rephrasings compare equal.
func normalizeQuestion(q string) string {
	q = strings.ToLower(q)
	q = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			return r
		}
		return -1
	}, q)
	return strings.Join(strings.Fields(q), " ")
}
