// Package expert answers interview questions with claims grounded in
// retrieved sources, falling back to general knowledge when retrieval
// comes back empty.
package expert

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"research-backend/internal/domain"
	"research-backend/internal/llm"
	"research-backend/internal/prompts"
	"research-backend/internal/search"
)

// stockReply keeps the interview moving when even the ungrounded path
// cannot produce an answer.
const stockReply = "I don't have enough information to answer that. Could you ask about another aspect of the topic?"

// maxSnippetLen caps the page content offered per source so one verbose
// result cannot crowd the rest out of the prompt.
const maxSnippetLen = 1500

// Searcher is the retrieval surface the responder needs. Satisfied by
// search.Gateway.
type Searcher interface {
	Search(ctx context.Context, query string, maxResults int) []search.Result
}

// Context frames one answer: the article's topic plus the asking persona's
// stated angle.
type Context struct {
	Topic domain.Topic
	Focus string
}

// Answer is one reply from the expert. Cited carries the full retrieved
// sources, not bare URLs, so callers can register titles and content
// alongside each reference.
type Answer struct {
	Text     string
	Cited    []search.Result // sources actually cited, in first-citation order
	Grounded bool            // true when retrieval backed the reply
}

// CitedURLs projects the cited sources down to their URLs.
func (a Answer) CitedURLs() []string {
	if len(a.Cited) == 0 {
		return nil
	}
	urls := make([]string, len(a.Cited))
	for i, src := range a.Cited {
		urls[i] = src.URL
	}
	return urls
}

// Config bounds a single answer.
type Config struct {
	MaxSnippets int // search results offered to the model per question
}

// DefaultConfig returns the answering bounds used when the config file
// does not override them.
func DefaultConfig() Config {
	return Config{MaxSnippets: 3}
}

// Responder plays the subject-matter expert inside an interview.
type Responder struct {
	searcher Searcher
	client   llm.Client
	config   Config
	logger   *zap.Logger
}

// NewResponder builds a Responder.
func NewResponder(searcher Searcher, client llm.Client, config Config, logger *zap.Logger) *Responder {
	return &Responder{
		searcher: searcher,
		client:   client,
		config:   config,
		logger:   logger.Named("expert"),
	}
}

// Answer responds to one interview question. When the question alone
// retrieves nothing, one reformulation anchored to the topic is tried,
// since interview questions often lean on conversational context the
// search engine cannot see. With sources in hand the model must ground
// every claim in them; without any, it answers from general knowledge
// and cites nothing. The error return is reserved for context
// cancellation so a failing provider never kills the session.
func (r *Responder) Answer(ctx context.Context, question string, rc Context) (Answer, error) {
	if err := ctx.Err(); err != nil {
		return Answer{}, err
	}

	results := r.searcher.Search(ctx, question, r.config.MaxSnippets)
	if len(results) == 0 {
		results = r.searcher.Search(ctx, question+" "+rc.Topic.Title, r.config.MaxSnippets)
	}
	if len(results) == 0 {
		return r.ungrounded(ctx, question, rc)
	}

	reply, err := r.client.Complete(ctx, llm.Request{
		System: prompts.ExpertAnswerSystem(rc.Topic.Title, rc.Focus),
		User:   prompts.ExpertAnswerUser(question, renderSnippets(results)),
	})
	if err != nil {
		if ctx.Err() != nil {
			return Answer{}, ctx.Err()
		}
		r.logger.Warn("grounded answer failed, answering without sources",
			zap.String("question", question),
			zap.Error(err),
		)
		return r.ungrounded(ctx, question, rc)
	}

	return Answer{
		Text:     strings.TrimSpace(reply),
		Cited:    citedSources(reply, results),
		Grounded: true,
	}, nil
}

func (r *Responder) ungrounded(ctx context.Context, question string, rc Context) (Answer, error) {
	reply, err := r.client.Complete(ctx, llm.Request{
		User: prompts.ExpertAnswerUngrounded(rc.Topic.Title, question),
	})
	if err != nil {
		if ctx.Err() != nil {
			return Answer{}, ctx.Err()
		}
		r.logger.Warn("ungrounded answer failed, using stock reply",
			zap.String("question", question),
			zap.Error(err),
		)
		return Answer{Text: stockReply}, nil
	}
	return Answer{Text: strings.TrimSpace(reply)}, nil
}

var citationPattern = regexp.MustCompile(`\[(\d+)\]`)

// citedSources maps [n] markers in the reply back to the numbered sources
// the model was given. Out-of-range markers are dropped. A grounded reply
// with no parseable markers cites everything it was offered.
func citedSources(reply string, results []search.Result) []search.Result {
	seen := make(map[int]bool)
	var out []search.Result
	for _, m := range citationPattern.FindAllStringSubmatch(reply, -1) {
		n, err := strconv.Atoi(m[1])
		if err != nil || n < 1 || n > len(results) {
			continue
		}
		if seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, results[n-1])
	}
	if len(out) == 0 {
		return results
	}
	return out
}

func renderSnippets(results []search.Result) string {
	var b strings.Builder
	for i, res := range results {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "[%d] %s\n%s\n%s\n", i+1, res.URL, res.Title, clip(res.Content, maxSnippetLen))
	}
	return b.String()
}

func clip(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
