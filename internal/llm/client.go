// Package llm defines the language model client used by every generation
// step, the retry decorator that wraps it, and a scripted fake for tests.
package llm

import "context"

// Message is one prior exchange carried into a completion request.
type Message struct {
	Role    string // "user" or "assistant"
	Content string
}

// Request is a single completion request. History is ordered oldest first
// and is replayed before User.
type Request struct {
	System  string
	User    string
	History []Message
}

// Client abstracts the language model so components can be exercised
// without network access.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// ClientFunc adapts a function to the Client interface.
type ClientFunc func(ctx context.Context, req Request) (string, error)

func (f ClientFunc) Complete(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}
