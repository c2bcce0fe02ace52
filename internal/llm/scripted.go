package llm

import (
	"context"
	"fmt"
	"sync"
)

// ScriptedResponse is one entry in a ScriptedClient's script.
type ScriptedResponse struct {
	Text string
	Err  error
}

// Text builds a successful scripted response.
func Text(s string) ScriptedResponse {
	return ScriptedResponse{Text: s}
}

// Fail builds a failing scripted response.
func Fail(err error) ScriptedResponse {
	return ScriptedResponse{Err: err}
}

// ScriptedClient replays pre-programmed responses in order. It is the test
// double used across package tests; no network is involved. Safe for
// concurrent use.
type ScriptedClient struct {
	mu        sync.Mutex
	responses []ScriptedResponse
	calls     []Request
	next      int
}

// NewScriptedClient creates a client that answers each call with the next
// response in the script and fails once the script is exhausted.
func NewScriptedClient(responses ...ScriptedResponse) *ScriptedClient {
	return &ScriptedClient{responses: responses}
}

func (c *ScriptedClient) Complete(ctx context.Context, req Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.calls = append(c.calls, req)
	if c.next >= len(c.responses) {
		return "", fmt.Errorf("scripted client exhausted after %d responses", len(c.responses))
	}
	r := c.responses[c.next]
	c.next++
	return r.Text, r.Err
}

// Calls returns a copy of every request received so far.
func (c *ScriptedClient) Calls() []Request {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Request, len(c.calls))
	copy(out, c.calls)
	return out
}

// CallCount returns how many times Complete has been invoked.
func (c *ScriptedClient) CallCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.calls)
}
