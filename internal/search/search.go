// Package search wraps the external search provider behind a resilient
// gateway: per-call timeouts, bounded retries, a circuit breaker, and an
// empty-result degrade path so interviews continue when retrieval is down.
package search

import "context"

// Result is one retrieved document snippet.
type Result struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Provider performs a single search call. Implementations may fail, time
// out, or rate limit; the Gateway absorbs that.
type Provider interface {
	Search(ctx context.Context, query string, maxResults int) ([]Result, error)
}

// ProviderFunc adapts a function to the Provider interface.
type ProviderFunc func(ctx context.Context, query string, maxResults int) ([]Result, error)

func (f ProviderFunc) Search(ctx context.Context, query string, maxResults int) ([]Result, error) {
	return f(ctx, query, maxResults)
}
