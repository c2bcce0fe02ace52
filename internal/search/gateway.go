package search

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"research-backend/internal/store"
)

// BreakerConfig holds configuration for the search circuit breaker.
type BreakerConfig struct {
	FailureThreshold float64       // failure ratio that trips the breaker
	MinRequests      uint32        // observations required before evaluating the ratio
	OpenDuration     time.Duration // how long the breaker stays open
	HalfOpenRequests uint32        // probe requests allowed while half-open
	Interval         time.Duration // rolling window for the counts
}

// GatewayConfig bundles the resilience settings around the provider.
type GatewayConfig struct {
	MaxResults    int           // default result count per query
	Timeout       time.Duration // per-attempt budget
	MaxRetries    int           // retries after the first attempt
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
	JitterFactor  float64
	Breaker       BreakerConfig
}

// DefaultGatewayConfig returns the settings used when the config file does
// not override them.
func DefaultGatewayConfig() GatewayConfig {
	return GatewayConfig{
		MaxResults:    3,
		Timeout:       10 * time.Second,
		MaxRetries:    2,
		InitialDelay:  500 * time.Millisecond,
		MaxDelay:      5 * time.Second,
		BackoffFactor: 2.0,
		JitterFactor:  0.1,
		Breaker: BreakerConfig{
			FailureThreshold: 0.6,
			MinRequests:      5,
			OpenDuration:     30 * time.Second,
			HalfOpenRequests: 3,
			Interval:         60 * time.Second,
		},
	}
}

// Gateway shields the engine from provider failures. Search never returns
// an error: once the retry budget is spent or the breaker is open it
// returns an empty slice so the caller degrades instead of failing the
// interview.
type Gateway struct {
	provider Provider
	config   GatewayConfig
	breaker  *gobreaker.CircuitBreaker
	logger   *zap.Logger

	mu   sync.Mutex // guards rand, shared across concurrent sessions
	rand *rand.Rand
}

// NewGateway wraps provider with the resilience policy in config.
func NewGateway(provider Provider, config GatewayConfig, logger *zap.Logger) *Gateway {
	logger = logger.Named("search_gateway")

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "search",
		MaxRequests: config.Breaker.HalfOpenRequests,
		Interval:    config.Breaker.Interval,
		Timeout:     config.Breaker.OpenDuration,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			// Only trip once there are enough requests to make a decision.
			if counts.Requests < config.Breaker.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= config.Breaker.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &Gateway{
		provider: provider,
		config:   config,
		breaker:  breaker,
		logger:   logger,
		rand:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Search runs one query with retries and returns at most maxResults
// deduplicated results. Passing maxResults <= 0 uses the configured
// default. Failures degrade to an empty slice.
func (g *Gateway) Search(ctx context.Context, query string, maxResults int) []Result {
	if maxResults <= 0 {
		maxResults = g.config.MaxResults
	}

	var lastErr error

	for attempt := 0; attempt <= g.config.MaxRetries; attempt++ {
		if ctx.Err() != nil {
			lastErr = ctx.Err()
			break
		}

		results, err := g.attempt(ctx, query, maxResults)
		if err == nil {
			return dedupe(results, maxResults)
		}
		lastErr = err

		// An open breaker fails every attempt in this window, so waiting
		// out the backoff would only stall the interview.
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			break
		}
		if attempt >= g.config.MaxRetries {
			break
		}

		delay := g.calculateDelay(attempt)
		g.logger.Warn("retrying search",
			zap.String("query", query),
			zap.Int("attempt", attempt+1),
			zap.Duration("delay", delay),
			zap.Error(err),
		)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			lastErr = ctx.Err()
			attempt = g.config.MaxRetries // exit loop
		}
	}

	g.logger.Warn("search degraded to empty results",
		zap.String("query", query),
		zap.Error(lastErr),
	)
	return nil
}

func (g *Gateway) attempt(ctx context.Context, query string, maxResults int) ([]Result, error) {
	out, err := g.breaker.Execute(func() (any, error) {
		callCtx, cancel := context.WithTimeout(ctx, g.config.Timeout)
		defer cancel()
		return g.provider.Search(callCtx, query, maxResults)
	})
	if err != nil {
		return nil, err
	}
	return out.([]Result), nil
}

func (g *Gateway) calculateDelay(attempt int) time.Duration {
	baseDelay := float64(g.config.InitialDelay) * math.Pow(g.config.BackoffFactor, float64(attempt))

	if baseDelay > float64(g.config.MaxDelay) {
		baseDelay = float64(g.config.MaxDelay)
	}

	g.mu.Lock()
	jitter := g.config.JitterFactor * baseDelay * (g.rand.Float64()*2 - 1)
	g.mu.Unlock()

	finalDelay := baseDelay + jitter
	if finalDelay < 0 {
		finalDelay = 0
	}

	return time.Duration(finalDelay)
}

// dedupe drops results with duplicate or missing URLs, keeping first
// occurrences, and truncates to maxResults. URLs are compared in
// normalized form so spelling variants collapse the same way they will in
// the reference store.
func dedupe(results []Result, maxResults int) []Result {
	seen := make(map[string]bool, len(results))
	out := make([]Result, 0, len(results))
	for _, r := range results {
		key := store.NormalizeURL(r.URL)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, r)
		if len(out) == maxResults {
			break
		}
	}
	return out
}
