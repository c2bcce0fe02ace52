package llm

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"
)

// RetryConfig configures retry behavior for model calls.
type RetryConfig struct {
	MaxRetries    int           // Maximum number of retry attempts
	InitialDelay  time.Duration // Initial delay before first retry
	MaxDelay      time.Duration // Maximum delay between retries
	BackoffFactor float64       // Multiplier for exponential backoff (e.g. 2.0)
	JitterFactor  float64       // Random jitter factor (0.0 to 1.0)
}

// DefaultRetryConfig returns sensible defaults for retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:    2,
		InitialDelay:  500 * time.Millisecond,
		MaxDelay:      5 * time.Second,
		BackoffFactor: 2.0,
		JitterFactor:  0.1,
	}
}

// RetryClient decorates a Client with bounded retries and exponential
// backoff. Model calls are idempotent from the engine's point of view, so
// every transient failure is eligible for retry.
type RetryClient struct {
	inner  Client
	config RetryConfig
	logger *zap.Logger

	mu   sync.Mutex // guards rand, shared across concurrent sessions
	rand *rand.Rand
}

// NewRetryClient wraps inner with the retry policy in config.
func NewRetryClient(inner Client, config RetryConfig, logger *zap.Logger) *RetryClient {
	return &RetryClient{
		inner:  inner,
		config: config,
		logger: logger.Named("llm_retry"),
		rand:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Complete calls the inner client, retrying transient failures until the
// attempt budget or the context runs out.
func (r *RetryClient) Complete(ctx context.Context, req Request) (string, error) {
	var lastErr error

	for attempt := 0; attempt <= r.config.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", fmt.Errorf("context cancelled before attempt %d: %w", attempt, err)
		}

		out, err := r.inner.Complete(ctx, req)
		if err == nil {
			if attempt > 0 {
				r.logger.Info("completion succeeded after retry",
					zap.Int("attempt", attempt),
				)
			}
			return out, nil
		}

		lastErr = err

		if attempt >= r.config.MaxRetries {
			break
		}
		if !r.shouldRetry(err) {
			break
		}

		delay := r.calculateDelay(attempt)

		r.logger.Warn("retrying completion",
			zap.Int("attempt", attempt+1),
			zap.Duration("delay", delay),
			zap.Error(err),
		)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", fmt.Errorf("context cancelled during retry delay: %w", ctx.Err())
		}
	}

	return "", fmt.Errorf("completion failed after %d attempts: %w", r.config.MaxRetries+1, lastErr)
}

// shouldRetry determines if an error is retryable. Cancellation is the only
// terminal condition here; a per-call deadline counts as transient because
// the next attempt gets a fresh call.
func (r *RetryClient) shouldRetry(err error) bool {
	return !errors.Is(err, context.Canceled)
}

// calculateDelay calculates the delay before the next retry attempt.
func (r *RetryClient) calculateDelay(attempt int) time.Duration {
	baseDelay := float64(r.config.InitialDelay) * math.Pow(r.config.BackoffFactor, float64(attempt))

	if baseDelay > float64(r.config.MaxDelay) {
		baseDelay = float64(r.config.MaxDelay)
	}

	r.mu.Lock()
	jitter := r.config.JitterFactor * baseDelay * (r.rand.Float64()*2 - 1)
	r.mu.Unlock()

	finalDelay := baseDelay + jitter
	if finalDelay < 0 {
		finalDelay = 0
	}

	return time.Duration(finalDelay)
}
