package models

import (
	"context"
	"fmt"
	"math/rand"
	"time"
)

// retryClassifier implements bounded retry with jittered exponential
// backoff. Shard writers and model callers alike retry a fixed number of
// times and then fail; nothing in the pipeline loops unbounded.
type retryClassifier struct {
	next       CoreClassifier
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
}

// RetryMiddleware creates middleware that retries failed completions with
// jittered exponential backoff, respecting context cancellation between
// attempts.
func RetryMiddleware(maxRetries int, baseDelay, maxDelay time.Duration) Middleware {
	return func(next CoreClassifier) CoreClassifier {
		return &retryClassifier{
			next:       next,
			maxRetries: maxRetries,
			baseDelay:  baseDelay,
			maxDelay:   maxDelay,
		}
	}
}

// Complete executes the completion with retry on failure.
func (r *retryClassifier) Complete(ctx context.Context, prompt string) (string, error) {
	var lastErr error

	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		completion, err := r.next.Complete(ctx, prompt)
		if err == nil {
			return completion, nil
		}
		lastErr = err

		if ctx.Err() != nil || attempt == r.maxRetries {
			break
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(r.delay(attempt)):
		}
	}

	return "", fmt.Errorf("completion failed after %d attempts: %w", r.maxRetries+1, lastErr)
}

// delay computes the backoff for an attempt: exponential growth from the
// base delay with ±25% jitter, capped at the max delay.
func (r *retryClassifier) delay(attempt int) time.Duration {
	if attempt > 30 {
		attempt = 30
	}
	delay := time.Duration(float64(r.baseDelay) * float64(uint64(1)<<uint(attempt)))

	// #nosec G404 - weak RNG is fine for backoff jitter
	jitter := time.Duration(rand.Float64() * float64(delay) * 0.5)
	delay = delay + jitter - delay/4

	if delay > r.maxDelay {
		delay = r.maxDelay
	}
	return delay
}

// Model returns the model name from the wrapped implementation.
func (r *retryClassifier) Model() string { return r.next.Model() }
