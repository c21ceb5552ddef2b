package models

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// rateLimitedClassifier paces completions with a token bucket so batch
// runs do not overwhelm provider rate limits.
type rateLimitedClassifier struct {
	next    CoreClassifier
	limiter *rate.Limiter
}

// RateLimitMiddleware creates middleware enforcing a sustained
// requests-per-second rate with a configurable burst allowance.
func RateLimitMiddleware(limit rate.Limit, burst int) Middleware {
	limiter := rate.NewLimiter(limit, burst)

	return func(next CoreClassifier) CoreClassifier {
		return &rateLimitedClassifier{next: next, limiter: limiter}
	}
}

// Complete waits for a token before forwarding the completion. Waiting
// respects context cancellation and the model-call deadline.
func (r *rateLimitedClassifier) Complete(ctx context.Context, prompt string) (string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit: %w", err)
	}
	return r.next.Complete(ctx, prompt)
}

// Model returns the model name from the wrapped implementation.
func (r *rateLimitedClassifier) Model() string { return r.next.Model() }
