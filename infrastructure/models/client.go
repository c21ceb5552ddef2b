// Package models provides the classifier-model adapters for the ensemble
// sentiment scorer. It abstracts provider-specific details behind a small
// completion interface, layers cross-cutting middleware (retry, rate
// limiting) over every provider, and turns raw completions into
// bucket-first ensemble votes.
package models

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/showscore/marquee/internal/ports"
)

// CoreClassifier is the minimal provider surface: a prompt in, the raw
// completion text out. Middleware wraps this interface; the vote parsing
// that turns completions into domain votes lives one layer up.
type CoreClassifier interface {
	// Complete sends one prompt to the provider and returns the raw
	// completion text.
	Complete(ctx context.Context, prompt string) (string, error)

	// Model returns the provider's model identifier.
	Model() string
}

// Middleware wraps a CoreClassifier with additional behavior.
type Middleware func(CoreClassifier) CoreClassifier

// ClientConfig configures one classifier model client.
type ClientConfig struct {
	// Provider selects the provider implementation.
	Provider string `yaml:"provider" validate:"required,oneof=anthropic openai google mock"`

	// APIKey authenticates with the provider.
	APIKey string `yaml:"api_key"`

	// Model overrides the provider's default model.
	Model string `yaml:"model"`

	// BaseURL overrides the provider endpoint, mainly for tests.
	BaseURL string `yaml:"base_url"`

	// RequestsPerSecond and Burst configure the token bucket limiter.
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`

	// MaxRetries bounds retry attempts for transient failures. Retries
	// use jittered exponential backoff and never loop unbounded.
	MaxRetries int `yaml:"max_retries"`

	// RetryBaseDelay and RetryMaxDelay bound the backoff schedule.
	RetryBaseDelay time.Duration `yaml:"retry_base_delay"`
	RetryMaxDelay  time.Duration `yaml:"retry_max_delay"`
}

// withDefaults fills unset resilience parameters.
func (c ClientConfig) withDefaults() ClientConfig {
	if c.RequestsPerSecond <= 0 {
		c.RequestsPerSecond = 2
	}
	if c.Burst <= 0 {
		c.Burst = 4
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.RetryBaseDelay <= 0 {
		c.RetryBaseDelay = 500 * time.Millisecond
	}
	if c.RetryMaxDelay <= 0 {
		c.RetryMaxDelay = 8 * time.Second
	}
	return c
}

// NewClassifier builds a classifier model for the configured provider,
// wrapped with rate limiting (innermost) and retry middleware, and exposed
// through the bucket-first vote contract the ensemble expects.
func NewClassifier(config ClientConfig) (ports.ClassifierModel, error) {
	config = config.withDefaults()

	core, err := createProvider(config)
	if err != nil {
		return nil, fmt.Errorf("create %s provider: %w", config.Provider, err)
	}

	// Rate limiting sits inside retry so backed-off attempts also pace.
	core = RateLimitMiddleware(rate.Limit(config.RequestsPerSecond), config.Burst)(core)
	core = RetryMiddleware(config.MaxRetries, config.RetryBaseDelay, config.RetryMaxDelay)(core)

	return newVoteClassifier(core), nil
}
