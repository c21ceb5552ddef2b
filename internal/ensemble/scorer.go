package ensemble

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/showscore/marquee/internal/domain"
	"github.com/showscore/marquee/internal/ports"
)

// Package-level validator instance for configuration validation.
var validate = validator.New()

// ScorerConfig defines the configuration parameters for the Scorer.
type ScorerConfig struct {
	// MaxConcurrency limits concurrent model calls per review.
	// The ensemble is at most three models, so the default of 3 fans all
	// of them out at once.
	MaxConcurrency int `yaml:"max_concurrency" json:"max_concurrency" validate:"min=1,max=8"`

	// ModelTimeout bounds each individual model call. A model that misses
	// the deadline simply drops out of the consensus for that review.
	ModelTimeout time.Duration `yaml:"model_timeout" json:"model_timeout" validate:"required"`
}

// DefaultScorerConfig returns production-ready scorer defaults.
func DefaultScorerConfig() ScorerConfig {
	return ScorerConfig{
		MaxConcurrency: 3,
		ModelTimeout:   30 * time.Second,
	}
}

// Scorer queries up to three independent classifier models for each
// unrated review and resolves their bucket-first votes through the
// consensus protocol. Model failures degrade the consensus to the next
// lower model count instead of failing the review; only a total ensemble
// outage leaves the review unrated.
//
// The scorer is immutable after construction and safe for concurrent use.
type Scorer struct {
	models  []ports.ClassifierModel
	config  ScorerConfig
	metrics ports.MetricsCollector
	tracer  trace.Tracer
}

// NewScorer creates a Scorer over the given models. At least one model is
// required; three gives the full consensus protocol.
func NewScorer(models []ports.ClassifierModel, config ScorerConfig, metrics ports.MetricsCollector) (*Scorer, error) {
	if len(models) == 0 {
		return nil, fmt.Errorf("at least one classifier model is required")
	}
	if len(models) > 3 {
		return nil, fmt.Errorf("the ensemble supports at most three models, got %d", len(models))
	}
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &Scorer{
		models:  models,
		config:  config,
		metrics: metrics,
		tracer:  otel.Tracer("ensemble-scorer"),
	}, nil
}

// Score classifies one review excerpt. All configured models receive the
// same text concurrently; votes with invalid buckets are discarded, scores
// are clamped to their committed bucket's band, and the surviving votes go
// through consensus resolution.
//
// Returns domain.ErrEnsembleUnavailable when no model produced a usable
// vote.
func (s *Scorer) Score(ctx context.Context, excerpt string) (domain.LLMScore, error) {
	ctx, span := s.tracer.Start(ctx, "Scorer.Score",
		trace.WithAttributes(attribute.Int("ensemble.models", len(s.models))),
	)
	defer span.End()

	start := time.Now()

	var (
		mu    sync.Mutex
		votes []domain.EnsembleVote
	)

	g, groupCtx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.MaxConcurrency)

	for _, model := range s.models {
		g.Go(func() error {
			callCtx, cancel := context.WithTimeout(groupCtx, s.config.ModelTimeout)
			defer cancel()

			vote, err := model.Classify(callCtx, excerpt)
			if err != nil {
				// A failed model drops out of the consensus; the
				// remaining respondents are resolved at the lower model
				// count. Model errors never fail the review.
				s.count("ensemble_model_failures_total", model.Model())
				span.RecordError(err)
				return nil
			}

			if !ValidBucket(vote.Bucket) {
				s.count("ensemble_invalid_votes_total", model.Model())
				return nil
			}
			vote.Model = model.Model()
			vote.Score = ClampToBand(vote.Bucket, vote.Score)

			mu.Lock()
			votes = append(votes, vote)
			mu.Unlock()
			return nil
		})
	}

	// Workers only return nil; the group is used for bounded fan-out and
	// context propagation.
	_ = g.Wait()

	// Model order in the outcome is deterministic regardless of response
	// arrival order.
	sort.Slice(votes, func(i, j int) bool { return votes[i].Model < votes[j].Model })

	outcome, err := Resolve(votes, time.Now().UTC())
	if err != nil {
		s.count("ensemble_unavailable_total", "")
		return domain.LLMScore{}, err
	}

	span.SetAttributes(
		attribute.String("ensemble.consensus", string(outcome.Consensus)),
		attribute.Int("ensemble.model_count", outcome.ModelCount),
		attribute.Int("ensemble.score", outcome.Score),
	)
	if s.metrics != nil {
		s.metrics.RecordLatency("ensemble_score", time.Since(start), nil)
		s.metrics.RecordCounter("ensemble_consensus_total", 1,
			map[string]string{"kind": string(outcome.Consensus)})
	}

	return outcome, nil
}

func (s *Scorer) count(metric, model string) {
	if s.metrics == nil {
		return
	}
	labels := map[string]string{}
	if model != "" {
		labels["model"] = model
	}
	s.metrics.RecordCounter(metric, 1, labels)
}
