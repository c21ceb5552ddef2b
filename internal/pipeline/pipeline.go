// Package pipeline orchestrates the batch stages of the reconciliation
// and scoring pipeline: ingesting raw evidence into canonical shards,
// ensemble-scoring unrated reviews, and reconciling shards against
// aggregator snapshots.
//
// Per-production work is independent, so every stage fans out over a
// bounded worker pool. Per-review and per-production failures are
// isolated into the run report and never abort the run; a run may be
// cancelled between productions, leaving each production at its last
// successfully written shard state.
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/showscore/marquee/internal/domain"
	"github.com/showscore/marquee/internal/ensemble"
	"github.com/showscore/marquee/internal/identity"
	"github.com/showscore/marquee/internal/ports"
	"github.com/showscore/marquee/internal/reconcile"
)

// DefaultConcurrency bounds the per-production worker pool when the
// configuration does not set one.
const DefaultConcurrency = 4

// Pipeline wires the pure components to the stores and runs the batch
// stages. It is safe for concurrent use, though batch runs are normally
// triggered one at a time by the scheduler.
type Pipeline struct {
	resolver    *identity.Resolver
	scorer      *ensemble.Scorer
	engine      *reconcile.Engine
	shards      ports.ShardStore
	sources     ports.SourceStore
	runs        ports.RunStore
	metrics     ports.MetricsCollector
	logger      *zap.Logger
	concurrency int
}

// Config carries the pipeline's orchestration parameters.
type Config struct {
	// Concurrency is the maximum number of productions processed in
	// parallel within a run.
	Concurrency int
}

// New creates a Pipeline. The scorer may be nil for deployments that only
// ingest and reconcile; Score runs then fail explicitly instead of
// fabricating sentiment.
func New(
	resolver *identity.Resolver,
	scorer *ensemble.Scorer,
	engine *reconcile.Engine,
	shards ports.ShardStore,
	sources ports.SourceStore,
	runs ports.RunStore,
	metrics ports.MetricsCollector,
	logger *zap.Logger,
	config Config,
) (*Pipeline, error) {
	if resolver == nil {
		return nil, fmt.Errorf("identity resolver is required")
	}
	if shards == nil {
		return nil, fmt.Errorf("shard store is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	concurrency := config.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	return &Pipeline{
		resolver:    resolver,
		scorer:      scorer,
		engine:      engine,
		shards:      shards,
		sources:     sources,
		runs:        runs,
		metrics:     metrics,
		logger:      logger,
		concurrency: concurrency,
	}, nil
}

// reportBuilder accumulates run outcomes from concurrent workers.
type reportBuilder struct {
	mu     sync.Mutex
	report domain.RunReport
}

func newReportBuilder(kind domain.RunKind) *reportBuilder {
	return &reportBuilder{
		report: domain.RunReport{
			ID:        uuid.New().String(),
			Kind:      kind,
			StartedAt: time.Now().UTC(),
		},
	}
}

func (b *reportBuilder) productionDone(ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.report.Productions++
	if ok {
		b.report.Succeeded++
	} else {
		b.report.Failed++
	}
}

func (b *reportBuilder) addError(productionID, reviewKey, stage string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.report.Errors = append(b.report.Errors, domain.RunError{
		ProductionID: productionID,
		ReviewKey:    reviewKey,
		Stage:        stage,
		Message:      err.Error(),
	})
}

func (b *reportBuilder) addDuplicates(findings []domain.CandidateDuplicate) {
	if len(findings) == 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.report.Duplicates = append(b.report.Duplicates, findings...)
}

func (b *reportBuilder) addParked(ev domain.RawEvidence, reason string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.report.Parked = append(b.report.Parked, domain.ParkedEvidence{Evidence: ev, Reason: reason})
}

func (b *reportBuilder) addReconciliation(results []domain.ReconciliationResult) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.report.Reconciliation = append(b.report.Reconciliation, results...)
}

// finish stamps the report and persists it when a run store is wired.
func (p *Pipeline) finish(ctx context.Context, b *reportBuilder) (*domain.RunReport, error) {
	b.report.FinishedAt = time.Now().UTC()

	p.logger.Info("run finished",
		zap.String("run_id", b.report.ID),
		zap.String("kind", string(b.report.Kind)),
		zap.Int("productions", b.report.Productions),
		zap.Int("succeeded", b.report.Succeeded),
		zap.Int("failed", b.report.Failed),
		zap.Int("errors", len(b.report.Errors)),
	)

	if p.runs != nil {
		if err := p.runs.SaveRun(ctx, &b.report); err != nil {
			return &b.report, fmt.Errorf("save run report: %w", err)
		}
	}
	return &b.report, nil
}

// forEachProduction fans work out over the bounded pool, one goroutine
// per production id. Workers isolate their own failures; the group error
// is reserved for context cancellation.
func (p *Pipeline) forEachProduction(ctx context.Context, ids []string, work func(ctx context.Context, id string)) error {
	g, groupCtx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)

	for _, id := range ids {
		g.Go(func() error {
			// Cancellation happens between productions, never mid-shard.
			if err := groupCtx.Err(); err != nil {
				return err
			}
			work(groupCtx, id)
			return nil
		})
	}
	return g.Wait()
}
