// Package rebuild implements the single-writer site-wide rebuild: read
// every canonical shard, recompute every composite, and atomically
// replace the site aggregate.
package rebuild

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/showscore/marquee/internal/aggregate"
	"github.com/showscore/marquee/internal/domain"
	"github.com/showscore/marquee/internal/ports"
)

// Coordinator owns the rebuild lifecycle. Rebuilds are exclusive: a
// second attempt while one is running fails fast with
// domain.ErrRebuildConflict instead of queueing or racing.
type Coordinator struct {
	shards    ports.ShardStore
	aggregate ports.AggregateStore
	runs      ports.RunStore
	metrics   ports.MetricsCollector
	logger    *zap.Logger
}

// New creates a Coordinator.
func New(
	shards ports.ShardStore,
	aggregateStore ports.AggregateStore,
	runs ports.RunStore,
	metrics ports.MetricsCollector,
	logger *zap.Logger,
) (*Coordinator, error) {
	if shards == nil {
		return nil, fmt.Errorf("shard store is required")
	}
	if aggregateStore == nil {
		return nil, fmt.Errorf("aggregate store is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{
		shards:    shards,
		aggregate: aggregateStore,
		runs:      runs,
		metrics:   metrics,
		logger:    logger,
	}, nil
}

// Rebuild recomputes the full site aggregate from the canonical shards
// and replaces the stored document atomically. The rebuild is a pure
// function of shard state: rebuilding unchanged shards produces a
// byte-identical document. Any failure leaves the previous aggregate
// intact.
func (c *Coordinator) Rebuild(ctx context.Context) (*domain.RunReport, error) {
	started := time.Now()
	runID := uuid.New().String()

	release, err := c.aggregate.AcquireRebuildLock(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("acquire rebuild lock: %w", err)
	}
	defer func() {
		if releaseErr := release(); releaseErr != nil {
			c.logger.Error("release rebuild lock", zap.Error(releaseErr))
		}
	}()

	report := &domain.RunReport{
		ID:        runID,
		Kind:      domain.RunRebuild,
		StartedAt: started.UTC(),
	}

	doc, err := c.buildAggregate(ctx, report)
	if err != nil {
		return nil, err
	}

	if err := c.aggregate.ReplaceAggregate(ctx, doc); err != nil {
		return nil, fmt.Errorf("replace aggregate: %w", err)
	}

	report.FinishedAt = time.Now().UTC()
	if c.metrics != nil {
		c.metrics.RecordLatency("rebuild", time.Since(started), nil)
		c.metrics.RecordGauge("productions_aggregated", float64(report.Succeeded), nil)
	}
	c.logger.Info("rebuild finished",
		zap.String("run_id", runID),
		zap.Int("productions", report.Productions),
		zap.Int("failed", report.Failed),
		zap.Int("bytes", len(doc)),
	)

	if c.runs != nil {
		if err := c.runs.SaveRun(ctx, report); err != nil {
			return report, fmt.Errorf("save run report: %w", err)
		}
	}
	return report, nil
}

// buildAggregate computes the deterministic aggregate document. A shard
// that fails to compute is reported and excluded; the rebuild itself
// proceeds so one corrupt shard cannot hold the whole site hostage.
func (c *Coordinator) buildAggregate(ctx context.Context, report *domain.RunReport) ([]byte, error) {
	ids, err := c.shards.ListProductionIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list productions: %w", err)
	}
	sort.Strings(ids)

	site := domain.SiteAggregate{Productions: make([]domain.ComputedProduction, 0, len(ids))}
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		report.Productions++

		shard, err := c.shards.GetShard(ctx, id)
		if err != nil {
			report.Failed++
			report.Errors = append(report.Errors, domain.RunError{
				ProductionID: id, Stage: "load_shard", Message: err.Error(),
			})
			continue
		}

		computed, err := aggregate.Compute(shard)
		if err != nil {
			report.Failed++
			report.Errors = append(report.Errors, domain.RunError{
				ProductionID: id, Stage: "aggregate", Message: err.Error(),
			})
			continue
		}

		site.Productions = append(site.Productions, computed)
		report.Succeeded++
	}

	// Productions are already appended in sorted id order; the document
	// therefore serializes identically for identical shard state.
	doc, err := json.Marshal(site)
	if err != nil {
		return nil, fmt.Errorf("marshal aggregate: %w", err)
	}
	return doc, nil
}

// CurrentAggregate decodes the stored site aggregate, or returns nil
// when no rebuild has completed yet.
func (c *Coordinator) CurrentAggregate(ctx context.Context) (*domain.SiteAggregate, error) {
	doc, err := c.aggregate.GetAggregate(ctx)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, nil
	}
	var site domain.SiteAggregate
	if err := json.Unmarshal(doc, &site); err != nil {
		return nil, fmt.Errorf("decode aggregate: %w", err)
	}
	return &site, nil
}
