package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/showscore/marquee/internal/domain"
)

// Reconcile compares each production's canonical shard against every
// stored aggregator snapshot and collects the discrepancy findings into
// the run report. Reconciliation only reads: findings feed the manual
// correction workflow and are never applied to shards automatically.
func (p *Pipeline) Reconcile(ctx context.Context, productionIDs []string) (*domain.RunReport, error) {
	if p.engine == nil {
		return nil, fmt.Errorf("no reconciliation engine configured")
	}
	if p.sources == nil {
		return nil, fmt.Errorf("no source store configured")
	}

	started := time.Now()
	builder := newReportBuilder(domain.RunReconcile)

	ids, err := p.targetProductions(ctx, productionIDs)
	if err != nil {
		return nil, err
	}

	runErr := p.forEachProduction(ctx, ids, func(ctx context.Context, id string) {
		builder.productionDone(p.reconcileProduction(ctx, id, builder))
	})

	if p.metrics != nil {
		p.metrics.RecordLatency("reconcile", time.Since(started), nil)
	}

	report, finishErr := p.finish(ctx, builder)
	if runErr != nil {
		return report, runErr
	}
	return report, finishErr
}

func (p *Pipeline) reconcileProduction(ctx context.Context, productionID string, builder *reportBuilder) bool {
	shard, err := p.shards.GetShard(ctx, productionID)
	if err != nil {
		builder.addError(productionID, "", "load_shard", err)
		return false
	}

	snapshots, err := p.sources.ListSnapshots(ctx, productionID)
	if err != nil {
		builder.addError(productionID, "", "load_snapshots", err)
		return false
	}
	if len(snapshots) == 0 {
		return true
	}

	results := p.engine.Reconcile(ctx, shard, snapshots)
	builder.addReconciliation(results)

	if p.metrics != nil {
		for _, result := range results {
			p.metrics.RecordCounter("discrepancies", float64(len(result.Conflicts)),
				map[string]string{"kind": "polarity_conflict"})
			p.metrics.RecordCounter("discrepancies", float64(len(result.MissingFromSource)),
				map[string]string{"kind": "missing_from_source"})
			p.metrics.RecordCounter("discrepancies", float64(len(result.NotYetAdded)),
				map[string]string{"kind": "not_yet_added"})
		}
	}

	p.logger.Debug("production reconciled",
		zap.String("production_id", productionID),
		zap.Int("sources", len(snapshots)),
	)
	return true
}
