// Package ports defines the interfaces between the pipeline core and its
// infrastructure adapters: classifier models, the document store, and
// metrics. Implementations live under infrastructure/.
package ports

import (
	"context"
	"time"

	"github.com/showscore/marquee/internal/domain"
)

// ClassifierModel is one independent sentiment classifier in the ensemble.
// Implementations handle provider-specific authentication, request
// formatting, and response parsing, and must honor context cancellation.
type ClassifierModel interface {
	// Classify performs bucket-first classification of a review excerpt:
	// the model commits to exactly one sentiment bucket, then emits a
	// numeric score constrained to that bucket's band, plus a confidence.
	// Model outputs are non-deterministic; the ensemble consensus protocol
	// is responsible for making the pipeline's output stable regardless.
	Classify(ctx context.Context, excerpt string) (domain.EnsembleVote, error)

	// Model returns the model identifier, used in votes and logs.
	Model() string
}

// ShardStore persists canonical per-production review shards. Shards are
// disjoint, so independent jobs may write different productions' shards in
// parallel with no coordination. A shard write is atomic with
// replace-whole-document semantics; partial shard writes must never be
// observable.
type ShardStore interface {
	// GetShard loads the canonical shard for a production.
	// Returns domain.ErrShardNotFound when none exists.
	GetShard(ctx context.Context, productionID string) (*domain.ReviewShard, error)

	// PutShard atomically replaces the canonical shard for the shard's
	// production id, creating it if absent.
	PutShard(ctx context.Context, shard *domain.ReviewShard) error

	// ListProductionIDs returns every production id with a shard, sorted.
	ListProductionIDs(ctx context.Context) ([]string, error)
}

// SourceStore persists aggregator evidence snapshots, one per
// (source, production). Snapshots are read-only ground truth for
// reconciliation and are only ever replaced whole by fresh captures.
type SourceStore interface {
	// PutSnapshot replaces the snapshot for its (source, production) pair.
	PutSnapshot(ctx context.Context, src *domain.ReviewSource) error

	// ListSnapshots returns every stored snapshot for a production,
	// ordered by source type.
	ListSnapshots(ctx context.Context, productionID string) ([]domain.ReviewSource, error)
}

// AggregateStore persists the single site-wide aggregate document. The
// rebuild coordinator is the only permitted writer; the advisory lock
// enforces one rebuild at a time.
type AggregateStore interface {
	// ReplaceAggregate atomically replaces the aggregate document.
	// The previous document must remain intact if the write fails.
	ReplaceAggregate(ctx context.Context, doc []byte) error

	// GetAggregate returns the current aggregate document, or nil when no
	// rebuild has completed yet.
	GetAggregate(ctx context.Context) ([]byte, error)

	// AcquireRebuildLock takes the exclusive advisory rebuild lock.
	// It returns domain.ErrRebuildConflict without blocking when another
	// holder exists. The returned release function must be called exactly
	// once.
	AcquireRebuildLock(ctx context.Context, owner string) (release func() error, err error)
}

// RunStore persists structured run reports for the status surface.
type RunStore interface {
	// SaveRun persists a completed run report.
	SaveRun(ctx context.Context, report *domain.RunReport) error

	// ListRuns returns the most recent run reports, newest first.
	ListRuns(ctx context.Context, limit int) ([]domain.RunReport, error)
}

// MetricsCollector records operational metrics. Implementations integrate
// with observability platforms like Prometheus.
type MetricsCollector interface {
	// RecordLatency records the execution time of an operation.
	RecordLatency(operation string, duration time.Duration, labels map[string]string)

	// RecordCounter increments a counter metric.
	RecordCounter(metric string, value float64, labels map[string]string)

	// RecordGauge sets the current value of a gauge metric.
	RecordGauge(metric string, value float64, labels map[string]string)
}
