// Package reconcile cross-checks canonical review shards against each
// aggregator's independently captured evidence, classifying coverage gaps
// and polarity conflicts. Reconciliation reports; it never mutates
// canonical data.
package reconcile

import (
	"context"
	"sort"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/showscore/marquee/internal/domain"
	"github.com/showscore/marquee/internal/identity"
)

// Sparse-source heuristic defaults. A source reporting materially fewer
// reviews than canonical for an older production is a coverage gap, not an
// error: older productions are under-archived by newer aggregators by
// construction.
const (
	// DefaultSparseRatio is the fraction of canonical coverage below which
	// a source is considered materially thinner.
	DefaultSparseRatio = 0.5

	// DefaultSparseAge is how old a production must be before thin source
	// coverage is excused as an archival gap.
	DefaultSparseAge = 180 * 24 * time.Hour
)

// Engine reconciles canonical shards against aggregator snapshots.
// The engine is immutable after construction and safe for concurrent use.
type Engine struct {
	resolver    *identity.Resolver
	sparseRatio float64
	sparseAge   time.Duration
	tracer      trace.Tracer
}

// NewEngine creates a reconciliation engine over the outlet reference set.
// Non-positive heuristic parameters fall back to the defaults.
func NewEngine(resolver *identity.Resolver, sparseRatio float64, sparseAge time.Duration) *Engine {
	if sparseRatio <= 0 {
		sparseRatio = DefaultSparseRatio
	}
	if sparseAge <= 0 {
		sparseAge = DefaultSparseAge
	}
	return &Engine{
		resolver:    resolver,
		sparseRatio: sparseRatio,
		sparseAge:   sparseAge,
		tracer:      otel.Tracer("reconcile-engine"),
	}
}

// Reconcile compares one production's canonical review set against every
// provided snapshot, producing one result per source. The two set
// differences are disjoint by construction and together cover every
// coverage key present in exactly one of the two sets.
func (e *Engine) Reconcile(ctx context.Context, shard *domain.ReviewShard, sources []domain.ReviewSource) []domain.ReconciliationResult {
	_, span := e.tracer.Start(ctx, "Engine.Reconcile",
		trace.WithAttributes(
			attribute.String("production.id", shard.Production.ID),
			attribute.Int("sources.count", len(sources)),
		),
	)
	defer span.End()

	canonical := make(map[domain.CoverageKey]*domain.Review, len(shard.Reviews))
	for i := range shard.Reviews {
		canonical[shard.Reviews[i].Key.Coverage()] = &shard.Reviews[i]
	}

	// Pre-resolve every source's coverage once; the severity rules need
	// each source's view of every shared key.
	sourceViews := make([]map[domain.CoverageKey]domain.Polarity, len(sources))
	for i, src := range sources {
		sourceViews[i] = e.coverageView(src)
	}

	now := time.Now().UTC()
	results := make([]domain.ReconciliationResult, 0, len(sources))
	for i, src := range sources {
		result := e.reconcileSource(shard, src, canonical, sourceViews, i)
		result.RunAt = now
		results = append(results, result)
	}

	span.SetAttributes(attribute.Int("results.count", len(results)))
	return results
}

// reconcileSource diffs canonical coverage against one source and checks
// polarity agreement on the shared keys.
func (e *Engine) reconcileSource(
	shard *domain.ReviewShard,
	src domain.ReviewSource,
	canonical map[domain.CoverageKey]*domain.Review,
	sourceViews []map[domain.CoverageKey]domain.Polarity,
	selfIdx int,
) domain.ReconciliationResult {
	result := domain.ReconciliationResult{
		ProductionID: shard.Production.ID,
		SourceType:   src.SourceType,
	}
	view := sourceViews[selfIdx]

	for key := range canonical {
		if _, reported := view[key]; !reported {
			result.MissingFromSource = append(result.MissingFromSource, key)
		}
	}
	for key := range view {
		if _, known := canonical[key]; !known {
			result.NotYetAdded = append(result.NotYetAdded, key)
		}
	}
	sortCoverage(result.MissingFromSource)
	sortCoverage(result.NotYetAdded)

	for key, sourcePolarity := range view {
		review, known := canonical[key]
		if !known || review.Unrated || sourcePolarity == "" {
			continue
		}

		canonicalPolarity := domain.PolarityForScore(review.Score)
		if sourcePolarity == canonicalPolarity {
			continue
		}

		conflict := domain.PolarityConflict{
			Key:               review.Key,
			SourcePolarity:    sourcePolarity,
			CanonicalPolarity: canonicalPolarity,
		}
		conflict.Corroborating, conflict.Dissenting = tallyOthers(sourceViews, selfIdx, key, canonicalPolarity)
		conflict.Severity = severity(conflict.Corroborating, conflict.Dissenting)
		result.Conflicts = append(result.Conflicts, conflict)
	}
	sort.Slice(result.Conflicts, func(i, j int) bool {
		return result.Conflicts[i].Key.String() < result.Conflicts[j].Key.String()
	})

	result.CoverageGap = e.isSparse(shard, src, len(view), len(canonical))
	return result
}

// coverageView resolves a snapshot's raw entries into coverage keys with
// the aggregator's polarity. Entries whose outlet cannot be resolved keep
// a slugged placeholder key so the gap still surfaces in the report
// instead of being silently dropped.
func (e *Engine) coverageView(src domain.ReviewSource) map[domain.CoverageKey]domain.Polarity {
	view := make(map[domain.CoverageKey]domain.Polarity, len(src.Entries))
	for _, entry := range src.Entries {
		outletID := "?" + identity.CriticSlug(entry.Outlet)
		if outlet, err := e.resolver.ResolveOutlet(entry.Outlet, src.ProductionID); err == nil {
			outletID = outlet.ID
		}

		key := domain.CoverageKey{
			OutletID:   outletID,
			CriticSlug: identity.CriticSlug(entry.Critic),
		}
		view[key] = entry.Polarity
	}
	return view
}

// tallyOthers counts how the other sources reporting this key line up
// against the canonical polarity.
func tallyOthers(views []map[domain.CoverageKey]domain.Polarity, selfIdx int, key domain.CoverageKey, canonical domain.Polarity) (agree, disagree int) {
	// The disagreeing source under examination counts as one dissent.
	disagree = 1
	for i, view := range views {
		if i == selfIdx {
			continue
		}
		polarity, reported := view[key]
		if !reported || polarity == "" {
			continue
		}
		if polarity == canonical {
			agree++
		} else {
			disagree++
		}
	}
	return agree, disagree
}

// severity classifies a polarity conflict: when the other independent
// sources corroborate canonical, the lone dissenting source's field is
// suspect; when a majority of sources dissent, the canonical score itself
// is flagged for review.
func severity(corroborating, dissenting int) domain.MismatchSeverity {
	switch {
	case dissenting >= 2:
		return domain.SeverityCanonicalSuspect
	case corroborating >= 2:
		return domain.SeveritySourceError
	default:
		return domain.SeverityUnconfirmed
	}
}

// isSparse applies the coverage-gap heuristic.
func (e *Engine) isSparse(shard *domain.ReviewShard, src domain.ReviewSource, sourceCount, canonicalCount int) bool {
	if canonicalCount == 0 {
		return false
	}
	thin := float64(sourceCount) < e.sparseRatio*float64(canonicalCount)
	old := shard.Production.AgeAt(src.FetchedAt) > e.sparseAge
	return thin && old
}

func sortCoverage(keys []domain.CoverageKey) {
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].OutletID != keys[j].OutletID {
			return keys[i].OutletID < keys[j].OutletID
		}
		return keys[i].CriticSlug < keys[j].CriticSlug
	})
}
