package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/showscore/marquee/internal/domain"
	"github.com/showscore/marquee/internal/normalize"
)

// IngestBatch is the raw evidence for one production plus the production
// metadata needed to create its shard on first contact.
type IngestBatch struct {
	Production domain.Production
	Evidence   []domain.RawEvidence
}

// Ingest canonicalizes raw evidence into per-production shards. Each
// record is resolved to its review identity, normalized onto the 0-100
// scale, and upserted into the production's shard; the shard is written
// back once per production.
//
// Failures are isolated per record: unresolvable outlets are parked for
// manual correction, unparseable ratings are reported as errors, and
// neither aborts the batch. Re-ingesting identical evidence is a no-op
// apart from refreshed timestamps.
func (p *Pipeline) Ingest(ctx context.Context, batches []IngestBatch) (*domain.RunReport, error) {
	started := time.Now()
	builder := newReportBuilder(domain.RunIngest)

	// Fan out by production: shards are the unit of write concurrency,
	// so two workers never touch the same shard.
	byID := make(map[string]IngestBatch, len(batches))
	ids := make([]string, 0, len(batches))
	for _, batch := range batches {
		if batch.Production.ID == "" {
			builder.addError("", "", "ingest", fmt.Errorf("batch has no production id"))
			continue
		}
		if existing, ok := byID[batch.Production.ID]; ok {
			existing.Evidence = append(existing.Evidence, batch.Evidence...)
			byID[batch.Production.ID] = existing
			continue
		}
		byID[batch.Production.ID] = batch
		ids = append(ids, batch.Production.ID)
	}
	sort.Strings(ids)

	err := p.forEachProduction(ctx, ids, func(ctx context.Context, id string) {
		builder.productionDone(p.ingestProduction(ctx, byID[id], builder))
	})

	if p.metrics != nil {
		p.metrics.RecordLatency("ingest", time.Since(started), nil)
	}

	report, finishErr := p.finish(ctx, builder)
	if err != nil {
		return report, err
	}
	return report, finishErr
}

// ingestProduction merges one production's evidence into its shard and
// writes the shard back. Returns false when the shard could not be
// loaded or stored; per-record failures alone do not fail the
// production.
func (p *Pipeline) ingestProduction(ctx context.Context, batch IngestBatch, builder *reportBuilder) bool {
	shard, err := p.shards.GetShard(ctx, batch.Production.ID)
	switch {
	case errors.Is(err, domain.ErrShardNotFound):
		shard = &domain.ReviewShard{Production: batch.Production}
	case err != nil:
		builder.addError(batch.Production.ID, "", "load_shard", err)
		return false
	default:
		// Lifecycle metadata follows the freshest evidence.
		shard.Production = batch.Production
	}

	now := time.Now().UTC()
	for _, ev := range batch.Evidence {
		if err := p.ingestEvidence(shard, ev, now, builder); err != nil {
			builder.addError(batch.Production.ID, "", "normalize", err)
		}
	}

	shard.UpdatedAt = now
	if err := p.shards.PutShard(ctx, shard); err != nil {
		builder.addError(batch.Production.ID, "", "put_shard", err)
		return false
	}

	p.logger.Debug("production ingested",
		zap.String("production_id", batch.Production.ID),
		zap.Int("evidence", len(batch.Evidence)),
		zap.Int("reviews", len(shard.Reviews)),
	)
	return true
}

// ingestEvidence resolves and normalizes one raw record into the shard.
func (p *Pipeline) ingestEvidence(shard *domain.ReviewShard, ev domain.RawEvidence, now time.Time, builder *reportBuilder) error {
	key, outlet, err := p.resolver.Resolve(ev)
	if err != nil {
		var unknown *domain.UnknownOutletError
		if errors.As(err, &unknown) {
			builder.addParked(ev, err.Error())
			if p.metrics != nil {
				p.metrics.RecordCounter("evidence_parked", 1, map[string]string{"kind": "unknown_outlet"})
			}
			return nil
		}
		return err
	}

	builder.addDuplicates(p.resolver.DetectDuplicates(shard, key))

	review := shard.FindReview(key)
	if review == nil {
		shard.Reviews = append(shard.Reviews, domain.Review{
			Key:        key,
			CriticName: ev.CriticName,
			Tier:       outlet.Tier,
			Weight:     outlet.Tier.Weight(),
		})
		review = &shard.Reviews[len(shard.Reviews)-1]
	}

	review.RawRating = ev.RatingRaw
	review.Format = ev.RatingFormat
	review.Designation = ev.Designation
	if ev.Excerpt != "" {
		review.Excerpt = ev.Excerpt
	}
	if ev.URL != "" {
		review.URL = ev.URL
	}
	if ev.PublishDate != nil {
		review.PublishDate = ev.PublishDate
	}
	review.AddProvenance(ev.SourceType)
	review.UpdatedAt = now

	if ev.RatingFormat == domain.FormatNone || ev.RatingFormat == "" {
		// No explicit rating: the review waits for the ensemble scorer.
		// An earlier ensemble score, if any, stays in place.
		if review.Ensemble == nil {
			review.Unrated = true
		}
		return nil
	}

	rating, err := normalize.Normalize(ev.RatingRaw, ev.RatingFormat, outlet.MaxScale)
	if err != nil {
		// Keep the raw rating for audit but leave the review unrated
		// rather than guessing a score.
		review.Unrated = review.Ensemble == nil
		return fmt.Errorf("review %s: %w", key, err)
	}

	review.Score = normalize.ApplyDesignation(rating.Score, ev.Designation)
	review.Polarity = domain.PolarityForScore(review.Score)
	review.Bucket = rating.Bucket
	review.Unrated = false
	review.Ensemble = nil // explicit ratings supersede ensemble scores

	if p.metrics != nil {
		p.metrics.RecordCounter("reviews_normalized", 1, map[string]string{"kind": string(ev.RatingFormat)})
	}
	return nil
}

// IngestSnapshots stores aggregator snapshots as reconciliation evidence.
// Snapshots are kept verbatim and never merged into canonical shards.
func (p *Pipeline) IngestSnapshots(ctx context.Context, snapshots []domain.ReviewSource) error {
	if p.sources == nil {
		return fmt.Errorf("no source store configured")
	}
	for _, snapshot := range snapshots {
		if err := p.sources.PutSnapshot(ctx, &snapshot); err != nil {
			return fmt.Errorf("snapshot %s/%s: %w", snapshot.SourceType, snapshot.ProductionID, err)
		}
	}
	return nil
}
