package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/showscore/marquee/internal/domain"
)

// Score runs the ensemble sentiment scorer over every unrated review
// that carries an excerpt, filling in scores for outlets that publish
// no explicit rating.
//
// Model failures degrade per review: a review whose ensemble produced
// no usable vote stays unrated and is reported, while the rest of the
// production scores normally. Rescoring replaces any previous ensemble
// outcome rather than appending to it.
func (p *Pipeline) Score(ctx context.Context, productionIDs []string) (*domain.RunReport, error) {
	if p.scorer == nil {
		return nil, fmt.Errorf("no ensemble scorer configured")
	}

	started := time.Now()
	builder := newReportBuilder(domain.RunScore)

	ids, err := p.targetProductions(ctx, productionIDs)
	if err != nil {
		return nil, err
	}

	runErr := p.forEachProduction(ctx, ids, func(ctx context.Context, id string) {
		builder.productionDone(p.scoreProduction(ctx, id, builder))
	})

	if p.metrics != nil {
		p.metrics.RecordLatency("score", time.Since(started), nil)
	}

	report, finishErr := p.finish(ctx, builder)
	if runErr != nil {
		return report, runErr
	}
	return report, finishErr
}

// scoreProduction fills ensemble scores into one shard. The shard is
// written back only when at least one review changed.
func (p *Pipeline) scoreProduction(ctx context.Context, productionID string, builder *reportBuilder) bool {
	shard, err := p.shards.GetShard(ctx, productionID)
	if err != nil {
		builder.addError(productionID, "", "load_shard", err)
		return false
	}

	changed := 0
	for i := range shard.Reviews {
		review := &shard.Reviews[i]
		if !review.Unrated {
			continue
		}
		if review.Excerpt == "" {
			builder.addError(productionID, review.Key.String(), "score",
				fmt.Errorf("unrated review has no excerpt to classify"))
			continue
		}

		outcome, err := p.scorer.Score(ctx, review.Excerpt)
		if err != nil {
			if errors.Is(err, domain.ErrEnsembleUnavailable) {
				// All models failed for this review; it stays unrated
				// and the next score run retries it.
				builder.addError(productionID, review.Key.String(), "score", err)
				continue
			}
			builder.addError(productionID, review.Key.String(), "score", err)
			continue
		}

		review.Score = outcome.Score
		review.Polarity = domain.PolarityForScore(outcome.Score)
		review.Bucket = outcome.Bucket
		review.Ensemble = &outcome
		review.Unrated = false
		review.UpdatedAt = time.Now().UTC()
		changed++
	}

	if changed == 0 {
		return true
	}

	shard.UpdatedAt = time.Now().UTC()
	if err := p.shards.PutShard(ctx, shard); err != nil {
		builder.addError(productionID, "", "put_shard", err)
		return false
	}

	p.logger.Debug("production scored",
		zap.String("production_id", productionID),
		zap.Int("scored", changed),
	)
	return true
}

// targetProductions resolves which productions a run covers: the
// explicit list when given, otherwise every production in the store.
func (p *Pipeline) targetProductions(ctx context.Context, ids []string) ([]string, error) {
	if len(ids) > 0 {
		return ids, nil
	}
	all, err := p.shards.ListProductionIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list productions: %w", err)
	}
	return all, nil
}
