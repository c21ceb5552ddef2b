// Package aggregate combines a production's canonical reviews into simple
// and tier-weighted composite scores with a calibrated confidence label.
package aggregate

import (
	"fmt"
	"math"

	"github.com/showscore/marquee/internal/domain"
)

// Compute produces the composite view for one production from its
// canonical shard. Only rated reviews contribute; unrated reviews (awaiting
// ensemble scoring, or flagged unavailable) are excluded entirely.
//
// Productions below the public-coverage floor still get their composite
// computed internally, but the confidence label is forced to pending so
// the score never surfaces downstream — a deliberate guard against noisy
// small samples. Productions still in previews are pending regardless of
// count.
func Compute(shard *domain.ReviewShard) (domain.ComputedProduction, error) {
	if shard == nil {
		return domain.ComputedProduction{}, fmt.Errorf("nil shard")
	}

	rated := shard.RatedReviews()

	var (
		sum         float64
		weightedSum float64
		weightTotal float64
		tier1Count  int
	)
	for _, review := range rated {
		score := float64(review.Score)
		if math.IsNaN(score) || math.IsInf(score, 0) || review.Score < 0 || review.Score > 100 {
			return domain.ComputedProduction{}, fmt.Errorf("review %s: %w", review.Key, domain.ErrInvalidScore)
		}

		weight := review.Weight
		if weight <= 0 {
			// Reviews normalized before a weight was captured fall back to
			// the tier table rather than dropping out of the composite.
			weight = review.Tier.Weight()
		}

		sum += score
		weightedSum += score * weight
		weightTotal += weight
		if review.Tier == domain.Tier1 {
			tier1Count++
		}
	}

	computed := domain.ComputedProduction{
		ProductionID: shard.Production.ID,
		Title:        shard.Production.Title,
		ReviewCount:  len(rated),
		Tier1Count:   tier1Count,
	}

	if len(rated) > 0 {
		computed.SimpleAverage = round2(sum / float64(len(rated)))
		computed.WeightedAverage = round2(weightedSum / weightTotal)
		computed.CompositeScore = computed.WeightedAverage
	}

	computed.Confidence = classify(shard.Production, len(rated), tier1Count)
	return computed, nil
}

// classify derives the confidence label from review volume and tier-1
// coverage.
func classify(production domain.Production, reviewCount, tier1Count int) domain.ConfidenceLevel {
	// Previews and under-covered productions never surface a score.
	if production.InPreviews() || reviewCount < domain.MinPublicReviews {
		return domain.ConfidencePending
	}

	switch {
	case reviewCount >= domain.HighReviewFloor && tier1Count >= domain.HighTier1Floor:
		return domain.ConfidenceHigh
	case reviewCount >= domain.MediumReviewFloor && tier1Count >= domain.MediumTier1Floor:
		return domain.ConfidenceMedium
	default:
		return domain.ConfidenceLow
	}
}

// round2 rounds to two decimal places so aggregate documents serialize
// identically across rebuilds regardless of summation order.
func round2(v float64) float64 { return math.Round(v*100) / 100 }
