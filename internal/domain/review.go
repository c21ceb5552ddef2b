package domain

import (
	"fmt"
	"sort"
	"time"
)

// Polarity is the three-valued favorability signal summarizing a review:
// up, flat, or down.
type Polarity string

// Polarity values.
const (
	PolarityUp   Polarity = "up"
	PolarityFlat Polarity = "flat"
	PolarityDown Polarity = "down"
)

// Polarity derivation thresholds on the normalized 0-100 scale.
// A score at or above PolarityUpFloor derives an up thumb; at or above
// PolarityFlatFloor a flat thumb; anything lower derives down.
const (
	PolarityUpFloor   = 65
	PolarityFlatFloor = 50
)

// PolarityForScore derives the polarity implied by a normalized score.
// It is used when an aggregator supplies no polarity of its own, and as
// the canonical side of polarity-mismatch validation.
func PolarityForScore(score int) Polarity {
	switch {
	case score >= PolarityUpFloor:
		return PolarityUp
	case score >= PolarityFlatFloor:
		return PolarityFlat
	default:
		return PolarityDown
	}
}

// SentimentBucket is a coarse sentiment category. The normalizer maps
// free-text sentiment labels onto buckets, and the ensemble scorer requires
// each classifier model to commit to a bucket before emitting a score.
type SentimentBucket string

// Sentiment buckets, from most to least favorable. The mixed sub-buckets
// exist only for explicit sentiment labels; ensemble classification uses
// the five coarse buckets (Rave, Positive, Mixed, Negative, Pan).
const (
	BucketRave          SentimentBucket = "rave"
	BucketPositive      SentimentBucket = "positive"
	BucketMixedPositive SentimentBucket = "mixed_positive"
	BucketMixed         SentimentBucket = "mixed"
	BucketMixedNegative SentimentBucket = "mixed_negative"
	BucketNegative      SentimentBucket = "negative"
	BucketPan           SentimentBucket = "pan"
)

// ReviewKey is the canonical identity of a review: one critic's opinion of
// one production published by one outlet. The triple is the primary
// deduplication key and must be unique within a shard.
type ReviewKey struct {
	ProductionID string `json:"production_id"`
	OutletID     string `json:"outlet_id"`
	CriticSlug   string `json:"critic_slug"`
}

// String renders the key in a stable production/outlet/critic form used in
// logs and discrepancy reports.
func (k ReviewKey) String() string {
	return fmt.Sprintf("%s/%s/%s", k.ProductionID, k.OutletID, k.CriticSlug)
}

// CoverageKey is the (outlet, critic) portion of a review identity, used by
// reconciliation to compare canonical coverage against aggregator evidence
// for a single production.
type CoverageKey struct {
	OutletID   string `json:"outlet_id"`
	CriticSlug string `json:"critic_slug"`
}

// Coverage returns the (outlet, critic) portion of the review key.
func (k ReviewKey) Coverage() CoverageKey {
	return CoverageKey{OutletID: k.OutletID, CriticSlug: k.CriticSlug}
}

// Review is the canonical record of one critic's review of one production.
// Tier and weight are copied from the outlet at normalization time so later
// tier edits do not silently rewrite scoring history.
type Review struct {
	// Key is the canonical (production, outlet, critic) identity.
	Key ReviewKey `json:"key"`

	// CriticName is the critic's display name as resolved.
	CriticName string `json:"critic_name"`

	// RawRating preserves the original rating representation for audit.
	RawRating string `json:"raw_rating,omitempty"`

	// Format is the rating format the raw rating was normalized under.
	Format RatingFormat `json:"format"`

	// Score is the normalized 0-100 score. Meaningless when Unrated is set.
	Score int `json:"score"`

	// Polarity is the favorability signal derived from Score.
	Polarity Polarity `json:"polarity"`

	// Bucket is the sentiment bucket, set for sentiment-labeled and
	// ensemble-scored reviews.
	Bucket SentimentBucket `json:"bucket,omitempty"`

	// Designation is an optional editorial designation (e.g. a critic's
	// pick) that granted additive bonus points during normalization.
	Designation string `json:"designation,omitempty"`

	// Tier is the outlet tier captured at normalization time.
	Tier Tier `json:"tier"`

	// Weight is the aggregation multiplier captured at normalization time.
	Weight float64 `json:"weight"`

	// Unrated marks a review that carries no usable score yet: either the
	// ensemble has not run, or no classifier model responded. Unrated
	// reviews are excluded from aggregation.
	Unrated bool `json:"unrated,omitempty"`

	// Ensemble holds the consensus outcome when the score was produced by
	// the ensemble sentiment scorer. Superseded on rescoring, never
	// appended.
	Ensemble *LLMScore `json:"ensemble,omitempty"`

	// Provenance is the sorted set of aggregator source types that
	// corroborate this review.
	Provenance []SourceType `json:"provenance,omitempty"`

	// Excerpt is a short quoted passage from the review, when available.
	Excerpt string `json:"excerpt,omitempty"`

	// URL points at the published review.
	URL string `json:"url,omitempty"`

	// PublishDate is when the review was published, when known.
	PublishDate *time.Time `json:"publish_date,omitempty"`

	// UpdatedAt is when this canonical record last changed.
	UpdatedAt time.Time `json:"updated_at"`
}

// AddProvenance records that the given source corroborates this review,
// keeping the provenance set sorted and free of duplicates so shard
// serialization stays deterministic.
func (r *Review) AddProvenance(src SourceType) {
	for _, existing := range r.Provenance {
		if existing == src {
			return
		}
	}
	r.Provenance = append(r.Provenance, src)
	sort.Slice(r.Provenance, func(i, j int) bool { return r.Provenance[i] < r.Provenance[j] })
}

// ReviewShard is the canonical per-production review document: the single
// source of truth for one production's coverage. Shards are written with
// replace-whole-document semantics and are the unit of write concurrency.
type ReviewShard struct {
	// Production is the show this shard covers.
	Production Production `json:"production"`

	// Reviews are the canonical reviews, sorted by key for deterministic
	// serialization.
	Reviews []Review `json:"reviews"`

	// UpdatedAt is when the shard was last written.
	UpdatedAt time.Time `json:"updated_at"`
}

// SortReviews orders the shard's reviews by (outlet, critic) so repeated
// writes of identical content serialize identically.
func (s *ReviewShard) SortReviews() {
	sort.Slice(s.Reviews, func(i, j int) bool {
		a, b := s.Reviews[i].Key, s.Reviews[j].Key
		if a.OutletID != b.OutletID {
			return a.OutletID < b.OutletID
		}
		return a.CriticSlug < b.CriticSlug
	})
}

// FindReview returns a pointer to the review with the given key, or nil.
func (s *ReviewShard) FindReview(key ReviewKey) *Review {
	for i := range s.Reviews {
		if s.Reviews[i].Key == key {
			return &s.Reviews[i]
		}
	}
	return nil
}

// RatedReviews returns the reviews that carry a usable normalized score.
func (s *ReviewShard) RatedReviews() []Review {
	rated := make([]Review, 0, len(s.Reviews))
	for _, r := range s.Reviews {
		if !r.Unrated {
			rated = append(rated, r)
		}
	}
	return rated
}
