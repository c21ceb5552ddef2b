// Package ensemble scores reviews that carry no usable explicit rating by
// querying several independent classifier models and resolving their votes
// through an explicit consensus protocol.
//
// Individual model outputs are non-deterministic; the consensus rules
// exist specifically to keep the pipeline's observable output stable and
// auditable despite that. Tests inject fixed model outputs rather than
// live models.
package ensemble

import "github.com/showscore/marquee/internal/domain"

// BucketBandWidth is the symmetric band around each sentiment anchor that
// a model's numeric score must fall within once it has committed to a
// bucket. The anchors are fixed upstream; the band width is an
// implementation decision documented in DESIGN.md.
const BucketBandWidth = 6

// bucketAnchors fixes the center score of each coarse ensemble bucket.
// These match the single-value sentiment mapping used by the normalizer.
var bucketAnchors = map[domain.SentimentBucket]int{
	domain.BucketRave:     90,
	domain.BucketPositive: 82,
	domain.BucketMixed:    65,
	domain.BucketNegative: 48,
	domain.BucketPan:      30,
}

// ValidBucket reports whether a bucket is one of the five coarse buckets a
// classifier model may commit to.
func ValidBucket(bucket domain.SentimentBucket) bool {
	_, ok := bucketAnchors[bucket]
	return ok
}

// Band returns the inclusive numeric range for a bucket, clamped to the
// 0-100 scale. The second return is false for buckets outside the coarse
// ensemble set.
func Band(bucket domain.SentimentBucket) (lo, hi int, ok bool) {
	anchor, ok := bucketAnchors[bucket]
	if !ok {
		return 0, 0, false
	}
	lo, hi = anchor-BucketBandWidth, anchor+BucketBandWidth
	if lo < 0 {
		lo = 0
	}
	if hi > 100 {
		hi = 100
	}
	return lo, hi, true
}

// ClampToBand constrains a model's score to its committed bucket's band.
// Out-of-band scores are pulled to the nearest band edge rather than
// rejected, keeping the vote usable while preserving bucket-first
// semantics.
func ClampToBand(bucket domain.SentimentBucket, score float64) float64 {
	lo, hi, ok := Band(bucket)
	if !ok {
		return score
	}
	if score < float64(lo) {
		return float64(lo)
	}
	if score > float64(hi) {
		return float64(hi)
	}
	return score
}
