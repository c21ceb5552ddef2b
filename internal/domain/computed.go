package domain

// ConfidenceLevel labels how trustworthy a production's composite score is,
// based on review volume and tier-1 coverage.
type ConfidenceLevel string

// Confidence levels.
const (
	ConfidenceHigh   ConfidenceLevel = "high"
	ConfidenceMedium ConfidenceLevel = "medium"
	ConfidenceLow    ConfidenceLevel = "low"

	// ConfidencePending marks productions whose score must not surface
	// publicly: still in previews, or fewer than MinPublicReviews reviews.
	ConfidencePending ConfidenceLevel = "pending"
)

// Confidence classification thresholds.
const (
	// HighReviewFloor and HighTier1Floor gate the high-confidence label.
	HighReviewFloor = 15
	HighTier1Floor  = 3

	// MediumReviewFloor and MediumTier1Floor gate the medium label.
	MediumReviewFloor = 6
	MediumTier1Floor  = 1

	// MinPublicReviews is the under-coverage guard: below this count a
	// composite is computed internally but never surfaced publicly.
	MinPublicReviews = 5
)

// ComputedProduction is the output view for one production: the composite
// score with its supporting statistics and confidence label. Recomputed on
// every rebuild, never edited in place.
type ComputedProduction struct {
	// ProductionID identifies the production.
	ProductionID string `json:"production_id"`

	// Title is carried from the production for downstream rendering.
	Title string `json:"title"`

	// CompositeScore is the published score: the tier-weighted average.
	CompositeScore float64 `json:"composite_score"`

	// SimpleAverage is the unweighted arithmetic mean of review scores.
	SimpleAverage float64 `json:"simple_average"`

	// WeightedAverage is the tier-weighted mean of review scores.
	WeightedAverage float64 `json:"weighted_average"`

	// ReviewCount is the number of rated reviews that contributed.
	ReviewCount int `json:"review_count"`

	// Tier1Count is how many contributing reviews came from tier-1 outlets.
	Tier1Count int `json:"tier1_count"`

	// Confidence labels the trustworthiness of the composite.
	Confidence ConfidenceLevel `json:"confidence"`
}

// Public reports whether the composite score may be surfaced downstream.
func (c ComputedProduction) Public() bool { return c.Confidence != ConfidencePending }

// SiteAggregate is the site-wide composite document: one computed record
// per production, sorted by production id. It is fully replaced on each
// successful rebuild and deliberately carries no timestamp, so rebuilding
// unchanged shards yields byte-identical output.
type SiteAggregate struct {
	// Productions holds one computed record per production, sorted by id.
	Productions []ComputedProduction `json:"productions"`
}
