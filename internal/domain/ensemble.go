package domain

import "time"

// EnsembleVote is a single classifier model's opinion of one unrated
// review: the sentiment bucket it committed to, a numeric score inside
// that bucket's band, and the model's self-reported confidence.
type EnsembleVote struct {
	// Model identifies the classifier that produced this vote.
	Model string `json:"model"`

	// Bucket is the coarse sentiment category the model committed to
	// before scoring.
	Bucket SentimentBucket `json:"bucket"`

	// Score is the model's numeric score, constrained to the bucket's band.
	Score float64 `json:"score"`

	// Confidence is the model's self-reported confidence (0.0-1.0).
	Confidence float64 `json:"confidence"`
}

// ConsensusKind records which consensus rule resolved an ensemble outcome.
type ConsensusKind string

// Consensus outcomes, from strongest to weakest.
const (
	// ConsensusUnanimous means every returning model chose the same bucket.
	ConsensusUnanimous ConsensusKind = "unanimous"

	// ConsensusMajority means exactly two of three models agreed; the
	// dissenting vote is recorded but excluded from the score.
	ConsensusMajority ConsensusKind = "majority"

	// ConsensusMedian means no bucket agreement existed and the final
	// score fell back to the median of all returned scores.
	ConsensusMedian ConsensusKind = "median_fallback"

	// ConsensusSingle means only one model responded and its vote passed
	// through with reduced confidence.
	ConsensusSingle ConsensusKind = "single_model"
)

// LLMScore is the resolved consensus outcome for one ensemble-scored
// review. Created once per unrated review per scoring run; superseded, not
// appended, on rescoring.
type LLMScore struct {
	// Score is the final consensus score on the 0-100 scale.
	Score int `json:"score"`

	// Bucket is the winning sentiment bucket, unset for median fallback.
	Bucket SentimentBucket `json:"bucket,omitempty"`

	// Confidence is the calibrated confidence of the outcome (0.0-1.0),
	// strictly ordered unanimous > majority > fallback, and reduced when
	// fewer models responded.
	Confidence float64 `json:"confidence"`

	// Consensus records which rule produced the score.
	Consensus ConsensusKind `json:"consensus"`

	// ModelCount is how many models contributed a usable vote.
	ModelCount int `json:"model_count"`

	// Votes are the contributing votes, in model order.
	Votes []EnsembleVote `json:"votes"`

	// Dissent holds votes excluded from the score by the majority rule.
	Dissent []EnsembleVote `json:"dissent,omitempty"`

	// ScoredAt is when the consensus was computed.
	ScoredAt time.Time `json:"scored_at"`
}
