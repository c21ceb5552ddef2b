package domain

import "time"

// SourceType identifies an independent aggregator whose snapshots are used
// as evidence during reconciliation. Snapshots are read-only ground truth
// for comparison; they are never merged destructively into canonical
// reviews.
type SourceType string

// Known evidence sources. Direct capture is the pipeline's own scrape feed;
// the others are third-party aggregator snapshots.
const (
	SourceDirect     SourceType = "direct"
	SourceShowScore  SourceType = "show_score"
	SourceDidTheyLik SourceType = "did_they_like_it"
	SourceCurtainUp  SourceType = "curtain_critic"
)

// SourceEntry is one aggregator's record of a single review: which critic
// at which outlet, their thumb, and optionally an excerpt and score.
// Outlet and critic are raw name variants as the aggregator published them.
type SourceEntry struct {
	// Outlet is the outlet name as the aggregator printed it.
	Outlet string `json:"outlet"`

	// Critic is the critic name as the aggregator printed it.
	Critic string `json:"critic"`

	// Polarity is the aggregator's own favorability label.
	Polarity Polarity `json:"polarity"`

	// Excerpt is a pull quote from the review, when captured.
	Excerpt string `json:"excerpt,omitempty"`

	// Score is the aggregator's numeric score, when it publishes one.
	Score *int `json:"score,omitempty"`
}

// ReviewSource is one aggregator's independently captured snapshot of a
// production's coverage at a point in time.
type ReviewSource struct {
	// SourceType identifies the aggregator.
	SourceType SourceType `json:"source_type"`

	// ProductionID is the production this snapshot covers.
	ProductionID string `json:"production_id"`

	// FetchedAt is when the snapshot was captured.
	FetchedAt time.Time `json:"fetched_at"`

	// Entries lists the reviews the aggregator knows about.
	Entries []SourceEntry `json:"entries"`
}

// RawEvidence is one already-extracted raw review record handed to the
// pipeline by an acquisition collaborator. Names and ratings arrive in
// whatever vocabulary the source used; the identity resolver and rating
// normalizer turn the record into a canonical review.
type RawEvidence struct {
	ProductionID string       `json:"production_id"`
	OutletName   string       `json:"outlet_name_raw"`
	CriticName   string       `json:"critic_name_raw"`
	RatingRaw    string       `json:"rating_raw"`
	RatingFormat RatingFormat `json:"rating_format"`
	Designation  string       `json:"designation,omitempty"`
	Excerpt      string       `json:"excerpt,omitempty"`
	URL          string       `json:"url,omitempty"`
	PublishDate  *time.Time   `json:"publish_date,omitempty"`
	SourceType   SourceType   `json:"source_type"`
}
