package domain

import "time"

// MismatchSeverity classifies a polarity disagreement between an
// aggregator's recorded thumb and the thumb implied by the canonical
// normalized score.
type MismatchSeverity string

// Polarity mismatch severities.
const (
	// SeveritySourceError means the other independent sources agree with
	// the canonical polarity, so the disagreeing source's field is suspect.
	SeveritySourceError MismatchSeverity = "source_error"

	// SeverityCanonicalSuspect means canonical disagrees with a majority of
	// the independent sources, so the canonical score should be reviewed.
	SeverityCanonicalSuspect MismatchSeverity = "canonical_suspect"

	// SeverityUnconfirmed means too few other sources report the review to
	// corroborate either side.
	SeverityUnconfirmed MismatchSeverity = "unconfirmed"
)

// PolarityConflict records one polarity disagreement found during
// reconciliation. Conflicts are logged for the manual-correction workflow
// and never auto-corrected.
type PolarityConflict struct {
	// Key identifies the disputed review.
	Key ReviewKey `json:"key"`

	// SourcePolarity is what the aggregator recorded.
	SourcePolarity Polarity `json:"source_polarity"`

	// CanonicalPolarity is what the canonical normalized score implies.
	CanonicalPolarity Polarity `json:"canonical_polarity"`

	// Severity classifies which side is suspect.
	Severity MismatchSeverity `json:"severity"`

	// Corroborating counts how many other sources report this review and
	// agree with the canonical polarity.
	Corroborating int `json:"corroborating"`

	// Dissenting counts how many other sources report this review and
	// disagree with the canonical polarity.
	Dissenting int `json:"dissenting"`
}

// ReconciliationResult is the per-(production, source) outcome of one
// reconciliation run. Results are ephemeral: recomputed each run, never a
// source of truth.
type ReconciliationResult struct {
	// ProductionID is the production that was reconciled.
	ProductionID string `json:"production_id"`

	// SourceType is the aggregator the canonical set was compared against.
	SourceType SourceType `json:"source_type"`

	// MissingFromSource lists coverage present canonically but absent from
	// the source. Informational; expected for sparse older sources.
	MissingFromSource []CoverageKey `json:"missing_from_source,omitempty"`

	// NotYetAdded lists coverage the source reports that has not been
	// canonicalized. This is the actionable gap.
	NotYetAdded []CoverageKey `json:"not_yet_added,omitempty"`

	// Conflicts lists polarity disagreements on shared coverage.
	Conflicts []PolarityConflict `json:"conflicts,omitempty"`

	// CoverageGap marks a sparse source: materially fewer reviews than
	// canonical for an older production. Downgrades MissingFromSource from
	// a discrepancy to an expected archival gap.
	CoverageGap bool `json:"coverage_gap"`

	// RunAt is when this reconciliation executed.
	RunAt time.Time `json:"run_at"`
}

// Clean reports whether the result surfaced nothing actionable.
func (r ReconciliationResult) Clean() bool {
	return len(r.NotYetAdded) == 0 && len(r.Conflicts) == 0
}
