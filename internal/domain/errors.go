package domain

import (
	"errors"
	"fmt"
)

// Common domain errors surfaced by the pipeline. Per-review and
// per-production errors are isolated and reported; they never abort a run.
var (
	// ErrUnrecognizedFormat indicates a rating string does not match its
	// declared format. Normalization aborts for that single review.
	ErrUnrecognizedFormat = errors.New("unrecognized rating format")

	// ErrUnknownOutlet indicates an outlet name could not be resolved to a
	// known outlet. The review is parked, not silently dropped.
	ErrUnknownOutlet = errors.New("unknown outlet")

	// ErrEnsembleUnavailable indicates no classifier model responded. The
	// review remains unrated and is retried on the next run.
	ErrEnsembleUnavailable = errors.New("no ensemble model responded")

	// ErrRebuildConflict indicates a rebuild was attempted while another
	// was in progress. The later attempt fails fast rather than racing.
	ErrRebuildConflict = errors.New("rebuild already in progress")

	// ErrShardNotFound indicates no canonical shard exists for a
	// production id.
	ErrShardNotFound = errors.New("shard not found")

	// ErrInvalidScore indicates a score outside the 0-100 scale.
	ErrInvalidScore = errors.New("score outside 0-100 range")
)

// FormatError reports a rating string that failed normalization under its
// declared format. It wraps ErrUnrecognizedFormat so callers can branch on
// the class while keeping the offending input for the run report.
type FormatError struct {
	// Format is the declared rating format.
	Format RatingFormat

	// Raw is the rating string that failed to parse.
	Raw string

	// Reason describes what made the input unparseable.
	Reason string
}

// Error implements the error interface.
func (e *FormatError) Error() string {
	return fmt.Sprintf("unrecognized %s rating %q: %s", e.Format, e.Raw, e.Reason)
}

// Unwrap classifies every FormatError as ErrUnrecognizedFormat.
func (e *FormatError) Unwrap() error { return ErrUnrecognizedFormat }

// DuplicateKind distinguishes how a candidate duplicate was detected.
type DuplicateKind string

// Candidate duplicate kinds.
const (
	// DuplicateNearName marks two critic names within the edit-distance
	// threshold at the same outlet for the same production.
	DuplicateNearName DuplicateKind = "near_name"

	// DuplicateCrossOutlet marks the same critic slug appearing under two
	// outlet ids for the same production, a possible shared masthead.
	// Outlets can legitimately co-publish different writers, so this is
	// surfaced for manual confirmation, never collapsed automatically.
	DuplicateCrossOutlet DuplicateKind = "cross_outlet"
)

// CandidateDuplicate records a near-duplicate identity finding. The review
// proceeds under its own key; merging requires an explicit manual decision.
type CandidateDuplicate struct {
	// Kind is how the duplicate was detected.
	Kind DuplicateKind `json:"kind"`

	// Key is the identity of the incoming review.
	Key ReviewKey `json:"key"`

	// ExistingKey is the already-canonical identity it resembles.
	ExistingKey ReviewKey `json:"existing_key"`

	// Distance is the edit distance between the critic names for
	// near-name findings; zero for cross-outlet findings.
	Distance int `json:"distance,omitempty"`
}

// String renders the finding for discrepancy reports.
func (d CandidateDuplicate) String() string {
	if d.Kind == DuplicateCrossOutlet {
		return fmt.Sprintf("possible duplicate across outlets: %s vs %s", d.Key, d.ExistingKey)
	}
	return fmt.Sprintf("candidate duplicate (distance %d): %s vs %s", d.Distance, d.Key, d.ExistingKey)
}

// UnknownOutletError reports an outlet name variant that matched neither a
// canonical outlet name nor any alias.
type UnknownOutletError struct {
	// Name is the unresolved outlet name variant.
	Name string

	// ProductionID is the production the review belonged to.
	ProductionID string
}

// Error implements the error interface.
func (e *UnknownOutletError) Error() string {
	return fmt.Sprintf("unknown outlet %q for production %s", e.Name, e.ProductionID)
}

// Unwrap classifies every UnknownOutletError as ErrUnknownOutlet.
func (e *UnknownOutletError) Unwrap() error { return ErrUnknownOutlet }
