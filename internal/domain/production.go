// Package domain contains pure, dependency-free domain models and types
// for the review reconciliation and scoring pipeline.
package domain

import "time"

// LifecycleStatus tracks where a production sits in its run, from first
// preview through closing. The pipeline reads it to decide whether a
// production's composite score may be surfaced publicly.
type LifecycleStatus string

// Production lifecycle states, in chronological order.
const (
	// StatusPreviews indicates the production has not yet officially opened.
	// Productions in previews are always reported with pending confidence,
	// regardless of how many reviews have been captured.
	StatusPreviews LifecycleStatus = "previews"

	// StatusOpened indicates the production has officially opened.
	StatusOpened LifecycleStatus = "opened"

	// StatusClosing indicates a closing date has been announced.
	StatusClosing LifecycleStatus = "closing"

	// StatusClosed indicates the production has ended its run.
	StatusClosed LifecycleStatus = "closed"
)

// Production is a tracked theatrical show. Productions are owned by the
// upstream show-management collaborators; this pipeline treats them as
// read-only reference data attached to review shards.
type Production struct {
	// ID is the stable identifier for this production.
	ID string `json:"id"`

	// Title is the display title of the show.
	Title string `json:"title"`

	// Venue names the theater where the production runs.
	Venue string `json:"venue,omitempty"`

	// OpenedAt is the official opening date, if the show has opened.
	OpenedAt *time.Time `json:"opened_at,omitempty"`

	// ClosedAt is the closing date, if announced or passed.
	ClosedAt *time.Time `json:"closed_at,omitempty"`

	// Status is the current lifecycle state.
	Status LifecycleStatus `json:"status"`
}

// InPreviews reports whether the production has not yet opened.
func (p Production) InPreviews() bool { return p.Status == StatusPreviews }

// AgeAt returns how long the production had been open at the given instant.
// It returns zero if the production has no recorded opening date or had not
// yet opened. Reconciliation uses this for the sparse-source heuristic:
// older productions are legitimately under-archived by newer aggregators.
func (p Production) AgeAt(t time.Time) time.Duration {
	if p.OpenedAt == nil || t.Before(*p.OpenedAt) {
		return 0
	}
	return t.Sub(*p.OpenedAt)
}
