package domain

import "time"

// RunKind identifies which pipeline stage a batch run executed.
type RunKind string

// Pipeline run kinds.
const (
	RunIngest    RunKind = "ingest"
	RunScore     RunKind = "score"
	RunReconcile RunKind = "reconcile"
	RunRebuild   RunKind = "rebuild"
)

// RunError is one isolated per-review or per-production failure captured
// during a run. Errors are reported, never silently swallowed, and never
// abort the run they occurred in.
type RunError struct {
	ProductionID string `json:"production_id"`
	ReviewKey    string `json:"review_key,omitempty"`
	Stage        string `json:"stage"`
	Message      string `json:"message"`
}

// ParkedEvidence is a raw evidence record that could not be canonicalized,
// held for the manual-correction workflow rather than dropped.
type ParkedEvidence struct {
	Evidence RawEvidence `json:"evidence"`
	Reason   string      `json:"reason"`
}

// RunReport is the structured outcome of one batch run: what was
// processed, what failed, and every finding the manual workflows need.
type RunReport struct {
	// ID is the unique run identifier.
	ID string `json:"id"`

	// Kind is the pipeline stage that ran.
	Kind RunKind `json:"kind"`

	// StartedAt and FinishedAt bound the run.
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	// Productions is how many productions the run touched.
	Productions int `json:"productions"`

	// Succeeded and Failed count per-production outcomes.
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`

	// Errors lists isolated failures.
	Errors []RunError `json:"errors,omitempty"`

	// Duplicates lists candidate-duplicate identity findings queued for
	// manual merge decisions.
	Duplicates []CandidateDuplicate `json:"duplicates,omitempty"`

	// Parked lists evidence records held back as unresolvable.
	Parked []ParkedEvidence `json:"parked,omitempty"`

	// Reconciliation holds per-source results for reconcile runs.
	Reconciliation []ReconciliationResult `json:"reconciliation,omitempty"`
}
