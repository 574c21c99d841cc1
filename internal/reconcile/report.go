package reconcile

import (
	"fmt"
	"time"

	"github.com/iksnae/practice-reconcile/internal"
	"github.com/iksnae/practice-reconcile/internal/match"
)

// ErrorEntry is a per-record failure. The batch continues past it.
type ErrorEntry struct {
	RecordID string        `json:"record_id" yaml:"record_id"`
	Kind     internal.Kind `json:"kind" yaml:"kind"`
	Reason   string        `json:"reason" yaml:"reason"`
}

// UnresolvedEntry is a record left untouched because no confident match exists
type UnresolvedEntry struct {
	RecordID   string        `json:"record_id" yaml:"record_id"`
	Kind       internal.Kind `json:"kind" yaml:"kind"`
	Field      string        `json:"field" yaml:"field"`
	Name       string        `json:"name,omitempty" yaml:"name,omitempty"`
	Reason     string        `json:"reason" yaml:"reason"`
	Candidates []string      `json:"candidates,omitempty" yaml:"candidates,omitempty"`
}

// Change is one single-field write, applied or (in a dry run) planned
type Change struct {
	RecordID string        `json:"record_id" yaml:"record_id"`
	Kind     internal.Kind `json:"kind" yaml:"kind"`
	Field    string        `json:"field" yaml:"field"`
	Value    string        `json:"value" yaml:"value"`
	Previous string        `json:"previous,omitempty" yaml:"previous,omitempty"`
	Strategy string        `json:"strategy,omitempty" yaml:"strategy,omitempty"`
}

// Report is the sole result of a reconciliation run. A run with per-record
// errors still produces a report.
type Report struct {
	RunID            string                `json:"run_id" yaml:"run_id"`
	Source           internal.RecordSource `json:"source" yaml:"source"`
	Owner            string                `json:"owner,omitempty" yaml:"owner,omitempty"`
	Kinds            []internal.Kind       `json:"kinds" yaml:"kinds"`
	DryRun           bool                  `json:"dry_run" yaml:"dry_run"`
	Force            bool                  `json:"force" yaml:"force"`
	StartedAt        time.Time             `json:"started_at" yaml:"started_at"`
	FinishedAt       time.Time             `json:"finished_at" yaml:"finished_at"`
	IndexFingerprint string                `json:"index_fingerprint,omitempty" yaml:"index_fingerprint,omitempty"`
	ClientCount      int                   `json:"client_count" yaml:"client_count"`
	Total            int                   `json:"total" yaml:"total"`
	FixedCount       int                   `json:"fixed_count" yaml:"fixed_count"`
	SkippedCount     int                   `json:"skipped_count" yaml:"skipped_count"`
	FailedCount      int                   `json:"failed_count" yaml:"failed_count"`
	Cancelled        bool                  `json:"cancelled,omitempty" yaml:"cancelled,omitempty"`
	Errors           []ErrorEntry          `json:"errors" yaml:"errors"`
	Unresolved       []UnresolvedEntry     `json:"unresolved" yaml:"unresolved"`
	Changes          []Change              `json:"changes,omitempty" yaml:"changes,omitempty"`
	Collisions       []match.Collision     `json:"collisions,omitempty" yaml:"collisions,omitempty"`
	Events           []internal.Event      `json:"events,omitempty" yaml:"events,omitempty"`
}

func newReport(source internal.RecordSource, opts Options) *Report {
	return &Report{
		Source:     source,
		Owner:      opts.Owner,
		DryRun:     opts.DryRun,
		Force:      opts.Force,
		StartedAt:  internal.Now().UTC(),
		Errors:     []ErrorEntry{},
		Unresolved: []UnresolvedEntry{},
	}
}

// Processed returns how many records reached a final outcome
func (r *Report) Processed() int {
	return r.FixedCount + r.SkippedCount + r.FailedCount
}

// ChangesFor returns the changes applied to one kind
func (r *Report) ChangesFor(kind internal.Kind) []Change {
	var out []Change
	for _, c := range r.Changes {
		if c.Kind == kind {
			out = append(out, c)
		}
	}
	return out
}

// Summary returns a one-line description of the run
func (r *Report) Summary() string {
	mode := ""
	if r.DryRun {
		mode = " (dry run)"
	}
	s := fmt.Sprintf("%d fixed, %d skipped, %d errors, %d unresolved of %d records%s",
		r.FixedCount, r.SkippedCount, len(r.Errors), len(r.Unresolved), r.Total, mode)
	if r.Cancelled {
		s += " [cancelled]"
	}
	return s
}

// Duration returns how long the run took
func (r *Report) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
