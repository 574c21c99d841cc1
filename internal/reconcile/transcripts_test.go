package reconcile

import (
	"context"
	"testing"

	"github.com/iksnae/practice-reconcile/internal/transcript"
	"github.com/iksnae/practice-reconcile/testutil"
)

func TestCanonicalizeTranscripts(t *testing.T) {
	db, store := newSampleStore(t)
	r := New(store, Options{}, nil)

	report, err := r.CanonicalizeTranscripts(context.Background())
	if err != nil {
		t.Fatalf("CanonicalizeTranscripts() error = %v", err)
	}
	// r1 is already canonical; r2 (plain text) and r3 (bare string) are rewritten
	if report.FixedCount != 2 || report.SkippedCount != 1 {
		t.Errorf("counts = %d fixed / %d skipped, want 2 / 1", report.FixedCount, report.SkippedCount)
	}

	raw := testutil.ColumnValue(t, db, "recordings", "transcript", "r2")
	if raw != `{"transcript":"Plain text transcript","notes":[]}` {
		t.Errorf("r2 transcript = %s", raw)
	}
	if got := transcript.Decode(raw).Text; got != "Plain text transcript" {
		t.Errorf("decoded r2 text = %q", got)
	}

	again, err := r.CanonicalizeTranscripts(context.Background())
	if err != nil {
		t.Fatalf("second CanonicalizeTranscripts() error = %v", err)
	}
	if again.FixedCount != 0 {
		t.Errorf("second run FixedCount = %d, want 0", again.FixedCount)
	}
}

func TestCanonicalizeTranscripts_DryRun(t *testing.T) {
	db, store := newSampleStore(t)

	report, err := New(store, Options{DryRun: true}, nil).CanonicalizeTranscripts(context.Background())
	if err != nil {
		t.Fatalf("CanonicalizeTranscripts() error = %v", err)
	}
	if report.FixedCount != 2 {
		t.Errorf("FixedCount = %d, want 2 planned", report.FixedCount)
	}
	if raw := testutil.ColumnValue(t, db, "recordings", "transcript", "r2"); raw != "Plain text transcript" {
		t.Errorf("dry run rewrote r2: %s", raw)
	}
}
