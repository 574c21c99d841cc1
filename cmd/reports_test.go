package cmd

import (
	"strings"
	"testing"
)

func TestReportsCommands(t *testing.T) {
	dbPath := setupPractice(t)

	out, err := runCommand(t, "reports")
	if err != nil {
		t.Fatalf("reports error = %v", err)
	}
	if !strings.Contains(out, "No archived reports") {
		t.Errorf("empty archive output = %s", out)
	}

	out, err = runCommand(t, "reconcile", "--db", dbPath, "--json")
	if err != nil {
		t.Fatalf("reconcile error = %v", err)
	}
	runID := decodeReport(t, out).RunID

	out, err = runCommand(t, "reports")
	if err != nil {
		t.Fatalf("reports error = %v", err)
	}
	if !strings.Contains(out, "1 archived report(s)") || !strings.Contains(out, runID) {
		t.Errorf("reports output missing run %s\n%s", runID, out)
	}

	out, err = runCommand(t, "reports", "show", runID, "--json")
	if err != nil {
		t.Fatalf("reports show error = %v", err)
	}
	if shown := decodeReport(t, out); shown.RunID != runID || shown.FixedCount != 3 {
		t.Errorf("shown report = %+v", shown)
	}

	out, err = runCommand(t, "reports", "show", runID)
	if err != nil {
		t.Fatalf("reports show error = %v", err)
	}
	if !strings.Contains(out, "Reconciliation report") || !strings.Contains(out, "n3") {
		t.Errorf("rendered report = %s", out)
	}

	if _, err := runCommand(t, "reports", "show", "missing-run"); err == nil {
		t.Error("expected error for unknown run")
	}

	if _, err := runCommand(t, "reports", "clear"); err != nil {
		t.Fatalf("reports clear error = %v", err)
	}
	out, err = runCommand(t, "reports")
	if err != nil {
		t.Fatalf("reports error = %v", err)
	}
	if !strings.Contains(out, "No archived reports") {
		t.Errorf("archive not cleared: %s", out)
	}
}
