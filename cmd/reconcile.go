package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/iksnae/practice-reconcile/internal"
	"github.com/iksnae/practice-reconcile/internal/reconcile"
	"github.com/spf13/cobra"
)

var (
	reconcileDryRun     bool
	reconcileForce      bool
	reconcileBackupDir  string
	reconcileFromBackup bool
	reconcileWorkers    int
	reconcileJSON       bool
	reconcileNoArchive  bool
)

// reconcileCmd represents the reconcile command
var reconcileCmd = &cobra.Command{
	Use:   "reconcile [kind...]",
	Short: "Repair orphaned sessions, notes and recordings",
	Long: `Match orphaned records to clients by name and link notes and recordings
to the nearest session of that client.

Kinds are sessions, notes and recordings; all three are processed when none
is given. Sessions always run first so later kinds can link to them.

With --backup DIR, records are read from <kind>.json or <kind>.yaml snapshots
in DIR and cross-referenced against the live store before repair.

A report is printed even when individual records fail. Non-dry runs are
archived and can be viewed later with 'practice-reconcile reports'.`,
	ValidArgs: []string{"sessions", "notes", "recordings"},
	RunE: func(cmd *cobra.Command, args []string) error {
		kinds, err := parseKinds(args)
		if err != nil {
			return err
		}

		db, store, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		workers := cfg.Workers
		if reconcileWorkers > 0 {
			workers = reconcileWorkers
		}
		backupDir := reconcileBackupDir
		if backupDir == "" && reconcileFromBackup {
			backupDir = cfg.BackupDir
		}

		r := reconcile.New(store, reconcile.Options{
			DryRun:  reconcileDryRun,
			Force:   reconcileForce,
			Workers: workers,
			Owner:   cfg.Owner,
		}, internal.LogObserver{})

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		// The spinner waits for the run; cancellation reaches the run through ctx
		// and yields a partial report.
		var report *reconcile.Report
		message := fmt.Sprintf("Reconciling %s", joinKinds(kinds))
		err = internal.ShowProgress(context.Background(), message, func() error {
			var runErr error
			if backupDir != "" {
				report, runErr = r.RunBackup(ctx, kinds, internal.NewDirBackup(backupDir))
			} else {
				report, runErr = r.RunLive(ctx, kinds)
			}
			return runErr
		})
		if err != nil {
			return fmt.Errorf("reconciliation failed: %w", err)
		}

		if !report.DryRun && !reconcileNoArchive {
			archive := reconcile.NewArchive(cfg.ArchiveDir)
			if err := archive.Save(report); err != nil {
				internal.LogWarn("Failed to archive report: %v", err)
			} else {
				internal.LogInfo("Archived report %s", report.RunID)
			}
		}

		out := cmd.OutOrStdout()
		if reconcileJSON {
			return writeJSON(out, report)
		}
		renderReport(out, report)
		return nil
	},
}

func joinKinds(kinds []internal.Kind) string {
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = string(k)
	}
	return strings.Join(names, ", ")
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// renderReport prints a human-readable run report
func renderReport(w io.Writer, report *reconcile.Report) {
	title := "🩺 Reconciliation report"
	if report.DryRun {
		title += " (dry run)"
	}
	fmt.Fprintln(w, headerStyle.Render(title))
	fmt.Fprintln(w)

	fmt.Fprintf(w, "  Run:      %s\n", idStyle.Render(report.RunID))
	fmt.Fprintf(w, "  Source:   %s\n", report.Source)
	if report.Owner != "" {
		fmt.Fprintf(w, "  Owner:    %s\n", report.Owner)
	}
	fmt.Fprintf(w, "  Kinds:    %s\n", joinKinds(report.Kinds))
	fmt.Fprintf(w, "  Clients:  %d\n", report.ClientCount)
	fmt.Fprintf(w, "  Duration: %s\n", report.Duration().Round(time.Millisecond))
	fmt.Fprintln(w)

	fmt.Fprintf(w, "  %s fixed   %s skipped   %s errors   %s unresolved   (of %d)\n",
		countStyle.Render(fmt.Sprint(report.FixedCount)),
		dateStyle.Render(fmt.Sprint(report.SkippedCount)),
		errorStyle.Render(fmt.Sprint(len(report.Errors))),
		warningStyle.Render(fmt.Sprint(len(report.Unresolved))),
		report.Total)
	if report.Cancelled {
		fmt.Fprintln(w, warningStyle.Render("  ⚠️  Run was cancelled before all records were processed"))
	}

	if len(report.Changes) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, sectionStyle.Render("Changes"))
		tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
		_, _ = fmt.Fprintln(tw, titleStyle.Render("Kind")+"\t"+titleStyle.Render("Record")+"\t"+titleStyle.Render("Field")+"\t"+titleStyle.Render("Value")+"\t"+titleStyle.Render("Via")+"\t")
		for _, c := range report.Changes {
			value := c.Value
			if c.Previous != "" {
				value = fmt.Sprintf("%s (was %s)", c.Value, c.Previous)
			}
			_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t\n", c.Kind, idStyle.Render(c.RecordID), c.Field, value, dash(c.Strategy))
		}
		_ = tw.Flush()
	}

	if len(report.Unresolved) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, sectionStyle.Render("Unresolved"))
		for _, u := range report.Unresolved {
			line := fmt.Sprintf("  • %s/%s %s: %s", u.Kind, u.RecordID, u.Field, u.Reason)
			if len(u.Candidates) > 0 {
				line += fmt.Sprintf(" [%s]", strings.Join(u.Candidates, ", "))
			}
			fmt.Fprintln(w, line)
		}
	}

	if len(report.Errors) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, sectionStyle.Render("Errors"))
		for _, e := range report.Errors {
			fmt.Fprintln(w, errorStyle.Render(fmt.Sprintf("  ✗ %s/%s: %s", e.Kind, e.RecordID, e.Reason)))
		}
	}

	if len(report.Collisions) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, warningStyle.Render(fmt.Sprintf("⚠️  %d name key collision(s) in the client index", len(report.Collisions))))
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, report.Summary())
}

func dash(s string) string {
	if s == "" {
		return "—"
	}
	return s
}

func init() {
	rootCmd.AddCommand(reconcileCmd)
	reconcileCmd.Flags().BoolVar(&reconcileDryRun, "dry-run", false, "Plan repairs without writing them")
	reconcileCmd.Flags().BoolVar(&reconcileForce, "force", false, "Overwrite client associations that disagree with the resolved client")
	reconcileCmd.Flags().StringVar(&reconcileBackupDir, "backup", "", "Read records from snapshots in this directory instead of the live store")
	reconcileCmd.Flags().BoolVar(&reconcileFromBackup, "from-backup", false, "Read records from the configured backup directory (PRACTICE_BACKUP_DIR)")
	reconcileCmd.Flags().IntVarP(&reconcileWorkers, "workers", "w", 0, "Concurrent store writes (default from PRACTICE_WORKERS or 4)")
	reconcileCmd.Flags().BoolVar(&reconcileJSON, "json", false, "Print the report as JSON")
	reconcileCmd.Flags().BoolVar(&reconcileNoArchive, "no-archive", false, "Do not archive the report")
}
