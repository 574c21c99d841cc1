package cmd

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/iksnae/practice-reconcile/internal"
	"github.com/iksnae/practice-reconcile/internal/reconcile"
	"github.com/spf13/cobra"
)

var (
	reportsJSON bool
)

// reportsCmd represents the reports command
var reportsCmd = &cobra.Command{
	Use:   "reports",
	Short: "List archived reconciliation reports",
	Long:  `List the reports of past reconciliation runs, newest first.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		entries, err := reconcile.NewArchive(cfg.ArchiveDir).List()
		if err != nil {
			return err
		}
		displayArchive(cmd.OutOrStdout(), entries)
		return nil
	},
}

// reportsShowCmd represents the reports show command
var reportsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show one archived report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		report, err := reconcile.NewArchive(cfg.ArchiveDir).Load(args[0])
		if err != nil {
			return fmt.Errorf("report not found: %s (use 'practice-reconcile reports' to list runs): %w", args[0], err)
		}
		if reportsJSON {
			return writeJSON(cmd.OutOrStdout(), report)
		}
		renderReport(cmd.OutOrStdout(), report)
		return nil
	},
}

// reportsClearCmd represents the reports clear command
var reportsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all archived reports",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := reconcile.NewArchive(cfg.ArchiveDir).Clear(); err != nil {
			return fmt.Errorf("failed to clear reports: %w", err)
		}
		internal.PrintSuccess("Report archive cleared")
		return nil
	},
}

func displayArchive(w io.Writer, entries []reconcile.ArchiveEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, headerStyle.Render("🗂  No archived reports"))
		return
	}

	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("🗂  %d archived report(s)", len(entries))))
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	_, _ = fmt.Fprintln(tw, titleStyle.Render("Run")+"\t"+titleStyle.Render("Started")+"\t"+titleStyle.Render("Source")+"\t"+titleStyle.Render("Kinds")+"\t"+titleStyle.Render("Fixed")+"\t"+titleStyle.Render("Unresolved")+"\t"+titleStyle.Render("Errors")+"\t")
	_, _ = fmt.Fprintln(tw, strings.Repeat("─", 100))

	for _, e := range entries {
		kinds := joinKinds(e.Kinds)
		if e.Cancelled {
			kinds += " (cancelled)"
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\t%d\t\n",
			idStyle.Render(e.RunID),
			dateStyle.Render(e.StartedAt.UTC().Format("2006-01-02 15:04")),
			e.Source,
			kinds,
			countStyle.Render(fmt.Sprint(e.Fixed)),
			e.Unresolved,
			e.Errors)
	}
	_ = tw.Flush()
}

func init() {
	rootCmd.AddCommand(reportsCmd)
	reportsCmd.AddCommand(reportsShowCmd)
	reportsCmd.AddCommand(reportsClearCmd)
	reportsShowCmd.Flags().BoolVar(&reportsJSON, "json", false, "Print the report as JSON")
}
