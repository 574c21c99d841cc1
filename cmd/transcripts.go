package cmd

import (
	"github.com/iksnae/practice-reconcile/internal"
	"github.com/iksnae/practice-reconcile/internal/reconcile"
	"github.com/spf13/cobra"
)

var (
	transcriptsDryRun bool
	transcriptsJSON   bool
)

// transcriptsCmd groups transcript maintenance commands
var transcriptsCmd = &cobra.Command{
	Use:   "transcripts",
	Short: "Maintain recording transcripts",
}

// transcriptsNormalizeCmd represents the transcripts normalize command
var transcriptsNormalizeCmd = &cobra.Command{
	Use:   "normalize",
	Short: "Rewrite stored transcripts into the canonical format",
	Long: `Recordings have stored transcripts as plain text, JSON strings, arrays of
sections and objects. This rewrites every transcript into the object form
{"transcript": ..., "notes": [...]} so later reads see one format.
Running it again changes nothing.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, store, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		r := reconcile.New(store, reconcile.Options{DryRun: transcriptsDryRun, Owner: cfg.Owner}, internal.LogObserver{})
		report, err := r.CanonicalizeTranscripts(cmd.Context())
		if err != nil {
			return err
		}

		if transcriptsJSON {
			return writeJSON(cmd.OutOrStdout(), report)
		}
		renderReport(cmd.OutOrStdout(), report)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(transcriptsCmd)
	transcriptsCmd.AddCommand(transcriptsNormalizeCmd)
	transcriptsNormalizeCmd.Flags().BoolVar(&transcriptsDryRun, "dry-run", false, "Show which transcripts would change without writing")
	transcriptsNormalizeCmd.Flags().BoolVar(&transcriptsJSON, "json", false, "Print the report as JSON")
}
