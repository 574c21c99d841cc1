package cmd

import (
	"context"
	"fmt"

	"github.com/iksnae/practice-reconcile/internal"
	"github.com/spf13/cobra"
)

var (
	snapshotOutput      string
	snapshotFormat      string
	snapshotOrphansOnly bool
)

// snapshotCmd represents the snapshot command
var snapshotCmd = &cobra.Command{
	Use:   "snapshot [kind...]",
	Short: "Write point-in-time snapshots of the record store",
	Long: `Write each kind's records to <kind>.json or <kind>.yaml in the output
directory. Snapshots can later be fed back with 'reconcile --backup DIR'
or restored with 'import DIR'.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		kinds, err := parseKinds(args)
		if err != nil {
			return err
		}
		if snapshotFormat != "json" && snapshotFormat != "yaml" {
			return fmt.Errorf("unsupported snapshot format: %s (supported: json, yaml)", snapshotFormat)
		}

		outDir := snapshotOutput
		if outDir == "" {
			outDir = cfg.BackupDir
		}

		db, store, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		backup := internal.NewDirBackup(outDir)
		total := 0
		steps := make([]internal.ProgressStep, 0, len(kinds))
		for _, kind := range kinds {
			kind := kind
			steps = append(steps, internal.ProgressStep{
				Message: fmt.Sprintf("Saving %s", kind),
				Fn: func() error {
					var records []internal.OrphanRecord
					var err error
					if snapshotOrphansOnly {
						records, err = store.GetOrphans(cmd.Context(), kind, cfg.Owner)
					} else {
						records, err = store.ListRecords(cmd.Context(), kind, cfg.Owner)
					}
					if err != nil {
						return fmt.Errorf("failed to load %s: %w", kind, err)
					}

					path, err := backup.WriteSnapshot(kind, records, snapshotFormat)
					if err != nil {
						return err
					}
					total += len(records)
					internal.LogInfo("Saved %d %s to %s", len(records), kind, path)
					return nil
				},
			})
		}
		// steps run one at a time and each finishes before the next starts
		if err := internal.ShowProgressWithSteps(context.Background(), steps); err != nil {
			return err
		}

		internal.PrintSuccess(fmt.Sprintf("Snapshot complete: %d record(s) saved to %s", total, outDir))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(snapshotCmd)
	snapshotCmd.Flags().StringVarP(&snapshotOutput, "out", "o", "", "Output directory (default from PRACTICE_BACKUP_DIR)")
	snapshotCmd.Flags().StringVarP(&snapshotFormat, "format", "f", "json", "Snapshot format (json, yaml)")
	snapshotCmd.Flags().BoolVar(&snapshotOrphansOnly, "orphans-only", false, "Only include records missing an association")
}
