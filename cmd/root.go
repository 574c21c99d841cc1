package cmd

import (
	"database/sql"
	"fmt"
	"os"

	"github.com/iksnae/practice-reconcile/internal"
	"github.com/spf13/cobra"
)

var (
	verbose   bool
	dbPath    string
	envFile   string
	ownerFlag string
	version   string = "dev"
	commit    string = "unknown"
	date      string = "unknown"

	// cfg is resolved by the root command before any subcommand runs
	cfg internal.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "practice-reconcile",
	Short: "Repair orphaned practice records and build the unified client feed",
	Long: `A CLI tool that repairs sessions, notes and recordings that lost their
client or session association, and merges them into one chronological feed.

Orphaned records are matched to clients by name (exact, first+last or a
unique surname) and linked to the closest session within 72 hours. Existing
associations are never overwritten unless --force is given.

Quick Start:
  practice-reconcile healthcheck                 # Verify the record store
  practice-reconcile reconcile --dry-run         # Preview repairs
  practice-reconcile reconcile notes recordings  # Repair notes and recordings
  practice-reconcile feed --format md            # Print the unified feed

Configuration is read from a .env file and PRACTICE_* environment variables.`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		internal.SetVerbose(verbose)

		loaded, err := internal.LoadConfig(envFile)
		if err != nil {
			return err
		}
		if dbPath != "" {
			loaded.DBPath = dbPath
		}
		if ownerFlag != "" {
			loaded.Owner = ownerFlag
		}
		cfg = loaded
		internal.LogDebug("Using database %s", cfg.DBPath)
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		internal.PrintError(fmt.Sprintf("Error: %v", err))
		os.Exit(1)
	}
}

// openStore opens the configured record store, creating it if needed
func openStore() (*sql.DB, *internal.Storage, error) {
	if err := cfg.EnsureDataDir(); err != nil {
		return nil, nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	db, err := internal.OpenDatabase(cfg.DBPath)
	if err != nil {
		return nil, nil, err
	}
	return db, internal.NewStorage(db), nil
}

// parseKinds converts positional kind arguments, empty meaning all kinds
func parseKinds(args []string) ([]internal.Kind, error) {
	if len(args) == 0 {
		return internal.AllKinds, nil
	}
	kinds := make([]internal.Kind, 0, len(args))
	for _, arg := range args {
		kind, err := internal.ParseKind(arg)
		if err != nil {
			return nil, err
		}
		kinds = append(kinds, kind)
	}
	return kinds, nil
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Path to the record store database (default ~/.practice-reconcile/practice.db)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "Load configuration from this .env file")
	rootCmd.PersistentFlags().StringVar(&ownerFlag, "owner", "", "Restrict to one practice owner (default all owners)")

	// Set version template to ensure --version flag works
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}
