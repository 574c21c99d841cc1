package cmd

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/practice-reconcile/internal"
	"github.com/iksnae/practice-reconcile/internal/match"
	"github.com/spf13/cobra"
)

var (
	healthcheckDetails bool
)

var (
	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39"))

	sectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("62")).
			Bold(true).
			Underline(true)
)

// healthcheckCmd represents the healthcheck command
var healthcheckCmd = &cobra.Command{
	Use:   "healthcheck",
	Short: "Check that the record store is reachable and report orphan counts",
	Long: `Check the health of the record store by verifying:
  • Database file location
  • Schema and table row counts
  • Client index (name key collisions)
  • Orphaned record counts per kind
  • Backup snapshot directory

The database is opened read-only; nothing is modified.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, sectionStyle.Render("🔍 Practice Record Health Check"))
		fmt.Fprintln(out)

		// Step 1: Locate database
		fmt.Fprintln(out, infoStyle.Render("Step 1: Locating record store..."))
		if !cfg.DatabaseExists() {
			fmt.Fprintln(out, errorStyle.Render("❌ Record store not found"))
			fmt.Fprintf(out, "   Expected: %s\n", cfg.DBPath)
			fmt.Fprintf(out, "   Set %s or pass --db to point at the database\n", internal.EnvDB)
			return fmt.Errorf("health check failed: no record store at %s", cfg.DBPath)
		}
		fmt.Fprintln(out, successStyle.Render("✅ Record store found"))
		if healthcheckDetails {
			fmt.Fprintf(out, "   Database: %s\n", cfg.DBPath)
		}
		fmt.Fprintln(out)

		// Step 2: Open and check schema
		fmt.Fprintln(out, infoStyle.Render("Step 2: Checking schema..."))
		db, err := internal.OpenDatabaseReadOnly(cfg.DBPath)
		if err != nil {
			fmt.Fprintln(out, errorStyle.Render("❌ Failed to open record store:"), err)
			return fmt.Errorf("health check failed: %w", err)
		}
		defer db.Close()

		counts, err := internal.TableCounts(db)
		if err != nil {
			fmt.Fprintln(out, errorStyle.Render("❌ Schema check failed:"), err)
			fmt.Fprintln(out, "   Run any write command (e.g. 'import') to create the schema")
			return fmt.Errorf("health check failed: %w", err)
		}
		fmt.Fprintln(out, successStyle.Render("✅ Schema present"))
		for _, table := range []string{"clients", "sessions", "session_notes", "recordings"} {
			fmt.Fprintf(out, "   %-14s %d\n", table, counts[table])
		}
		fmt.Fprintln(out)

		store := internal.NewStorage(db)
		ctx := cmd.Context()

		// Step 3: Client index
		fmt.Fprintln(out, infoStyle.Render("Step 3: Building client index..."))
		clients, err := store.GetClients(ctx, cfg.Owner)
		if err != nil {
			fmt.Fprintln(out, errorStyle.Render("❌ Failed to load clients:"), err)
			return fmt.Errorf("health check failed: %w", err)
		}
		idx := match.BuildIndex(clients)
		if idx.Clients() == 0 {
			fmt.Fprintln(out, warningStyle.Render("⚠️  No clients found; nothing can be matched"))
		} else {
			fmt.Fprintln(out, successStyle.Render(fmt.Sprintf("✅ %d client(s), %d name key(s)", idx.Clients(), idx.Len())))
		}
		if collisions := idx.Collisions(); len(collisions) > 0 {
			fmt.Fprintln(out, warningStyle.Render(fmt.Sprintf("⚠️  %d name key collision(s); the first registered client wins", len(collisions))))
			if healthcheckDetails {
				for i, c := range collisions {
					if i < 5 { // Show first 5
						fmt.Fprintf(out, "   %q kept %s, dropped %s\n", c.Key, c.KeptID, c.DroppedID)
					}
				}
				if len(collisions) > 5 {
					fmt.Fprintf(out, "   ... and %d more\n", len(collisions)-5)
				}
			}
		}
		fmt.Fprintln(out)

		// Step 4: Orphans
		fmt.Fprintln(out, infoStyle.Render("Step 4: Counting orphaned records..."))
		orphans, err := store.CountOrphans(ctx, cfg.Owner)
		if err != nil {
			fmt.Fprintln(out, errorStyle.Render("❌ Failed to count orphans:"), err)
			return fmt.Errorf("health check failed: %w", err)
		}
		totalOrphans := 0
		for _, kind := range internal.AllKinds {
			totalOrphans += orphans[kind]
			fmt.Fprintf(out, "   %-14s %d\n", kind, orphans[kind])
		}
		fmt.Fprintln(out)

		// Step 5: Backups
		fmt.Fprintln(out, infoStyle.Render("Step 5: Checking backup snapshots..."))
		if cfg.BackupDirExists() {
			fmt.Fprintln(out, successStyle.Render("✅ Backup directory found"))
		} else {
			fmt.Fprintln(out, warningStyle.Render("⚠️  Backup directory not found"))
		}
		if healthcheckDetails {
			fmt.Fprintf(out, "   Directory: %s\n", cfg.BackupDir)
		}
		fmt.Fprintln(out)

		// Summary
		fmt.Fprintln(out, sectionStyle.Render("📊 Summary"))
		fmt.Fprintln(out)
		fmt.Fprintln(out, successStyle.Render("✅ Health check passed!"))
		if totalOrphans > 0 {
			fmt.Fprintln(out, warningStyle.Render(fmt.Sprintf("   • %d orphaned record(s); run 'practice-reconcile reconcile --dry-run' to preview repairs", totalOrphans)))
		} else {
			fmt.Fprintln(out, successStyle.Render("   • No orphaned records"))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(healthcheckCmd)
	healthcheckCmd.Flags().BoolVarP(&healthcheckDetails, "details", "d", false, "Show detailed diagnostic information")
}
