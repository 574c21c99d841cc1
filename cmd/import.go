package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/iksnae/practice-reconcile/internal"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	importClientsFile string
)

// importCmd represents the import command
var importCmd = &cobra.Command{
	Use:   "import <dir> [kind...]",
	Short: "Load snapshots into the record store",
	Long: `Insert records from <kind>.json or <kind>.yaml snapshots in DIR.

Existing records keep their associations: an import only fills a client or
session id that is currently empty, so it never undoes a repair. Clients can
be loaded first from a JSON or YAML list with --clients.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := args[0]
		explicit := len(args) > 1
		kinds, err := parseKinds(args[1:])
		if err != nil {
			return err
		}

		db, store, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		if importClientsFile != "" {
			clients, err := readClientsFile(importClientsFile)
			if err != nil {
				return err
			}
			if err := store.UpsertClients(cmd.Context(), clients); err != nil {
				return fmt.Errorf("failed to import clients: %w", err)
			}
			internal.LogInfo("Imported %d client(s)", len(clients))
		}

		backup := internal.NewDirBackup(dir)
		total := 0
		for _, kind := range kinds {
			records, err := backup.ReadSnapshot(kind)
			if errors.Is(err, fs.ErrNotExist) && !explicit {
				internal.PrintWarning(fmt.Sprintf("No %s snapshot in %s, skipping", kind, dir))
				continue
			}
			if err != nil {
				return err
			}
			if err := store.Upsert(cmd.Context(), kind, records); err != nil {
				return fmt.Errorf("failed to import %s: %w", kind, err)
			}
			total += len(records)
			internal.LogInfo("Imported %d %s", len(records), kind)
		}

		internal.PrintSuccess(fmt.Sprintf("Import complete: %d record(s) loaded from %s", total, dir))
		return nil
	},
}

// readClientsFile reads a JSON or YAML list of clients
func readClientsFile(path string) ([]internal.ClientIdentity, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &internal.ParseError{Source: "clients", Key: path, Err: err}
	}
	var clients []internal.ClientIdentity
	if err := yaml.Unmarshal(data, &clients); err != nil {
		return nil, &internal.ParseError{Source: "clients", Key: path, Err: err}
	}
	return clients, nil
}

func init() {
	rootCmd.AddCommand(importCmd)
	importCmd.Flags().StringVar(&importClientsFile, "clients", "", "JSON or YAML file listing clients to load first")
}
