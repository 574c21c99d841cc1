package internal

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variables read by LoadConfig
const (
	EnvDB         = "PRACTICE_DB"
	EnvBackupDir  = "PRACTICE_BACKUP_DIR"
	EnvArchiveDir = "PRACTICE_ARCHIVE_DIR"
	EnvWorkers    = "PRACTICE_WORKERS"
	EnvOwner      = "PRACTICE_OWNER"
)

// DefaultWorkers bounds concurrent store writes during a reconciliation run
const DefaultWorkers = 4

// Config holds the resolved locations and limits for a run
type Config struct {
	DBPath     string // SQLite record store
	BackupDir  string // directory holding <kind>.json snapshots
	ArchiveDir string // directory where run reports are archived
	Workers    int
	Owner      string // tenant scope, empty for all owners
}

// DefaultDataDir returns ~/.practice-reconcile
func DefaultDataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".practice-reconcile"), nil
}

// DefaultConfig returns the configuration rooted at the default data directory
func DefaultConfig() (Config, error) {
	base, err := DefaultDataDir()
	if err != nil {
		return Config{}, err
	}
	return Config{
		DBPath:     filepath.Join(base, "practice.db"),
		BackupDir:  filepath.Join(base, "backups"),
		ArchiveDir: filepath.Join(base, "reports"),
		Workers:    DefaultWorkers,
	}, nil
}

// LoadConfig resolves the configuration from defaults, an optional .env
// file and the environment, in that order of increasing precedence. A
// missing envFile is not an error unless it was named explicitly.
func LoadConfig(envFile string) (Config, error) {
	cfg, err := DefaultConfig()
	if err != nil {
		return Config{}, err
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return Config{}, fmt.Errorf("failed to load env file %s: %w", envFile, err)
		}
	} else if err := godotenv.Load(); err == nil {
		LogDebug("Loaded .env file")
	}

	if v := os.Getenv(EnvDB); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv(EnvBackupDir); v != "" {
		cfg.BackupDir = v
	}
	if v := os.Getenv(EnvArchiveDir); v != "" {
		cfg.ArchiveDir = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvWorkers)); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return Config{}, fmt.Errorf("invalid %s %q: must be a positive integer", EnvWorkers, v)
		}
		cfg.Workers = n
	}
	if v := os.Getenv(EnvOwner); v != "" {
		cfg.Owner = v
	}

	return cfg, nil
}

// EnsureDataDir creates the directory holding the database file
func (c Config) EnsureDataDir() error {
	return os.MkdirAll(filepath.Dir(c.DBPath), 0755)
}

// DatabaseExists reports whether the database file is present
func (c Config) DatabaseExists() bool {
	_, err := os.Stat(c.DBPath)
	return err == nil
}

// BackupDirExists reports whether the snapshot directory is present
func (c Config) BackupDirExists() bool {
	info, err := os.Stat(c.BackupDir)
	return err == nil && info.IsDir()
}
