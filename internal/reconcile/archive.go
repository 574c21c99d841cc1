package reconcile

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/iksnae/practice-reconcile/internal"
)

// archiveVersion is written into the index metadata
const archiveVersion = "1.0"

// Archive stores run reports as JSON files with a YAML index
type Archive struct {
	dir string
}

// ArchiveMetadata describes the archive itself
type ArchiveMetadata struct {
	Version   string    `yaml:"version"`
	CreatedAt time.Time `yaml:"created_at"`
	UpdatedAt time.Time `yaml:"updated_at"`
}

// ArchiveEntry is the index line for one archived report
type ArchiveEntry struct {
	RunID      string                `yaml:"run_id"`
	Source     internal.RecordSource `yaml:"source"`
	Owner      string                `yaml:"owner,omitempty"`
	Kinds      []internal.Kind       `yaml:"kinds"`
	DryRun     bool                  `yaml:"dry_run"`
	StartedAt  time.Time             `yaml:"started_at"`
	Fixed      int                   `yaml:"fixed"`
	Skipped    int                   `yaml:"skipped"`
	Errors     int                   `yaml:"errors"`
	Unresolved int                   `yaml:"unresolved"`
	Cancelled  bool                  `yaml:"cancelled,omitempty"`
}

// ArchiveIndex is the YAML index of all archived reports
type ArchiveIndex struct {
	Reports  []ArchiveEntry  `yaml:"reports"`
	Metadata ArchiveMetadata `yaml:"metadata"`
}

// NewArchive creates an archive rooted at dir
func NewArchive(dir string) *Archive {
	return &Archive{dir: dir}
}

// Dir returns the archive directory
func (a *Archive) Dir() string {
	return a.dir
}

// EnsureDir ensures the archive directory exists
func (a *Archive) EnsureDir() error {
	return os.MkdirAll(a.dir, 0755)
}

// IndexPath returns the path to the YAML index
func (a *Archive) IndexPath() string {
	return filepath.Join(a.dir, "reports.yaml")
}

// ReportPath returns the path to a report's JSON file
func (a *Archive) ReportPath(runID string) string {
	return filepath.Join(a.dir, fmt.Sprintf("report_%s.json", runID))
}

// LoadIndex loads the archive index. A missing index is an empty archive.
func (a *Archive) LoadIndex() (*ArchiveIndex, error) {
	data, err := os.ReadFile(a.IndexPath())
	if errors.Is(err, os.ErrNotExist) {
		return &ArchiveIndex{Reports: []ArchiveEntry{}}, nil
	}
	if err != nil {
		return nil, err
	}

	var index ArchiveIndex
	if err := yaml.Unmarshal(data, &index); err != nil {
		return nil, &internal.ParseError{Source: "archive index", Key: a.IndexPath(), Err: err}
	}
	return &index, nil
}

// SaveIndex writes the archive index
func (a *Archive) SaveIndex(index *ArchiveIndex) error {
	if err := a.EnsureDir(); err != nil {
		return err
	}

	data, err := yaml.Marshal(index)
	if err != nil {
		return fmt.Errorf("failed to marshal index: %w", err)
	}
	return os.WriteFile(a.IndexPath(), data, 0644)
}

// Save writes report to its JSON file and records it in the index,
// replacing an earlier entry with the same run id
func (a *Archive) Save(report *Report) error {
	if report == nil || report.RunID == "" {
		return errors.New("archive: report has no run id")
	}
	if err := a.EnsureDir(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	if err := os.WriteFile(a.ReportPath(report.RunID), data, 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	index, err := a.LoadIndex()
	if err != nil {
		internal.LogWarn("Rebuilding unreadable archive index: %v", err)
		index = &ArchiveIndex{}
	}
	now := internal.Now().UTC()
	if index.Metadata.CreatedAt.IsZero() {
		index.Metadata.CreatedAt = now
	}
	index.Metadata.Version = archiveVersion
	index.Metadata.UpdatedAt = now

	entry := entryFor(report)
	found := false
	for i, e := range index.Reports {
		if e.RunID == report.RunID {
			index.Reports[i] = entry
			found = true
			break
		}
	}
	if !found {
		index.Reports = append(index.Reports, entry)
	}

	return a.SaveIndex(index)
}

func entryFor(report *Report) ArchiveEntry {
	return ArchiveEntry{
		RunID:      report.RunID,
		Source:     report.Source,
		Owner:      report.Owner,
		Kinds:      report.Kinds,
		DryRun:     report.DryRun,
		StartedAt:  report.StartedAt,
		Fixed:      report.FixedCount,
		Skipped:    report.SkippedCount,
		Errors:     len(report.Errors),
		Unresolved: len(report.Unresolved),
		Cancelled:  report.Cancelled,
	}
}

// Load reads one archived report
func (a *Archive) Load(runID string) (*Report, error) {
	data, err := os.ReadFile(a.ReportPath(runID))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("report %s: %w", runID, internal.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	var report Report
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, &internal.ParseError{Source: "report", Key: runID, Err: err}
	}
	return &report, nil
}

// List returns the index entries, newest first
func (a *Archive) List() ([]ArchiveEntry, error) {
	index, err := a.LoadIndex()
	if err != nil {
		return nil, err
	}
	entries := append([]ArchiveEntry(nil), index.Reports...)
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].StartedAt.After(entries[j].StartedAt)
	})
	return entries, nil
}

// Clear removes every archived report and the index
func (a *Archive) Clear() error {
	index, err := a.LoadIndex()
	if err == nil {
		for _, entry := range index.Reports {
			_ = os.Remove(a.ReportPath(entry.RunID))
		}
	}

	if err := os.Remove(a.IndexPath()); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
