package internal

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Now is the clock used for snapshot and report timestamps
var Now = time.Now

// BackupSource reads point-in-time snapshots of a record kind
type BackupSource interface {
	ReadSnapshot(kind Kind) ([]OrphanRecord, error)
}

// DirBackup reads and writes snapshots as <dir>/<kind>.json, .yaml or .yml
type DirBackup struct {
	Dir string
}

// NewDirBackup creates a DirBackup rooted at dir
func NewDirBackup(dir string) *DirBackup {
	return &DirBackup{Dir: dir}
}

// snapshotEnvelope is the current export layout
type snapshotEnvelope struct {
	Kind       Kind          `json:"kind" yaml:"kind"`
	ExportedAt string        `json:"exported_at,omitempty" yaml:"exported_at,omitempty"`
	Records    []snapshotRow `json:"records" yaml:"records"`
}

// snapshotRow accepts both current field names and the raw column names
// used by older exports (created_at, starts_at, content, transcript, title).
type snapshotRow struct {
	ID         string `json:"id" yaml:"id"`
	OwnerID    string `json:"owner_id,omitempty" yaml:"owner_id,omitempty"`
	ClientID   string `json:"client_id,omitempty" yaml:"client_id,omitempty"`
	SessionID  string `json:"session_id,omitempty" yaml:"session_id,omitempty"`
	ClientName string `json:"client_name,omitempty" yaml:"client_name,omitempty"`
	Timestamp  any    `json:"timestamp,omitempty" yaml:"timestamp,omitempty"`
	CreatedAt  any    `json:"created_at,omitempty" yaml:"created_at,omitempty"`
	StartsAt   any    `json:"starts_at,omitempty" yaml:"starts_at,omitempty"`
	Body       any    `json:"body,omitempty" yaml:"body,omitempty"`
	Content    any    `json:"content,omitempty" yaml:"content,omitempty"`
	Transcript any    `json:"transcript,omitempty" yaml:"transcript,omitempty"`
	Title      any    `json:"title,omitempty" yaml:"title,omitempty"`
}

func (r snapshotRow) toRecord(kind Kind) OrphanRecord {
	rec := OrphanRecord{
		Kind:           kind,
		ID:             strings.TrimSpace(r.ID),
		OwnerID:        r.OwnerID,
		ClientID:       strings.TrimSpace(r.ClientID),
		SessionID:      strings.TrimSpace(r.SessionID),
		ClientNameHint: r.ClientName,
		Source:         SourceBackup,
	}
	for _, v := range []any{r.Timestamp, r.CreatedAt, r.StartsAt} {
		if t := snapshotTime(v); !t.IsZero() {
			rec.Timestamp = t
			break
		}
	}
	for _, v := range []any{r.Body, r.Content, r.Transcript, r.Title} {
		if s := snapshotText(v); s != "" {
			rec.Body = s
			break
		}
	}
	return rec
}

// snapshotTime accepts RFC3339-ish strings and epoch milliseconds
func snapshotTime(v any) time.Time {
	switch t := v.(type) {
	case string:
		return parseTimestamp(t)
	case time.Time:
		return t.UTC()
	case float64:
		return time.UnixMilli(int64(t)).UTC()
	case int:
		return time.UnixMilli(int64(t)).UTC()
	case int64:
		return time.UnixMilli(t).UTC()
	}
	return time.Time{}
}

// snapshotText keeps strings as-is and re-encodes structured values as JSON,
// which is how transcripts are stored
func snapshotText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		data, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(data)
	}
}

// SnapshotPath returns the first existing snapshot file for kind, or the
// default JSON path when none exists
func (b *DirBackup) SnapshotPath(kind Kind) string {
	for _, ext := range []string{".json", ".yaml", ".yml"} {
		path := filepath.Join(b.Dir, string(kind)+ext)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return filepath.Join(b.Dir, string(kind)+".json")
}

// ReadSnapshot reads every record of kind from its snapshot file
func (b *DirBackup) ReadSnapshot(kind Kind) ([]OrphanRecord, error) {
	path := b.SnapshotPath(kind)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ParseError{Source: "snapshot", Key: path, Err: err}
	}

	var rows []snapshotRow
	if ext := filepath.Ext(path); ext == ".yaml" || ext == ".yml" {
		rows, err = decodeYAMLSnapshot(data)
	} else {
		rows, err = decodeJSONSnapshot(data)
	}
	if err != nil {
		return nil, &ParseError{Source: "snapshot", Key: path, Err: err}
	}

	records := make([]OrphanRecord, 0, len(rows))
	for _, row := range rows {
		rec := row.toRecord(kind)
		if rec.ID == "" {
			LogDebug("Skipping snapshot row without id in %s", path)
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

func decodeJSONSnapshot(data []byte) ([]snapshotRow, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, errors.New("empty snapshot")
	}

	if trimmed[0] == '[' {
		var rows []snapshotRow
		if err := json.Unmarshal(trimmed, &rows); err != nil {
			return nil, fmt.Errorf("failed to parse snapshot array: %w", err)
		}
		return rows, nil
	}

	var env snapshotEnvelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot: %w", err)
	}
	return env.Records, nil
}

func decodeYAMLSnapshot(data []byte) ([]snapshotRow, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot: %w", err)
	}
	if len(node.Content) == 0 {
		return nil, errors.New("empty snapshot")
	}

	if node.Content[0].Kind == yaml.SequenceNode {
		var rows []snapshotRow
		if err := node.Content[0].Decode(&rows); err != nil {
			return nil, fmt.Errorf("failed to decode snapshot rows: %w", err)
		}
		return rows, nil
	}

	var env snapshotEnvelope
	if err := node.Content[0].Decode(&env); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return env.Records, nil
}

// WriteSnapshot writes records of kind to <dir>/<kind>.<format>, where
// format is "json" or "yaml", and returns the written path
func (b *DirBackup) WriteSnapshot(kind Kind, records []OrphanRecord, format string) (string, error) {
	if err := os.MkdirAll(b.Dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	env := snapshotEnvelope{
		Kind:       kind,
		ExportedAt: formatTimestamp(Now()),
		Records:    make([]snapshotRow, 0, len(records)),
	}
	for _, rec := range records {
		row := snapshotRow{
			ID:         rec.ID,
			OwnerID:    rec.OwnerID,
			ClientID:   rec.ClientID,
			SessionID:  rec.SessionID,
			ClientName: rec.ClientNameHint,
		}
		if ts := formatTimestamp(rec.Timestamp); ts != "" {
			row.Timestamp = ts
		}
		if rec.Body != "" {
			row.Body = rec.Body
		}
		env.Records = append(env.Records, row)
	}

	var (
		data []byte
		err  error
		path string
	)
	switch format {
	case "yaml", "yml":
		path = filepath.Join(b.Dir, string(kind)+".yaml")
		data, err = yaml.Marshal(env)
	case "json", "":
		path = filepath.Join(b.Dir, string(kind)+".json")
		data, err = json.MarshalIndent(env, "", "  ")
	default:
		return "", fmt.Errorf("unsupported snapshot format: %s (supported: json, yaml)", format)
	}
	if err != nil {
		return "", fmt.Errorf("failed to encode snapshot: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write snapshot %s: %w", path, err)
	}
	return path, nil
}
