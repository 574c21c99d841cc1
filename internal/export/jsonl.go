package export

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/iksnae/practice-reconcile/internal/feed"
)

// JSONLExporter exports a feed in JSONL format (one entry per line)
type JSONLExporter struct{}

// Export exports a feed to JSONL format
func (e *JSONLExporter) Export(f *feed.Feed, w io.Writer) error {
	enc := json.NewEncoder(w)

	for _, entry := range f.Entries {
		obj := map[string]interface{}{
			"id":      entry.ID,
			"source":  entry.SourceKind,
			"content": entry.Content,
		}

		if entry.ClientID != "" {
			obj["client_id"] = entry.ClientID
		}
		if entry.ClientName != "" {
			obj["client_name"] = entry.ClientName
		}
		if entry.SessionID != "" {
			obj["session_id"] = entry.SessionID
		}
		if !entry.OccurredAt.IsZero() {
			obj["occurred_at"] = entry.OccurredAt.UTC().Format(time.RFC3339)
		}

		if err := enc.Encode(obj); err != nil {
			return fmt.Errorf("failed to encode entry %s: %w", entry.ID, err)
		}
	}

	return nil
}

// Extension returns the file extension for this format
func (e *JSONLExporter) Extension() string {
	return "jsonl"
}
