package export

import (
	"encoding/json"
	"io"

	"github.com/iksnae/practice-reconcile/internal/feed"
)

// JSONExporter exports a feed as one pretty-printed JSON document
type JSONExporter struct{}

// Export exports a feed to JSON format
func (e *JSONExporter) Export(f *feed.Feed, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(f)
}

// Extension returns the file extension for this format
func (e *JSONExporter) Extension() string {
	return "json"
}
