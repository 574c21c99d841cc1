package export

import (
	"io"

	"github.com/iksnae/practice-reconcile/internal/feed"
	"gopkg.in/yaml.v3"
)

// YAMLExporter exports a feed in YAML format
type YAMLExporter struct{}

// Export exports a feed to YAML format
func (e *YAMLExporter) Export(f *feed.Feed, w io.Writer) error {
	enc := yaml.NewEncoder(w)
	defer func() { _ = enc.Close() }()

	return enc.Encode(f)
}

// Extension returns the file extension for this format
func (e *YAMLExporter) Extension() string {
	return "yaml"
}
