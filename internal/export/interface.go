package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/iksnae/practice-reconcile/internal"
	"github.com/iksnae/practice-reconcile/internal/feed"
)

// Exporter defines the interface for all feed export formats
type Exporter interface {
	Export(f *feed.Feed, w io.Writer) error
	Extension() string
}

// NewExporter creates a new exporter based on format
func NewExporter(format string) (Exporter, error) {
	switch format {
	case "jsonl":
		return &JSONLExporter{}, nil
	case "md", "markdown":
		return &MarkdownExporter{}, nil
	case "yaml", "yml":
		return &YAMLExporter{}, nil
	case "json":
		return &JSONExporter{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s (supported: jsonl, md, yaml, json)", format)
	}
}

// WriteFile exports f to path, creating parent directories as needed
func WriteFile(exp Exporter, f *feed.Feed, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return &internal.ExportError{Format: exp.Extension(), Path: path, Err: err}
	}

	file, err := os.Create(path)
	if err != nil {
		return &internal.ExportError{Format: exp.Extension(), Path: path, Err: err}
	}
	defer func() { _ = file.Close() }()

	if err := exp.Export(f, file); err != nil {
		return &internal.ExportError{Format: exp.Extension(), Path: path, Err: err}
	}
	return file.Close()
}
