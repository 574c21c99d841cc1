package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/iksnae/practice-reconcile/internal/feed"
	"gopkg.in/yaml.v3"
)

func TestYAMLExporter_Export(t *testing.T) {
	var buf bytes.Buffer
	if err := (&YAMLExporter{}).Export(sampleFeed(), &buf); err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	output := buf.String()
	for _, want := range []string{"owner: o1", "source_kind: recording", "client_name: Anna Silva", "title: Plan"} {
		if !strings.Contains(output, want) {
			t.Errorf("Export() output missing %q", want)
		}
	}

	var got feed.Feed
	if err := yaml.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("Export() produced invalid YAML: %v", err)
	}
	if len(got.Entries) != 3 || got.Entries[1].ID != "n1" {
		t.Errorf("decoded feed = %+v", got)
	}
}

func TestYAMLExporter_Extension(t *testing.T) {
	if got := (&YAMLExporter{}).Extension(); got != "yaml" {
		t.Errorf("Extension() = %q, want yaml", got)
	}
}
