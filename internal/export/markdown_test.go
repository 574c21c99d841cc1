package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/iksnae/practice-reconcile/internal/feed"
)

func TestMarkdownExporter_Export(t *testing.T) {
	tests := []struct {
		name string
		feed *feed.Feed
		want []string
	}{
		{
			name: "sample feed",
			feed: sampleFeed(),
			want: []string{
				"# Practice feed for o1",
				"**Entries:** 3",
				"## 2025-01-11 15:00 · Anna Silva (recording)",
				"### Plan",
				"Keep a diary",
				"## 2025-01-10 10:00 · Lilli D Schillaci (note)",
				"Intake \\*\\*notes\\*\\*",
				"## undated · Unassigned (session)",
			},
		},
		{
			name: "empty feed",
			feed: &feed.Feed{},
			want: []string{"# Practice feed", "**Entries:** 0"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := (&MarkdownExporter{}).Export(tt.feed, &buf); err != nil {
				t.Fatalf("Export() error = %v", err)
			}
			output := buf.String()
			for _, want := range tt.want {
				if !strings.Contains(output, want) {
					t.Errorf("Export() output missing %q\n%s", want, output)
				}
			}
		})
	}
}

func TestEscapeMarkdown(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "bold", in: "**x**", want: "\\*\\*x\\*\\*"},
		{name: "underline", in: "__x__", want: "\\_\\_x\\_\\_"},
		{name: "code block preserved", in: "```\n**x**\n```", want: "```\n**x**\n```"},
		{name: "plain", in: "plain", want: "plain"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := escapeMarkdown(tt.in); got != tt.want {
				t.Errorf("escapeMarkdown(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
