package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFeedCommand(t *testing.T) {
	dbPath := setupPractice(t)

	tests := []struct {
		name      string
		args      []string
		wantLines int
		want      []string
	}{
		{
			name:      "jsonl for one owner",
			args:      []string{"feed", "--db", dbPath, "--owner", "o1", "--format", "jsonl"},
			wantLines: 6,
			want:      []string{`"id":"recording-r2"`, `"id":"session-s2"`},
		},
		{
			name:      "limit",
			args:      []string{"feed", "--db", dbPath, "--owner", "o1", "--format", "jsonl", "--limit", "2"},
			wantLines: 2,
		},
		{
			name:      "client filter",
			args:      []string{"feed", "--db", dbPath, "--format", "jsonl", "--client", "c4"},
			wantLines: 1,
			want:      []string{`"id":"recording-r3"`, `"content":"Review call"`},
		},
		{
			name: "table",
			args: []string{"feed", "--db", dbPath, "--owner", "o1"},
			want: []string{"6 feed entries", "Lilli D Schillaci", "recording"},
		},
		{
			name: "markdown",
			args: []string{"feed", "--db", dbPath, "--owner", "o1", "--format", "md"},
			want: []string{"# Practice feed for o1", "**Entries:** 6", "### Plan"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := runCommand(t, tt.args...)
			if err != nil {
				t.Fatalf("feed error = %v", err)
			}
			if tt.wantLines > 0 {
				if lines := strings.Split(strings.TrimSpace(out), "\n"); len(lines) != tt.wantLines {
					t.Errorf("feed produced %d lines, want %d\n%s", len(lines), tt.wantLines, out)
				}
			}
			for _, want := range tt.want {
				if !strings.Contains(out, want) {
					t.Errorf("output missing %q\n%s", want, out)
				}
			}
		})
	}
}

func TestFeedCommand_OutFile(t *testing.T) {
	dbPath := setupPractice(t)
	path := filepath.Join(t.TempDir(), "feed.yaml")

	if _, err := runCommand(t, "feed", "--db", dbPath, "--owner", "o2", "--format", "yaml", "--out", path); err != nil {
		t.Fatalf("feed error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.Contains(string(data), "id: recording-r3") {
		t.Errorf("feed file missing entry:\n%s", data)
	}
}

func TestFeedCommand_Errors(t *testing.T) {
	dbPath := setupPractice(t)
	tests := []struct {
		name string
		args []string
	}{
		{name: "invalid format", args: []string{"feed", "--db", dbPath, "--format", "xml"}},
		{name: "table to file", args: []string{"feed", "--db", dbPath, "--out", filepath.Join(t.TempDir(), "feed.txt")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := runCommand(t, tt.args...); err == nil {
				t.Error("expected an error")
			}
		})
	}
}
