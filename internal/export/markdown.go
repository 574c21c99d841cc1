package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/iksnae/practice-reconcile/internal/feed"
)

// MarkdownExporter exports a feed as a Markdown timeline
type MarkdownExporter struct{}

// Export exports a feed to Markdown format
func (e *MarkdownExporter) Export(f *feed.Feed, w io.Writer) error {
	title := "Practice feed"
	if f.Owner != "" {
		title = fmt.Sprintf("Practice feed for %s", f.Owner)
	}
	_, _ = fmt.Fprintf(w, "# %s\n\n", title)

	if !f.GeneratedAt.IsZero() {
		_, _ = fmt.Fprintf(w, "**Generated:** %s  \n", f.GeneratedAt.UTC().Format(time.RFC3339))
	}
	_, _ = fmt.Fprintf(w, "**Entries:** %d\n\n", len(f.Entries))
	_, _ = fmt.Fprintf(w, "---\n\n")

	for i, entry := range f.Entries {
		when := "undated"
		if !entry.OccurredAt.IsZero() {
			when = entry.OccurredAt.UTC().Format("2006-01-02 15:04")
		}
		client := entry.ClientName
		if client == "" {
			client = "Unassigned"
		}

		_, _ = fmt.Fprintf(w, "## %s · %s (%s)\n\n", when, client, entry.SourceKind)

		if len(entry.Sections) > 0 {
			for _, s := range entry.Sections {
				if s.Title != "" {
					_, _ = fmt.Fprintf(w, "### %s\n\n", s.Title)
				}
				_, _ = fmt.Fprintf(w, "%s\n\n", escapeMarkdown(s.Content))
			}
		} else if strings.TrimSpace(entry.Content) != "" {
			_, _ = fmt.Fprintf(w, "%s\n\n", escapeMarkdown(entry.Content))
		}

		if i < len(f.Entries)-1 {
			_, _ = fmt.Fprintf(w, "---\n\n")
		}
	}

	return nil
}

// escapeMarkdown escapes markdown special characters
func escapeMarkdown(text string) string {
	// Basic escaping - preserve code blocks
	lines := strings.Split(text, "\n")
	var result []string
	inCodeBlock := false

	for _, line := range lines {
		if strings.HasPrefix(line, "```") {
			inCodeBlock = !inCodeBlock
			result = append(result, line)
		} else if inCodeBlock {
			result = append(result, line)
		} else {
			line = strings.ReplaceAll(line, "**", "\\*\\*")
			line = strings.ReplaceAll(line, "__", "\\_\\_")
			result = append(result, line)
		}
	}

	return strings.Join(result, "\n")
}

// Extension returns the file extension for this format
func (e *MarkdownExporter) Extension() string {
	return "md"
}
