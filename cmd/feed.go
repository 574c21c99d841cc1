package cmd

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/iksnae/practice-reconcile/internal"
	"github.com/iksnae/practice-reconcile/internal/export"
	"github.com/iksnae/practice-reconcile/internal/feed"
	"github.com/spf13/cobra"
)

var (
	feedFormat string
	feedOut    string
	feedClient string
	feedLimit  int
)

// feedCmd represents the feed command
var feedCmd = &cobra.Command{
	Use:   "feed",
	Short: "Show the unified client feed",
	Long: `Merge session notes, recordings and sessions into one reverse-chronological
feed with one entry per clinical event.

A note supersedes a recording or session it covers, and a recording
supersedes its session. Formats: table, json, jsonl, yaml, md.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var exporter export.Exporter
		if feedFormat != "table" {
			var err error
			if exporter, err = export.NewExporter(feedFormat); err != nil {
				return err
			}
		} else if feedOut != "" {
			return fmt.Errorf("--out requires a file format (json, jsonl, yaml, md)")
		}

		db, store, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		f, err := feed.Load(cmd.Context(), store, cfg.Owner, internal.LogObserver{})
		if err != nil {
			return err
		}
		f.Entries = feed.Select(f.Entries, feedClient, feedLimit)

		out := cmd.OutOrStdout()
		switch {
		case exporter == nil:
			displayFeed(out, f)
		case feedOut != "":
			if err := export.WriteFile(exporter, f, feedOut); err != nil {
				return err
			}
			internal.PrintSuccess(fmt.Sprintf("Feed exported: %d entries written to %s", len(f.Entries), feedOut))
		default:
			if err := exporter.Export(f, out); err != nil {
				return fmt.Errorf("failed to export feed: %w", err)
			}
		}
		return nil
	},
}

func displayFeed(w io.Writer, f *feed.Feed) {
	if len(f.Entries) == 0 {
		fmt.Fprintln(w, headerStyle.Render("📰 Feed is empty"))
		return
	}

	counts := f.Count()
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("📰 %d feed entries (%d notes, %d recordings, %d sessions)",
		len(f.Entries), counts[feed.SourceNote], counts[feed.SourceRecording], counts[feed.SourceSession])))
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	_, _ = fmt.Fprintln(tw, titleStyle.Render("When")+"\t"+titleStyle.Render("Client")+"\t"+titleStyle.Render("Source")+"\t"+titleStyle.Render("Content")+"\t")
	_, _ = fmt.Fprintln(tw, strings.Repeat("─", 100))

	for _, e := range f.Entries {
		when := dateStyle.Render("—")
		if !e.OccurredAt.IsZero() {
			when = dateStyle.Render(e.OccurredAt.UTC().Format("2006-01-02 15:04"))
		}

		client := e.ClientName
		if client == "" {
			client = e.ClientID
		}
		if client == "" {
			client = idStyle.Render("unassigned")
		}

		content := strings.Join(strings.Fields(e.Content), " ")
		if len(content) > 60 {
			content = content[:57] + "..."
		}

		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t\n", when, client, aliasStyle.Render(string(e.SourceKind)), content)
	}
	_ = tw.Flush()
}

func init() {
	rootCmd.AddCommand(feedCmd)
	feedCmd.Flags().StringVarP(&feedFormat, "format", "f", "table", "Output format (table, json, jsonl, yaml, md)")
	feedCmd.Flags().StringVarP(&feedOut, "out", "o", "", "Write the feed to this file instead of stdout")
	feedCmd.Flags().StringVar(&feedClient, "client", "", "Only show entries for this client id")
	feedCmd.Flags().IntVarP(&feedLimit, "limit", "n", 0, "Show at most this many entries (0 for all)")
}
