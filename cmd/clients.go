package cmd

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/practice-reconcile/internal"
	"github.com/iksnae/practice-reconcile/internal/match"
	"github.com/spf13/cobra"
)

var (
	// Styles
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62")).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	idStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")).
		Italic(true)

	countStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	dateStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	aliasStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("135")).
			Italic(true)
)

// clientsCmd represents the clients command
var clientsCmd = &cobra.Command{
	Use:   "clients",
	Short: "List known clients",
	Long:  `List the clients the reconciler matches orphaned records against.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, store, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		clients, err := store.GetClients(cmd.Context(), cfg.Owner)
		if err != nil {
			return fmt.Errorf("failed to load clients: %w", err)
		}
		displayClients(cmd.OutOrStdout(), clients)
		return nil
	},
}

// clientsResolveCmd represents the clients resolve command
var clientsResolveCmd = &cobra.Command{
	Use:   "resolve <name>...",
	Short: "Show which client a free-text name resolves to",
	Long: `Run names through the same matching cascade the reconciler uses
(exact, first+last, unique surname) and show the outcome.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, store, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		clients, err := store.GetClients(cmd.Context(), cfg.Owner)
		if err != nil {
			return fmt.Errorf("failed to load clients: %w", err)
		}
		idx := match.BuildIndex(clients)

		out := cmd.OutOrStdout()
		for _, name := range args {
			res := match.ResolveDetailed(name, idx)
			switch {
			case res.Found():
				fmt.Fprintf(out, "%s → %s %s (%s)\n", name, res.ClientID, idStyle.Render(idx.Name(res.ClientID)), res.Strategy)
			case res.Ambiguous():
				fmt.Fprintf(out, "%s → %s [%s]\n", name, warningStyle.Render(res.Reason), strings.Join(res.Candidates, ", "))
			default:
				fmt.Fprintf(out, "%s → %s\n", name, errorStyle.Render(res.Reason))
			}
		}
		return nil
	},
}

func displayClients(w io.Writer, clients []internal.ClientIdentity) {
	if len(clients) == 0 {
		fmt.Fprintln(w, headerStyle.Render("👥 No clients found"))
		return
	}

	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("👥 Found %d client(s)", len(clients))))
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	_, _ = fmt.Fprintln(tw, titleStyle.Render("ID")+"\t"+titleStyle.Render("Name")+"\t"+titleStyle.Render("Aliases")+"\t"+titleStyle.Render("Owner")+"\t")
	_, _ = fmt.Fprintln(tw, strings.Repeat("─", 80))

	for _, c := range clients {
		name := c.CanonicalName
		if len(name) > 40 {
			name = name[:37] + "..."
		}

		aliases := dateStyle.Render("—")
		if len(c.NameVariants) > 0 {
			aliases = aliasStyle.Render(strings.Join(c.NameVariants, ", "))
		}

		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t\n", idStyle.Render(c.ID), name, aliases, dash(c.OwnerID))
	}
	_ = tw.Flush()
}

func init() {
	rootCmd.AddCommand(clientsCmd)
	clientsCmd.AddCommand(clientsResolveCmd)
}
