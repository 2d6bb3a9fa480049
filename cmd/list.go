package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/transcriptd/transcriptd/internal"
)

var (
	// Styles
	listHeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62")).
			Padding(0, 1)

	listIDStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")).
			Bold(true)

	listCountStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	listDateStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List sessions available in the store",
	Long: `List every session that has a main transcript in the object store,
with record counts, subagent counts, and the time range covered.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		merger, err := openMerger()
		if err != nil {
			return fmt.Errorf("failed to open store: %w", err)
		}

		ctx := context.Background()
		ids, err := merger.Sessions(ctx)
		if err != nil {
			return fmt.Errorf("failed to list sessions: %w", err)
		}

		if len(ids) == 0 {
			fmt.Println("No sessions found.")
			return nil
		}

		fmt.Println(listHeaderStyle.Render(fmt.Sprintf("%d session(s)", len(ids))))
		fmt.Println()

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "SESSION\tRECORDS\tSUBAGENTS\tFIRST\tLAST")
		for _, id := range ids {
			summary, err := merger.Summarize(ctx, id)
			if err != nil {
				internal.LogWarn("failed to summarize %s: %v", id, err)
				fmt.Fprintf(w, "%s\t-\t-\t-\t-\n", listIDStyle.Render(id))
				continue
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				listIDStyle.Render(summary.ID),
				listCountStyle.Render(fmt.Sprintf("%d", summary.RecordCount)),
				listCountStyle.Render(fmt.Sprintf("%d", summary.SubagentCount)),
				listDateStyle.Render(summary.FirstSeen),
				listDateStyle.Render(summary.LastSeen))
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
