package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/transcriptd/transcriptd/internal"
)

var (
	showLimit int
)

var (
	// Styles for show command
	sessionHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("212")).
				Padding(0, 1).
				MarginBottom(1)

	sessionMetaStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("243")).
				MarginBottom(1)

	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true).
			Padding(0, 1)

	assistantStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("135")).
			Bold(true).
			Padding(0, 1)

	eventStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Padding(0, 1)

	recordContentStyle = lipgloss.NewStyle().
				Padding(0, 2).
				MarginBottom(1)

	timestampStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)

	agentTagStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))
)

// showCmd represents the show command
var showCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Show the merged timeline for a session",
	Long: `Display the merged timeline for a session: the main transcript plus
all subagent transcripts, interleaved in timestamp order. Each record is
tagged with the agent that produced it.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sessionID := args[0]

		merger, err := openMerger()
		if err != nil {
			return fmt.Errorf("failed to open store: %w", err)
		}

		timeline, err := merger.Merge(context.Background(), sessionID)
		if err != nil {
			return fmt.Errorf("failed to merge session: %w", err)
		}

		fmt.Println(sessionHeaderStyle.Render("Session " + timeline.SessionID))
		meta := fmt.Sprintf("%d records, %d subagents", len(timeline.Records), len(timeline.Subagents))
		if len(timeline.ToolsUsed) > 0 {
			meta += ", tools: " + strings.Join(timeline.ToolsUsed, ", ")
		}
		fmt.Println(sessionMetaStyle.Render(meta))

		shown := 0
		for i := range timeline.Records {
			if showLimit > 0 && shown >= showLimit {
				fmt.Println(sessionMetaStyle.Render(
					fmt.Sprintf("... and %d more records", len(timeline.Records)-shown)))
				break
			}
			printRecord(&timeline.Records[i])
			shown++
		}

		return nil
	},
}

func printRecord(record *internal.EventRecord) {
	actor := record.Role()
	var style lipgloss.Style
	switch actor {
	case "user":
		style = userStyle
	case "assistant":
		style = assistantStyle
	default:
		style = eventStyle
		if actor == "" {
			actor = "event"
		}
	}

	header := style.Render(actor) + " " + agentTagStyle.Render("["+record.AgentID+"]")
	if record.Timestamp != "" {
		header += " " + timestampStyle.Render(record.Timestamp)
	}
	fmt.Println(header)

	for _, block := range record.ContentBlocks() {
		switch block.Type {
		case "text":
			if block.Text != "" {
				fmt.Println(recordContentStyle.Render(block.Text))
			}
		case "tool_use":
			fmt.Println(recordContentStyle.Render(
				fmt.Sprintf("tool_use %s (%s)", block.Name, block.ID)))
		case "tool_result":
			fmt.Println(recordContentStyle.Render(
				fmt.Sprintf("tool_result for %s", block.ToolUseID)))
		}
	}
}

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().IntVar(&showLimit, "limit", 0, "Maximum records to display (0 = all)")
}
