package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/transcriptd/transcriptd/internal"
)

// MarkdownExporter exports timelines in Markdown format
type MarkdownExporter struct{}

// Export exports a timeline to Markdown format
func (e *MarkdownExporter) Export(timeline *internal.Timeline, w io.Writer) error {
	// Header
	_, _ = fmt.Fprintf(w, "# Session %s\n\n", timeline.SessionID)
	_, _ = fmt.Fprintf(w, "**Records:** %d  \n", len(timeline.Records))
	_, _ = fmt.Fprintf(w, "**Subagents:** %d\n\n", len(timeline.Subagents))

	if len(timeline.ToolsUsed) > 0 {
		_, _ = fmt.Fprintf(w, "**Tools used:** %s\n\n", strings.Join(timeline.ToolsUsed, ", "))
	}

	_, _ = fmt.Fprintf(w, "---\n\n")
	_, _ = fmt.Fprintf(w, "## Timeline\n\n")

	for i := range timeline.Records {
		record := &timeline.Records[i]

		timestamp := ""
		if record.Timestamp != "" {
			timestamp = fmt.Sprintf(" (%s)", record.Timestamp)
		}
		actor := record.Role()
		if actor == "" {
			actor = "event"
		}
		_, _ = fmt.Fprintf(w, "**%s** [%s]%s\n\n", actor, record.AgentID, timestamp)

		for _, line := range renderBlocks(record) {
			_, _ = fmt.Fprintf(w, "%s\n\n", line)
		}

		if i < len(timeline.Records)-1 {
			_, _ = fmt.Fprintf(w, "---\n\n")
		}
	}

	return nil
}

// renderBlocks flattens a record's content blocks into markdown chunks.
func renderBlocks(record *internal.EventRecord) []string {
	blocks := record.ContentBlocks()
	if len(blocks) == 0 {
		return nil
	}

	var chunks []string
	for _, block := range blocks {
		switch block.Type {
		case "text":
			if block.Text != "" {
				chunks = append(chunks, escapeMarkdown(block.Text))
			}
		case "tool_use":
			chunks = append(chunks, fmt.Sprintf("`tool_use` **%s** (`%s`)", block.Name, block.ID))
			if len(block.Input) > 0 {
				chunks = append(chunks, fmt.Sprintf("```json\n%s\n```", string(block.Input)))
			}
		case "tool_result":
			chunks = append(chunks, fmt.Sprintf("`tool_result` for `%s`", block.ToolUseID))
			if len(block.Content) > 0 {
				chunks = append(chunks, fmt.Sprintf("```json\n%s\n```", string(block.Content)))
			}
		}
	}
	return chunks
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
