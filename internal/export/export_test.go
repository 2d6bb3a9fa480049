package export

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/transcriptd/transcriptd/internal"
)

// testTimeline builds a small merged timeline the way the merger would:
// tagged records in timestamp order with a subagent summary.
func testTimeline(t *testing.T) *internal.Timeline {
	t.Helper()
	lines := []string{
		`{"type":"user","sessionId":"sess-1","timestamp":"2024-01-01T00:00:00Z","uuid":"m1",` +
			`"gitBranch":"main","message":{"role":"user","content":"run the tests"}}`,
		`{"type":"assistant","sessionId":"sub-a","timestamp":"2024-01-01T00:00:01Z","uuid":"a1",` +
			`"message":{"role":"assistant","content":[{"type":"tool_use","id":"t1","name":"Bash","input":{"command":"go test"}}]}}`,
		`{"type":"user","sessionId":"sess-1","timestamp":"2024-01-01T00:00:02Z","uuid":"m2",` +
			`"message":{"role":"user","content":[{"type":"tool_result","tool_use_id":"t1","content":"ok"}]}}`,
	}
	agents := []string{"sess-1", "sub-a", "sess-1"}

	records := make([]internal.EventRecord, len(lines))
	for i, line := range lines {
		if err := json.Unmarshal([]byte(line), &records[i]); err != nil {
			t.Fatalf("build record %d: %v", i, err)
		}
		records[i].AgentID = agents[i]
	}

	return &internal.Timeline{
		SessionID: "sess-1",
		Records:   records,
		Subagents: []internal.SubagentTranscript{
			{AgentID: "sub-a", Key: "transcripts/sess-1/subagents/sub-a.jsonl", Records: records[1:2]},
		},
		ToolsUsed: []string{"Bash"},
	}
}

func TestJSONLExporter_Export(t *testing.T) {
	var buf bytes.Buffer
	if err := (&JSONLExporter{}).Export(testTimeline(t), &buf); err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3", len(lines))
	}
	for i, line := range lines {
		var obj map[string]interface{}
		if err := json.Unmarshal([]byte(line), &obj); err != nil {
			t.Fatalf("line %d is not valid JSON: %v", i, err)
		}
		if obj["agentId"] == "" || obj["agentId"] == nil {
			t.Errorf("line %d is missing agentId", i)
		}
	}
	// Passthrough fields survive export.
	if !strings.Contains(lines[0], `"gitBranch":"main"`) {
		t.Errorf("passthrough field dropped: %s", lines[0])
	}
}

func TestJSONLExporter_EmptyTimeline(t *testing.T) {
	var buf bytes.Buffer
	timeline := &internal.Timeline{SessionID: "empty"}
	if err := (&JSONLExporter{}).Export(timeline, &buf); err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("empty timeline produced output: %q", buf.String())
	}
}

func TestJSONExporter_Export(t *testing.T) {
	var buf bytes.Buffer
	if err := (&JSONExporter{}).Export(testTimeline(t), &buf); err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	var doc struct {
		SessionID string                   `json:"session_id"`
		Messages  []map[string]interface{} `json:"messages"`
		ToolsUsed []string                 `json:"tools_used"`
	}
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if doc.SessionID != "sess-1" {
		t.Errorf("session_id = %q", doc.SessionID)
	}
	if len(doc.Messages) != 3 {
		t.Errorf("messages = %d, want 3", len(doc.Messages))
	}
	if len(doc.ToolsUsed) != 1 || doc.ToolsUsed[0] != "Bash" {
		t.Errorf("tools_used = %v", doc.ToolsUsed)
	}
}

func TestMarkdownExporter_Export(t *testing.T) {
	var buf bytes.Buffer
	if err := (&MarkdownExporter{}).Export(testTimeline(t), &buf); err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"# Session sess-1",
		"**Tools used:** Bash",
		"run the tests",
		"`tool_use` **Bash**",
		"`tool_result` for `t1`",
		"[sub-a]",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("markdown output missing %q", want)
		}
	}
}

func TestYAMLExporter_Export(t *testing.T) {
	var buf bytes.Buffer
	if err := (&YAMLExporter{}).Export(testTimeline(t), &buf); err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	out := buf.String()

	for _, want := range []string{"session_id: sess-1", "tools_used:", "agentId: sub-a"} {
		if !strings.Contains(out, want) {
			t.Errorf("yaml output missing %q", want)
		}
	}
	// Raw JSON payloads must appear as structured YAML, not byte blobs.
	if strings.Contains(out, "!!binary") {
		t.Error("yaml output contains binary blobs")
	}
}
