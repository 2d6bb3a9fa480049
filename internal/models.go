package internal

import (
	"encoding/json"
	"time"
)

// EventRecord represents one logged step of an agent session. The named
// fields are the ones the merge cares about; everything else the source
// line carried rides along in Extra and round-trips unchanged.
type EventRecord struct {
	Type        string          `json:"type,omitempty"`
	SessionID   string          `json:"sessionId,omitempty"`
	Timestamp   string          `json:"timestamp,omitempty"`
	UUID        string          `json:"uuid,omitempty"`
	ParentUUID  *string         `json:"parentUuid,omitempty"`
	Message     json.RawMessage `json:"message,omitempty"`
	IsSidechain *bool           `json:"isSidechain,omitempty"`
	CWD         string          `json:"cwd,omitempty"`
	Version     string          `json:"version,omitempty"`

	// AgentID is derived during the merge, never present in source data.
	AgentID string `json:"agentId,omitempty"`

	// Extra holds every field of the source line that is not one of the
	// recognized keys above, verbatim.
	Extra map[string]json.RawMessage `json:"-"`
}

// recognizedRecordKeys are the keys mapped onto named EventRecord fields.
var recognizedRecordKeys = []string{
	"type", "sessionId", "timestamp", "uuid", "parentUuid",
	"message", "isSidechain", "cwd", "version", "agentId",
}

// UnmarshalJSON decodes the recognized keys into named fields and keeps
// all remaining keys raw in Extra.
func (r *EventRecord) UnmarshalJSON(data []byte) error {
	type plain EventRecord
	var known plain
	if err := json.Unmarshal(data, &known); err != nil {
		return err
	}

	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}
	for _, key := range recognizedRecordKeys {
		delete(all, key)
	}

	*r = EventRecord(known)
	if len(all) > 0 {
		r.Extra = all
	}
	return nil
}

// MarshalJSON merges the named fields and the passthrough bag back into
// one object. Keys are emitted in sorted order so the same record always
// serializes to the same bytes.
func (r EventRecord) MarshalJSON() ([]byte, error) {
	type plain EventRecord
	base, err := json.Marshal(plain(r))
	if err != nil {
		return nil, err
	}

	var merged map[string]json.RawMessage
	if err := json.Unmarshal(base, &merged); err != nil {
		return nil, err
	}
	for key, value := range r.Extra {
		if _, ok := merged[key]; !ok {
			merged[key] = value
		}
	}
	return json.Marshal(merged)
}

// ParsedTimestamp returns the record timestamp as a time value. Records
// with a missing or unparsable timestamp report ok=false and sort ahead
// of everything else, keeping their source order.
func (r *EventRecord) ParsedTimestamp() (time.Time, bool) {
	if r.Timestamp == "" {
		return time.Time{}, false
	}
	if ts, err := time.Parse(time.RFC3339Nano, r.Timestamp); err == nil {
		return ts, true
	}
	if ts, err := time.Parse(time.RFC3339, r.Timestamp); err == nil {
		return ts, true
	}
	return time.Time{}, false
}

// RecordMessage is the nested message payload of user/assistant records.
type RecordMessage struct {
	Role    string          `json:"role,omitempty"`
	Content json.RawMessage `json:"content,omitempty"`
}

// ContentBlock models one element of a message content array. Unknown
// block types simply leave the payload fields empty and are skipped by
// consumers that only care about text or tool blocks.
type ContentBlock struct {
	Type      string          `json:"type"`
	Text      string          `json:"text,omitempty"`
	ID        string          `json:"id,omitempty"`
	Name      string          `json:"name,omitempty"`
	Input     json.RawMessage `json:"input,omitempty"`
	ToolUseID string          `json:"tool_use_id,omitempty"`
	Content   json.RawMessage `json:"content,omitempty"`
}

// DecodeMessage decodes the nested message object, reporting ok=false
// when the record has none.
func (r *EventRecord) DecodeMessage() (RecordMessage, bool) {
	if len(r.Message) == 0 {
		return RecordMessage{}, false
	}
	var msg RecordMessage
	if err := json.Unmarshal(r.Message, &msg); err != nil {
		return RecordMessage{}, false
	}
	return msg, true
}

// ContentBlocks returns the message content as blocks. String content
// (plain user messages) is wrapped in a single text block.
func (r *EventRecord) ContentBlocks() []ContentBlock {
	msg, ok := r.DecodeMessage()
	if !ok || len(msg.Content) == 0 {
		return nil
	}

	var blocks []ContentBlock
	if err := json.Unmarshal(msg.Content, &blocks); err == nil {
		return blocks
	}

	var text string
	if err := json.Unmarshal(msg.Content, &text); err == nil && text != "" {
		return []ContentBlock{{Type: "text", Text: text}}
	}
	return nil
}

// Role returns the message role, falling back to the record type for
// records without a message payload.
func (r *EventRecord) Role() string {
	if msg, ok := r.DecodeMessage(); ok && msg.Role != "" {
		return msg.Role
	}
	return r.Type
}

// SubagentTranscript carries one subagent's parsed records for
// independent display alongside the merged timeline.
type SubagentTranscript struct {
	AgentID string        `json:"agent_id"`
	Key     string        `json:"key"`
	Records []EventRecord `json:"records"`
}

// Timeline is the merge output: every record of the main transcript and
// all subagent transcripts, sorted ascending by timestamp.
type Timeline struct {
	SessionID string               `json:"session_id"`
	Records   []EventRecord        `json:"messages"`
	Subagents []SubagentTranscript `json:"subagents"`
	ToolsUsed []string             `json:"tools_used"`
}

// SessionSummary holds lightweight information about one stored session.
type SessionSummary struct {
	ID            string
	Key           string
	RecordCount   int
	SubagentCount int
	FirstSeen     string
	LastSeen      string
}
