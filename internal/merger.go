package internal

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultPrefix is the canonical location of transcripts in the store:
// main transcript at <prefix><sessionId>.jsonl, subagent transcripts at
// <prefix><sessionId>/subagents/<subagentId>.jsonl. Either may carry a
// .gz suffix.
const DefaultPrefix = "transcripts/"

// SessionDescriptor is the set of storage keys belonging to one session:
// the main transcript plus zero or more subagent transcripts in
// discovery (listing) order.
type SessionDescriptor struct {
	SessionID    string
	MainKey      string
	SubagentKeys []string
}

// Merger produces merged session timelines from an object store. It
// keeps no state between calls: every merge is one listing call plus one
// get per transcript, fresh.
type Merger struct {
	store  ObjectStore
	prefix string
}

// NewMerger creates a merger reading under the given key prefix. An
// empty prefix means DefaultPrefix.
func NewMerger(store ObjectStore, prefix string) *Merger {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Merger{store: store, prefix: prefix}
}

// Resolve discovers the descriptor for a session id. Returns
// ErrSessionNotFound when no main transcript key exists.
func (m *Merger) Resolve(ctx context.Context, sessionID string) (*SessionDescriptor, error) {
	base := m.prefix + sessionID
	keys, err := m.store.ListKeys(ctx, base)
	if err != nil {
		return nil, err
	}

	desc := &SessionDescriptor{SessionID: sessionID}
	subagentPrefix := base + "/subagents/"
	for _, key := range keys {
		switch {
		case key == base+".jsonl" || key == base+".jsonl.gz":
			// Prefer the uncompressed variant if both exist.
			if desc.MainKey == "" || strings.HasSuffix(desc.MainKey, ".gz") {
				desc.MainKey = key
			}
		case strings.HasPrefix(key, subagentPrefix) && isTranscriptKey(key):
			desc.SubagentKeys = append(desc.SubagentKeys, key)
		}
	}

	if desc.MainKey == "" {
		return nil, fmt.Errorf("%s: %w", sessionID, ErrSessionNotFound)
	}
	return desc, nil
}

// Merge builds the timeline for a session: fetch and parse the main
// transcript and every subagent transcript, tag each record with the
// agent that produced it, concatenate main-first, and stable-sort by
// timestamp. Any fetch or parse failure fails the whole merge; a partial
// timeline is never returned.
func (m *Merger) Merge(ctx context.Context, sessionID string) (*Timeline, error) {
	desc, err := m.Resolve(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	// Fan out the independent fetches; one slot per transcript so results
	// keep discovery order regardless of completion order.
	parsed := make([][]EventRecord, 1+len(desc.SubagentKeys))
	group, groupCtx := errgroup.WithContext(ctx)

	fetch := func(slot int, key string) {
		group.Go(func() error {
			data, err := m.store.GetObject(groupCtx, key)
			if err != nil {
				return err
			}
			records, err := ParseRecords(key, data)
			if err != nil {
				return err
			}
			parsed[slot] = records
			return nil
		})
	}

	fetch(0, desc.MainKey)
	for i, key := range desc.SubagentKeys {
		fetch(1+i, key)
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	timeline := &Timeline{
		SessionID: sessionID,
		Records:   []EventRecord{},
		Subagents: []SubagentTranscript{},
		ToolsUsed: []string{},
	}

	for i := range parsed[0] {
		parsed[0][i].AgentID = sessionID
	}
	timeline.Records = append(timeline.Records, parsed[0]...)

	for i, key := range desc.SubagentKeys {
		records := parsed[1+i]
		agentID := subagentID(key, records)
		for j := range records {
			// The record's own sessionId is the source of truth; the
			// filename-derived id is only a fallback.
			if records[j].SessionID != "" {
				records[j].AgentID = records[j].SessionID
			} else {
				records[j].AgentID = agentID
			}
		}
		if records == nil {
			records = []EventRecord{}
		}
		timeline.Subagents = append(timeline.Subagents, SubagentTranscript{
			AgentID: agentID,
			Key:     key,
			Records: records,
		})
		timeline.Records = append(timeline.Records, records...)
	}

	sortRecords(timeline.Records)
	timeline.ToolsUsed = toolsUsed(timeline.Records)
	return timeline, nil
}

// sortRecords stable-sorts ascending by parsed timestamp. Equal
// timestamps (and unparsable ones) keep concatenation order: main before
// subagents, subagents in discovery order.
func sortRecords(records []EventRecord) {
	type recordKey struct {
		ts time.Time
		ok bool
	}
	keys := make([]recordKey, len(records))
	for i := range records {
		ts, ok := records[i].ParsedTimestamp()
		keys[i] = recordKey{ts: ts, ok: ok}
	}
	sort.SliceStable(records, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.ok != b.ok {
			return !a.ok
		}
		return a.ts.Before(b.ts)
	})
}

// toolsUsed collects unique tool names from tool_use blocks in first-use
// order over the sorted timeline.
func toolsUsed(records []EventRecord) []string {
	seen := make(map[string]bool)
	names := []string{}
	for i := range records {
		for _, block := range records[i].ContentBlocks() {
			if block.Type != "tool_use" || block.Name == "" {
				continue
			}
			if !seen[block.Name] {
				seen[block.Name] = true
				names = append(names, block.Name)
			}
		}
	}
	return names
}

// subagentID derives the tag for a subagent transcript: the sessionId of
// its first record that has one, else the filename stem.
func subagentID(key string, records []EventRecord) string {
	for i := range records {
		if records[i].SessionID != "" {
			return records[i].SessionID
		}
	}
	stem := path.Base(key)
	stem = strings.TrimSuffix(stem, ".gz")
	stem = strings.TrimSuffix(stem, ".jsonl")
	return stem
}

// Sessions lists the ids of every session with a main transcript under
// the merger's prefix.
func (m *Merger) Sessions(ctx context.Context) ([]string, error) {
	keys, err := m.store.ListKeys(ctx, m.prefix)
	if err != nil {
		return nil, err
	}

	var ids []string
	seen := make(map[string]bool)
	for _, key := range keys {
		rest := strings.TrimPrefix(key, m.prefix)
		if strings.Contains(rest, "/") || !isTranscriptKey(key) {
			continue
		}
		id := strings.TrimSuffix(strings.TrimSuffix(rest, ".gz"), ".jsonl")
		if id != "" && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// Summarize fetches and parses one session's main transcript to build a
// lightweight listing entry. Subagent transcripts are counted from the
// listing but not fetched.
func (m *Merger) Summarize(ctx context.Context, sessionID string) (*SessionSummary, error) {
	desc, err := m.Resolve(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	data, err := m.store.GetObject(ctx, desc.MainKey)
	if err != nil {
		return nil, err
	}
	records, err := ParseRecords(desc.MainKey, data)
	if err != nil {
		return nil, err
	}

	summary := &SessionSummary{
		ID:            sessionID,
		Key:           desc.MainKey,
		RecordCount:   len(records),
		SubagentCount: len(desc.SubagentKeys),
	}
	if len(records) > 0 {
		summary.FirstSeen = records[0].Timestamp
		summary.LastSeen = records[len(records)-1].Timestamp
	}
	return summary, nil
}

func isTranscriptKey(key string) bool {
	return strings.HasSuffix(key, ".jsonl") || strings.HasSuffix(key, ".jsonl.gz")
}
