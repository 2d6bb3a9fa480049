package testutil

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"
)

// RecordLine builds one transcript JSONL line. Extra fields are merged
// into the object after the named ones.
func RecordLine(t *testing.T, typ, sessionID, timestamp, uuid string, extra map[string]interface{}) string {
	t.Helper()
	obj := map[string]interface{}{
		"type":      typ,
		"sessionId": sessionID,
		"timestamp": timestamp,
		"uuid":      uuid,
	}
	for key, value := range extra {
		obj[key] = value
	}
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("Failed to marshal record line: %v", err)
	}
	return string(data)
}

// ToolUseLine builds an assistant record carrying a tool_use block.
func ToolUseLine(t *testing.T, sessionID, timestamp, uuid, toolID, toolName string) string {
	t.Helper()
	return RecordLine(t, "assistant", sessionID, timestamp, uuid, map[string]interface{}{
		"message": map[string]interface{}{
			"role": "assistant",
			"content": []map[string]interface{}{
				{"type": "tool_use", "id": toolID, "name": toolName, "input": map[string]interface{}{}},
			},
		},
	})
}

// ToolResultLine builds a user record carrying a tool_result block.
func ToolResultLine(t *testing.T, sessionID, timestamp, uuid, toolUseID string) string {
	t.Helper()
	return RecordLine(t, "user", sessionID, timestamp, uuid, map[string]interface{}{
		"message": map[string]interface{}{
			"role": "user",
			"content": []map[string]interface{}{
				{"type": "tool_result", "tool_use_id": toolUseID, "content": "done"},
			},
		},
	})
}

// SeedSession populates a fake store with a main transcript and subagent
// transcripts under the canonical key scheme.
func SeedSession(store *FakeStore, prefix, sessionID string, mainLines []string, subagents map[string][]string) {
	store.PutLines(mainKey(prefix, sessionID), mainLines...)
	for subID, lines := range subagents {
		store.PutLines(subagentKey(prefix, sessionID, subID), lines...)
	}
}

func mainKey(prefix, sessionID string) string {
	return fmt.Sprintf("%s%s.jsonl", prefix, sessionID)
}

func subagentKey(prefix, sessionID, subID string) string {
	return fmt.Sprintf("%s%s/subagents/%s.jsonl", prefix, sessionID, subID)
}

// CreateStoreDBFixture creates a SQLite object-store fixture holding the
// given key/value objects.
func CreateStoreDBFixture(t *testing.T, dbPath string, objects map[string][]byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		t.Fatalf("Failed to create fixture directory: %v", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	defer func() { _ = db.Close() }()

	createTableSQL := `
	CREATE TABLE IF NOT EXISTS objects (
		key TEXT PRIMARY KEY,
		value BLOB
	)`
	if _, err := db.Exec(createTableSQL); err != nil {
		t.Fatalf("Failed to create table: %v", err)
	}

	insertSQL := "INSERT INTO objects (key, value) VALUES (?, ?)"
	for key, value := range objects {
		if _, err := db.Exec(insertSQL, key, value); err != nil {
			t.Fatalf("Failed to insert object %s: %v", key, err)
		}
	}
}

// CreateDirStoreFixture materializes objects as files under root.
func CreateDirStoreFixture(t *testing.T, root string, objects map[string][]byte) {
	t.Helper()
	for key, value := range objects {
		path := filepath.Join(root, filepath.FromSlash(key))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("Failed to create object directory: %v", err)
		}
		if err := os.WriteFile(path, value, 0644); err != nil {
			t.Fatalf("Failed to write object %s: %v", key, err)
		}
	}
}
