package internal

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"
)

func createObjectsDB(t *testing.T, objects map[string]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "store.db")

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	defer db.Close()

	if _, err := db.Exec(`CREATE TABLE objects (key TEXT PRIMARY KEY, value BLOB)`); err != nil {
		t.Fatalf("create table: %v", err)
	}
	for key, value := range objects {
		if _, err := db.Exec(`INSERT INTO objects (key, value) VALUES (?, ?)`, key, []byte(value)); err != nil {
			t.Fatalf("insert %s: %v", key, err)
		}
	}
	return path
}

func TestSQLiteStore_ListKeys(t *testing.T) {
	path := createObjectsDB(t, map[string]string{
		"transcripts/b.jsonl":             "{}",
		"transcripts/a.jsonl":             "{}",
		"transcripts/a/subagents/x.jsonl": "{}",
		"other/c.jsonl":                   "{}",
	})

	store, err := OpenSQLiteStore(path)
	if err != nil {
		t.Fatalf("OpenSQLiteStore() error = %v", err)
	}
	defer store.Close()

	keys, err := store.ListKeys(context.Background(), "transcripts/")
	if err != nil {
		t.Fatalf("ListKeys() error = %v", err)
	}

	want := []string{
		"transcripts/a.jsonl",
		"transcripts/a/subagents/x.jsonl",
		"transcripts/b.jsonl",
	}
	if len(keys) != len(want) {
		t.Fatalf("ListKeys() = %v, want %v", keys, want)
	}
	for i, key := range want {
		if keys[i] != key {
			t.Errorf("keys[%d] = %q, want %q", i, keys[i], key)
		}
	}
}

func TestSQLiteStore_ListKeys_WildcardsAreLiteral(t *testing.T) {
	// LIKE wildcards in the prefix must not overmatch.
	path := createObjectsDB(t, map[string]string{
		"transcripts/sess_1.jsonl": "{}",
		"transcripts/sessX1.jsonl": "{}",
	})

	store, err := OpenSQLiteStore(path)
	if err != nil {
		t.Fatalf("OpenSQLiteStore() error = %v", err)
	}
	defer store.Close()

	keys, err := store.ListKeys(context.Background(), "transcripts/sess_1")
	if err != nil {
		t.Fatalf("ListKeys() error = %v", err)
	}
	if len(keys) != 1 || keys[0] != "transcripts/sess_1.jsonl" {
		t.Errorf("ListKeys() = %v, want only transcripts/sess_1.jsonl", keys)
	}
}

func TestSQLiteStore_GetObject(t *testing.T) {
	path := createObjectsDB(t, map[string]string{
		"transcripts/a.jsonl": `{"uuid":"u1"}`,
	})

	store, err := OpenSQLiteStore(path)
	if err != nil {
		t.Fatalf("OpenSQLiteStore() error = %v", err)
	}
	defer store.Close()

	data, err := store.GetObject(context.Background(), "transcripts/a.jsonl")
	if err != nil {
		t.Fatalf("GetObject() error = %v", err)
	}
	if string(data) != `{"uuid":"u1"}` {
		t.Errorf("GetObject() = %q", data)
	}

	_, err = store.GetObject(context.Background(), "transcripts/missing.jsonl")
	if !errors.Is(err, ErrObjectNotFound) {
		t.Fatalf("GetObject(missing) error = %v, want ErrObjectNotFound", err)
	}
}

func TestOpenSQLiteStore_MissingFile(t *testing.T) {
	_, err := OpenSQLiteStore(filepath.Join(t.TempDir(), "nope.db"))
	var storeErr *StoreError
	if !errors.As(err, &storeErr) {
		t.Fatalf("OpenSQLiteStore() error = %v, want *StoreError", err)
	}
}
