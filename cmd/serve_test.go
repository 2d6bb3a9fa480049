package cmd

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/transcriptd/transcriptd/internal"
	"github.com/transcriptd/transcriptd/testutil"
)

func seedStore(t *testing.T) *testutil.FakeStore {
	t.Helper()
	store := testutil.NewFakeStore()
	testutil.SeedSession(store, internal.DefaultPrefix, "sess-1",
		[]string{
			testutil.RecordLine(t, "user", "sess-1", "2024-01-01T00:00:00Z", "m1", nil),
			testutil.ToolUseLine(t, "sess-1", "2024-01-01T00:00:01Z", "m2", "t1", "Bash"),
			testutil.ToolResultLine(t, "sess-1", "2024-01-01T00:00:03Z", "m3", "t1"),
		},
		map[string][]string{
			"sub-a": {
				testutil.RecordLine(t, "assistant", "sub-a", "2024-01-01T00:00:02Z", "a1", nil),
			},
		})
	return store
}

func newTestHandler(store *testutil.FakeStore) http.Handler {
	return newServer(store, internal.DefaultPrefix, "fake").routes()
}

func TestHandleSession_OK(t *testing.T) {
	handler := newTestHandler(seedStore(t))

	req := httptest.NewRequest("GET", "/api/transcript/session/sess-1", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	if rec.Header().Get("X-Request-Id") == "" {
		t.Error("X-Request-Id header missing")
	}

	var body struct {
		ID        string                   `json:"id"`
		SessionID string                   `json:"session_id"`
		Messages  []map[string]interface{} `json:"messages"`
		Subagents []struct {
			AgentID string                   `json:"agent_id"`
			Records []map[string]interface{} `json:"records"`
		} `json:"subagents"`
		ToolsUsed []string `json:"tools_used"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not valid JSON: %v", err)
	}

	if body.ID != "sess-1" || body.SessionID != "sess-1" {
		t.Errorf("id/session_id = %q/%q", body.ID, body.SessionID)
	}
	if len(body.Messages) != 4 {
		t.Errorf("messages = %d, want 3 main + 1 subagent", len(body.Messages))
	}
	if len(body.Subagents) != 1 || body.Subagents[0].AgentID != "sub-a" {
		t.Errorf("subagents = %+v", body.Subagents)
	}
	if len(body.ToolsUsed) != 1 || body.ToolsUsed[0] != "Bash" {
		t.Errorf("tools_used = %v", body.ToolsUsed)
	}

	// Subagent record interleaved by timestamp: m1, m2, a1, m3.
	if body.Messages[2]["uuid"] != "a1" {
		t.Errorf("message[2] uuid = %v, want a1", body.Messages[2]["uuid"])
	}
	if body.Messages[2]["agentId"] != "sub-a" {
		t.Errorf("message[2] agentId = %v, want sub-a", body.Messages[2]["agentId"])
	}
}

func TestHandleSession_ETag(t *testing.T) {
	handler := newTestHandler(seedStore(t))

	req := httptest.NewRequest("GET", "/api/transcript/session/sess-1", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	etag := rec.Header().Get("ETag")
	if etag == "" {
		t.Fatal("ETag header missing")
	}

	req = httptest.NewRequest("GET", "/api/transcript/session/sess-1", nil)
	req.Header.Set("If-None-Match", etag)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotModified {
		t.Errorf("status = %d, want 304", rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Errorf("304 response carries a body: %q", rec.Body.String())
	}
}

func TestHandleSession_InvalidID(t *testing.T) {
	handler := newTestHandler(seedStore(t))

	for _, id := range []string{"bad!id", "a,b", "sp%20ace"} {
		req := httptest.NewRequest("GET", "/api/transcript/session/"+id, nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("id %q: status = %d, want 400", id, rec.Code)
			continue
		}
		var body map[string]string
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("error body is not JSON: %v", err)
		}
		if body["error"] == "" {
			t.Errorf("id %q: error body missing message", id)
		}
	}
}

func TestHandleSession_NotFound(t *testing.T) {
	handler := newTestHandler(seedStore(t))

	req := httptest.NewRequest("GET", "/api/transcript/session/nonexistent", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("error body is not JSON: %v", err)
	}
	if body["error"] == "" {
		t.Error("error body missing message")
	}
}

func TestHandleSession_StoreFailure(t *testing.T) {
	store := seedStore(t)
	store.FailKeys["transcripts/sess-1/subagents/sub-a.jsonl"] = errors.New("connection reset")
	handler := newTestHandler(store)

	req := httptest.NewRequest("GET", "/api/transcript/session/sess-1", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	// Fail-closed: no partial timeline in the error body.
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("error body is not JSON: %v", err)
	}
	if body["error"] == "" {
		t.Error("error body missing message")
	}
}

func TestHandleSession_MalformedTranscript(t *testing.T) {
	store := testutil.NewFakeStore()
	store.PutLines("transcripts/sess-1.jsonl",
		`{"type":"user","uuid":"m1"}`,
		"not json",
	)
	handler := newTestHandler(store)

	req := httptest.NewRequest("GET", "/api/transcript/session/sess-1", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
}

func TestHandleHealth(t *testing.T) {
	handler := newTestHandler(seedStore(t))

	req := httptest.NewRequest("GET", "/api/health", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("health body is not JSON: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status = %q, want ok", body["status"])
	}
}

func TestHandleHealth_StoreDown(t *testing.T) {
	store := seedStore(t)
	store.ListErr = errors.New("dial timeout")
	handler := newTestHandler(store)

	req := httptest.NewRequest("GET", "/api/health", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("health body is not JSON: %v", err)
	}
	if body["status"] != "unavailable" || body["error"] == "" {
		t.Errorf("body = %v", body)
	}
}

func TestRoutes_MethodNotAllowed(t *testing.T) {
	handler := newTestHandler(seedStore(t))

	req := httptest.NewRequest("POST", "/api/transcript/session/sess-1", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

func fixtureObjects(t *testing.T) map[string][]byte {
	t.Helper()
	main := testutil.RecordLine(t, "user", "sess-1", "2024-01-01T00:00:00Z", "m1", nil) + "\n" +
		testutil.RecordLine(t, "assistant", "sess-1", "2024-01-01T00:00:02Z", "m2", nil) + "\n"
	sub := testutil.RecordLine(t, "assistant", "sub-a", "2024-01-01T00:00:01Z", "a1", nil) + "\n"
	return map[string][]byte{
		"transcripts/sess-1.jsonl":                 []byte(main),
		"transcripts/sess-1/subagents/sub-a.jsonl": []byte(sub),
	}
}

func assertSessionOK(t *testing.T, handler http.Handler) {
	t.Helper()
	req := httptest.NewRequest("GET", "/api/transcript/session/sess-1", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		SessionID string                   `json:"session_id"`
		Messages  []map[string]interface{} `json:"messages"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not valid JSON: %v", err)
	}
	if body.SessionID != "sess-1" || len(body.Messages) != 3 {
		t.Fatalf("session_id = %q, messages = %d", body.SessionID, len(body.Messages))
	}
	if body.Messages[1]["uuid"] != "a1" {
		t.Errorf("messages[1].uuid = %v, want a1", body.Messages[1]["uuid"])
	}
}

func TestHandleSession_DirStoreBackend(t *testing.T) {
	root := testutil.CreateTempDir(t)
	testutil.CreateDirStoreFixture(t, root, fixtureObjects(t))

	store, err := internal.NewDirStore(root)
	if err != nil {
		t.Fatalf("NewDirStore: %v", err)
	}
	assertSessionOK(t, newServer(store, internal.DefaultPrefix, "dir").routes())
}

func TestHandleSession_SQLiteBackend(t *testing.T) {
	dbPath := testutil.CreateTempDir(t) + "/objects.db"
	testutil.CreateStoreDBFixture(t, dbPath, fixtureObjects(t))

	store, err := internal.OpenSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("OpenSQLiteStore: %v", err)
	}
	defer func() { _ = store.Close() }()
	assertSessionOK(t, newServer(store, internal.DefaultPrefix, "sqlite").routes())
}
