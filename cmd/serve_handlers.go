package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/transcriptd/transcriptd/internal"
	"github.com/zeebo/blake3"
)

// sessionIDPattern is the identifier shape accepted on the path. Anything
// else is rejected at the boundary; the merger only ever sees validated ids.
var sessionIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// server holds the per-process collaborators of the HTTP layer. There is
// no shared mutable state between requests: every request issues its own
// store calls.
type server struct {
	store   internal.ObjectStore
	merger  *internal.Merger
	prefix  string
	backend string
}

func newServer(store internal.ObjectStore, prefix, backend string) *server {
	return &server{
		store:   store,
		merger:  internal.NewMerger(store, prefix),
		prefix:  prefix,
		backend: backend,
	}
}

// routes builds the route table. ServeMux resolves static prefixes before
// wildcard segments, so registration order carries no meaning here.
func (s *server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/transcript/session/{sessionId}", s.handleSession)
	mux.HandleFunc("GET /api/health", s.handleHealth)
	return s.withRequestLog(mux)
}

// withRequestLog tags every request with an id and logs method, path,
// and duration.
func (s *server) withRequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.NewString()
		w.Header().Set("X-Request-Id", requestID)
		start := time.Now()
		next.ServeHTTP(w, r)
		internal.LogDebug("%s %s id=%s took=%s", r.Method, r.URL.Path, requestID, time.Since(start))
	})
}

// sessionResponse is the wire shape of a merged timeline.
type sessionResponse struct {
	ID        string                        `json:"id"`
	SessionID string                        `json:"session_id"`
	Messages  []internal.EventRecord        `json:"messages"`
	Subagents []internal.SubagentTranscript `json:"subagents"`
	ToolsUsed []string                      `json:"tools_used"`
}

func (s *server) handleSession(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("sessionId")
	if !sessionIDPattern.MatchString(sessionID) {
		writeError(w, http.StatusBadRequest,
			fmt.Errorf("%w: %q", internal.ErrInvalidSessionID, sessionID))
		return
	}

	timeline, err := s.merger.Merge(r.Context(), sessionID)
	if err != nil {
		switch {
		case errors.Is(err, internal.ErrSessionNotFound):
			writeError(w, http.StatusNotFound, err)
		default:
			// Malformed records and store failures both surface as 500;
			// the body says which.
			internal.LogError("merge %s failed: %v", sessionID, err)
			writeError(w, http.StatusInternalServerError, err)
		}
		return
	}

	body, err := json.Marshal(sessionResponse{
		ID:        timeline.SessionID,
		SessionID: timeline.SessionID,
		Messages:  timeline.Records,
		Subagents: timeline.Subagents,
		ToolsUsed: timeline.ToolsUsed,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	etag := fmt.Sprintf(`"%x"`, blake3.Sum256(body))
	w.Header().Set("ETag", etag)
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// healthResponse reports whether the store answers a listing call.
type healthResponse struct {
	Status  string `json:"status"`
	Backend string `json:"backend,omitempty"`
	Error   string `json:"error,omitempty"`
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if _, err := s.store.ListKeys(ctx, s.prefix); err != nil {
		internal.LogWarn("health check failed: %v", err)
		writeJSON(w, http.StatusServiceUnavailable, healthResponse{
			Status: "unavailable",
			Error:  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Backend: s.backend})
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
