package internal

import (
	"errors"
	"fmt"
)

// ErrSessionNotFound indicates no main transcript exists for a session id.
var ErrSessionNotFound = errors.New("session not found")

// ErrObjectNotFound indicates a single store key is absent. Distinct from
// StoreError: the store answered, the object just isn't there.
var ErrObjectNotFound = errors.New("object not found")

// ErrInvalidSessionID indicates a session id that fails identifier
// validation at the boundary. The merger never sees such ids.
var ErrInvalidSessionID = errors.New("invalid session id")

// StoreError represents a transport, permission, or service failure
// talking to the object store, distinguishable from "absent".
type StoreError struct {
	Op  string // "list", "get", "open"
	Key string
	Err error
}

func (e *StoreError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("store error: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("store error: %s %s: %v", e.Op, e.Key, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// MalformedRecordError reports a source line that is not valid JSON. The
// whole source is rejected; callers never see a half-parsed transcript.
type MalformedRecordError struct {
	Source string // storage key the blob came from
	Line   int    // 1-based
	Err    error
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed record in %s line %d: %v", e.Source, e.Line, e.Err)
}

func (e *MalformedRecordError) Unwrap() error {
	return e.Err
}
