package storage

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

const (
	defaultWriteAttempts = 3
	defaultWriteBackoff  = 200 * time.Millisecond
)

// WriteError is returned when a document write ultimately fails, after
// retries for transient conditions or immediately for structural ones.
type WriteError struct {
	Attempts int
	Err      error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("writing feedback document (after %d attempt(s)): %v", e.Attempts, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// FeedbackStore persists feedback documents with a small bounded retry on
// transient write failures. By the time a document reaches here it is
// fully validated, so availability is the only failure mode worth
// retrying.
type FeedbackStore struct {
	store       *Store
	maxAttempts int
	baseBackoff time.Duration
}

// NewFeedbackStore wraps the given Store. maxAttempts <= 0 and
// baseBackoff <= 0 fall back to the defaults (3 attempts, 200ms base).
func NewFeedbackStore(store *Store, maxAttempts int, baseBackoff time.Duration) *FeedbackStore {
	if maxAttempts <= 0 {
		maxAttempts = defaultWriteAttempts
	}
	if baseBackoff <= 0 {
		baseBackoff = defaultWriteBackoff
	}
	return &FeedbackStore{store: store, maxAttempts: maxAttempts, baseBackoff: baseBackoff}
}

// Save upserts the document. Transient failures (lock contention, busy
// database, I/O hiccups) are retried with exponential backoff up to the
// configured attempt limit; structural failures surface immediately.
func (f *FeedbackStore) Save(ctx context.Context, doc FeedbackDocument) error {
	var lastErr error
	for attempt := 1; attempt <= f.maxAttempts; attempt++ {
		err := f.store.UpsertFeedbackDocument(ctx, doc)
		if err == nil {
			return nil
		}
		lastErr = err

		if !isTransientWriteError(err) {
			return &WriteError{Attempts: attempt, Err: err}
		}
		if attempt == f.maxAttempts {
			break
		}

		backoff := f.baseBackoff * time.Duration(1<<(attempt-1))
		slog.Warn("transient write failure, retrying",
			"document_id", doc.ID, "attempt", attempt, "backoff", backoff, "error", err)
		select {
		case <-ctx.Done():
			return &WriteError{Attempts: attempt, Err: ctx.Err()}
		case <-time.After(backoff):
		}
	}
	return &WriteError{Attempts: f.maxAttempts, Err: lastErr}
}

// isTransientWriteError reports whether the write failed on an availability
// condition rather than a structural one.
func isTransientWriteError(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"busy", "locked", "i/o error", "disk i/o"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
