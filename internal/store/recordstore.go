package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/scanpipe/scanpipe/internal/record"
)

// RecordStore keeps the bounded scan history: an in-memory copy that is the
// source of truth for the running process, mirrored durably in a KV under
// HistoryKey as one JSON value.
//
// Append and Clear are atomic with respect to the in-memory copy: on a
// persistence failure the in-memory history is left unchanged and the error
// is returned to the caller.
type RecordStore struct {
	mu     sync.Mutex
	kv     KV
	hist   record.History
	logger *slog.Logger
}

// NewRecordStore wraps kv. Call Load once at startup to seed the in-memory copy.
func NewRecordStore(kv KV, logger *slog.Logger) *RecordStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &RecordStore{kv: kv, logger: logger}
}

// Load reads the durable history once. A missing or malformed value degrades
// to an empty history; only transport-level read failures are returned.
func (s *RecordStore) Load(ctx context.Context) (record.History, error) {
	raw, found, err := s.kv.Get(ctx, HistoryKey)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	var h record.History
	if found {
		if err := json.Unmarshal(raw, &h); err != nil {
			// Malformed data is treated as absent, not fatal.
			s.logger.Warn("stored history is malformed, starting empty", "error", err)
			h = nil
		}
	}
	s.mu.Lock()
	s.hist = h
	s.mu.Unlock()
	return h.Clone(), nil
}

// Append prepends rec, truncates to the cap, persists the full serialized
// history and returns the updated view.
func (s *RecordStore) Append(ctx context.Context, rec record.ScanRecord) (record.History, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.hist.Push(rec)
	raw, err := json.Marshal(next)
	if err != nil {
		return nil, fmt.Errorf("encode history: %w", err)
	}
	if err := s.kv.Set(ctx, HistoryKey, raw); err != nil {
		return nil, fmt.Errorf("persist history: %w", err)
	}
	s.hist = next
	return next.Clone(), nil
}

// Clear removes the durable entry and resets the in-memory history.
func (s *RecordStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.kv.Delete(ctx, HistoryKey); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	s.hist = nil
	return nil
}

// History returns a copy of the current in-memory view.
func (s *RecordStore) History() record.History {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hist.Clone()
}

// Len reports the number of retained records.
func (s *RecordStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.hist)
}

// Close closes the underlying KV.
func (s *RecordStore) Close() error { return s.kv.Close() }
