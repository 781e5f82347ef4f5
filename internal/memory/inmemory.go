package memory

import (
	"context"
	"sync"
)

// InMemoryStore is a simple in-process memory store for local/dev use.
type InMemoryStore struct {
	mu              sync.RWMutex
	records         map[string]*Record
	defaultTimezone string
}

func NewInMemoryStore(defaultTimezone string) *InMemoryStore {
	return &InMemoryStore{
		records:         make(map[string]*Record),
		defaultTimezone: defaultTimezone,
	}
}

func (s *InMemoryStore) Load(_ context.Context, sessionID string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[sessionID]
	if !ok {
		return NewRecord(sessionID, s.defaultTimezone), nil
	}
	return rec.Clone(), nil
}

func (s *InMemoryStore) Save(_ context.Context, rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.SessionID] = rec.Clone()
	return nil
}

func (s *InMemoryStore) Close() error { return nil }
