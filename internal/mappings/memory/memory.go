// Package memory provides an in-memory mapping store, used in tests and as a
// stand-in when no durable store is configured.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/dylanpinn/up-bank-lunch-money-sync/internal/mappings"
)

// Store is an in-memory implementation of mappings.Store.
// It is safe for concurrent use. Data is lost on restart.
type Store struct {
	mu      sync.RWMutex
	records map[string]mappings.Record
}

// NewStore creates a new in-memory mapping store.
func NewStore() *Store {
	return &Store{
		records: make(map[string]mappings.Record),
	}
}

// Get implements the mappings.Store interface.
func (s *Store) Get(_ context.Context, sourceID string) (*mappings.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[sourceID]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

// Put implements the mappings.Store interface.
func (s *Store) Put(_ context.Context, rec mappings.Record) error {
	if rec.SourceID == "" {
		return fmt.Errorf("mappings: source ID is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[rec.SourceID] = rec
	return nil
}

// Len returns the number of stored records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

var _ mappings.Store = (*Store)(nil)
