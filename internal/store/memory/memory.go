// Package memory provides in-memory row stores, used as the default
// backend for local development and as fakes in tests.
package memory

import (
	"context"
	"sync"
	"time"

	"finboard/internal/core"
)

type RowStore struct {
	mu      sync.Mutex
	rows    []core.Transaction
	modTime time.Time
}

func NewRowStore(rows []core.Transaction) *RowStore {
	return &RowStore{rows: append([]core.Transaction(nil), rows...), modTime: time.Now()}
}

// Replace swaps the whole base table, advancing the freshness signal.
func (s *RowStore) Replace(rows []core.Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append([]core.Transaction(nil), rows...)
	s.modTime = time.Now()
}

func (s *RowStore) ReadAll(_ context.Context) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Transaction(nil), s.rows...), nil
}

func (s *RowStore) GetByID(_ context.Context, id string) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.rows {
		if t.ID == id {
			return t, nil
		}
	}
	return core.Transaction{}, core.ErrNotFound
}

func (s *RowStore) LastModified(_ context.Context) (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.modTime, nil
}

type OverrideStore struct {
	mu      sync.Mutex
	items   map[string]core.Override
	modTime time.Time
}

func NewOverrideStore() *OverrideStore {
	return &OverrideStore{items: make(map[string]core.Override), modTime: time.Now()}
}

func (s *OverrideStore) ReadAll(_ context.Context) ([]core.Override, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Override, 0, len(s.items))
	for _, o := range s.items {
		out = append(out, o)
	}
	return out, nil
}

func (s *OverrideStore) Upsert(_ context.Context, o core.Override) error {
	if err := o.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[o.TransactionID] = o
	s.modTime = time.Now()
	return nil
}

func (s *OverrideStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return nil
	}
	delete(s.items, id)
	s.modTime = time.Now()
	return nil
}

func (s *OverrideStore) LastModified(_ context.Context) (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.modTime, nil
}
