// Package memory implements store.Store in process memory. It backs
// development servers and tests; contents are lost on exit.
package memory

import (
	"context"
	"database/sql"
	"sort"
	"sync"

	"github.com/groblegark/configstore/internal/model"
	"github.com/groblegark/configstore/internal/store"
)

// MemoryStore keeps records per model name, keyed by Data.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]map[string]*model.Record

	txMu sync.Mutex
}

// Compile-time check that MemoryStore implements store.Store.
var _ store.Store = (*MemoryStore)(nil)

// New returns an empty store.
func New() *MemoryStore {
	return &MemoryStore{records: make(map[string]map[string]*model.Record)}
}

func (s *MemoryStore) GetRecord(_ context.Context, m *model.Model, data string) (*model.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[m.Name][data]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return clone(r), nil
}

func (s *MemoryStore) ListRecords(_ context.Context, m *model.Model) ([]*model.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*model.Record, 0, len(s.records[m.Name]))
	for _, r := range s.records[m.Name] {
		out = append(out, clone(r))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Data < out[j].Data })
	return out, nil
}

func (s *MemoryStore) InsertRecordIfAbsent(_ context.Context, r *model.Record) (bool, error) {
	if err := model.ValidateRecord(r); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	byKey, ok := s.records[r.Model.Name]
	if !ok {
		byKey = make(map[string]*model.Record)
		s.records[r.Model.Name] = byKey
	}
	if _, exists := byKey[r.Data]; exists {
		return false, nil
	}
	byKey[r.Data] = clone(r)
	return true, nil
}

func (s *MemoryStore) DeleteRecord(_ context.Context, m *model.Model, data string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[m.Name][data]; !ok {
		return sql.ErrNoRows
	}
	delete(s.records[m.Name], data)
	return nil
}

// RunInTransaction serializes transactions and restores the previous
// contents when fn fails.
func (s *MemoryStore) RunInTransaction(_ context.Context, fn func(tx store.Store) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	snapshot := make(map[string]map[string]*model.Record, len(s.records))
	for name, byKey := range s.records {
		cp := make(map[string]*model.Record, len(byKey))
		for k, r := range byKey {
			cp[k] = r
		}
		snapshot[name] = cp
	}
	s.mu.RUnlock()

	if err := fn(s); err != nil {
		s.mu.Lock()
		s.records = snapshot
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }

func clone(r *model.Record) *model.Record {
	cp := model.NewRecord(r.Model, r.Data)
	for k, v := range r.Values {
		cp.Values[k] = v
	}
	return cp
}
