package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/medsim/exporter/internal/record"
)

// MemoryRepo is an in-memory RecordRepository. It backs the server when no
// database is configured and the repositories in tests. Records round-trip
// through JSON on save and fetch so callers never share mutable state with
// the store.
type MemoryRepo struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

// NewMemoryRepo creates an empty in-memory repository.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{docs: make(map[string][]byte)}
}

func (m *MemoryRepo) Save(_ context.Context, rec *record.Record) error {
	if rec == nil || rec.Patient == nil || rec.Patient.ID == "" {
		return fmt.Errorf("store: patient identity is required")
	}
	rec.Normalize()

	doc, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("store: marshal record: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[rec.Patient.ID] = doc
	return nil
}

func (m *MemoryRepo) FetchRecord(_ context.Context, patientID string) (*record.Record, error) {
	m.mu.RLock()
	doc, ok := m.docs[patientID]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}

	var rec record.Record
	if err := json.Unmarshal(doc, &rec); err != nil {
		return nil, fmt.Errorf("store: unmarshal record %s: %w", patientID, err)
	}
	if err := rec.Relink(); err != nil {
		return nil, fmt.Errorf("store: relink record %s: %w", patientID, err)
	}
	return &rec, nil
}

func (m *MemoryRepo) Delete(_ context.Context, patientID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[patientID]; !ok {
		return ErrNotFound
	}
	delete(m.docs, patientID)
	return nil
}

func (m *MemoryRepo) ListPatientIDs(_ context.Context, limit, offset int) ([]string, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.docs))
	for id := range m.docs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	total := len(ids)
	if offset >= total {
		return nil, total, nil
	}
	ids = ids[offset:]
	if limit > 0 && limit < len(ids) {
		ids = ids[:limit]
	}
	return ids, total, nil
}
