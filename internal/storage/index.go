package storage

import (
	"context"
	"sync"

	"github.com/pathforge/api/internal/model"
)

// IndexStore keeps one record per job. Records are written once and never updated.
type IndexStore interface {
	Put(ctx context.Context, rec model.IndexRecord) error
	List(ctx context.Context) ([]model.IndexRecord, error)
}

// SelectLatest returns the record with the greatest UpdatedAt. Ties go to the
// greater JobID so the result does not depend on scan order.
func SelectLatest(records []model.IndexRecord) (model.IndexRecord, bool) {
	var latest model.IndexRecord
	found := false
	for _, rec := range records {
		if rec.UpdatedAt == "" {
			continue
		}
		if !found || rec.UpdatedAt > latest.UpdatedAt ||
			(rec.UpdatedAt == latest.UpdatedAt && rec.JobID > latest.JobID) {
			latest = rec
			found = true
		}
	}
	return latest, found
}

// MemoryIndex is a process-local IndexStore
type MemoryIndex struct {
	mu      sync.RWMutex
	records map[string]model.IndexRecord
}

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{records: make(map[string]model.IndexRecord)}
}

func (m *MemoryIndex) Put(_ context.Context, rec model.IndexRecord) error {
	if err := checkKey(rec.JobID); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	// Records are immutable once written
	if _, exists := m.records[rec.JobID]; !exists {
		m.records[rec.JobID] = rec
	}
	return nil
}

func (m *MemoryIndex) List(_ context.Context) ([]model.IndexRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.IndexRecord, 0, len(m.records))
	for _, rec := range m.records {
		out = append(out, rec)
	}
	return out, nil
}
