package store

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/ppiankov/watchdog/internal/model"
)

// ErrNotFound is returned for an unknown record id
var ErrNotFound = errors.New("record not found")

// Store keeps processed prompt records
type Store interface {
	Save(rec model.PromptRecord) model.PromptRecord
	Get(id int64) (model.PromptRecord, error)
	List() []model.PromptRecord
}

// Memory is a mutex-guarded in-process record store with a monotonic id counter
type Memory struct {
	mu      sync.RWMutex
	nextID  int64
	records map[int64]model.PromptRecord
	now     func() time.Time
}

// NewMemory creates an empty store. Ids start at 1.
func NewMemory() *Memory {
	return &Memory{
		nextID:  1,
		records: make(map[int64]model.PromptRecord),
		now:     time.Now,
	}
}

// Save assigns the next id (and a timestamp if unset) and stores a copy
func (m *Memory) Save(rec model.PromptRecord) model.PromptRecord {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec.ID = m.nextID
	m.nextID++
	if rec.Timestamp.IsZero() {
		rec.Timestamp = m.now().UTC()
	}
	m.records[rec.ID] = rec
	return rec
}

func (m *Memory) Get(id int64) (model.PromptRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.records[id]
	if !ok {
		return model.PromptRecord{}, ErrNotFound
	}
	return rec, nil
}

// List returns all records, newest first. Ties on timestamp fall back to id.
func (m *Memory) List() []model.PromptRecord {
	m.mu.RLock()
	out := make([]model.PromptRecord, 0, len(m.records))
	for _, rec := range m.records {
		out = append(out, rec)
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.After(out[j].Timestamp)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

// Len returns the number of stored records
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}

// Clear drops all records. The id counter keeps counting.
func (m *Memory) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = make(map[int64]model.PromptRecord)
}
