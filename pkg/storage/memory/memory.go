// Package memory provides in-memory implementations of the storage interfaces.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/studyflow/studyflow/pkg/storage"
)

// MemoryRepository implements storage.Repository using in-memory maps.
// It is the reference backend: state survives for the process lifetime only.
type MemoryRepository struct {
	mu      sync.RWMutex
	records map[string]map[string][]byte // bucket -> studentID -> record
}

// NewMemoryRepository creates a new in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		records: make(map[string]map[string][]byte),
	}
}

// Get returns the record for (bucket, studentID).
func (m *MemoryRepository) Get(ctx context.Context, bucket, studentID string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	b, ok := m.records[bucket]
	if !ok {
		return nil, storage.ErrNotFound
	}
	data, ok := b[studentID]
	if !ok {
		return nil, storage.ErrNotFound
	}

	// Copy so callers can't mutate the stored record.
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// Set writes the record for (bucket, studentID).
func (m *MemoryRepository) Set(ctx context.Context, bucket, studentID string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.records[bucket]
	if !ok {
		b = make(map[string][]byte)
		m.records[bucket] = b
	}

	stored := make([]byte, len(data))
	copy(stored, data)
	b[studentID] = stored
	return nil
}

// Delete removes the record for (bucket, studentID).
func (m *MemoryRepository) Delete(ctx context.Context, bucket, studentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if b, ok := m.records[bucket]; ok {
		delete(b, studentID)
	}
	return nil
}

// DeleteStudent removes the student's records across all buckets.
func (m *MemoryRepository) DeleteStudent(ctx context.Context, studentID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	count := 0
	for _, b := range m.records {
		if _, ok := b[studentID]; ok {
			delete(b, studentID)
			count++
		}
	}
	return count, nil
}

// Close is a no-op for the in-memory repository.
func (m *MemoryRepository) Close() error {
	return nil
}

// MemoryHistory implements storage.CompletionHistory with in-memory day sets.
type MemoryHistory struct {
	mu   sync.RWMutex
	days map[string]map[string]time.Time // studentID -> dayKey -> day
}

// NewMemoryHistory creates a new in-memory completion history.
func NewMemoryHistory() *MemoryHistory {
	return &MemoryHistory{
		days: make(map[string]map[string]time.Time),
	}
}

// RecordCompletion marks the given day as active.
func (m *MemoryHistory) RecordCompletion(ctx context.Context, studentID string, day time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	set, ok := m.days[studentID]
	if !ok {
		set = make(map[string]time.Time)
		m.days[studentID] = set
	}
	key := storage.DayKey(day)
	if _, exists := set[key]; !exists {
		set[key] = day.Truncate(24 * time.Hour)
	}
	return nil
}

// CompletionDays returns active days, newest first.
func (m *MemoryHistory) CompletionDays(ctx context.Context, studentID string) ([]time.Time, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	set, ok := m.days[studentID]
	if !ok {
		return nil, nil
	}

	days := make([]time.Time, 0, len(set))
	for _, d := range set {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].After(days[j]) })
	return days, nil
}

// DeleteStudent erases the student's history.
func (m *MemoryHistory) DeleteStudent(ctx context.Context, studentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.days, studentID)
	return nil
}
