package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
)

// VectorRecord is one embedded memory handed to a vector backend.
type VectorRecord struct {
	ID     string
	Vector []float32
}

// VectorMatch is one similarity hit from a vector backend.
type VectorMatch struct {
	ID         string
	Similarity float64
}

// VectorBackend stores embedded memories per student and answers
// similarity queries. Implementations: LocalIndex (in-process) and
// PineconeBackend (remote).
type VectorBackend interface {
	Upsert(ctx context.Context, studentID string, records []VectorRecord) error
	Query(ctx context.Context, studentID string, vector []float32, topK int) ([]VectorMatch, error)
	Delete(ctx context.Context, studentID string, ids []string) error
	DeleteStudent(ctx context.Context, studentID string) error
}

// LocalIndex is a brute-force cosine-similarity index over per-student
// vector lists. It is the always-available degraded path; student counts
// here are small enough that a linear scan beats index maintenance.
type LocalIndex struct {
	mu        sync.RWMutex
	dimension int
	vectors   map[string]map[string][]float32 // studentID -> entryID -> vector
}

// NewLocalIndex creates a local index with the given dimension.
func NewLocalIndex(dimension int) *LocalIndex {
	return &LocalIndex{
		dimension: dimension,
		vectors:   make(map[string]map[string][]float32),
	}
}

// Upsert adds or replaces vectors for a student.
func (l *LocalIndex) Upsert(ctx context.Context, studentID string, records []VectorRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	bucket, ok := l.vectors[studentID]
	if !ok {
		bucket = make(map[string][]float32)
		l.vectors[studentID] = bucket
	}

	for _, r := range records {
		if len(r.Vector) != l.dimension {
			return fmt.Errorf("%w: expected %d, got %d", ErrDimensionMismatch, l.dimension, len(r.Vector))
		}
		bucket[r.ID] = r.Vector
	}
	return nil
}

// Query scans the student's vectors and returns the topK most similar.
func (l *LocalIndex) Query(ctx context.Context, studentID string, vector []float32, topK int) ([]VectorMatch, error) {
	if len(vector) != l.dimension {
		return nil, fmt.Errorf("%w: expected %d, got %d", ErrDimensionMismatch, l.dimension, len(vector))
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	bucket := l.vectors[studentID]
	matches := make([]VectorMatch, 0, len(bucket))
	for id, vec := range bucket {
		matches = append(matches, VectorMatch{
			ID:         id,
			Similarity: cosineSimilarity(vector, vec),
		})
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Similarity > matches[j].Similarity
	})

	if topK > 0 && topK < len(matches) {
		matches = matches[:topK]
	}
	return matches, nil
}

// Delete removes vectors by id.
func (l *LocalIndex) Delete(ctx context.Context, studentID string, ids []string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if bucket, ok := l.vectors[studentID]; ok {
		for _, id := range ids {
			delete(bucket, id)
		}
	}
	return nil
}

// DeleteStudent removes all vectors for a student.
func (l *LocalIndex) DeleteStudent(ctx context.Context, studentID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.vectors, studentID)
	return nil
}

// Len returns the number of indexed vectors for a student.
func (l *LocalIndex) Len(studentID string) int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.vectors[studentID])
}

// cosineSimilarity calculates the cosine similarity between two vectors.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	denom := math.Sqrt(normA) * math.Sqrt(normB)
	if denom == 0 {
		return 0
	}
	return dotProduct / denom
}
