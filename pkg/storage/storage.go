// Package storage provides the student-keyed persistence abstraction for
// the personalization engine. Algorithm packages never touch a concrete
// backend; they read and write opaque records through Repository so the
// in-memory and Badger-backed implementations are interchangeable.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Buckets group records by subsystem. A (bucket, studentID) pair addresses
// one record.
const (
	BucketMastery  = "mastery"
	BucketEmotions = "emotions"
	BucketQuests   = "quests"
	BucketStreak   = "streak"
	BucketMemories = "memories"
)

// ErrNotFound is returned when no record exists for a (bucket, studentID) pair.
var ErrNotFound = errors.New("storage: record not found")

// Repository is a key-value store keyed by student id within named buckets.
type Repository interface {
	// Get returns the raw record, or ErrNotFound.
	Get(ctx context.Context, bucket, studentID string) ([]byte, error)

	// Set writes the raw record, replacing any previous value.
	Set(ctx context.Context, bucket, studentID string, data []byte) error

	// Delete removes the record. Deleting a missing record is not an error.
	Delete(ctx context.Context, bucket, studentID string) error

	// DeleteStudent removes the student's records across all buckets and
	// returns the number of records removed.
	DeleteStudent(ctx context.Context, studentID string) (int, error)

	// Close releases backend resources.
	Close() error
}

// CompletionHistory is the append-only record of days on which a student
// completed at least one quest. Delay analysis walks it backwards to count
// consecutive missed days.
type CompletionHistory interface {
	// RecordCompletion marks the given day as active for the student.
	// Recording the same day twice is a no-op.
	RecordCompletion(ctx context.Context, studentID string, day time.Time) error

	// CompletionDays returns the set of active days, newest first.
	CompletionDays(ctx context.Context, studentID string) ([]time.Time, error)

	// DeleteStudent erases the student's history.
	DeleteStudent(ctx context.Context, studentID string) error
}

// StorageUnavailableError indicates the backend could not be reached or opened.
type StorageUnavailableError struct {
	Cause error
}

func (e *StorageUnavailableError) Error() string {
	return fmt.Sprintf("storage unavailable: %v", e.Cause)
}

func (e *StorageUnavailableError) Unwrap() error { return e.Cause }

// SerializationError indicates a record could not be encoded or decoded.
type SerializationError struct {
	Operation string
	Cause     error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("serialization %s failed: %v", e.Operation, e.Cause)
}

func (e *SerializationError) Unwrap() error { return e.Cause }

// DayKey normalizes a timestamp to its calendar day in local time.
func DayKey(t time.Time) string {
	return t.Format("2006-01-02")
}
