// Package badger provides a Badger-based implementation of the storage interfaces.
package badger

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/studyflow/studyflow/pkg/storage"
)

// Config holds configuration for BadgerRepository.
type Config struct {
	Path             string
	SyncWrites       bool
	ValueLogFileSize int64
}

// BadgerRepository implements storage.Repository using Badger.
type BadgerRepository struct {
	db     *badger.DB
	config *Config
}

// NewBadgerRepository opens a Badger-backed repository.
func NewBadgerRepository(config *Config) (*BadgerRepository, error) {
	opts := badger.DefaultOptions(config.Path)
	opts.SyncWrites = config.SyncWrites
	if config.ValueLogFileSize > 0 {
		opts.ValueLogFileSize = config.ValueLogFileSize
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, &storage.StorageUnavailableError{Cause: err}
	}

	return &BadgerRepository{db: db, config: config}, nil
}

// NewWithDB wraps an externally managed Badger DB. Close becomes a no-op
// against the underlying database.
func NewWithDB(db *badger.DB) *BadgerRepository {
	return &BadgerRepository{db: db}
}

func recordKey(bucket, studentID string) []byte {
	return []byte(fmt.Sprintf("student:%s:%s", bucket, studentID))
}

func bucketPrefix(bucket string) []byte {
	return []byte(fmt.Sprintf("student:%s:", bucket))
}

// Get returns the record for (bucket, studentID).
func (b *BadgerRepository) Get(ctx context.Context, bucket, studentID string) ([]byte, error) {
	var data []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(recordKey(bucket, studentID))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("badger: get %s/%s: %w", bucket, studentID, err)
	}
	return data, nil
}

// Set writes the record for (bucket, studentID).
func (b *BadgerRepository) Set(ctx context.Context, bucket, studentID string, data []byte) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(recordKey(bucket, studentID), data)
	})
	if err != nil {
		return fmt.Errorf("badger: set %s/%s: %w", bucket, studentID, err)
	}
	return nil
}

// Delete removes the record for (bucket, studentID).
func (b *BadgerRepository) Delete(ctx context.Context, bucket, studentID string) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(recordKey(bucket, studentID))
	})
	if err != nil {
		return fmt.Errorf("badger: delete %s/%s: %w", bucket, studentID, err)
	}
	return nil
}

// DeleteStudent removes the student's records across all buckets.
func (b *BadgerRepository) DeleteStudent(ctx context.Context, studentID string) (int, error) {
	buckets := []string{
		storage.BucketMastery,
		storage.BucketEmotions,
		storage.BucketQuests,
		storage.BucketStreak,
		storage.BucketMemories,
	}

	count := 0
	err := b.db.Update(func(txn *badger.Txn) error {
		for _, bucket := range buckets {
			key := recordKey(bucket, studentID)
			if _, err := txn.Get(key); err != nil {
				if errors.Is(err, badger.ErrKeyNotFound) {
					continue
				}
				return err
			}
			if err := txn.Delete(key); err != nil {
				return err
			}
			count++
		}
		return nil
	})
	if err != nil {
		return count, fmt.Errorf("badger: delete student %s: %w", studentID, err)
	}
	return count, nil
}

// Close closes the underlying database if this repository owns it.
func (b *BadgerRepository) Close() error {
	if b.config == nil {
		return nil
	}
	return b.db.Close()
}
