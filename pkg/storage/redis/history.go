// Package redis provides a Redis-backed completion-history store.
package redis

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/studyflow/studyflow/pkg/storage"
)

// Config holds Redis connection settings.
type Config struct {
	Address  string
	Password string
	DB       int
}

// History implements storage.CompletionHistory on a Redis set per student.
// Completion days are idempotent set members, so double-recording a day
// needs no guard.
type History struct {
	client *redis.Client
}

// NewHistory creates a Redis-backed completion history and verifies the
// connection.
func NewHistory(ctx context.Context, cfg *Config) (*History, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, &storage.StorageUnavailableError{Cause: err}
	}

	return &History{client: client}, nil
}

func historyKey(studentID string) string {
	return fmt.Sprintf("history:%s", studentID)
}

// RecordCompletion marks the given day as active for the student.
func (h *History) RecordCompletion(ctx context.Context, studentID string, day time.Time) error {
	if err := h.client.SAdd(ctx, historyKey(studentID), storage.DayKey(day)).Err(); err != nil {
		return fmt.Errorf("redis: record completion: %w", err)
	}
	return nil
}

// CompletionDays returns the set of active days, newest first.
func (h *History) CompletionDays(ctx context.Context, studentID string) ([]time.Time, error) {
	members, err := h.client.SMembers(ctx, historyKey(studentID)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: completion days: %w", err)
	}

	days := make([]time.Time, 0, len(members))
	for _, m := range members {
		d, err := time.Parse("2006-01-02", m)
		if err != nil {
			continue // skip malformed members rather than failing the scan
		}
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].After(days[j]) })
	return days, nil
}

// DeleteStudent erases the student's history.
func (h *History) DeleteStudent(ctx context.Context, studentID string) error {
	if err := h.client.Del(ctx, historyKey(studentID)).Err(); err != nil {
		return fmt.Errorf("redis: delete history: %w", err)
	}
	return nil
}

// Close closes the Redis client.
func (h *History) Close() error {
	return h.client.Close()
}
