// Package srs schedules topic reviews with the SM-2 algorithm and tracks
// per-topic mastery as an exponential moving average of review quality.
package srs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/studyflow/studyflow/pkg/storage"
)

// ErrInvalidQuality is returned when a review quality is outside [0,5].
var ErrInvalidQuality = errors.New("srs: quality must be between 0 and 5")

// TopicMastery is the SM-2 state for one topic of one student. It is
// created on first exposure and only ever mutated through UpdateMastery.
type TopicMastery struct {
	TopicID            string    `json:"topicId"`
	Subject            string    `json:"subject"`
	MasteryScore       float64   `json:"masteryScore"` // [0,10], EMA of quality*2
	EasinessFactor     float64   `json:"easinessFactor"`
	Interval           int       `json:"interval"` // days
	Repetitions        int       `json:"repetitions"`
	NextReviewDate     time.Time `json:"nextReviewDate"`
	LastReviewDate     time.Time `json:"lastReviewDate"`
	TotalAttempts      int       `json:"totalAttempts"`
	SuccessfulAttempts int       `json:"successfulAttempts"`
}

// Config holds the scheduling knobs.
type Config struct {
	// MaxIntervalDays caps the computed review interval.
	MaxIntervalDays int
	// EMAAlpha blends a new observation into the mastery score.
	EMAAlpha float64
}

// DefaultConfig returns the standard scheduling knobs.
func DefaultConfig() Config {
	return Config{
		MaxIntervalDays: 30,
		EMAAlpha:        0.3,
	}
}

// Manager persists and updates SM-2 topic state through the repository.
// All mutation goes through UpdateMastery so the SM-2 invariants hold.
type Manager struct {
	mu     sync.Mutex
	repo   storage.Repository
	config Config
	now    func() time.Time
}

// NewManager creates a spaced-repetition manager backed by repo.
func NewManager(repo storage.Repository, cfg Config) *Manager {
	if cfg.MaxIntervalDays <= 0 {
		cfg.MaxIntervalDays = 30
	}
	if cfg.EMAAlpha <= 0 || cfg.EMAAlpha > 1 {
		cfg.EMAAlpha = 0.3
	}
	return &Manager{
		repo:   repo,
		config: cfg,
		now:    time.Now,
	}
}

// Initialize creates fresh SM-2 state for a topic. Calling it for a topic
// that already exists is a no-op returning the existing state.
func (m *Manager) Initialize(ctx context.Context, studentID, topicID, subject string, initialScore float64) (*TopicMastery, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	topics, err := m.loadTopics(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if existing, ok := topics[topicID]; ok {
		return existing, nil
	}

	now := m.now()
	tm := &TopicMastery{
		TopicID:        topicID,
		Subject:        subject,
		MasteryScore:   initialScore,
		EasinessFactor: 2.5,
		Interval:       1,
		Repetitions:    0,
		LastReviewDate: now,
		NextReviewDate: now.AddDate(0, 0, 1),
	}
	topics[topicID] = tm
	if err := m.saveTopics(ctx, studentID, topics); err != nil {
		return nil, err
	}
	return tm, nil
}

// UpdateMastery applies one graded review outcome to a topic. Quality
// runs 0 (blackout) to 5 (perfect). Quality below 3 resets the spacing:
// repetitions go to 0 and the interval back to one day. An unknown topic
// yields (nil, nil) so callers can branch without an error check.
func (m *Manager) UpdateMastery(ctx context.Context, studentID, topicID string, quality int) (*TopicMastery, error) {
	if quality < 0 || quality > 5 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidQuality, quality)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	topics, err := m.loadTopics(ctx, studentID)
	if err != nil {
		return nil, err
	}
	tm, ok := topics[topicID]
	if !ok {
		return nil, nil
	}

	now := m.now()
	tm.TotalAttempts++

	// Standard SM-2 easiness update, floored at 1.3.
	q := float64(quality)
	ef := tm.EasinessFactor + (0.1 - (5-q)*(0.08+(5-q)*0.02))
	if ef < 1.3 {
		ef = 1.3
	}
	tm.EasinessFactor = ef

	if quality < 3 {
		tm.Repetitions = 0
		tm.Interval = 1
	} else {
		tm.SuccessfulAttempts++
		switch tm.Repetitions {
		case 0:
			tm.Interval = 1
		case 1:
			tm.Interval = 6
		default:
			next := int(math.Round(float64(tm.Interval) * tm.EasinessFactor))
			if next > m.config.MaxIntervalDays {
				next = m.config.MaxIntervalDays
			}
			tm.Interval = next
		}
		tm.Repetitions++
	}

	// Mastery is an EMA of the quality mapped onto a 0-10 scale.
	alpha := m.config.EMAAlpha
	tm.MasteryScore = alpha*(q*2) + (1-alpha)*tm.MasteryScore

	tm.LastReviewDate = now
	tm.NextReviewDate = now.AddDate(0, 0, tm.Interval)

	if err := m.saveTopics(ctx, studentID, topics); err != nil {
		return nil, err
	}
	return tm, nil
}

// GetMastery returns the state for one topic, or nil when unknown.
func (m *Manager) GetMastery(ctx context.Context, studentID, topicID string) (*TopicMastery, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	topics, err := m.loadTopics(ctx, studentID)
	if err != nil {
		return nil, err
	}
	return topics[topicID], nil
}

// GetTopicsDueForReview returns every topic whose next review date is now
// or earlier, weakest mastery first, optionally filtered to one subject.
func (m *Manager) GetTopicsDueForReview(ctx context.Context, studentID, subject string) ([]*TopicMastery, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	topics, err := m.loadTopics(ctx, studentID)
	if err != nil {
		return nil, err
	}

	now := m.now()
	due := make([]*TopicMastery, 0, len(topics))
	for _, tm := range topics {
		if subject != "" && tm.Subject != subject {
			continue
		}
		if tm.NextReviewDate.After(now) {
			continue
		}
		due = append(due, tm)
	}

	sort.SliceStable(due, func(i, j int) bool {
		if due[i].MasteryScore != due[j].MasteryScore {
			return due[i].MasteryScore < due[j].MasteryScore
		}
		return due[i].NextReviewDate.Before(due[j].NextReviewDate)
	})
	return due, nil
}

// GetAllTopics returns every tracked topic for a student.
func (m *Manager) GetAllTopics(ctx context.Context, studentID string) ([]*TopicMastery, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	topics, err := m.loadTopics(ctx, studentID)
	if err != nil {
		return nil, err
	}
	all := make([]*TopicMastery, 0, len(topics))
	for _, tm := range topics {
		all = append(all, tm)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].TopicID < all[j].TopicID })
	return all, nil
}

// SetClock overrides the time source. Test hook.
func (m *Manager) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

func (m *Manager) loadTopics(ctx context.Context, studentID string) (map[string]*TopicMastery, error) {
	raw, err := m.repo.Get(ctx, storage.BucketMastery, studentID)
	if errors.Is(err, storage.ErrNotFound) {
		return make(map[string]*TopicMastery), nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading mastery state: %w", err)
	}
	var topics map[string]*TopicMastery
	if err := json.Unmarshal(raw, &topics); err != nil {
		return nil, &storage.SerializationError{Operation: "decode mastery", Cause: err}
	}
	if topics == nil {
		topics = make(map[string]*TopicMastery)
	}
	return topics, nil
}

func (m *Manager) saveTopics(ctx context.Context, studentID string, topics map[string]*TopicMastery) error {
	raw, err := json.Marshal(topics)
	if err != nil {
		return &storage.SerializationError{Operation: "encode mastery", Cause: err}
	}
	if err := m.repo.Set(ctx, storage.BucketMastery, studentID, raw); err != nil {
		return fmt.Errorf("saving mastery state: %w", err)
	}
	return nil
}
