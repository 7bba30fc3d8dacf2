// Package burnout tracks a student's recent emotional signals and derives
// a burnout level with coping advice from a recency-weighted window.
package burnout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/studyflow/studyflow/pkg/storage"
)

// Emotion labels the feeling a student reported for a study interaction.
type Emotion string

const (
	EmotionFrustrated Emotion = "FRUSTRATED"
	EmotionAnxious    Emotion = "ANXIOUS"
	EmotionConfused   Emotion = "CONFUSED"
	EmotionTired      Emotion = "TIRED"
	EmotionExhausted  Emotion = "EXHAUSTED"
	EmotionBored      Emotion = "BORED"
	EmotionNeutral    Emotion = "NEUTRAL"
	EmotionCalm       Emotion = "CALM"
	EmotionMotivated  Emotion = "MOTIVATED"
	EmotionConfident  Emotion = "CONFIDENT"
	EmotionHappy      Emotion = "HAPPY"
)

// emotionWeights are signed contributions to the burnout score: negative
// emotions push the score up, positive ones pull it down.
var emotionWeights = map[Emotion]float64{
	EmotionFrustrated: 1.0,
	EmotionAnxious:    0.9,
	EmotionExhausted:  0.9,
	EmotionTired:      0.7,
	EmotionConfused:   0.5,
	EmotionBored:      0.4,
	EmotionNeutral:    0.0,
	EmotionCalm:       -0.4,
	EmotionHappy:      -0.7,
	EmotionConfident:  -0.8,
	EmotionMotivated:  -1.0,
}

// fatigueEmotions count toward the fatigue warning signal.
var fatigueEmotions = map[Emotion]struct{}{
	EmotionTired:     {},
	EmotionExhausted: {},
}

// Level is the burnout severity classification.
type Level string

const (
	LevelLow    Level = "LOW"
	LevelMedium Level = "MEDIUM"
	LevelHigh   Level = "HIGH"
)

// Recommendation tells the upstream planner whether to keep assigning work.
type Recommendation string

const (
	RecommendContinue  Recommendation = "CONTINUE"
	RecommendTakeBreak Recommendation = "TAKE_BREAK"
	RecommendStopToday Recommendation = "STOP_TODAY"
)

// Warning signal names raised by the independent pattern checks.
const (
	SignalConsecutiveNegative = "consecutive_negative_emotions"
	SignalFrequentFatigue     = "frequent_fatigue"
	SignalNoPositiveEmotion   = "no_positive_emotion"
)

// EmotionRecord is one reported emotion with its timestamp.
type EmotionRecord struct {
	Emotion    Emotion   `json:"emotion"`
	RecordedAt time.Time `json:"recordedAt"`
}

// Indicator is the derived burnout assessment. It is computed on demand
// from the rolling window and never stored as source of truth.
type Indicator struct {
	Level            Level           `json:"level"`
	Score            float64         `json:"score"` // [0,1]
	RecentEmotions   []EmotionRecord `json:"recentEmotions"`
	WarningSignals   []string        `json:"warningSignals"`
	CopingStrategies []string        `json:"copingStrategies"`
	LastAssessedAt   time.Time       `json:"lastAssessedAt"`
}

// Thresholds are the level cutoffs, adjustable at runtime.
type Thresholds struct {
	Medium float64
	High   float64
}

// DefaultThresholds returns the standard level cutoffs.
func DefaultThresholds() Thresholds {
	return Thresholds{Medium: 0.4, High: 0.7}
}

// Monitor records emotions and assesses burnout over a trailing window.
type Monitor struct {
	mu         sync.Mutex
	repo       storage.Repository
	windowDays int
	thresholds Thresholds
	now        func() time.Time
}

// NewMonitor creates a burnout monitor tracking windowDays of emotions.
func NewMonitor(repo storage.Repository, windowDays int, thresholds Thresholds) *Monitor {
	if windowDays <= 0 {
		windowDays = 7
	}
	return &Monitor{
		repo:       repo,
		windowDays: windowDays,
		thresholds: thresholds,
		now:        time.Now,
	}
}

// SetThresholds replaces the level cutoffs at runtime.
func (m *Monitor) SetThresholds(t Thresholds) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.thresholds = t
}

// SetClock overrides the time source. Test hook.
func (m *Monitor) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

// RecordEmotion appends an emotion to the student's window and prunes
// entries older than the tracking window. Unknown emotion labels are
// stored with neutral weight rather than rejected.
func (m *Monitor) RecordEmotion(ctx context.Context, studentID string, emotion Emotion) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	window, err := m.loadWindow(ctx, studentID)
	if err != nil {
		return err
	}

	now := m.now()
	window = append(window, EmotionRecord{Emotion: emotion, RecordedAt: now})
	window = pruneWindow(window, now, m.windowDays)

	return m.saveWindow(ctx, studentID, window)
}

// AssessBurnout computes the current burnout indicator from the window.
// An empty window yields a LOW indicator with a zero score.
func (m *Monitor) AssessBurnout(ctx context.Context, studentID string) (*Indicator, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	window, err := m.loadWindow(ctx, studentID)
	if err != nil {
		return nil, err
	}

	now := m.now()
	window = pruneWindow(window, now, m.windowDays)

	score := burnoutScore(window)
	level := m.levelFor(score)

	return &Indicator{
		Level:            level,
		Score:            score,
		RecentEmotions:   window,
		WarningSignals:   warningSignals(window),
		CopingStrategies: copingStrategies(level),
		LastAssessedAt:   now,
	}, nil
}

// ShouldContinueStudying collapses the burnout level into a ternary
// recommendation used to veto further task assignment for the day.
func (m *Monitor) ShouldContinueStudying(ctx context.Context, studentID string) (Recommendation, error) {
	indicator, err := m.AssessBurnout(ctx, studentID)
	if err != nil {
		return RecommendContinue, err
	}
	switch indicator.Level {
	case LevelHigh:
		return RecommendStopToday, nil
	case LevelMedium:
		return RecommendTakeBreak, nil
	default:
		return RecommendContinue, nil
	}
}

func (m *Monitor) levelFor(score float64) Level {
	switch {
	case score >= m.thresholds.High:
		return LevelHigh
	case score >= m.thresholds.Medium:
		return LevelMedium
	default:
		return LevelLow
	}
}

// burnoutScore sums each record's signed emotion weight scaled by a
// recency weight (index+1)/N, normalizes the sum to [-1,1] against the
// maximum possible magnitude, then rescales into [0,1].
func burnoutScore(window []EmotionRecord) float64 {
	n := len(window)
	if n == 0 {
		return 0
	}

	var weighted, maxMagnitude float64
	for i, rec := range window {
		recency := float64(i+1) / float64(n)
		weighted += emotionWeights[rec.Emotion] * recency
		maxMagnitude += recency
	}
	if maxMagnitude == 0 {
		return 0
	}

	normalized := weighted / maxMagnitude // [-1,1]
	return (normalized + 1) / 2
}

// warningSignals runs the independent pattern checks over the window.
func warningSignals(window []EmotionRecord) []string {
	var signals []string

	consecutive := 0
	maxConsecutive := 0
	fatigue := 0
	positive := 0
	for _, rec := range window {
		w := emotionWeights[rec.Emotion]
		if w > 0 {
			consecutive++
			if consecutive > maxConsecutive {
				maxConsecutive = consecutive
			}
		} else {
			consecutive = 0
		}
		if _, ok := fatigueEmotions[rec.Emotion]; ok {
			fatigue++
		}
		if w < 0 {
			positive++
		}
	}

	if maxConsecutive >= 3 {
		signals = append(signals, SignalConsecutiveNegative)
	}
	if fatigue >= 4 {
		signals = append(signals, SignalFrequentFatigue)
	}
	if positive == 0 && len(window) >= 7 {
		signals = append(signals, SignalNoPositiveEmotion)
	}
	return signals
}

func copingStrategies(level Level) []string {
	switch level {
	case LevelHigh:
		return []string{
			"Stop studying for today and do something you enjoy",
			"Get a full night of sleep before the next session",
			"Talk to someone about how the workload feels",
			"Come back tomorrow with a single small task",
		}
	case LevelMedium:
		return []string{
			"Take a 20-30 minute break away from the screen",
			"Switch to a lighter subject or a review session",
			"Go for a short walk before continuing",
		}
	default:
		return []string{
			"Keep up the steady pace",
			"Remember to take short breaks between sessions",
		}
	}
}

func pruneWindow(window []EmotionRecord, now time.Time, windowDays int) []EmotionRecord {
	cutoff := now.AddDate(0, 0, -windowDays)
	pruned := window[:0]
	for _, rec := range window {
		if rec.RecordedAt.Before(cutoff) {
			continue
		}
		pruned = append(pruned, rec)
	}
	return pruned
}

func (m *Monitor) loadWindow(ctx context.Context, studentID string) ([]EmotionRecord, error) {
	raw, err := m.repo.Get(ctx, storage.BucketEmotions, studentID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading emotion window: %w", err)
	}
	var window []EmotionRecord
	if err := json.Unmarshal(raw, &window); err != nil {
		return nil, &storage.SerializationError{Operation: "decode emotions", Cause: err}
	}
	return window, nil
}

func (m *Monitor) saveWindow(ctx context.Context, studentID string, window []EmotionRecord) error {
	raw, err := json.Marshal(window)
	if err != nil {
		return &storage.SerializationError{Operation: "encode emotions", Cause: err}
	}
	if err := m.repo.Set(ctx, storage.BucketEmotions, studentID, raw); err != nil {
		return fmt.Errorf("saving emotion window: %w", err)
	}
	return nil
}
