package quest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/studyflow/studyflow/pkg/storage"
)

// keepDays bounds how many day records are retained per student.
const keepDays = 14

// trackerLogger is the logging surface the tracker needs.
type trackerLogger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

type nopTrackerLogger struct{}

func (nopTrackerLogger) Debug(msg string, args ...any) {}
func (nopTrackerLogger) Warn(msg string, args ...any)  {}

// TrackerObserver receives quest lifecycle events, e.g. for metrics.
type TrackerObserver interface {
	QuestCompleted(questType string)
	QuestExpired(questType string)
	XPAwarded(amount int)
}

type nopTrackerObserver struct{}

func (nopTrackerObserver) QuestCompleted(string) {}
func (nopTrackerObserver) QuestExpired(string)   {}
func (nopTrackerObserver) XPAwarded(int)         {}

// streak badge thresholds, ascending.
var streakBadges = []struct {
	days int
	name string
}{
	{3, "3-Day Streak"},
	{7, "Week Warrior"},
	{14, "Fortnight Focus"},
	{30, "Monthly Master"},
}

// xpBadges are cumulative XP thresholds, ascending.
var xpBadges = []struct {
	xp   int
	name string
}{
	{100, "First Hundred"},
	{500, "XP Collector"},
	{1000, "Scholar"},
	{5000, "Grandmaster"},
}

// TrackerOption customizes a Tracker.
type TrackerOption func(*Tracker)

// WithTrackerLogger sets the tracker's logger.
func WithTrackerLogger(log trackerLogger) TrackerOption {
	return func(t *Tracker) { t.logger = log }
}

// WithTrackerObserver sets the tracker's lifecycle observer.
func WithTrackerObserver(obs TrackerObserver) TrackerOption {
	return func(t *Tracker) { t.observer = obs }
}

// Tracker owns the quest lifecycle and the per-student XP/streak/badge
// aggregate. Every mutation of quest or progress state goes through it.
type Tracker struct {
	mu       sync.Mutex
	repo     storage.Repository
	logger   trackerLogger
	observer TrackerObserver
	now      func() time.Time
}

// NewTracker creates a quest tracker backed by repo.
func NewTracker(repo storage.Repository, opts ...TrackerOption) *Tracker {
	t := &Tracker{
		repo:     repo,
		logger:   nopTrackerLogger{},
		observer: nopTrackerObserver{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// SetClock overrides the time source. Test hook.
func (t *Tracker) SetClock(now func() time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.now = now
}

// SaveToday stores a freshly generated day, replacing any previous record
// for the same date and pruning days older than the retention window.
func (t *Tracker) SaveToday(ctx context.Context, today *TodayQuests) error {
	if today == nil || today.StudentID == "" {
		return ErrInvalidStudentID
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	days, err := t.loadDays(ctx, today.StudentID)
	if err != nil {
		return err
	}
	days[today.Date] = today
	pruneDays(days, t.now())
	return t.saveDays(ctx, today.StudentID, days)
}

// GetToday returns the quest aggregate for a date, or nil when none was
// generated.
func (t *Tracker) GetToday(ctx context.Context, studentID string, date time.Time) (*TodayQuests, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	days, err := t.loadDays(ctx, studentID)
	if err != nil {
		return nil, err
	}
	return days[storage.DayKey(date)], nil
}

// GetRecent returns up to n day aggregates, newest first.
func (t *Tracker) GetRecent(ctx context.Context, studentID string, n int) ([]*TodayQuests, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	days, err := t.loadDays(ctx, studentID)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(days))
	for k := range days {
		keys = append(keys, k)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(keys)))
	if n > 0 && len(keys) > n {
		keys = keys[:n]
	}
	out := make([]*TodayQuests, 0, len(keys))
	for _, k := range keys {
		out = append(out, days[k])
	}
	return out, nil
}

// UpdateProgress adds a delta to a quest's current value. The first delta
// moves an AVAILABLE quest to IN_PROGRESS; reaching the target completes
// it with full completion side effects. Unknown or terminal quests yield
// (nil, nil).
func (t *Tracker) UpdateProgress(ctx context.Context, studentID, questID string, delta int) (*DailyQuest, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	days, err := t.loadDays(ctx, studentID)
	if err != nil {
		return nil, err
	}
	q, today := findQuest(days, questID)
	if q == nil || q.Status.Terminal() || q.Status == StatusLocked {
		return nil, nil
	}

	q.CurrentValue += delta
	if q.Status == StatusAvailable && delta > 0 {
		q.Status = StatusInProgress
	}

	if q.CurrentValue >= q.TargetValue {
		if _, err := t.completeLocked(ctx, studentID, q, today, days); err != nil {
			return nil, err
		}
		return q, nil
	}

	today.Summary = Summarize(today, today.Summary.StreakCount)
	if err := t.saveDays(ctx, studentID, days); err != nil {
		return nil, err
	}
	return q, nil
}

// CompleteQuest marks a quest done, awards XP and streak/badge updates,
// and unlocks dependents. Completing an already-completed or unknown
// quest is a no-op returning (nil, nil), so the award happens exactly
// once.
func (t *Tracker) CompleteQuest(ctx context.Context, studentID, questID string) (*CompletionResult, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	days, err := t.loadDays(ctx, studentID)
	if err != nil {
		return nil, err
	}
	q, today := findQuest(days, questID)
	if q == nil || q.Status.Terminal() || q.Status == StatusLocked {
		return nil, nil
	}
	return t.completeLocked(ctx, studentID, q, today, days)
}

// completeLocked performs the completion side effects. Caller holds the
// mutex and persists via this method.
func (t *Tracker) completeLocked(ctx context.Context, studentID string, q *DailyQuest, today *TodayQuests, days map[string]*TodayQuests) (*CompletionResult, error) {
	now := t.now()
	q.Status = StatusCompleted
	q.CompletedAt = now
	if q.CurrentValue < q.TargetValue {
		q.CurrentValue = q.TargetValue
	}

	progress, err := t.loadProgress(ctx, studentID)
	if err != nil {
		return nil, err
	}

	streakBonus := t.updateStreak(progress, now)
	awarded := q.XPReward + streakBonus
	progress.TotalXP += awarded
	badges := t.earnBadges(progress, now)

	unlockDependents(today, q.ID)
	today.Summary = Summarize(today, progress.StreakCount)

	if err := t.saveProgress(ctx, studentID, progress); err != nil {
		return nil, err
	}
	if err := t.saveDays(ctx, studentID, days); err != nil {
		return nil, err
	}

	t.observer.QuestCompleted(string(q.Type))
	t.observer.XPAwarded(awarded)
	t.logger.Debug("quest completed",
		"student_id", studentID, "quest_id", q.ID, "xp", awarded, "streak", progress.StreakCount)

	return &CompletionResult{
		Quest:        q,
		XPAwarded:    awarded,
		StreakBonus:  streakBonus,
		NewStreak:    progress.StreakCount,
		BadgesEarned: badges,
		Message:      completionMessage(q, progress.StreakCount),
	}, nil
}

// updateStreak advances the streak counter: +1 when the previous active
// day was exactly yesterday, reset to 1 after a gap, unchanged when
// already active today. Returns a small XP bonus on streak growth.
func (t *Tracker) updateStreak(p *Progress, now time.Time) int {
	today := storage.DayKey(now)
	if p.LastActiveDay == today {
		return 0
	}
	yesterday := storage.DayKey(now.AddDate(0, 0, -1))
	if p.LastActiveDay == yesterday {
		p.StreakCount++
	} else {
		p.StreakCount = 1
	}
	p.LastActiveDay = today
	if p.StreakCount > 1 {
		return 5 * p.StreakCount
	}
	return 0
}

// earnBadges awards any newly crossed streak or XP milestones.
func (t *Tracker) earnBadges(p *Progress, now time.Time) []Badge {
	var earned []Badge
	for _, sb := range streakBadges {
		id := fmt.Sprintf("streak-%d", sb.days)
		if p.StreakCount >= sb.days && !p.HasBadge(id) {
			b := Badge{ID: id, Name: sb.name, EarnedAt: now}
			p.Badges = append(p.Badges, b)
			earned = append(earned, b)
		}
	}
	for _, xb := range xpBadges {
		id := fmt.Sprintf("xp-%d", xb.xp)
		if p.TotalXP >= xb.xp && !p.HasBadge(id) {
			b := Badge{ID: id, Name: xb.name, EarnedAt: now}
			p.Badges = append(p.Badges, b)
			earned = append(earned, b)
		}
	}
	return earned
}

// SkipQuest marks a quest skipped. Terminal or unknown quests yield
// (nil, nil).
func (t *Tracker) SkipQuest(ctx context.Context, studentID, questID string) (*DailyQuest, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	days, err := t.loadDays(ctx, studentID)
	if err != nil {
		return nil, err
	}
	q, today := findQuest(days, questID)
	if q == nil || q.Status.Terminal() {
		return nil, nil
	}
	q.Status = StatusSkipped
	today.Summary = Summarize(today, today.Summary.StreakCount)
	if err := t.saveDays(ctx, studentID, days); err != nil {
		return nil, err
	}
	return q, nil
}

// ExpireOverdue transitions every AVAILABLE/IN_PROGRESS quest past its
// expiry to EXPIRED and returns how many changed.
func (t *Tracker) ExpireOverdue(ctx context.Context, studentID string) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	days, err := t.loadDays(ctx, studentID)
	if err != nil {
		return 0, err
	}

	now := t.now()
	expired := 0
	for _, today := range days {
		changed := false
		for _, q := range today.All() {
			if q.Status.Terminal() || q.Status == StatusLocked {
				continue
			}
			if now.After(q.ExpiresAt) {
				q.Status = StatusExpired
				expired++
				changed = true
				t.observer.QuestExpired(string(q.Type))
			}
		}
		if changed {
			today.Summary = Summarize(today, today.Summary.StreakCount)
		}
	}
	if expired == 0 {
		return 0, nil
	}
	if err := t.saveDays(ctx, studentID, days); err != nil {
		return 0, err
	}
	return expired, nil
}

// GetProgress returns the student's XP/streak/badge aggregate.
func (t *Tracker) GetProgress(ctx context.Context, studentID string) (*Progress, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.loadProgress(ctx, studentID)
}

// unlockDependents flips LOCKED quests whose prerequisites are all
// completed to AVAILABLE.
func unlockDependents(today *TodayQuests, completedID string) {
	completed := make(map[string]bool)
	for _, q := range today.All() {
		if q.Status == StatusCompleted {
			completed[q.ID] = true
		}
	}
	completed[completedID] = true

	for _, q := range today.All() {
		if q.Status != StatusLocked || len(q.Prerequisites) == 0 {
			continue
		}
		satisfied := true
		for _, pre := range q.Prerequisites {
			if !completed[pre] {
				satisfied = false
				break
			}
		}
		if satisfied {
			q.Status = StatusAvailable
		}
	}
}

func findQuest(days map[string]*TodayQuests, questID string) (*DailyQuest, *TodayQuests) {
	keys := make([]string, 0, len(days))
	for k := range days {
		keys = append(keys, k)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(keys)))
	for _, k := range keys {
		if q := days[k].Find(questID); q != nil {
			return q, days[k]
		}
	}
	return nil, nil
}

func pruneDays(days map[string]*TodayQuests, now time.Time) {
	cutoff := storage.DayKey(now.AddDate(0, 0, -keepDays))
	for k := range days {
		if k < cutoff {
			delete(days, k)
		}
	}
}

func completionMessage(q *DailyQuest, streak int) string {
	if streak >= 3 {
		return fmt.Sprintf("%q done! Your streak is now %d days.", q.Title, streak)
	}
	return fmt.Sprintf("%q done! +%d XP.", q.Title, q.XPReward)
}

func (t *Tracker) loadDays(ctx context.Context, studentID string) (map[string]*TodayQuests, error) {
	if studentID == "" {
		return nil, ErrInvalidStudentID
	}
	raw, err := t.repo.Get(ctx, storage.BucketQuests, studentID)
	if errors.Is(err, storage.ErrNotFound) {
		return make(map[string]*TodayQuests), nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading quest days: %w", err)
	}
	var days map[string]*TodayQuests
	if err := json.Unmarshal(raw, &days); err != nil {
		return nil, &storage.SerializationError{Operation: "decode quests", Cause: err}
	}
	if days == nil {
		days = make(map[string]*TodayQuests)
	}
	return days, nil
}

func (t *Tracker) saveDays(ctx context.Context, studentID string, days map[string]*TodayQuests) error {
	raw, err := json.Marshal(days)
	if err != nil {
		return &storage.SerializationError{Operation: "encode quests", Cause: err}
	}
	return t.repo.Set(ctx, storage.BucketQuests, studentID, raw)
}

func (t *Tracker) loadProgress(ctx context.Context, studentID string) (*Progress, error) {
	raw, err := t.repo.Get(ctx, storage.BucketStreak, studentID)
	if errors.Is(err, storage.ErrNotFound) {
		return &Progress{StudentID: studentID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading progress: %w", err)
	}
	var p Progress
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, &storage.SerializationError{Operation: "decode progress", Cause: err}
	}
	return &p, nil
}

func (t *Tracker) saveProgress(ctx context.Context, studentID string, p *Progress) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return &storage.SerializationError{Operation: "encode progress", Cause: err}
	}
	return t.repo.Set(ctx, storage.BucketStreak, studentID, raw)
}
