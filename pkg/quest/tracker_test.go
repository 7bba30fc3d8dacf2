package quest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyflow/studyflow/pkg/storage"
	memstore "github.com/studyflow/studyflow/pkg/storage/memory"
)

func newTestTracker(t *testing.T, opts ...TrackerOption) *Tracker {
	t.Helper()
	return NewTracker(memstore.NewMemoryRepository(), opts...)
}

func testDay(studentID string, date time.Time, quests ...DailyQuest) *TodayQuests {
	today := &TodayQuests{
		StudentID:   studentID,
		Date:        storage.DayKey(date),
		MainQuests:  quests,
		GeneratedAt: date,
	}
	today.Summary = Summarize(today, 0)
	return today
}

func availableQuest(id string, xp int) DailyQuest {
	return DailyQuest{
		ID:          id,
		StudentID:   "s1",
		Date:        storage.DayKey(testDate),
		Type:        TypeStudy,
		Title:       "Study: " + id,
		TargetValue: 2,
		Unit:        "sessions",
		Status:      StatusAvailable,
		Difficulty:  2,
		XPReward:    xp,
		ExpiresAt:   endOfDay(testDate),
	}
}

func TestSaveAndGetToday(t *testing.T) {
	tr := newTestTracker(t)
	tr.SetClock(func() time.Time { return testDate })
	ctx := context.Background()

	require.NoError(t, tr.SaveToday(ctx, testDay("s1", testDate, availableQuest("q1", 30))))

	got, err := tr.GetToday(ctx, "s1", testDate)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "2026-03-02", got.Date)
	require.Len(t, got.MainQuests, 1)
	assert.Equal(t, "q1", got.MainQuests[0].ID)

	missing, err := tr.GetToday(ctx, "s1", testDate.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestSaveToday_Validation(t *testing.T) {
	tr := newTestTracker(t)

	assert.ErrorIs(t, tr.SaveToday(context.Background(), nil), ErrInvalidStudentID)
	assert.ErrorIs(t, tr.SaveToday(context.Background(), &TodayQuests{}), ErrInvalidStudentID)
}

func TestSaveToday_PrunesOldDays(t *testing.T) {
	tr := newTestTracker(t)
	tr.SetClock(func() time.Time { return testDate })
	ctx := context.Background()

	ancient := testDate.AddDate(0, 0, -20)
	require.NoError(t, tr.SaveToday(ctx, testDay("s1", ancient, availableQuest("old", 10))))
	require.NoError(t, tr.SaveToday(ctx, testDay("s1", testDate, availableQuest("new", 10))))

	gone, err := tr.GetToday(ctx, "s1", ancient)
	require.NoError(t, err)
	assert.Nil(t, gone)

	kept, err := tr.GetToday(ctx, "s1", testDate)
	require.NoError(t, err)
	assert.NotNil(t, kept)
}

func TestCompleteQuest(t *testing.T) {
	tr := newTestTracker(t)
	tr.SetClock(func() time.Time { return testDate })
	ctx := context.Background()

	require.NoError(t, tr.SaveToday(ctx, testDay("s1", testDate, availableQuest("q1", 30))))

	result, err := tr.CompleteQuest(ctx, "s1", "q1")
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, StatusCompleted, result.Quest.Status)
	assert.Equal(t, 30, result.XPAwarded)
	assert.Equal(t, 0, result.StreakBonus) // first day, no bonus
	assert.Equal(t, 1, result.NewStreak)
	assert.Equal(t, result.Quest.TargetValue, result.Quest.CurrentValue)

	progress, err := tr.GetProgress(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 30, progress.TotalXP)
	assert.Equal(t, 1, progress.StreakCount)
}

func TestCompleteQuest_Idempotent(t *testing.T) {
	tr := newTestTracker(t)
	tr.SetClock(func() time.Time { return testDate })
	ctx := context.Background()

	require.NoError(t, tr.SaveToday(ctx, testDay("s1", testDate, availableQuest("q1", 30))))

	first, err := tr.CompleteQuest(ctx, "s1", "q1")
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := tr.CompleteQuest(ctx, "s1", "q1")
	require.NoError(t, err)
	assert.Nil(t, second)

	progress, err := tr.GetProgress(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 30, progress.TotalXP) // awarded exactly once
}

func TestCompleteQuest_Unknown(t *testing.T) {
	tr := newTestTracker(t)

	result, err := tr.CompleteQuest(context.Background(), "s1", "ghost")
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestStreakProgression(t *testing.T) {
	tr := newTestTracker(t)
	ctx := context.Background()

	completeOn := func(day time.Time, questID string) *CompletionResult {
		tr.SetClock(func() time.Time { return day })
		require.NoError(t, tr.SaveToday(ctx, testDay("s1", day, availableQuest(questID, 10))))
		result, err := tr.CompleteQuest(ctx, "s1", questID)
		require.NoError(t, err)
		require.NotNil(t, result)
		return result
	}

	day1 := completeOn(testDate, "d1")
	assert.Equal(t, 1, day1.NewStreak)
	assert.Equal(t, 0, day1.StreakBonus)

	day2 := completeOn(testDate.AddDate(0, 0, 1), "d2")
	assert.Equal(t, 2, day2.NewStreak)
	assert.Equal(t, 10, day2.StreakBonus)

	// Second completion on the same day leaves the streak untouched.
	tr.SetClock(func() time.Time { return testDate.AddDate(0, 0, 1) })
	require.NoError(t, tr.SaveToday(ctx, testDay("s1", testDate.AddDate(0, 0, 1), availableQuest("d2b", 10))))
	sameDay, err := tr.CompleteQuest(ctx, "s1", "d2b")
	require.NoError(t, err)
	assert.Equal(t, 2, sameDay.NewStreak)
	assert.Equal(t, 0, sameDay.StreakBonus)

	// A gap resets the streak to 1.
	afterGap := completeOn(testDate.AddDate(0, 0, 4), "d5")
	assert.Equal(t, 1, afterGap.NewStreak)
	assert.Equal(t, 0, afterGap.StreakBonus)
}

func TestStreakBadges(t *testing.T) {
	tr := newTestTracker(t)
	ctx := context.Background()

	var earned []Badge
	for i := 0; i < 3; i++ {
		day := testDate.AddDate(0, 0, i)
		tr.SetClock(func() time.Time { return day })
		questID := storage.DayKey(day)
		require.NoError(t, tr.SaveToday(ctx, testDay("s1", day, availableQuest(questID, 10))))
		result, err := tr.CompleteQuest(ctx, "s1", questID)
		require.NoError(t, err)
		earned = append(earned, result.BadgesEarned...)
	}

	require.Len(t, earned, 1)
	assert.Equal(t, "streak-3", earned[0].ID)
	assert.Equal(t, "3-Day Streak", earned[0].Name)

	progress, err := tr.GetProgress(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, progress.HasBadge("streak-3"))
	assert.False(t, progress.HasBadge("streak-7"))
}

func TestXPBadges(t *testing.T) {
	tr := newTestTracker(t)
	tr.SetClock(func() time.Time { return testDate })
	ctx := context.Background()

	require.NoError(t, tr.SaveToday(ctx, testDay("s1", testDate, availableQuest("big", 150))))

	result, err := tr.CompleteQuest(ctx, "s1", "big")
	require.NoError(t, err)
	require.Len(t, result.BadgesEarned, 1)
	assert.Equal(t, "xp-100", result.BadgesEarned[0].ID)
}

func TestUpdateProgress(t *testing.T) {
	tr := newTestTracker(t)
	tr.SetClock(func() time.Time { return testDate })
	ctx := context.Background()

	require.NoError(t, tr.SaveToday(ctx, testDay("s1", testDate, availableQuest("q1", 30))))

	q, err := tr.UpdateProgress(ctx, "s1", "q1", 1)
	require.NoError(t, err)
	require.NotNil(t, q)
	assert.Equal(t, StatusInProgress, q.Status)
	assert.Equal(t, 1, q.CurrentValue)

	// Reaching the target completes the quest with full side effects.
	q, err = tr.UpdateProgress(ctx, "s1", "q1", 1)
	require.NoError(t, err)
	require.NotNil(t, q)
	assert.Equal(t, StatusCompleted, q.Status)

	progress, err := tr.GetProgress(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 30, progress.TotalXP)
}

func TestUpdateProgress_TerminalQuest(t *testing.T) {
	tr := newTestTracker(t)
	tr.SetClock(func() time.Time { return testDate })
	ctx := context.Background()

	skipped := availableQuest("q1", 30)
	skipped.Status = StatusSkipped
	require.NoError(t, tr.SaveToday(ctx, testDay("s1", testDate, skipped)))

	q, err := tr.UpdateProgress(ctx, "s1", "q1", 1)
	require.NoError(t, err)
	assert.Nil(t, q)
}

func TestSkipQuest(t *testing.T) {
	tr := newTestTracker(t)
	tr.SetClock(func() time.Time { return testDate })
	ctx := context.Background()

	require.NoError(t, tr.SaveToday(ctx, testDay("s1", testDate, availableQuest("q1", 30))))

	q, err := tr.SkipQuest(ctx, "s1", "q1")
	require.NoError(t, err)
	require.NotNil(t, q)
	assert.Equal(t, StatusSkipped, q.Status)

	again, err := tr.SkipQuest(ctx, "s1", "q1")
	require.NoError(t, err)
	assert.Nil(t, again)
}

type lifecycleObserver struct {
	completed []string
	expired   []string
	xp        int
}

func (o *lifecycleObserver) QuestCompleted(t string) { o.completed = append(o.completed, t) }
func (o *lifecycleObserver) QuestExpired(t string)   { o.expired = append(o.expired, t) }
func (o *lifecycleObserver) XPAwarded(amount int)    { o.xp += amount }

func TestExpireOverdue(t *testing.T) {
	obs := &lifecycleObserver{}
	tr := newTestTracker(t, WithTrackerObserver(obs))
	tr.SetClock(func() time.Time { return testDate })
	ctx := context.Background()

	done := availableQuest("done", 10)
	done.Status = StatusCompleted
	require.NoError(t, tr.SaveToday(ctx, testDay("s1", testDate, availableQuest("open", 10), done)))

	// Nothing expires while the day is still running.
	n, err := tr.ExpireOverdue(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	tr.SetClock(func() time.Time { return testDate.AddDate(0, 0, 1) })
	n, err = tr.ExpireOverdue(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{string(TypeStudy)}, obs.expired)

	today, err := tr.GetToday(ctx, "s1", testDate)
	require.NoError(t, err)
	assert.Equal(t, StatusExpired, today.Find("open").Status)
	assert.Equal(t, StatusCompleted, today.Find("done").Status)
}

func TestUnlockDependents(t *testing.T) {
	tr := newTestTracker(t)
	tr.SetClock(func() time.Time { return testDate })
	ctx := context.Background()

	gate := availableQuest("gate", 10)
	locked := availableQuest("locked", 10)
	locked.Status = StatusLocked
	locked.Prerequisites = []string{"gate"}
	require.NoError(t, tr.SaveToday(ctx, testDay("s1", testDate, gate, locked)))

	_, err := tr.CompleteQuest(ctx, "s1", "gate")
	require.NoError(t, err)

	today, err := tr.GetToday(ctx, "s1", testDate)
	require.NoError(t, err)
	assert.Equal(t, StatusAvailable, today.Find("locked").Status)
}

func TestGetRecent(t *testing.T) {
	tr := newTestTracker(t)
	tr.SetClock(func() time.Time { return testDate })
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		day := testDate.AddDate(0, 0, -i)
		require.NoError(t, tr.SaveToday(ctx, testDay("s1", day, availableQuest(storage.DayKey(day), 10))))
	}

	recent, err := tr.GetRecent(ctx, "s1", 3)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.Equal(t, "2026-03-02", recent[0].Date)
	assert.Equal(t, "2026-03-01", recent[1].Date)
	assert.Equal(t, "2026-02-28", recent[2].Date)
}

func TestCompletionObserver(t *testing.T) {
	obs := &lifecycleObserver{}
	tr := newTestTracker(t, WithTrackerObserver(obs))
	tr.SetClock(func() time.Time { return testDate })
	ctx := context.Background()

	require.NoError(t, tr.SaveToday(ctx, testDay("s1", testDate, availableQuest("q1", 30))))
	_, err := tr.CompleteQuest(ctx, "s1", "q1")
	require.NoError(t, err)

	assert.Equal(t, []string{string(TypeStudy)}, obs.completed)
	assert.Equal(t, 30, obs.xp)
}
