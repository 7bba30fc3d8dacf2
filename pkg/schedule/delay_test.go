package schedule

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyflow/studyflow/pkg/quest"
	"github.com/studyflow/studyflow/pkg/storage"
	memstore "github.com/studyflow/studyflow/pkg/storage/memory"
)

// Monday morning.
var analysisNow = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

func newTestDelayHandler(t *testing.T, history storage.CompletionHistory) *DelayHandler {
	t.Helper()
	h := NewDelayHandler(history, DefaultDelayConfig())
	h.SetClock(func() time.Time { return analysisNow })
	return h
}

func expiredDay(date time.Time, quests ...quest.DailyQuest) *quest.TodayQuests {
	return &quest.TodayQuests{
		StudentID:  "s1",
		Date:       storage.DayKey(date),
		MainQuests: quests,
	}
}

func openQuest(id string, minutes int, expiresAt time.Time) quest.DailyQuest {
	return quest.DailyQuest{
		ID:               id,
		StudentID:        "s1",
		Type:             quest.TypeStudy,
		TargetValue:      minutes,
		Unit:             "minutes",
		Status:           quest.StatusAvailable,
		EstimatedMinutes: minutes,
		ExpiresAt:        expiresAt,
	}
}

func endOf(date time.Time) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, 23, 59, 59, 0, date.Location())
}

func TestAnalyzeDelays_AllClear(t *testing.T) {
	history := memstore.NewMemoryHistory()
	require.NoError(t, history.RecordCompletion(context.Background(), "s1", analysisNow.AddDate(0, 0, -1)))
	h := newTestDelayHandler(t, history)

	analysis, err := h.AnalyzeDelays(context.Background(), "s1", nil)
	require.NoError(t, err)
	assert.Empty(t, analysis.ExpiredQuests)
	assert.Equal(t, 0, analysis.ConsecutiveMissedDays)
	assert.Equal(t, CrisisNone, analysis.CrisisLevel)
	assert.Nil(t, analysis.Suggestion)
}

func TestAnalyzeDelays_Warning(t *testing.T) {
	history := memstore.NewMemoryHistory()
	require.NoError(t, history.RecordCompletion(context.Background(), "s1", analysisNow.AddDate(0, 0, -2)))
	h := newTestDelayHandler(t, history)

	yesterday := analysisNow.AddDate(0, 0, -1)
	recent := []*quest.TodayQuests{
		expiredDay(yesterday, openQuest("q1", 20, endOf(yesterday))),
	}

	analysis, err := h.AnalyzeDelays(context.Background(), "s1", recent)
	require.NoError(t, err)
	assert.Equal(t, 1, analysis.ConsecutiveMissedDays)
	assert.Equal(t, CrisisWarning, analysis.CrisisLevel)
	require.Len(t, analysis.ExpiredQuests, 1)
	assert.Equal(t, 1, analysis.ExpiredQuests[0].DaysOverdue)
	assert.Equal(t, ActionCarryOver, analysis.ExpiredQuests[0].RecommendedAction)

	// WARNING carries everything forward unchanged.
	require.NotNil(t, analysis.Suggestion)
	assert.Equal(t, SuggestCarryOver, analysis.Suggestion.Type)
	require.Len(t, analysis.Suggestion.Quests, 1)
	carried := analysis.Suggestion.Quests[0]
	assert.Equal(t, "q1-co-2026-03-02", carried.ID)
	assert.Equal(t, "2026-03-02", carried.Date)
	assert.Equal(t, quest.StatusAvailable, carried.Status)
	assert.Equal(t, 0, carried.CurrentValue)
	assert.Equal(t, 20, carried.TargetValue)
}

func TestAnalyzeDelays_Crisis(t *testing.T) {
	history := memstore.NewMemoryHistory()
	require.NoError(t, history.RecordCompletion(context.Background(), "s1", analysisNow.AddDate(0, 0, -5)))
	h := newTestDelayHandler(t, history)

	threeDaysAgo := analysisNow.AddDate(0, 0, -3)
	recent := []*quest.TodayQuests{
		expiredDay(threeDaysAgo,
			openQuest("long", 60, endOf(threeDaysAgo)),
			openQuest("short", 30, endOf(threeDaysAgo)),
		),
	}

	analysis, err := h.AnalyzeDelays(context.Background(), "s1", recent)
	require.NoError(t, err)
	assert.Equal(t, 4, analysis.ConsecutiveMissedDays)
	assert.Equal(t, CrisisCrisis, analysis.CrisisLevel)

	// CRISIS restarts with a single halved quest, the cheapest one.
	require.NotNil(t, analysis.Suggestion)
	assert.Equal(t, SuggestReduceLoad, analysis.Suggestion.Type)
	require.Len(t, analysis.Suggestion.Quests, 1)
	reduced := analysis.Suggestion.Quests[0]
	assert.Equal(t, "short-co-2026-03-02", reduced.ID)
	assert.Equal(t, 15, reduced.TargetValue)
	assert.Equal(t, 15, reduced.EstimatedMinutes)
}

func TestAnalyzeDelays_ConcernByExpiredCount(t *testing.T) {
	history := memstore.NewMemoryHistory()
	require.NoError(t, history.RecordCompletion(context.Background(), "s1", analysisNow.AddDate(0, 0, -1)))
	h := newTestDelayHandler(t, history)

	yesterday := analysisNow.AddDate(0, 0, -1)
	recent := []*quest.TodayQuests{
		expiredDay(yesterday,
			openQuest("a", 45, endOf(yesterday)),
			openQuest("b", 20, endOf(yesterday)),
			openQuest("c", 20, endOf(yesterday)),
		),
	}

	analysis, err := h.AnalyzeDelays(context.Background(), "s1", recent)
	require.NoError(t, err)
	assert.Equal(t, 0, analysis.ConsecutiveMissedDays)
	assert.Equal(t, CrisisConcern, analysis.CrisisLevel)

	// CONCERN carries over at most two quests, trimming long ones.
	require.NotNil(t, analysis.Suggestion)
	assert.Equal(t, SuggestCarryOver, analysis.Suggestion.Type)
	require.Len(t, analysis.Suggestion.Quests, 2)
	assert.Equal(t, 22, analysis.Suggestion.Quests[0].EstimatedMinutes) // 45 halved
	assert.Equal(t, 20, analysis.Suggestion.Quests[1].EstimatedMinutes)
}

func TestAnalyzeDelays_NoHistoryCapsAtLookback(t *testing.T) {
	h := newTestDelayHandler(t, memstore.NewMemoryHistory())

	analysis, err := h.AnalyzeDelays(context.Background(), "s1", nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultDelayConfig().MissedDayLookback, analysis.ConsecutiveMissedDays)
	assert.Equal(t, CrisisCrisis, analysis.CrisisLevel)
	assert.Nil(t, analysis.Suggestion) // nothing expired, nothing to carry
}

func TestAnalyzeDelays_SkipsCompletedQuests(t *testing.T) {
	history := memstore.NewMemoryHistory()
	require.NoError(t, history.RecordCompletion(context.Background(), "s1", analysisNow.AddDate(0, 0, -1)))
	h := newTestDelayHandler(t, history)

	yesterday := analysisNow.AddDate(0, 0, -1)
	done := openQuest("done", 20, endOf(yesterday))
	done.Status = quest.StatusCompleted
	skipped := openQuest("skipped", 20, endOf(yesterday))
	skipped.Status = quest.StatusSkipped

	analysis, err := h.AnalyzeDelays(context.Background(), "s1", []*quest.TodayQuests{
		expiredDay(yesterday, done, skipped),
	})
	require.NoError(t, err)
	assert.Empty(t, analysis.ExpiredQuests)
}

func TestCarryOverAction(t *testing.T) {
	tests := []struct {
		name        string
		questType   quest.Type
		minutes     int
		daysOverdue int
		want        CarryOverAction
	}{
		{"fresh short quest", quest.TypeStudy, 20, 1, ActionCarryOver},
		{"long quest reduced", quest.TypeStudy, 45, 1, ActionReduce},
		{"stale review combined", quest.TypeReview, 15, 2, ActionCombine},
		{"very stale skipped", quest.TypeStudy, 20, 3, ActionSkip},
		{"very stale review skipped", quest.TypeReview, 15, 4, ActionSkip},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := &quest.DailyQuest{Type: tt.questType, EstimatedMinutes: tt.minutes}
			assert.Equal(t, tt.want, carryOverAction(q, tt.daysOverdue))
		})
	}
}
