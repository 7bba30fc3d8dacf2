package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyflow/studyflow/pkg/plan"
	"github.com/studyflow/studyflow/pkg/quest"
)

func sessionsPlan(deadlineDays int, now time.Time, sessionMinutes ...int) plan.Plan {
	p := planDueIn(deadlineDays, now)
	p.TotalSessions = len(sessionMinutes)
	for i, m := range sessionMinutes {
		p.Sessions = append(p.Sessions, plan.Session{
			ID:               "sess-" + string(rune('a'+i)),
			Order:            i + 1,
			Topic:            "topic",
			EstimatedMinutes: m,
			Status:           plan.SessionPending,
		})
	}
	return p
}

func TestGenerateRescheduleOptions(t *testing.T) {
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	m := NewModifier(DefaultModifierConfig())
	m.SetClock(func() time.Time { return now })

	req := RescheduleRequest{
		StudentID:   "s1",
		AbsenceDays: 3,
		StartDate:   now.AddDate(0, 0, 1),
		Reason:      "family trip",
	}
	plans := []plan.Plan{sessionsPlan(30, now, 60, 60, 60, 60, 60)}

	options := m.GenerateRescheduleOptions(req, plans, nil)
	require.Len(t, options, 4)

	// A roomy deadline makes both catching up and extending easy, so they
	// rank first and the top option carries the recommendation.
	assert.Equal(t, OptionCompress, options[0].Type)
	assert.Equal(t, FeasibilityHigh, options[0].Feasibility)
	assert.True(t, options[0].Recommended)
	assert.Equal(t, OptionExtend, options[1].Type)
	assert.Equal(t, FeasibilityHigh, options[1].Feasibility)
	assert.Equal(t, 3, options[1].DeadlineShiftDays)
	for _, opt := range options[1:] {
		assert.False(t, opt.Recommended)
	}

	// 300 pending minutes over 30 days is 10 per absence day, spread over
	// the 27 days left.
	assert.Equal(t, 1, options[0].ExtraMinutesPerDay)
}

func TestGenerateRescheduleOptions_TightDeadline(t *testing.T) {
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	m := NewModifier(DefaultModifierConfig())
	m.SetClock(func() time.Time { return now })

	// Four days of slack, three of them absent: heavy daily catch-up and
	// no room to extend.
	plans := []plan.Plan{sessionsPlan(4, now, 90, 90, 90, 90)}
	req := RescheduleRequest{StudentID: "s1", AbsenceDays: 3, StartDate: now}

	options := m.GenerateRescheduleOptions(req, plans, nil)
	require.Len(t, options, 4)

	byType := make(map[OptionType]RescheduleOption, len(options))
	for _, opt := range options {
		byType[opt.Type] = opt
	}
	assert.Equal(t, FeasibilityLow, byType[OptionCompress].Feasibility)
	assert.Equal(t, FeasibilityLow, byType[OptionExtend].Feasibility)
	assert.Equal(t, FeasibilityMedium, byType[OptionSkip].Feasibility)
	assert.Equal(t, FeasibilityMedium, byType[OptionReduce].Feasibility)
	assert.True(t, options[0].Recommended)
	assert.Equal(t, FeasibilityMedium, options[0].Feasibility)
}

func TestGenerateRescheduleOptions_NearlyFinishedPlanResistsSkipping(t *testing.T) {
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	m := NewModifier(DefaultModifierConfig())
	m.SetClock(func() time.Time { return now })

	almostDone := sessionsPlan(30, now, 60)
	almostDone.TotalSessions = 10
	almostDone.CompletedSessions = 9

	options := m.GenerateRescheduleOptions(
		RescheduleRequest{StudentID: "s1", AbsenceDays: 2, StartDate: now},
		[]plan.Plan{almostDone}, nil)

	for _, opt := range options {
		if opt.Type == OptionSkip {
			assert.Equal(t, FeasibilityLow, opt.Feasibility)
		}
	}
}

func TestGenerateRescheduleOptions_CountsOpenQuestMinutes(t *testing.T) {
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	m := NewModifier(DefaultModifierConfig())
	m.SetClock(func() time.Time { return now })

	today := &quest.TodayQuests{
		StudentID: "s1",
		MainQuests: []quest.DailyQuest{
			{ID: "open", Status: quest.StatusAvailable, EstimatedMinutes: 40},
			{ID: "done", Status: quest.StatusCompleted, EstimatedMinutes: 40},
		},
	}

	assert.Equal(t, 40, openQuestMinutes(today))
	assert.Equal(t, 0, openQuestMinutes(nil))
}
