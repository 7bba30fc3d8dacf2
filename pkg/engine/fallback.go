package engine

import (
	"fmt"
	"time"

	"github.com/studyflow/studyflow/pkg/quest"
	"github.com/studyflow/studyflow/pkg/storage"
)

// fallbackQuests fills an empty day with a small template set so the
// student always has something to do even when the plan source is down
// or empty.
func fallbackQuests(today *quest.TodayQuests, studentID string, now time.Time) {
	dayKey := storage.DayKey(now)
	y, m, d := now.Date()
	expiresAt := time.Date(y, m, d, 23, 59, 59, 0, now.Location())

	templates := []struct {
		title       string
		description string
		minutes     int
		unit        string
		target      int
	}{
		{
			title:       "Free study session",
			description: "Pick any topic you want to get better at and study it for 25 minutes.",
			minutes:     25,
			unit:        "minutes",
			target:      25,
		},
		{
			title:       "Revisit yesterday's notes",
			description: "Skim what you worked on last and write down one thing you'd explain differently.",
			minutes:     15,
			unit:        "minutes",
			target:      15,
		},
	}

	for i, t := range templates {
		today.MainQuests = append(today.MainQuests, quest.DailyQuest{
			ID:               fmt.Sprintf("%s-%s-fb%d", studentID, dayKey, i+1),
			StudentID:        studentID,
			Date:             dayKey,
			Type:             quest.TypeStudy,
			Title:            t.title,
			Description:      t.description,
			TargetValue:      t.target,
			Unit:             t.unit,
			Status:           quest.StatusAvailable,
			Difficulty:       2,
			Priority:         i + 1,
			XPReward:         30 + t.minutes/2,
			EstimatedMinutes: t.minutes,
			ExpiresAt:        expiresAt,
			Tags:             []string{"fallback"},
		})
	}
	today.DailyMessage = "No plan data today, so here are two open-ended quests."
	today.CoachTip = "Even a short unplanned session keeps the habit alive."
}
