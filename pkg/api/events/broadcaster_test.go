package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyflow/studyflow/pkg/quest"
)

func TestSubscribeAndBroadcast(t *testing.T) {
	b := NewBroadcaster()
	defer b.Close()

	ch := b.Subscribe(4)
	b.Broadcast(Event{Type: "test", StudentID: "s1"})

	got := <-ch
	assert.Equal(t, "test", got.Type)
	assert.Equal(t, "s1", got.StudentID)
	assert.False(t, got.Timestamp.IsZero())
}

func TestBroadcast_MultipleSubscribers(t *testing.T) {
	b := NewBroadcaster()
	defer b.Close()

	first := b.Subscribe(1)
	second := b.Subscribe(1)
	b.Broadcast(Event{Type: "test"})

	assert.Equal(t, "test", (<-first).Type)
	assert.Equal(t, "test", (<-second).Type)
}

func TestBroadcast_DropsOnOverflow(t *testing.T) {
	b := NewBroadcaster()
	defer b.Close()

	ch := b.Subscribe(1)
	b.Broadcast(Event{Type: "first"})
	b.Broadcast(Event{Type: "dropped"})

	assert.Equal(t, "first", (<-ch).Type)
	select {
	case e := <-ch:
		t.Fatalf("expected overflow event to be dropped, got %q", e.Type)
	default:
	}
}

func TestUnsubscribe(t *testing.T) {
	b := NewBroadcaster()
	defer b.Close()

	ch := b.Subscribe(1)
	b.Unsubscribe(ch)

	_, open := <-ch
	assert.False(t, open)

	// Unsubscribing twice must not panic on a closed channel.
	b.Unsubscribe(ch)
	b.Broadcast(Event{Type: "after"})
}

func TestClose(t *testing.T) {
	b := NewBroadcaster()

	first := b.Subscribe(1)
	second := b.Subscribe(1)
	b.Close()

	_, open := <-first
	assert.False(t, open)
	_, open = <-second
	assert.False(t, open)
}

func TestQuestsGeneratedEvent(t *testing.T) {
	b := NewBroadcaster()
	defer b.Close()
	ch := b.Subscribe(1)

	b.QuestsGenerated("s1", &quest.TodayQuests{
		StudentID:    "s1",
		Date:         "2026-03-02",
		DailyMessage: "two quests today",
		Summary:      quest.Summary{TotalQuests: 2, TotalMinutes: 45},
	})

	got := <-ch
	assert.Equal(t, "quests.generated", got.Type)
	assert.Equal(t, "s1", got.StudentID)
	payload, ok := got.Payload.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "2026-03-02", payload["date"])
	assert.Equal(t, 2, payload["count"])
	assert.Equal(t, 45, payload["minutes"])
}

func TestQuestCompletedEvent(t *testing.T) {
	b := NewBroadcaster()
	defer b.Close()
	ch := b.Subscribe(1)

	b.QuestCompleted("s1", &quest.CompletionResult{
		Quest:        &quest.DailyQuest{ID: "q1", Title: "Study: fractions"},
		XPAwarded:    45,
		NewStreak:    3,
		BadgesEarned: []quest.Badge{{ID: "streak-3", Name: "3-Day Streak"}},
	})

	got := <-ch
	assert.Equal(t, "quest.completed", got.Type)
	payload, ok := got.Payload.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "q1", payload["quest_id"])
	assert.Equal(t, 45, payload["xp"])
	assert.Equal(t, 3, payload["streak"])
	assert.Equal(t, []string{"3-Day Streak"}, payload["badges"])
}
