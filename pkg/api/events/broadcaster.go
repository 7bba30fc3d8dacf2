// Package events fans engine notifications out to websocket subscribers.
package events

import (
	"sync"
	"time"

	"github.com/studyflow/studyflow/pkg/quest"
)

// Event is the canonical event payload broadcast to websocket subscribers.
type Event struct {
	Type      string    `json:"type"`
	StudentID string    `json:"studentId"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// Broadcaster broadcasts events to in-process subscribers.
type Broadcaster struct {
	mu          sync.RWMutex
	subscribers map[chan Event]struct{}
}

// NewBroadcaster creates a broadcaster instance.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subscribers: make(map[chan Event]struct{}),
	}
}

// Subscribe subscribes to events with a buffered channel.
func (b *Broadcaster) Subscribe(buffer int) chan Event {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan Event, buffer)
	b.mu.Lock()
	b.subscribers[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes a subscription and closes its channel.
func (b *Broadcaster) Unsubscribe(ch chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subscribers[ch]; !ok {
		return
	}
	delete(b.subscribers, ch)
	close(ch)
}

// Broadcast broadcasts a generic event to all subscribers.
func (b *Broadcaster) Broadcast(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	b.mu.RLock()
	subs := make([]chan Event, 0, len(b.subscribers))
	for ch := range b.subscribers {
		subs = append(subs, ch)
	}
	b.mu.RUnlock()

	for _, ch := range subs {
		select {
		case ch <- event:
		default:
			// Drop on overflow to keep broadcasters non-blocking.
		}
	}
}

// QuestsGenerated emits a fresh-day event. Satisfies the engine's Events
// interface.
func (b *Broadcaster) QuestsGenerated(studentID string, today *quest.TodayQuests) {
	b.Broadcast(Event{
		Type:      "quests.generated",
		StudentID: studentID,
		Payload: map[string]any{
			"date":    today.Date,
			"count":   today.Summary.TotalQuests,
			"minutes": today.Summary.TotalMinutes,
			"message": today.DailyMessage,
		},
	})
}

// QuestCompleted emits a completion event with XP and streak changes.
func (b *Broadcaster) QuestCompleted(studentID string, result *quest.CompletionResult) {
	payload := map[string]any{
		"quest_id": result.Quest.ID,
		"title":    result.Quest.Title,
		"xp":       result.XPAwarded,
		"streak":   result.NewStreak,
	}
	if len(result.BadgesEarned) > 0 {
		names := make([]string, len(result.BadgesEarned))
		for i, badge := range result.BadgesEarned {
			names[i] = badge.Name
		}
		payload["badges"] = names
	}

	b.Broadcast(Event{
		Type:      "quest.completed",
		StudentID: studentID,
		Payload:   payload,
	})
}

// Close closes all subscriber channels.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subscribers {
		delete(b.subscribers, ch)
		close(ch)
	}
}
