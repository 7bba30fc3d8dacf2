package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// initQuestMetrics initializes quest lifecycle metrics.
func (m *Manager) initQuestMetrics() {
	m.questsGenerated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quests_generated_total",
			Help: "Total number of quests generated by type",
		},
		[]string{"type"},
	)

	m.questsCompleted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quests_completed_total",
			Help: "Total number of quests completed by type",
		},
		[]string{"type"},
	)

	m.questsExpired = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quests_expired_total",
			Help: "Total number of quests expired uncompleted by type",
		},
		[]string{"type"},
	)

	m.xpAwarded = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "xp_awarded_total",
			Help: "Total XP awarded across all students",
		},
	)

	m.registry.MustRegister(m.questsGenerated)
	m.registry.MustRegister(m.questsCompleted)
	m.registry.MustRegister(m.questsExpired)
	m.registry.MustRegister(m.xpAwarded)
}

// RecordQuestGenerated records one generated quest.
func (m *Manager) RecordQuestGenerated(questType string) {
	if !m.enabled {
		return
	}
	m.questsGenerated.WithLabelValues(questType).Inc()
}

// QuestCompleted records one completed quest.
func (m *Manager) QuestCompleted(questType string) {
	if !m.enabled {
		return
	}
	m.questsCompleted.WithLabelValues(questType).Inc()
}

// QuestExpired records one expired quest.
func (m *Manager) QuestExpired(questType string) {
	if !m.enabled {
		return
	}
	m.questsExpired.WithLabelValues(questType).Inc()
}

// XPAwarded adds to the cumulative XP counter.
func (m *Manager) XPAwarded(amount int) {
	if !m.enabled {
		return
	}
	m.xpAwarded.Add(float64(amount))
}
