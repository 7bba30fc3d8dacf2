package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// initIntentMetrics initializes classifier metrics.
func (m *Manager) initIntentMetrics() {
	m.intentClassifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intent_classifications_total",
			Help: "Total number of intent classifications by intent and model tier",
		},
		[]string{"intent", "tier"},
	)

	m.registry.MustRegister(m.intentClassifications)
}

// RecordClassification records one routed request.
func (m *Manager) RecordClassification(intent, tier string) {
	if !m.enabled {
		return
	}
	m.intentClassifications.WithLabelValues(intent, tier).Inc()
}
