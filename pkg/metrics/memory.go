package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// initMemoryMetrics initializes vector-memory metrics.
func (m *Manager) initMemoryMetrics(cfg Config) {
	m.memoriesStored = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "memories_stored_total",
			Help: "Total number of learning memories stored by type",
		},
		[]string{"type"},
	)

	m.memorySearches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "memory_searches_total",
			Help: "Total number of similarity searches by serving backend",
		},
		[]string{"backend"},
	)

	m.searchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "memory_search_duration_seconds",
			Help:    "Similarity search duration in seconds",
			Buckets: cfg.SearchDurationBuckets,
		},
		[]string{"backend"},
	)

	m.backendFallbacks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "memory_backend_fallbacks_total",
			Help: "Times the remote vector backend failed and the local index served",
		},
	)

	m.registry.MustRegister(m.memoriesStored)
	m.registry.MustRegister(m.memorySearches)
	m.registry.MustRegister(m.searchDuration)
	m.registry.MustRegister(m.backendFallbacks)
}

// MemoryStored records one stored memory. Satisfies the vector store's
// observer interface.
func (m *Manager) MemoryStored(memoryType string) {
	if !m.enabled {
		return
	}
	m.memoriesStored.WithLabelValues(memoryType).Inc()
}

// SearchServed records which backend answered one similarity search.
func (m *Manager) SearchServed(backend string) {
	if !m.enabled {
		return
	}
	m.memorySearches.WithLabelValues(backend).Inc()
}

// BackendFallback records a remote-backend failure served locally.
func (m *Manager) BackendFallback(string) {
	if !m.enabled {
		return
	}
	m.backendFallbacks.Inc()
}

// RecordSearchDuration records how long one similarity search took.
func (m *Manager) RecordSearchDuration(backend string, duration time.Duration) {
	if !m.enabled {
		return
	}
	m.searchDuration.WithLabelValues(backend).Observe(duration.Seconds())
}
