// Package config provides configuration management for Studyflow.
package config

import (
	"fmt"
	"time"
)

// Config is the global configuration for Studyflow.
type Config struct {
	// App is the application configuration.
	App AppConfig `mapstructure:"app" validate:"required"`

	// Server is the HTTP server configuration.
	Server ServerConfig `mapstructure:"server" validate:"required"`

	// Log is the logging configuration.
	Log LogConfig `mapstructure:"log" validate:"required"`

	// Storage is the persistence configuration.
	Storage StorageConfig `mapstructure:"storage"`

	// Memory is the learning-memory subsystem configuration.
	Memory MemoryConfig `mapstructure:"memory"`

	// SRS is the spaced-repetition configuration.
	SRS SRSConfig `mapstructure:"srs"`

	// Burnout is the burnout-monitor configuration.
	Burnout BurnoutConfig `mapstructure:"burnout"`

	// Quest is the daily-quest configuration.
	Quest QuestConfig `mapstructure:"quest"`

	// Schedule is the delay/reschedule configuration.
	Schedule ScheduleConfig `mapstructure:"schedule"`

	// Intent is the intent-classifier configuration.
	Intent IntentConfig `mapstructure:"intent"`

	// LLM is the language-model capability configuration.
	LLM LLMConfig `mapstructure:"llm"`

	// Metrics is the observability configuration.
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// AppConfig holds application metadata and settings.
type AppConfig struct {
	// Name is the application name.
	Name string `mapstructure:"name" validate:"required"`

	// Version is the application version.
	Version string `mapstructure:"version"`

	// Environment is the runtime environment (development, staging, production).
	Environment string `mapstructure:"environment" validate:"oneof=development staging production"`

	// Debug enables debug mode with verbose logging.
	Debug bool `mapstructure:"debug"`
}

// ServerConfig holds the HTTP server configuration.
type ServerConfig struct {
	// Host is the bind address.
	Host string `mapstructure:"host"`

	// Port is the HTTP API port.
	Port int `mapstructure:"port" validate:"required,min=1,max=65535"`

	// HTTP is the HTTP server configuration.
	HTTP HTTPConfig `mapstructure:"http"`

	// CORS is the CORS configuration.
	CORS CORSConfig `mapstructure:"cors"`
}

// HTTPConfig holds HTTP server timeouts.
type HTTPConfig struct {
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	MaxHeaderBytes int           `mapstructure:"max_header_bytes"`
}

// CORSConfig holds cross-origin settings.
type CORSConfig struct {
	Enabled        bool     `mapstructure:"enabled"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AllowedMethods []string `mapstructure:"allowed_methods"`
	AllowedHeaders []string `mapstructure:"allowed_headers"`
	MaxAge         int      `mapstructure:"max_age"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`

	// Format is the log output format (json, text).
	Format string `mapstructure:"format" validate:"oneof=json text"`

	// Output is the log destination (stdout, stderr, or file path).
	Output string `mapstructure:"output"`
}

// StorageConfig holds the persistence configuration.
type StorageConfig struct {
	// Type selects the student-state repository backend (memory, badger).
	Type string `mapstructure:"type" validate:"oneof=memory badger"`

	// Badger is the Badger key-value store configuration.
	Badger BadgerConfig `mapstructure:"badger"`

	// Redis is the completion-history store configuration.
	Redis RedisConfig `mapstructure:"redis"`
}

// BadgerConfig holds Badger-specific settings.
type BadgerConfig struct {
	Path             string `mapstructure:"path"`
	SyncWrites       bool   `mapstructure:"sync_writes"`
	ValueLogFileSize int64  `mapstructure:"value_log_file_size"`
}

// RedisConfig holds the Redis completion-history settings. When disabled,
// completion history is kept in the in-process repository instead.
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// MemoryConfig holds the learning-memory subsystem configuration.
type MemoryConfig struct {
	// VectorDimension is the embedding dimension.
	VectorDimension int `mapstructure:"vector_dimension" validate:"min=1"`

	// EmbeddingProvider selects the embedding strategy (hash, openai).
	// Hash embeddings are deterministic and require no network access;
	// the two strategies are never mixed in one index.
	EmbeddingProvider string `mapstructure:"embedding_provider" validate:"oneof=hash openai"`

	// MinConfidence is the minimum extraction confidence for a memory
	// to be persisted. Lower-confidence memories are discarded.
	MinConfidence float64 `mapstructure:"min_confidence" validate:"min=0,max=1"`

	// EmbedBatchSize caps items per embedding batch call.
	EmbedBatchSize int `mapstructure:"embed_batch_size" validate:"min=1"`

	// EmbedRateLimit is the maximum embedding calls per second.
	EmbedRateLimit float64 `mapstructure:"embed_rate_limit"`

	// Pinecone is the remote vector backend configuration. When disabled,
	// the in-process cosine index is used.
	Pinecone PineconeConfig `mapstructure:"pinecone"`

	// Retriever is the re-ranking configuration.
	Retriever RetrieverConfig `mapstructure:"retriever"`
}

// PineconeConfig holds the remote vector backend settings.
type PineconeConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	APIKey    string `mapstructure:"api_key"`
	IndexName string `mapstructure:"index_name"`
	Namespace string `mapstructure:"namespace"`
}

// RetrieverConfig holds the 6-factor re-ranking configuration.
// The weights are tuning knobs and may be hot-reloaded at runtime.
type RetrieverConfig struct {
	Weights RetrieverWeights `mapstructure:"weights"`

	// MinScore filters out results scoring below this value.
	MinScore float64 `mapstructure:"min_score" validate:"min=0,max=1"`

	// MaxResults caps the number of returned memories.
	MaxResults int `mapstructure:"max_results" validate:"min=1"`

	// RecencyHorizonDays is the window over which the recency factor
	// decays linearly to zero.
	RecencyHorizonDays int `mapstructure:"recency_horizon_days" validate:"min=1"`
}

// RetrieverWeights are the per-factor weights of the re-ranking score.
type RetrieverWeights struct {
	Semantic     float64 `mapstructure:"semantic" validate:"min=0,max=1"`
	Recency      float64 `mapstructure:"recency" validate:"min=0,max=1"`
	Confidence   float64 `mapstructure:"confidence" validate:"min=0,max=1"`
	TypeBoost    float64 `mapstructure:"type_boost" validate:"min=0,max=1"`
	SubjectMatch float64 `mapstructure:"subject_match" validate:"min=0,max=1"`
	Urgency      float64 `mapstructure:"urgency" validate:"min=0,max=1"`
}

// SRSConfig holds the spaced-repetition settings.
type SRSConfig struct {
	// MaxIntervalDays caps the review interval.
	MaxIntervalDays int `mapstructure:"max_interval_days" validate:"min=1"`

	// EMAAlpha is the exponential-moving-average weight applied when
	// blending a new review quality into the mastery score.
	EMAAlpha float64 `mapstructure:"ema_alpha" validate:"gt=0,max=1"`
}

// BurnoutConfig holds the burnout-monitor settings.
type BurnoutConfig struct {
	// WindowDays is the trailing emotion window.
	WindowDays int `mapstructure:"window_days" validate:"min=1"`

	// MediumThreshold is the score at or above which risk is MEDIUM.
	MediumThreshold float64 `mapstructure:"medium_threshold" validate:"min=0,max=1"`

	// HighThreshold is the score at or above which risk is HIGH.
	HighThreshold float64 `mapstructure:"high_threshold" validate:"min=0,max=1"`
}

// QuestConfig holds the daily-quest generation settings.
type QuestConfig struct {
	// MaxDaily caps the number of quests generated per day.
	MaxDaily int `mapstructure:"max_daily" validate:"min=1"`

	// MaxMinutes caps the total estimated minutes per day.
	MaxMinutes int `mapstructure:"max_minutes" validate:"min=1"`

	// MainShare, ReviewShare and BonusShare partition the quest budget.
	MainShare   float64 `mapstructure:"main_share" validate:"min=0,max=1"`
	ReviewShare float64 `mapstructure:"review_share" validate:"min=0,max=1"`
	BonusShare  float64 `mapstructure:"bonus_share" validate:"min=0,max=1"`

	// StreakBonusMin is the streak length from which bonus quests appear.
	StreakBonusMin int `mapstructure:"streak_bonus_min" validate:"min=1"`
}

// ScheduleConfig holds delay-analysis thresholds.
type ScheduleConfig struct {
	// CrisisMissedDays is the consecutive missed days that trigger CRISIS.
	CrisisMissedDays int `mapstructure:"crisis_missed_days" validate:"min=1"`

	// ConcernMissedDays is the missed days that trigger CONCERN.
	ConcernMissedDays int `mapstructure:"concern_missed_days" validate:"min=1"`

	// ConcernExpiredQuests is the expired-quest count that triggers CONCERN.
	ConcernExpiredQuests int `mapstructure:"concern_expired_quests" validate:"min=1"`
}

// IntentConfig holds the intent classifier tier thresholds.
type IntentConfig struct {
	// BalancedThreshold is the complexity at which the balanced tier starts.
	BalancedThreshold float64 `mapstructure:"balanced_threshold" validate:"min=0,max=1"`

	// DeepThreshold is the complexity at which the deep tier starts.
	DeepThreshold float64 `mapstructure:"deep_threshold" validate:"min=0,max=1"`
}

// LLMConfig holds the language-model capability settings.
type LLMConfig struct {
	// Enabled wires a real model client; when false, every consumer
	// uses its template fallback.
	Enabled bool `mapstructure:"enabled"`

	// APIKey is the provider API key.
	APIKey string `mapstructure:"api_key"`

	// FastModel, BalancedModel and DeepModel map the three tiers to models.
	FastModel     string `mapstructure:"fast_model"`
	BalancedModel string `mapstructure:"balanced_model"`
	DeepModel     string `mapstructure:"deep_model"`

	// Temperature is the sampling temperature.
	Temperature float64 `mapstructure:"temperature" validate:"min=0,max=2"`

	// MaxTokens caps completion length.
	MaxTokens int `mapstructure:"max_tokens" validate:"min=1"`

	// Timeout bounds a single completion call.
	Timeout time.Duration `mapstructure:"timeout"`

	// RateLimit is the maximum completions per second.
	RateLimit float64 `mapstructure:"rate_limit"`
}

// MetricsConfig holds Prometheus settings.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port" validate:"min=0,max=65535"`
	Path    string `mapstructure:"path"`
}

// String returns a printable summary of the configuration with secrets elided.
func (c *Config) String() string {
	return fmt.Sprintf(
		"app=%s env=%s server=%s:%d storage=%s embeddings=%s pinecone=%t llm=%t metrics=%t",
		c.App.Name, c.App.Environment, c.Server.Host, c.Server.Port,
		c.Storage.Type, c.Memory.EmbeddingProvider, c.Memory.Pinecone.Enabled,
		c.LLM.Enabled, c.Metrics.Enabled,
	)
}
