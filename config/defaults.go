package config

import "time"

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		App: AppConfig{
			Name:        "studyflow",
			Version:     "dev",
			Environment: "development",
			Debug:       false,
		},
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
			HTTP: HTTPConfig{
				ReadTimeout:    30 * time.Second,
				WriteTimeout:   30 * time.Second,
				IdleTimeout:    120 * time.Second,
				MaxHeaderBytes: 1 << 20, // 1MB
			},
			CORS: CORSConfig{
				Enabled:        false,
				AllowedOrigins: []string{"*"},
				AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
				AllowedHeaders: []string{"Content-Type", "Authorization"},
				MaxAge:         300,
			},
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Storage: StorageConfig{
			Type: "memory",
			Badger: BadgerConfig{
				Path:             "./data/badger",
				SyncWrites:       true,
				ValueLogFileSize: 1 << 30, // 1GB
			},
			Redis: RedisConfig{
				Enabled: false,
				Address: "localhost:6379",
				DB:      0,
			},
		},
		Memory: MemoryConfig{
			VectorDimension:   768,
			EmbeddingProvider: "hash",
			MinConfidence:     0.5,
			EmbedBatchSize:    2048,
			EmbedRateLimit:    10,
			Pinecone: PineconeConfig{
				Enabled:   false,
				IndexName: "studyflow-memories",
				Namespace: "learning-memories",
			},
			Retriever: RetrieverConfig{
				Weights: RetrieverWeights{
					Semantic:     0.45,
					Recency:      0.10,
					Confidence:   0.10,
					TypeBoost:    0.15,
					SubjectMatch: 0.10,
					Urgency:      0.10,
				},
				MinScore:           0.3,
				MaxResults:         10,
				RecencyHorizonDays: 30,
			},
		},
		SRS: SRSConfig{
			MaxIntervalDays: 30,
			EMAAlpha:        0.3,
		},
		Burnout: BurnoutConfig{
			WindowDays:      7,
			MediumThreshold: 0.4,
			HighThreshold:   0.7,
		},
		Quest: QuestConfig{
			MaxDaily:       5,
			MaxMinutes:     120,
			MainShare:      0.6,
			ReviewShare:    0.3,
			BonusShare:     0.1,
			StreakBonusMin: 3,
		},
		Schedule: ScheduleConfig{
			CrisisMissedDays:     3,
			ConcernMissedDays:    2,
			ConcernExpiredQuests: 3,
		},
		Intent: IntentConfig{
			BalancedThreshold: 0.3,
			DeepThreshold:     0.6,
		},
		LLM: LLMConfig{
			Enabled:       false,
			FastModel:     "gpt-4o-mini",
			BalancedModel: "gpt-4o",
			DeepModel:     "o3-mini",
			Temperature:   0.3,
			MaxTokens:     1024,
			Timeout:       30 * time.Second,
			RateLimit:     5,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9091,
			Path:    "/metrics",
		},
	}
}
