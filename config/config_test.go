package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	// App defaults
	if cfg.App.Name != "studyflow" {
		t.Errorf("expected app name 'studyflow', got %s", cfg.App.Name)
	}
	if cfg.App.Environment != "development" {
		t.Errorf("expected environment 'development', got %s", cfg.App.Environment)
	}

	// Server defaults
	if cfg.Server.Port != 8080 {
		t.Errorf("expected server port 8080, got %d", cfg.Server.Port)
	}

	// Log defaults
	if cfg.Log.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Log.Level)
	}
	if cfg.Log.Format != "json" {
		t.Errorf("expected log format 'json', got %s", cfg.Log.Format)
	}

	// Storage defaults
	if cfg.Storage.Type != "memory" {
		t.Errorf("expected storage type 'memory', got %s", cfg.Storage.Type)
	}
	if cfg.Storage.Redis.Enabled {
		t.Error("expected storage.redis.enabled to be false")
	}

	// Memory defaults
	if cfg.Memory.VectorDimension != 768 {
		t.Errorf("expected vector dimension 768, got %d", cfg.Memory.VectorDimension)
	}
	if cfg.Memory.EmbeddingProvider != "hash" {
		t.Errorf("expected embedding provider 'hash', got %s", cfg.Memory.EmbeddingProvider)
	}
	if cfg.Memory.Pinecone.Enabled {
		t.Error("expected memory.pinecone.enabled to be false")
	}

	// Quest defaults
	if cfg.Quest.MaxDaily != 5 {
		t.Errorf("expected quest.max_daily 5, got %d", cfg.Quest.MaxDaily)
	}
	if cfg.Quest.MaxMinutes != 120 {
		t.Errorf("expected quest.max_minutes 120, got %d", cfg.Quest.MaxMinutes)
	}

	// Burnout defaults
	if cfg.Burnout.WindowDays != 7 {
		t.Errorf("expected burnout.window_days 7, got %d", cfg.Burnout.WindowDays)
	}
	if cfg.Burnout.HighThreshold != 0.7 {
		t.Errorf("expected burnout.high_threshold 0.7, got %f", cfg.Burnout.HighThreshold)
	}
}

func TestValidateWithDetails(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *Config
		wantErr bool
	}{
		{
			name:    "valid defaults",
			cfg:     DefaultConfig(),
			wantErr: false,
		},
		{
			name: "missing app name",
			cfg: func() *Config {
				cfg := DefaultConfig()
				cfg.App.Name = ""
				return cfg
			}(),
			wantErr: true,
		},
		{
			name: "invalid port",
			cfg: func() *Config {
				cfg := DefaultConfig()
				cfg.Server.Port = 99999
				return cfg
			}(),
			wantErr: true,
		},
		{
			name: "invalid log level",
			cfg: func() *Config {
				cfg := DefaultConfig()
				cfg.Log.Level = "trace"
				return cfg
			}(),
			wantErr: true,
		},
		{
			name: "invalid environment",
			cfg: func() *Config {
				cfg := DefaultConfig()
				cfg.App.Environment = "invalid"
				return cfg
			}(),
			wantErr: true,
		},
		{
			name: "invalid storage type",
			cfg: func() *Config {
				cfg := DefaultConfig()
				cfg.Storage.Type = "postgres"
				return cfg
			}(),
			wantErr: true,
		},
		{
			name: "high threshold below medium",
			cfg: func() *Config {
				cfg := DefaultConfig()
				cfg.Burnout.MediumThreshold = 0.8
				cfg.Burnout.HighThreshold = 0.5
				return cfg
			}(),
			wantErr: true,
		},
		{
			name: "quest shares do not sum to one",
			cfg: func() *Config {
				cfg := DefaultConfig()
				cfg.Quest.MainShare = 0.5
				cfg.Quest.ReviewShare = 0.1
				cfg.Quest.BonusShare = 0.1
				return cfg
			}(),
			wantErr: true,
		},
		{
			name: "pinecone enabled without api key",
			cfg: func() *Config {
				cfg := DefaultConfig()
				cfg.Memory.Pinecone.Enabled = true
				cfg.Memory.Pinecone.APIKey = ""
				return cfg
			}(),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateWithDetails(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateWithDetails() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidationErrors_Error(t *testing.T) {
	errs := ValidationErrors{
		{Field: "server.port", Message: "must be between 1 and 65535", Value: 99999},
		{Field: "log.level", Message: "must be one of [debug info warn error]", Value: "trace"},
	}

	errMsg := errs.Error()
	if errMsg == "" {
		t.Error("expected error message")
	}
	if errMsg == "no validation errors" {
		t.Error("expected error details")
	}
}

func TestConfig_String(t *testing.T) {
	cfg := DefaultConfig()

	s := cfg.String()
	if s == "" {
		t.Error("expected non-empty string representation")
	}
}

func TestDurationParsing(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Server.HTTP.ReadTimeout != 30*time.Second {
		t.Errorf("expected read timeout 30s, got %v", cfg.Server.HTTP.ReadTimeout)
	}
	if cfg.LLM.Timeout != 30*time.Second {
		t.Errorf("expected llm timeout 30s, got %v", cfg.LLM.Timeout)
	}
}

func TestLoader_Get(t *testing.T) {
	loader := NewLoader()
	_, _ = loader.Load("", nil) // Load defaults

	val := loader.Get("app.name")
	if val == nil {
		t.Error("expected non-nil value for app.name")
	}
}

func TestLoader_Set(t *testing.T) {
	loader := NewLoader()
	_, _ = loader.Load("", nil)

	err := loader.Set("app.name", "custom-app")
	if err != nil {
		t.Errorf("unexpected error setting value: %v", err)
	}
	if loader.Get("app.name") != "custom-app" {
		t.Errorf("expected 'custom-app', got '%v'", loader.Get("app.name"))
	}
}

func TestLoad(t *testing.T) {
	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg == nil {
		t.Error("expected non-nil config")
	}
}

func TestLoad_Overrides(t *testing.T) {
	cfg, err := Load("", map[string]interface{}{
		"server.port": 9999,
		"log.level":   "debug",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 9999 {
		t.Errorf("expected 9999, got %d", cfg.Server.Port)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("expected 'debug', got '%s'", cfg.Log.Level)
	}
}

func TestLoader_LoadFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
app:
  name: yaml-test
  environment: production
server:
  port: 9999
log:
  level: debug
  format: text
quest:
  max_daily: 4
  max_minutes: 90
burnout:
  window_days: 14
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	loader := NewLoader()
	cfg, err := loader.Load(configPath, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.App.Name != "yaml-test" {
		t.Errorf("expected 'yaml-test', got '%s'", cfg.App.Name)
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("expected 9999, got %d", cfg.Server.Port)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("expected 'debug', got '%s'", cfg.Log.Level)
	}
	if cfg.Quest.MaxDaily != 4 {
		t.Errorf("expected quest.max_daily 4, got %d", cfg.Quest.MaxDaily)
	}
	if cfg.Burnout.WindowDays != 14 {
		t.Errorf("expected burnout.window_days 14, got %d", cfg.Burnout.WindowDays)
	}

	// Keys absent from the file keep their defaults.
	if cfg.Memory.VectorDimension != 768 {
		t.Errorf("expected default vector dimension 768, got %d", cfg.Memory.VectorDimension)
	}
}

func TestLoader_LoadFile_NotFound(t *testing.T) {
	loader := NewLoader()
	_, err := loader.Load("/nonexistent/path/config.yaml", nil)
	if err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestLoader_LoadFile_UnsupportedFormat(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.toml")
	if err := os.WriteFile(configPath, []byte("x = 1"), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	loader := NewLoader()
	_, err := loader.Load(configPath, nil)
	if err == nil {
		t.Error("expected error for unsupported config format")
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("STUDYFLOW_SERVER__PORT", "7070")

	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("expected 7070 from env, got %d", cfg.Server.Port)
	}
}
