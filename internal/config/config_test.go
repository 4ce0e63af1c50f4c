package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != "8081" {
		t.Errorf("Port = %s, want 8081", cfg.Port)
	}
	if cfg.DataBackend != "memory" {
		t.Errorf("DataBackend = %s, want memory", cfg.DataBackend)
	}
	if cfg.GeminiModel != "gemini-2.0-flash-001" {
		t.Errorf("GeminiModel = %s", cfg.GeminiModel)
	}
	if cfg.GeminiTimeout != 45*time.Second {
		t.Errorf("GeminiTimeout = %v", cfg.GeminiTimeout)
	}
	if cfg.OwnerID != "default_user" {
		t.Errorf("OwnerID = %s", cfg.OwnerID)
	}
	if cfg.AnalysisEnabled() {
		t.Error("analysis should be disabled without an API key")
	}
	if cfg.MirrorEnabled() {
		t.Error("mirror should be disabled without a spreadsheet ID")
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DATA_BACKEND", "sqlite")
	t.Setenv("SQLITE_DB_PATH", t.TempDir()+"/ledger.db")
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("GEMINI_TIMEOUT", "90s")
	t.Setenv("IMAGE_DIR", t.TempDir())

	cfg := Load()
	if cfg.Port != "9090" {
		t.Errorf("Port = %s", cfg.Port)
	}
	if cfg.DataBackend != "sqlite" {
		t.Errorf("DataBackend = %s", cfg.DataBackend)
	}
	if cfg.GeminiTimeout != 90*time.Second {
		t.Errorf("GeminiTimeout = %v", cfg.GeminiTimeout)
	}
	if !cfg.AnalysisEnabled() {
		t.Error("analysis should be enabled")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}
}

func TestValidateErrors(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"bad port", func(c *Config) { c.Port = "abc" }, "invalid port"},
		{"port range", func(c *Config) { c.Port = "70000" }, "must be between"},
		{"bad backend", func(c *Config) { c.DataBackend = "sheets" }, "invalid data backend"},
		{"bad amqp scheme", func(c *Config) { c.AMQPURL = "http://localhost" }, "invalid AMQP URL scheme"},
		{"amqp queue", func(c *Config) { c.AMQPURL = "amqp://localhost"; c.AMQPQueue = "" }, "queue name cannot be empty"},
		{"short timeout", func(c *Config) { c.GeminiTimeout = time.Millisecond }, "invalid Gemini timeout"},
		{"missing creds", func(c *Config) { c.GoogleSpreadsheetID = "sheet-1" }, "GOOGLE_CREDENTIALS_FILE or GOOGLE_CREDENTIALS_JSON"},
		{"empty owner", func(c *Config) { c.OwnerID = "" }, "owner ID cannot be empty"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Load()
			cfg.ImageDir = t.TempDir()
			tc.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}
