package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP server
	Port string

	// Backend selection
	DataBackend string

	// Database
	SQLiteDBPath string

	// Receipt analysis
	GeminiAPIKey  string
	GeminiModel   string
	GeminiBaseURL string
	GeminiTimeout time.Duration

	// Receipt images
	ImageDir     string
	ImageBaseURL string

	// PDF export
	PDFFontPath string

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets mirror (worker)
	GoogleSpreadsheetID    string
	GoogleExpenseSheetName string
	GoogleIncomeSheetName  string
	GoogleCredentialsFile  string
	GoogleCredentialsJSON  string

	// Record ownership
	OwnerID string
}

func Load() *Config {
	cfg := &Config{
		Port: getEnv("PORT", "8081"),

		DataBackend:  getEnv("DATA_BACKEND", "memory"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/jangbu.db"),

		GeminiAPIKey:  getEnv("GEMINI_API_KEY", ""),
		GeminiModel:   getEnv("GEMINI_MODEL", "gemini-2.0-flash-001"),
		GeminiBaseURL: getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com"),
		GeminiTimeout: getEnvDuration("GEMINI_TIMEOUT", 45*time.Second),

		ImageDir:     getEnv("IMAGE_DIR", "./data/images"),
		ImageBaseURL: getEnv("IMAGE_BASE_URL", "/images"),

		PDFFontPath: getEnv("PDF_FONT_PATH", ""),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "jangbu"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "ledger_events"),

		GoogleSpreadsheetID:    getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleExpenseSheetName: getEnv("GOOGLE_EXPENSE_SHEET_NAME", "expenses"),
		GoogleIncomeSheetName:  getEnv("GOOGLE_INCOME_SHEET_NAME", "incomes"),
		GoogleCredentialsFile:  getEnv("GOOGLE_CREDENTIALS_FILE", ""),
		GoogleCredentialsJSON:  getEnv("GOOGLE_CREDENTIALS_JSON", ""),

		OwnerID: getEnv("OWNER_ID", "default_user"),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	validBackends := []string{"memory", "sqlite"}
	isValidBackend := false
	for _, backend := range validBackends {
		if c.DataBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	if c.DataBackend == "sqlite" {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	}

	if c.GeminiBaseURL != "" {
		if parsed, err := url.Parse(c.GeminiBaseURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid Gemini base URL '%s': %v", c.GeminiBaseURL, err))
		} else if parsed.Scheme != "http" && parsed.Scheme != "https" {
			errors = append(errors, fmt.Sprintf("invalid Gemini base URL scheme '%s': must be 'http' or 'https'", parsed.Scheme))
		}
	}

	if c.GeminiTimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid Gemini timeout %v: must be at least 1 second", c.GeminiTimeout))
	} else if c.GeminiTimeout > 10*time.Minute {
		errors = append(errors, fmt.Sprintf("invalid Gemini timeout %v: must be at most 10 minutes", c.GeminiTimeout))
	}

	if c.ImageDir == "" {
		errors = append(errors, "image directory cannot be empty")
	} else {
		if _, err := os.Stat(c.ImageDir); os.IsNotExist(err) {
			if err := os.MkdirAll(c.ImageDir, 0755); err != nil {
				errors = append(errors, fmt.Sprintf("cannot create image directory '%s': %v", c.ImageDir, err))
			}
		}
	}

	if c.PDFFontPath != "" {
		if _, err := os.Stat(c.PDFFontPath); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("PDF font file does not exist: %s", c.PDFFontPath))
		}
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.GoogleSpreadsheetID != "" {
		if c.GoogleExpenseSheetName == "" && c.GoogleIncomeSheetName == "" {
			errors = append(errors, "at least one sheet name is required when a spreadsheet ID is provided")
		}
		hasCredsFile := c.GoogleCredentialsFile != ""
		hasCredsJSON := c.GoogleCredentialsJSON != ""
		if !hasCredsFile && !hasCredsJSON {
			errors = append(errors, "either GOOGLE_CREDENTIALS_FILE or GOOGLE_CREDENTIALS_JSON must be provided for the sheets mirror")
		}
		if hasCredsFile {
			if _, err := os.Stat(c.GoogleCredentialsFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google credentials file does not exist: %s", c.GoogleCredentialsFile))
			}
		}
	}

	if c.OwnerID == "" {
		errors = append(errors, "owner ID cannot be empty")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// AnalysisEnabled reports whether the receipt analyzer has an API key to use.
func (c *Config) AnalysisEnabled() bool {
	return c.GeminiAPIKey != ""
}

// MirrorEnabled reports whether the worker should mirror records to Google Sheets.
func (c *Config) MirrorEnabled() bool {
	return c.GoogleSpreadsheetID != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
