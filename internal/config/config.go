package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

type Config struct {
	// Database
	SQLiteDBPath string

	// Categorization
	FuzzyThreshold int

	// Statistics
	CashflowTrendMonths int

	// Logging
	LogLevel string
}

func Load() *Config {
	return &Config{
		SQLiteDBPath:        getEnv("SQLITE_DB_PATH", "./data/expense-tracker.db"),
		FuzzyThreshold:      getEnvInt("FUZZY_MATCH_THRESHOLD", 90),
		CashflowTrendMonths: getEnvInt("CASHFLOW_TREND_MONTHS", 6),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if c.SQLiteDBPath == "" {
		errors = append(errors, "SQLite database path cannot be empty")
	} else {
		// Check if directory exists or can be created
		dir := filepath.Dir(c.SQLiteDBPath)
		if dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	}

	if c.FuzzyThreshold < 1 || c.FuzzyThreshold > 100 {
		errors = append(errors, fmt.Sprintf("invalid fuzzy threshold %d: must be between 1 and 100", c.FuzzyThreshold))
	}

	if c.CashflowTrendMonths < 1 {
		errors = append(errors, fmt.Sprintf("invalid cashflow trend months %d: must be at least 1", c.CashflowTrendMonths))
	} else if c.CashflowTrendMonths > 120 {
		errors = append(errors, fmt.Sprintf("invalid cashflow trend months %d: must be at most 120", c.CashflowTrendMonths))
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of [debug info warn error]", c.LogLevel))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// SlogLevel maps the configured log level to a slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}
