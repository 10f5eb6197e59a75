/*
Package config loads server configuration from the environment.

PURPOSE:
  Central place for every tunable: HTTP port, database path, the monthly
  capacity baseline, the conflict-scan schedule, and logging. A .env file
  in the working directory is loaded first so local development needs no
  exported variables.

VARIABLES:
  PORT             HTTP server port                    (default: 8080)
  DATABASE_PATH    SQLite path, ":memory:" for tests   (default: staffing.db)
  BASELINE_MODE    "flat" or "businessdays"            (default: flat)
  BASELINE_HOURS   flat baseline / hours per weekday   (default: 160 / 8)
  SCAN_SCHEDULE    cron spec for the conflict scanner  (default: @hourly)
  LOG_LEVEL        zerolog level name                  (default: info)
  DEV_MODE         "true" seeds demo data on startup   (default: false)

SEE ALSO:
  - cmd/server/main.go: the only consumer
*/
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/warp/staffing-engine/engine"
)

const (
	BaselineFlat         = "flat"
	BaselineBusinessDays = "businessdays"
)

type Config struct {
	Port          int
	DatabasePath  string
	BaselineMode  string
	BaselineHours int
	ScanSchedule  string
	LogLevel      zerolog.Level
	DevMode       bool
}

// Load reads configuration from a .env file (when present) and the process
// environment, environment winning.
func Load() (*Config, error) {
	// Missing .env is fine; real deployments set variables directly.
	_ = godotenv.Load()

	cfg := &Config{
		Port:          8080,
		DatabasePath:  "staffing.db",
		BaselineMode:  BaselineFlat,
		BaselineHours: 0, // 0 lets the calendar pick its own default
		ScanSchedule:  "@hourly",
		LogLevel:      zerolog.InfoLevel,
		DevMode:       false,
	}

	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port <= 0 || port > 65535 {
			return nil, fmt.Errorf("invalid PORT %q", v)
		}
		cfg.Port = port
	}
	if v := os.Getenv("DATABASE_PATH"); v != "" {
		cfg.DatabasePath = v
	}
	if v := os.Getenv("BASELINE_MODE"); v != "" {
		mode := strings.ToLower(v)
		if mode != BaselineFlat && mode != BaselineBusinessDays {
			return nil, fmt.Errorf("invalid BASELINE_MODE %q: want %q or %q",
				v, BaselineFlat, BaselineBusinessDays)
		}
		cfg.BaselineMode = mode
	}
	if v := os.Getenv("BASELINE_HOURS"); v != "" {
		hours, err := strconv.Atoi(v)
		if err != nil || hours <= 0 {
			return nil, fmt.Errorf("invalid BASELINE_HOURS %q", v)
		}
		cfg.BaselineHours = hours
	}
	if v := os.Getenv("SCAN_SCHEDULE"); v != "" {
		cfg.ScanSchedule = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		level, err := zerolog.ParseLevel(strings.ToLower(v))
		if err != nil {
			return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", v, err)
		}
		cfg.LogLevel = level
	}
	if v := os.Getenv("DEV_MODE"); v != "" {
		cfg.DevMode = v == "true" || v == "1"
	}

	return cfg, nil
}

// Calendar builds the baseline-hours calendar the configuration names.
func (c *Config) Calendar() engine.Calendar {
	if c.BaselineMode == BaselineBusinessDays {
		return engine.BusinessDayCalendar{HoursPerDay: c.BaselineHours}
	}
	return engine.FlatCalendar{Hours: c.BaselineHours}
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
