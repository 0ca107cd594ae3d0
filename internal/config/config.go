// Copyright (c) 2025-present Marko Kocić <marko@euptera.com>
// SPDX-License-Identifier: EPL-2.0
// See LICENSE for full license text.

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// DateLayout is the format of the date settings.
const DateLayout = "2006-01-02"

// Config holds the run settings. Command-line flags override these.
type Config struct {
	Window   WindowConfig
	Engine   EngineConfig
	LogLevel string
}

// WindowConfig is the reporting window. Zero values mean "derive from the
// transactions".
type WindowConfig struct {
	Start time.Time
	End   time.Time
}

// EngineConfig tunes the matching engine.
type EngineConfig struct {
	Workers           int
	ShortfallAttempts int
	SortIntake        bool
}

// Load reads configuration from environment variables and .env file.
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	cfg := &Config{LogLevel: getEnv("CGT_LOG_LEVEL", "info")}

	var err error
	if cfg.Window.Start, err = getDate("CGT_START_DATE"); err != nil {
		return nil, err
	}
	if cfg.Window.End, err = getDate("CGT_END_DATE"); err != nil {
		return nil, err
	}
	if cfg.Engine.Workers, err = getInt("CGT_WORKERS", 1); err != nil {
		return nil, err
	}
	if cfg.Engine.ShortfallAttempts, err = getInt("CGT_SHORTFALL_ATTEMPTS", 3); err != nil {
		return nil, err
	}
	if cfg.Engine.SortIntake, err = getBool("CGT_SORT_INTAKE", false); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ParseDate parses a date setting in the local time zone.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.Local)
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getDate(key string) (time.Time, error) {
	value := getEnv(key, "")
	if value == "" {
		return time.Time{}, nil
	}
	t, err := ParseDate(value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: %w", key, err)
	}
	return t, nil
}

func getInt(key string, defaultValue int) (int, error) {
	value := getEnv(key, "")
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if n < 1 {
		return 0, fmt.Errorf("%s: must be at least 1, got %d", key, n)
	}
	return n, nil
}

func getBool(key string, defaultValue bool) (bool, error) {
	value := getEnv(key, "")
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}
