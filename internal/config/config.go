// Package config loads runtime settings from the environment, optionally
// seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap/zapcore"

	"github.com/pable/go-bfv-analytics/internal/aggregator"
)

// Config stores runtime configuration for the CLI.
type Config struct {
	DBPath          string
	MongoURI        string // empty selects the SQLite raw store
	MongoDB         string
	LookupPath      string
	CaptureDir      string
	ModeFilter      string
	BenchmarkWindow time.Duration
	Normalization   aggregator.Target
	LogLevel        zapcore.Level
	LogJSON         bool
	MetricsFile     string
}

// LoadDotEnv loads the first .env file found among paths into the process
// environment without overriding variables already set. Missing files are
// ignored.
func LoadDotEnv(paths ...string) (string, error) {
	for _, p := range paths {
		err := godotenv.Load(p)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("load %s: %w", p, err)
		}
	}
	return "", nil
}

// Load reads BFV_* variables, applying defaults.
func Load() (Config, error) {
	cfg := Config{
		DBPath:      getEnv("BFV_DB", filepath.Join(userHome(), ".bfvmetrics", "analytics.db")),
		MongoURI:    strings.TrimSpace(getEnv("BFV_MONGO_URI", "")),
		MongoDB:     getEnv("BFV_MONGO_DB", "bfv_ingestion"),
		LookupPath:  getEnv("BFV_LOOKUP", ""),
		CaptureDir:  getEnv("BFV_CAPTURE_DIR", "captures"),
		ModeFilter:  getEnv("BFV_MODE_FILTER", ""),
		MetricsFile: getEnv("BFV_METRICS_FILE", ""),
	}

	days, err := getEnvAsInt("BFV_BENCHMARK_WINDOW_DAYS", 120)
	if err != nil {
		return Config{}, fmt.Errorf("parse BFV_BENCHMARK_WINDOW_DAYS: %w", err)
	}
	if days <= 0 {
		return Config{}, fmt.Errorf("BFV_BENCHMARK_WINDOW_DAYS must be > 0")
	}
	cfg.BenchmarkWindow = time.Duration(days) * 24 * time.Hour

	if cfg.Normalization, err = aggregator.ParseTarget(getEnv("BFV_NORMALIZATION_TARGET", "stratum")); err != nil {
		return Config{}, fmt.Errorf("parse BFV_NORMALIZATION_TARGET: %w", err)
	}
	if cfg.LogLevel, err = zapcore.ParseLevel(getEnv("BFV_LOG_LEVEL", "info")); err != nil {
		return Config{}, fmt.Errorf("parse BFV_LOG_LEVEL: %w", err)
	}
	if cfg.LogJSON, err = strconv.ParseBool(getEnv("BFV_LOG_JSON", "false")); err != nil {
		return Config{}, fmt.Errorf("parse BFV_LOG_JSON: %w", err)
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

func getEnvAsInt(key string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}
	return strconv.Atoi(value)
}

func userHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
