package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/pable/go-bfv-analytics/internal/aggregator"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"BFV_DB", "BFV_MONGO_URI", "BFV_MONGO_DB", "BFV_LOOKUP", "BFV_CAPTURE_DIR",
		"BFV_MODE_FILTER", "BFV_METRICS_FILE", "BFV_BENCHMARK_WINDOW_DAYS",
		"BFV_NORMALIZATION_TARGET", "BFV_LOG_LEVEL", "BFV_LOG_JSON",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 120*24*time.Hour, cfg.BenchmarkWindow)
	assert.Equal(t, aggregator.TargetStratum, cfg.Normalization)
	assert.Equal(t, zapcore.InfoLevel, cfg.LogLevel)
	assert.Equal(t, "bfv_ingestion", cfg.MongoDB)
	assert.Empty(t, cfg.MongoURI)
	assert.Equal(t, "analytics.db", filepath.Base(cfg.DBPath))
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("BFV_DB", "/tmp/x.db")
	t.Setenv("BFV_MONGO_URI", " mongodb://localhost:27017 ")
	t.Setenv("BFV_BENCHMARK_WINDOW_DAYS", "30")
	t.Setenv("BFV_NORMALIZATION_TARGET", "global")
	t.Setenv("BFV_LOG_LEVEL", "debug")
	t.Setenv("BFV_LOG_JSON", "true")
	t.Setenv("BFV_MODE_FILTER", "Breakthrough")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/x.db", cfg.DBPath)
	assert.Equal(t, "mongodb://localhost:27017", cfg.MongoURI)
	assert.Equal(t, 30*24*time.Hour, cfg.BenchmarkWindow)
	assert.Equal(t, aggregator.TargetGlobal, cfg.Normalization)
	assert.Equal(t, zapcore.DebugLevel, cfg.LogLevel)
	assert.True(t, cfg.LogJSON)
	assert.Equal(t, "Breakthrough", cfg.ModeFilter)
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"BFV_BENCHMARK_WINDOW_DAYS": "0",
		"BFV_NORMALIZATION_TARGET":  "league",
		"BFV_LOG_LEVEL":             "loud",
		"BFV_LOG_JSON":              "maybe",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(key, value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("BFV_MONGO_DB=from_file\n"), 0o600))
	t.Setenv("BFV_MONGO_DB", "")
	os.Unsetenv("BFV_MONGO_DB")

	used, err := LoadDotEnv(filepath.Join(dir, "missing.env"), path)
	require.NoError(t, err)
	assert.Equal(t, path, used)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "from_file", cfg.MongoDB)

	used, err = LoadDotEnv(filepath.Join(dir, "nope.env"))
	require.NoError(t, err)
	assert.Empty(t, used)
}
