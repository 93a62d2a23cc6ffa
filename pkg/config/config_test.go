package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "file://migrations", cfg.MigrationsPath)
	assert.Equal(t, 5, cfg.CommitMaxAttempts)
	assert.Equal(t, 10*time.Millisecond, cfg.CommitBaseBackoff)
	assert.Equal(t, time.Second, cfg.CommitMaxBackoff)
	assert.Equal(t, 100, cfg.HistoryPageSize)
	assert.Equal(t, 5*time.Minute, cfg.BalanceCacheTTL)
	assert.Empty(t, cfg.RedisAddr)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, "ledger.transaction_committed", cfg.KafkaTopic)
	assert.Equal(t, "100-M", cfg.RateLimit)
}

func TestLoadConfig_FromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("LEDGER_COMMIT_MAX_ATTEMPTS", "3")
	t.Setenv("LEDGER_COMMIT_BASE_BACKOFF", "5s")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("REDIS_DB", "2")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 3, cfg.CommitMaxAttempts)
	assert.Equal(t, time.Second, cfg.CommitBaseBackoff, "base backoff is capped")
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, 2, cfg.RedisDB)
}

func TestLoadConfig_InvalidValues(t *testing.T) {
	t.Run("zero attempts", func(t *testing.T) {
		t.Setenv("LEDGER_COMMIT_MAX_ATTEMPTS", "0")
		_, err := LoadConfig()
		assert.Error(t, err)
	})

	t.Run("bad backoff falls back", func(t *testing.T) {
		t.Setenv("LEDGER_COMMIT_BASE_BACKOFF", "soon")
		cfg, err := LoadConfig()
		require.NoError(t, err)
		assert.Equal(t, 10*time.Millisecond, cfg.CommitBaseBackoff)
	})
}

func TestSplitList(t *testing.T) {
	assert.Nil(t, splitList(""))
	assert.Equal(t, []string{"a", "b"}, splitList(" a ,,b "))
}

func TestConfig_SlogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, (&Config{LogLevel: "DEBUG"}).SlogLevel())
	assert.Equal(t, slog.LevelWarn, (&Config{LogLevel: "warn"}).SlogLevel())
	assert.Equal(t, slog.LevelError, (&Config{LogLevel: "error"}).SlogLevel())
	assert.Equal(t, slog.LevelInfo, (&Config{LogLevel: "verbose"}).SlogLevel())
}
