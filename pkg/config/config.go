package config

import (
	"fmt"
	"log"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL    string
	Port           string
	IsProduction   bool
	EnableDBCheck  bool
	LogLevel       string
	MigrationsPath string

	// Ledger engine
	CommitMaxAttempts int
	CommitBaseBackoff time.Duration
	CommitMaxBackoff  time.Duration
	HistoryPageSize   int

	// Balance cache, disabled when RedisAddr is empty
	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	BalanceCacheTTL time.Duration

	// Commit events, disabled when KafkaBrokers is empty
	KafkaBrokers []string
	KafkaTopic   string

	// HTTP
	RateLimit          string
	CORSAllowedOrigins []string
}

const maxCommitBackoff = time.Second

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("ENABLE_DB_CHECK", false)
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("MIGRATIONS_PATH", "file://migrations")
	viper.SetDefault("LEDGER_COMMIT_MAX_ATTEMPTS", 5)
	viper.SetDefault("LEDGER_COMMIT_BASE_BACKOFF", "10ms")
	viper.SetDefault("LEDGER_HISTORY_PAGE_SIZE", 100)
	viper.SetDefault("REDIS_ADDR", "")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("BALANCE_CACHE_TTL", "5m")
	viper.SetDefault("KAFKA_BROKERS", "")
	viper.SetDefault("LEDGER_KAFKA_TOPIC", "ledger.transaction_committed")
	viper.SetDefault("RATE_LIMIT", "100-M")
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")

	viper.AutomaticEnv()

	cfg := &Config{
		DatabaseURL:        viper.GetString("PGSQL_URL"),
		Port:               viper.GetString("PORT"),
		IsProduction:       viper.GetBool("IS_PRODUCTION"),
		EnableDBCheck:      viper.GetBool("ENABLE_DB_CHECK"),
		LogLevel:           viper.GetString("LOG_LEVEL"),
		MigrationsPath:     viper.GetString("MIGRATIONS_PATH"),
		CommitMaxBackoff:   maxCommitBackoff,
		RedisAddr:          viper.GetString("REDIS_ADDR"),
		RedisPassword:      viper.GetString("REDIS_PASSWORD"),
		RedisDB:            viper.GetInt("REDIS_DB"),
		KafkaBrokers:       splitList(viper.GetString("KAFKA_BROKERS")),
		KafkaTopic:         viper.GetString("LEDGER_KAFKA_TOPIC"),
		RateLimit:          viper.GetString("RATE_LIMIT"),
		CORSAllowedOrigins: splitList(viper.GetString("CORS_ALLOWED_ORIGINS")),
	}

	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}

	if cfg.Port == "" {
		cfg.Port = "8080"
		log.Printf("Warning: PORT environment variable not set. Defaulting to %s\n", cfg.Port)
	}

	cfg.CommitMaxAttempts = viper.GetInt("LEDGER_COMMIT_MAX_ATTEMPTS")
	if cfg.CommitMaxAttempts < 1 {
		return nil, fmt.Errorf("LEDGER_COMMIT_MAX_ATTEMPTS must be at least 1, got %d", cfg.CommitMaxAttempts)
	}

	backoffStr := viper.GetString("LEDGER_COMMIT_BASE_BACKOFF")
	backoff, err := time.ParseDuration(backoffStr)
	if err != nil || backoff <= 0 {
		backoff = 10 * time.Millisecond
		log.Printf("Warning: Invalid value for LEDGER_COMMIT_BASE_BACKOFF ('%s'). Defaulting to %s.\n", backoffStr, backoff)
	}
	cfg.CommitBaseBackoff = min(backoff, maxCommitBackoff)

	cfg.HistoryPageSize = viper.GetInt("LEDGER_HISTORY_PAGE_SIZE")
	if cfg.HistoryPageSize < 1 {
		return nil, fmt.Errorf("LEDGER_HISTORY_PAGE_SIZE must be positive, got %d", cfg.HistoryPageSize)
	}

	ttlStr := viper.GetString("BALANCE_CACHE_TTL")
	ttl, err := time.ParseDuration(ttlStr)
	if err != nil {
		ttl = 5 * time.Minute
		log.Printf("Warning: Invalid value for BALANCE_CACHE_TTL ('%s'). Defaulting to %s.\n", ttlStr, ttl)
	}
	cfg.BalanceCacheTTL = ttl

	return cfg, nil
}

// SlogLevel maps LogLevel onto a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// splitList parses a comma separated list, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
