// Package app wires the ledger services from configuration.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SscSPs/points_ledger/internal/adapters/cache/rediscache"
	"github.com/SscSPs/points_ledger/internal/adapters/database/memory"
	"github.com/SscSPs/points_ledger/internal/adapters/database/pgsql"
	"github.com/SscSPs/points_ledger/internal/adapters/events/kafka"
	"github.com/SscSPs/points_ledger/internal/core/ports/events"
	portsrepo "github.com/SscSPs/points_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/points_ledger/internal/core/ports/services"
	"github.com/SscSPs/points_ledger/internal/core/services"
	"github.com/SscSPs/points_ledger/pkg/config"
	"github.com/SscSPs/points_ledger/pkg/database"
	"github.com/jackc/pgx/v5/pgxpool"
)

// App holds the wired services and the resources they depend on.
type App struct {
	Services *portssvc.ServiceContainer
	// Pool is nil when the app runs on the in-memory store.
	Pool *pgxpool.Pool

	closers []func()
}

// Options selects the storage backend.
type Options struct {
	// InMemory skips PostgreSQL, Redis and Kafka and keeps everything in process.
	InMemory bool
	// Migrate applies pending migrations before the services are built.
	Migrate bool
}

// New connects the configured backends and builds the service container.
// Redis and Kafka are optional: an unreachable Redis disables the cache with a
// warning, an empty broker list disables events.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts Options) (*App, error) {
	a := &App{}
	containerOpts := services.ContainerOptions{
		Retry: services.RetryPolicy{
			MaxAttempts: cfg.CommitMaxAttempts,
			BaseBackoff: cfg.CommitBaseBackoff,
			MaxBackoff:  cfg.CommitMaxBackoff,
		},
		HistoryPageSize: cfg.HistoryPageSize,
	}

	if opts.InMemory {
		logger.Warn("Using in-memory ledger store, data is lost on exit")
		a.Services = services.NewServiceContainer(memory.NewRepositoryProvider(memory.NewStore()), containerOpts)
		return a, nil
	}

	repos, err := a.connectPostgres(ctx, cfg, logger, opts.Migrate)
	if err != nil {
		a.Close()
		return nil, err
	}

	if cache := a.connectRedis(ctx, cfg, logger); cache != nil {
		containerOpts.Cache = cache
	}
	containerOpts.Publisher = a.connectKafka(cfg, logger)

	a.Services = services.NewServiceContainer(repos, containerOpts)
	return a, nil
}

func (a *App) connectPostgres(ctx context.Context, cfg *config.Config, logger *slog.Logger, migrate bool) (portsrepo.RepositoryProvider, error) {
	if migrate {
		if err := database.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath, logger); err != nil {
			return portsrepo.RepositoryProvider{}, err
		}
	}

	pool, err := database.NewPgxPool(ctx, cfg.DatabaseURL, cfg.EnableDBCheck)
	if err != nil {
		return portsrepo.RepositoryProvider{}, fmt.Errorf("failed to initialize database pool: %w", err)
	}
	a.Pool = pool
	a.closers = append(a.closers, func() { database.ClosePgxPool(pool) })
	logger.Info("Database connection pool established.")
	return pgsql.NewRepositoryProvider(pool), nil
}

func (a *App) connectRedis(ctx context.Context, cfg *config.Config, logger *slog.Logger) portsrepo.BalanceCache {
	if cfg.RedisAddr == "" {
		return nil
	}
	client, err := rediscache.NewClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		logger.Warn("Redis unavailable, balance cache disabled", slog.String("error", err.Error()))
		return nil
	}
	a.closers = append(a.closers, func() {
		if err := client.Close(); err != nil {
			logger.Error("Error closing Redis client", slog.String("error", err.Error()))
		}
	})
	logger.Info("Balance cache enabled", slog.String("addr", cfg.RedisAddr), slog.Duration("ttl", cfg.BalanceCacheTTL))
	return rediscache.NewBalanceCache(client, cfg.BalanceCacheTTL)
}

func (a *App) connectKafka(cfg *config.Config, logger *slog.Logger) events.Publisher {
	if len(cfg.KafkaBrokers) == 0 {
		return events.NopPublisher{}
	}
	pub := kafka.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
	a.closers = append(a.closers, func() {
		if err := pub.Close(); err != nil {
			logger.Error("Error closing Kafka publisher", slog.String("error", err.Error()))
		}
	})
	logger.Info("Commit events enabled", slog.Any("brokers", cfg.KafkaBrokers), slog.String("topic", cfg.KafkaTopic))
	return pub
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
