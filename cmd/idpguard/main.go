package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/target/idpguard/config"
	"github.com/target/idpguard/internal/bootstrap"
	"golang.org/x/sync/errgroup"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := bootstrap.InitLogger(slog.LevelInfo)
	if err := run(ctx, logger); err != nil {
		logger.ErrorContext(ctx, "fatal error", "error", err)
		stop()
		os.Exit(1) //nolint:forbidigo // Main entrypoint should exit with non-zero status on fatal errors.
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		return err
	}
	logger = bootstrap.InitLogger(cfg.Observability.SlogLevel())
	logStartupInfo(ctx, logger, &cfg)

	db, redisClient, err := initInfrastructure(ctx, &cfg, logger)
	if err != nil {
		return err
	}
	defer closeInfrastructure(ctx, logger, db, redisClient)

	if cfg.Postgres.RunMigrationsOnStart {
		if err = bootstrap.RunMigrations(ctx, db, logger); err != nil {
			return err
		}
	} else {
		logger.InfoContext(ctx, "skipping database migrations on startup", "reason", "disabled via config")
	}

	metrics, err := bootstrap.NewMetrics(cfg.Observability.Metrics, cfg.IsDev, logger)
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}
	defer func() {
		if cerr := metrics.Close(); cerr != nil {
			logger.ErrorContext(ctx, "close metrics failed", "error", cerr)
		}
	}()

	backends, err := bootstrap.BuildBackends(ctx, bootstrap.BackendsConfig{
		Auth:    cfg.Auth,
		BaseURL: cfg.HTTP.BaseURL,
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	handler, err := bootstrap.BuildHandler(bootstrap.HandlerConfig{
		Config:   &cfg,
		Stores:   bootstrap.NewStores(db, redisClient, cfg.Redis),
		Backends: backends,
		Metrics:  metrics,
		Logger:   logger,
	})
	if err != nil {
		return fmt.Errorf("build handler: %w", err)
	}

	return bootstrap.ServeHTTP(ctx, bootstrap.NewHTTPServer(cfg.HTTP.Addr, handler), logger)
}

func logStartupInfo(ctx context.Context, logger *slog.Logger, cfg *config.AppConfig) {
	logger.InfoContext(ctx, "starting idpguard",
		"addr", cfg.HTTP.Addr,
		"backends", cfg.Auth.Backends,
		"restricted_backends", cfg.Security.RestrictedBackends,
		"csp", cfg.Security.CSP.Present(),
		"db_host", cfg.Postgres.Host,
		"db_name", cfg.Postgres.Name,
		"dev", cfg.IsDev,
	)
}

// initInfrastructure connects Postgres and Redis concurrently.
//
//nolint:ireturn // returning redis.UniversalClient keeps sentinel/cluster support flexible.
func initInfrastructure(
	ctx context.Context,
	cfg *config.AppConfig,
	logger *slog.Logger,
) (*sql.DB, redis.UniversalClient, error) {
	var (
		db          *sql.DB
		redisClient redis.UniversalClient
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if db, err = bootstrap.ConnectDB(gctx, cfg.Postgres, logger); err != nil {
			return fmt.Errorf("connect db: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if redisClient, err = bootstrap.ConnectRedis(gctx, cfg.Redis, logger); err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		closeInfrastructure(ctx, logger, db, redisClient)
		return nil, nil, err
	}
	return db, redisClient, nil
}

func closeInfrastructure(ctx context.Context, logger *slog.Logger, db *sql.DB, redisClient redis.UniversalClient) {
	var errs []error
	if db != nil {
		if err := db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close database: %w", err))
		}
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		logger.ErrorContext(ctx, "shutdown cleanup failed", "error", err)
	}
}
