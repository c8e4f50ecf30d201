// Package main is the entry point for the Glimpse server.
// Glimpse is a photo sharing backend: image uploads, likes, views and
// threaded comments behind a JSON API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/glimpse-app/glimpse/internal/auth"
	memorycache "github.com/glimpse-app/glimpse/internal/cache/memory"
	rediscache "github.com/glimpse-app/glimpse/internal/cache/redis"
	"github.com/glimpse-app/glimpse/internal/config"
	"github.com/glimpse-app/glimpse/internal/handler"
	"github.com/glimpse-app/glimpse/internal/lock"
	"github.com/glimpse-app/glimpse/internal/metrics"
	"github.com/glimpse-app/glimpse/internal/repository"
	"github.com/glimpse-app/glimpse/internal/repository/postgres"
	"github.com/glimpse-app/glimpse/internal/repository/sqlite"
	"github.com/glimpse-app/glimpse/internal/service"
	"github.com/glimpse-app/glimpse/internal/storage"
)

// Version information (set at build time)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg := config.MustLoad(*configPath)

	logger := setupLogger(cfg.Logging)
	logger.Info().
		Str("version", Version).
		Str("build_time", BuildTime).
		Str("git_commit", GitCommit).
		Msg("starting glimpse server")

	if err := run(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("server exited with error")
	}
}

func run(cfg *config.Config, logger zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Database and repositories
	repos, database, err := setupRepositories(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("database setup: %w", err)
	}
	defer database.Close()

	// Cache and distributed lock
	cache, locker, cleanup, err := setupCacheAndLock(ctx, cfg.Redis, logger)
	if err != nil {
		return fmt.Errorf("cache setup: %w", err)
	}
	defer cleanup()

	// Image storage backend
	backend, err := setupStorage(ctx, cfg.Storage, logger)
	if err != nil {
		return fmt.Errorf("storage setup: %w", err)
	}

	// Metrics
	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	// Services
	tokens := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	userService := service.NewUserService(repos.User, cfg.Auth.BcryptCost, logger)
	photoService := service.NewPhotoService(repos.Photo, repos.User, cache, backend, m, cfg.Storage, logger)
	engagementService := service.NewEngagementService(repos.Photo, repos.User, cache, locker, m, cfg.Engagement, logger)

	// HTTP layer
	router := handler.NewRouter(handler.RouterConfig{
		AuthHandler: handler.NewAuthHandler(handler.AuthHandlerConfig{
			UserService: userService,
			Tokens:      tokens,
			Logger:      logger,
		}),
		PhotoHandler: handler.NewPhotoHandler(handler.PhotoHandlerConfig{
			PhotoService:  photoService,
			MaxUploadSize: cfg.Storage.MaxUploadSize,
			Logger:        logger,
		}),
		EngagementHandler: handler.NewEngagementHandler(handler.EngagementHandlerConfig{
			EngagementService: engagementService,
			Logger:            logger,
		}),
		Tokens:   tokens,
		Database: database,
		Metrics:  m,
		Logger:   logger,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 2)

	go func() {
		logger.Info().Str("addr", server.Addr).Msg("http server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	var metricsServer *http.Server
	if m != nil {
		mux := http.NewServeMux()
		mux.Handle(cfg.Metrics.Path, m.Handler())
		metricsServer = &http.Server{
			Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Metrics.Port),
			Handler: mux,
		}
		go func() {
			logger.Info().Str("addr", metricsServer.Addr).Str("path", cfg.Metrics.Path).Msg("metrics server listening")
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}()
	}

	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if metricsServer != nil {
		_ = metricsServer.Shutdown(shutdownCtx)
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}

	logger.Info().Msg("server stopped")
	return nil
}

// =============================================================================
// Component Setup
// =============================================================================

func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.TimeFieldFormat = time.RFC3339Nano

	var logger zerolog.Logger
	if cfg.Format == "console" {
		logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	} else {
		logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
	return logger.Level(level)
}

func setupRepositories(ctx context.Context, cfg config.DatabaseConfig, logger zerolog.Logger) (*repository.Repositories, repository.DatabaseHealth, error) {
	switch cfg.Driver {
	case "postgres":
		db, err := postgres.NewDB(ctx, cfg, logger)
		if err != nil {
			return nil, nil, err
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		return &repository.Repositories{
			User:  postgres.NewUserRepository(db),
			Photo: postgres.NewPhotoRepository(db),
		}, db, nil

	case "sqlite", "":
		sqliteCfg := sqlite.DefaultConfig(cfg.Path)
		if cfg.JournalMode != "" {
			sqliteCfg.JournalMode = cfg.JournalMode
		}
		if cfg.BusyTimeout > 0 {
			sqliteCfg.BusyTimeout = cfg.BusyTimeout
		}
		if cfg.SynchronousMode != "" {
			sqliteCfg.SynchronousMode = cfg.SynchronousMode
		}
		db, err := sqlite.NewDB(ctx, sqliteCfg, logger)
		if err != nil {
			return nil, nil, err
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		return &repository.Repositories{
			User:  sqlite.NewUserRepository(db),
			Photo: sqlite.NewPhotoRepository(db),
		}, db, nil

	default:
		return nil, nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}
}

// setupCacheAndLock returns the shared cache and the engagement locker.
// With Redis enabled both are Redis-backed so multiple server instances
// coordinate; otherwise both are in-process.
func setupCacheAndLock(ctx context.Context, cfg config.RedisConfig, logger zerolog.Logger) (repository.Cache, lock.Locker, func(), error) {
	if !cfg.Enabled {
		cache := memorycache.NewCache()
		return cache, lock.NewMemoryLocker(), cache.Stop, nil
	}

	client, err := rediscache.NewClient(ctx, cfg, logger)
	if err != nil {
		return nil, nil, nil, err
	}

	dl, err := rediscache.NewDistributedLock(client)
	if err != nil {
		client.Close()
		return nil, nil, nil, err
	}

	cleanup := func() { client.Close() }
	return rediscache.NewCache(client), lock.NewRedisLocker(dl), cleanup, nil
}

func setupStorage(ctx context.Context, cfg config.StorageConfig, logger zerolog.Logger) (storage.Backend, error) {
	switch cfg.Backend {
	case "s3":
		return storage.NewS3Backend(ctx, cfg.S3, logger)
	case "filesystem", "":
		return storage.NewFilesystemBackend(cfg.UploadDir, logger)
	default:
		return nil, fmt.Errorf("unsupported storage backend: %s", cfg.Backend)
	}
}
