// Package main is the entry point for the Marquee server.
// Marquee publishes a cinema's movie listings and runs the manager console.
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

	"github.com/prn-tf/marquee/internal/auth"
	"github.com/prn-tf/marquee/internal/cache/memory"
	"github.com/prn-tf/marquee/internal/cache/redis"
	"github.com/prn-tf/marquee/internal/config"
	"github.com/prn-tf/marquee/internal/handler"
	"github.com/prn-tf/marquee/internal/lock"
	"github.com/prn-tf/marquee/internal/logging"
	"github.com/prn-tf/marquee/internal/metrics"
	"github.com/prn-tf/marquee/internal/repository"
	"github.com/prn-tf/marquee/internal/repository/factory"
	"github.com/prn-tf/marquee/internal/service"
	"github.com/prn-tf/marquee/internal/session"
)

// Version information (set at build time)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to the configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Logging)
	logger.Info().
		Str("version", Version).
		Str("build_time", BuildTime).
		Str("git_commit", GitCommit).
		Str("environment", cfg.Server.Environment).
		Msg("Starting Marquee server")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error().Err(err).Msg("Server stopped with error")
		os.Exit(1)
	}
	logger.Info().Msg("Server stopped")
}

func run(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	// Database
	db, err := factory.Open(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Database.Close()

	if err := db.Database.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	// Session store and locks
	store, locker, closeStore, err := openStore(ctx, cfg.Redis, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	sessions, err := session.NewManager(store, session.OptionsFromConfig(cfg.Session, cfg.Server), logger)
	if err != nil {
		return fmt.Errorf("failed to create session manager: %w", err)
	}

	var tokens *auth.TokenIssuer
	if cfg.Auth.TokensEnabled() {
		tokens, err = auth.NewTokenIssuer(cfg.Auth)
		if err != nil {
			return fmt.Errorf("failed to create token issuer: %w", err)
		}
	} else {
		logger.Info().Msg("API token login disabled: auth.token_secret is not set")
	}

	// Services
	authService := service.NewAuthService(db.Repos.Manager, locker, m, cfg.Auth, logger)
	movieService := service.NewMovieService(db.Repos.Movie, m, logger)
	catalogService := service.NewCatalogService(db.Repos.Movie, logger)

	if _, err := authService.EnsureDefaultManager(ctx, cfg.Seed); err != nil {
		return fmt.Errorf("failed to seed default manager: %w", err)
	}

	if cfg.Scheduler.StatsEnabled {
		refresher := service.NewStatsRefresher(catalogService, locker, m, logger, service.StatsConfig{
			Interval: cfg.Scheduler.StatsInterval,
		})
		if err := refresher.Start(); err != nil {
			return err
		}
		defer func() {
			if err := refresher.Stop(); err != nil {
				logger.Warn().Err(err).Msg("Failed to stop stats refresher")
			}
		}()
	}

	// HTTP
	router, err := handler.NewRouter(handler.RouterConfig{
		Sessions:    sessions,
		Auth:        authService,
		Movies:      movieService,
		Catalog:     catalogService,
		Tokens:      tokens,
		Metrics:     m,
		Database:    db.Database,
		MaxBodySize: cfg.Server.MaxBodySize,
		Environment: cfg.Server.Environment,
		Development: !cfg.Server.IsProduction(),
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("failed to build router: %w", err)
	}

	servers := []*http.Server{{
		Addr:              cfg.Server.Addr(),
		Handler:           router.Handler(),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}}

	if m != nil {
		mux := http.NewServeMux()
		mux.Handle(cfg.Metrics.Path, m.Handler())
		servers = append(servers, &http.Server{
			Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Metrics.Port),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		})
	}

	errCh := make(chan error, len(servers))
	for _, srv := range servers {
		go func(srv *http.Server) {
			logger.Info().Str("addr", srv.Addr).Msg("HTTP server listening")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("server on %s failed: %w", srv.Addr, err)
			}
		}(srv)
	}

	var serveErr error
	select {
	case <-ctx.Done():
		logger.Info().Msg("Shutting down server...")
	case serveErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	for _, srv := range servers {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn().Err(err).Str("addr", srv.Addr).Msg("Graceful shutdown failed")
		}
	}

	return serveErr
}

// openStore returns the session cache and the locker. Redis serves both when
// enabled; otherwise both live in process memory.
func openStore(ctx context.Context, cfg config.RedisConfig, logger zerolog.Logger) (repository.Cache, lock.Locker, func(), error) {
	if cfg.Enabled {
		store, err := redis.NewClient(ctx, cfg, logger.With().Str("component", "redis").Logger())
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		closeFn := func() {
			if err := store.Close(); err != nil {
				logger.Warn().Err(err).Msg("Failed to close redis client")
			}
		}
		return store, store, closeFn, nil
	}

	logger.Info().Msg("Redis disabled: sessions and locks are kept in memory")
	cache := memory.NewCache()
	locker := lock.NewMemoryLocker()
	return cache, locker, cache.Stop, nil
}
