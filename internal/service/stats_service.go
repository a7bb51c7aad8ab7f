package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog"

	"github.com/prn-tf/marquee/internal/domain"
	"github.com/prn-tf/marquee/internal/lock"
	"github.com/prn-tf/marquee/internal/metrics"
)

// StatsRefresher periodically publishes catalog aggregates as metrics.
type StatsRefresher struct {
	catalog *CatalogService
	locker  lock.Locker
	metrics *metrics.Metrics
	logger  zerolog.Logger
	config  StatsConfig

	// Control
	mu        sync.Mutex
	scheduler gocron.Scheduler
}

// StatsConfig contains refresher configuration.
type StatsConfig struct {
	// Interval is how often to refresh.
	Interval time.Duration

	// Timeout bounds one refresh run.
	Timeout time.Duration
}

// DefaultStatsConfig returns sensible defaults.
func DefaultStatsConfig() StatsConfig {
	return StatsConfig{
		Interval: 5 * time.Minute,
		Timeout:  30 * time.Second,
	}
}

// NewStatsRefresher creates a new StatsRefresher.
func NewStatsRefresher(
	catalog *CatalogService,
	locker lock.Locker,
	m *metrics.Metrics,
	logger zerolog.Logger,
	config StatsConfig,
) *StatsRefresher {
	if config.Interval <= 0 {
		config.Interval = DefaultStatsConfig().Interval
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultStatsConfig().Timeout
	}
	if locker == nil {
		locker = lock.NewNoOpLocker()
	}

	return &StatsRefresher{
		catalog: catalog,
		locker:  locker,
		metrics: m,
		logger:  logger.With().Str("service", "stats").Logger(),
		config:  config,
	}
}

// Start schedules the refresh job. The first run happens immediately.
func (r *StatsRefresher) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.scheduler != nil {
		return nil
	}

	s, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}

	_, err = s.NewJob(
		gocron.DurationJob(r.config.Interval),
		gocron.NewTask(r.tick),
		gocron.WithName("catalog-stats"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		_ = s.Shutdown()
		return fmt.Errorf("failed to schedule stats refresh: %w", err)
	}

	s.Start()
	r.scheduler = s

	r.logger.Info().Dur("interval", r.config.Interval).Msg("Starting stats refresher")
	return nil
}

// Stop stops the scheduler and waits for a running refresh to finish.
func (r *StatsRefresher) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.scheduler == nil {
		return nil
	}

	err := r.scheduler.Shutdown()
	r.scheduler = nil

	r.logger.Info().Msg("Stats refresher stopped")
	return err
}

func (r *StatsRefresher) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), r.config.Timeout)
	defer cancel()

	if _, err := r.RunOnce(ctx); err != nil {
		r.logger.Error().Err(err).Msg("Stats refresh failed")
	}
}

// RunOnce computes the stats and publishes them. It returns nil stats without
// error when another instance holds the refresh lock.
func (r *StatsRefresher) RunOnce(ctx context.Context) (*domain.CatalogStats, error) {
	var stats *domain.CatalogStats

	ran, err := lock.Run(ctx, r.locker, lock.Keys.StatsRefresh(), r.config.Timeout, func(ctx context.Context) error {
		start := time.Now()

		s, err := r.catalog.Stats(ctx)
		if err != nil {
			return err
		}
		stats = s

		took := time.Since(start)
		r.metrics.SetCatalogStats(stats, took)

		r.logger.Debug().
			Int64("total", stats.Total).
			Int64("showing", stats.ByStatus.Showing).
			Int64("coming_soon", stats.ByStatus.ComingSoon).
			Int64("full", stats.ByStatus.Full).
			Dur("duration", took).
			Msg("Catalog stats refreshed")
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !ran {
		r.logger.Debug().Msg("Stats lock held by another process, skipping run")
	}
	return stats, nil
}
