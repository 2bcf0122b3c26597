package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/user/site-crawler/internal/adapter/goquery_extractor"
	"github.com/user/site-crawler/internal/adapter/httpfetch"
	"github.com/user/site-crawler/internal/adapter/memory"
	"github.com/user/site-crawler/internal/adapter/postgres"
	redis_adapter "github.com/user/site-crawler/internal/adapter/redis"
	"github.com/user/site-crawler/internal/adapter/sqlite"
	"github.com/user/site-crawler/internal/observer"
	"github.com/user/site-crawler/internal/repository"
	"github.com/user/site-crawler/internal/usecase"
	"github.com/user/site-crawler/pkg/config"
	"github.com/user/site-crawler/pkg/metrics"
)

// App holds the adapters shared by the CLI and the API server.
type App struct {
	Config    *config.Config
	State     repository.CrawlState
	Results   repository.CrawlResultRepository // nil when RESULTS_DRIVER=none
	Fetcher   *httpfetch.Fetcher
	Extractor *goquery_extractor.LinkExtractor
	Metrics   *metrics.Metrics

	// Checks ping the configured stores.
	Checks map[string]func(context.Context) error

	closers []func() error
}

// New connects the configured stores. reg may be nil to disable metrics.
func New(ctx context.Context, cfg *config.Config, reg prometheus.Registerer) (*App, error) {
	a := &App{
		Config: cfg,
		Fetcher: httpfetch.New(httpfetch.Options{
			Timeout:      cfg.HTTPTimeout,
			UserAgent:    cfg.UserAgent,
			MaxBodyBytes: cfg.MaxBodyBytes,
		}),
		Extractor: goquery_extractor.NewLinkExtractor(),
		Checks:    make(map[string]func(context.Context) error),
	}
	if reg != nil {
		a.Metrics = metrics.New(reg)
	}

	if err := a.openState(ctx); err != nil {
		return nil, err
	}
	if err := a.openResults(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) openState(ctx context.Context) error {
	if a.Config.StateStore == config.StateMemory {
		a.State = memory.NewState()
		slog.Info("Using in-memory crawl state")
		return nil
	}

	opts, err := redis.ParseURL(a.Config.RedisURL)
	if err != nil {
		return fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return fmt.Errorf("unable to connect to Redis at %s: %w", opts.Addr, err)
	}
	slog.Info("Redis connection established", "addr", opts.Addr)

	state := redis_adapter.NewState(rdb)
	a.State = state
	a.Checks["redis"] = state.Ping
	a.closers = append(a.closers, rdb.Close)
	return nil
}

func (a *App) openResults(ctx context.Context) error {
	var (
		repo repository.CrawlResultRepository
		err  error
	)
	switch a.Config.ResultsDriver {
	case config.ResultsPostgres:
		repo, err = postgres.Open(ctx, a.Config.PostgresURL)
		if err != nil {
			return fmt.Errorf("unable to connect to database: %w", err)
		}
		slog.Info("PostgreSQL connection pool established")
	case config.ResultsSQLite:
		repo, err = sqlite.Open(a.Config.SQLitePath)
		if err != nil {
			return err
		}
		slog.Info("SQLite result store opened", "path", a.Config.SQLitePath)
	default:
		return nil
	}
	a.Results = repo
	a.Checks[a.Config.ResultsDriver] = repo.Ping
	a.closers = append(a.closers, repo.Close)
	return nil
}

// Observer assembles the observers for a crawl: console output when console
// is set, metrics when enabled, and persistence when a result store is open.
func (a *App) Observer(console bool) repository.CrawlObserver {
	var multi observer.Multi
	if console {
		multi = append(multi, observer.NewConsoleObserver(nil))
	}
	if a.Metrics != nil {
		multi = append(multi, observer.NewMetricsObserver(a.Metrics))
	}
	if a.Results != nil {
		multi = append(multi, observer.NewRecordingObserver(a.Results))
	}
	return multi
}

// Dependencies returns engine dependencies that report to obs.
func (a *App) Dependencies(obs repository.CrawlObserver) usecase.Dependencies {
	return usecase.Dependencies{
		State:                 a.State,
		Fetcher:               a.Fetcher,
		Extractor:             a.Extractor,
		Observer:              obs,
		Metrics:               a.Metrics,
		MaxConcurrentRequests: a.Config.MaxConcurrentRequests,
	}
}

// Close releases every opened store, in reverse order.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
