package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/user/site-crawler/internal/app"
	"github.com/user/site-crawler/internal/usecase"
	"github.com/user/site-crawler/pkg/config"
	"github.com/user/site-crawler/pkg/logger"
)

// NewRootCmd creates the crawler command.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawler <start-url>",
		Short: "Crawl every page of a site reachable from a start URL",
		Long: `crawler fetches the start URL, follows every link that stays on the
same host, and logs the links found on each page. Crawl state lives in Redis
by default, so an interrupted crawl resumes where it stopped; use --fresh to
start over.

Examples:
  crawler https://example.com
  crawler --max-concurrent 10 --fresh https://example.com/docs
  STATE_STORE=memory crawler https://example.com`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runCrawl,
	}

	cmd.Flags().StringP("config", "c", "", "Configuration file path (default: .env in the working directory)")
	cmd.Flags().IntP("max-concurrent", "n", 0, "Maximum number of fetches in flight (overrides MAX_CONCURRENT_REQUESTS)")
	cmd.Flags().Bool("fresh", false, "Discard stored frontier and visited set before crawling")
	cmd.Flags().String("metrics-addr", "", "Serve Prometheus metrics on this address while crawling (e.g. :9090)")

	return cmd
}

// parseStartURL accepts only absolute URLs with a host.
func parseStartURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid start URL %q: %w", raw, err)
	}
	if u.Hostname() == "" {
		return nil, fmt.Errorf("invalid start URL %q: %w", raw, usecase.ErrMissingHost)
	}
	return u, nil
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	v := viper.New()
	if err := bindFlags(v, cmd); err != nil {
		return nil, err
	}
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(v, configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}
	return cfg, nil
}

// bindFlags lets explicitly set flags override the environment.
func bindFlags(v *viper.Viper, cmd *cobra.Command) error {
	for key, flag := range map[string]string{
		"MAX_CONCURRENT_REQUESTS": "max-concurrent",
		"METRICS_ADDR":            "metrics-addr",
	} {
		if !cmd.Flags().Changed(flag) {
			continue
		}
		if err := v.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			return err
		}
	}
	return nil
}

func runCrawl(cmd *cobra.Command, args []string) error {
	startURL, err := parseStartURL(args[0])
	if err != nil {
		return err
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	level, _ := cfg.SlogLevel()
	logger.Init(os.Stderr, level, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var reg *prometheus.Registry
	if cfg.MetricsAddr != "" {
		reg = prometheus.NewRegistry()
	}
	a, err := app.New(ctx, cfg, registerer(reg))
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			slog.Warn("Error closing stores", "error", err)
		}
	}()

	engine, err := usecase.NewCrawlEngine(a.Dependencies(a.Observer(true)))
	if err != nil {
		return err
	}

	fresh, _ := cmd.Flags().GetBool("fresh")
	if fresh {
		if err := a.State.Clear(ctx, usecase.CrawlID(startURL)); err != nil {
			return err
		}
		slog.Info("Cleared stored crawl state", "url", startURL.String())
	}

	slog.Info("Starting crawl",
		"url", startURL.String(),
		"host", startURL.Hostname(),
		"max_concurrent", cfg.MaxConcurrentRequests,
		"http_timeout", cfg.HTTPTimeout.String(),
		"state_store", cfg.StateStore,
	)

	if reg == nil {
		return engine.Crawl(ctx, startURL)
	}
	return crawlWithMetricsServer(ctx, engine, startURL, cfg.MetricsAddr, reg)
}

func registerer(reg *prometheus.Registry) prometheus.Registerer {
	if reg == nil {
		return nil
	}
	return reg
}

// crawlWithMetricsServer serves /metrics for as long as the crawl runs.
func crawlWithMetricsServer(ctx context.Context, engine *usecase.CrawlEngine, startURL *url.URL, addr string, reg *prometheus.Registry) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	crawlDone := make(chan struct{})
	g.Go(func() error {
		defer close(crawlDone)
		return engine.Crawl(gctx, startURL)
	})
	g.Go(func() error {
		slog.Info("Serving metrics", "addr", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("metrics server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		select {
		case <-crawlDone:
		case <-gctx.Done():
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
