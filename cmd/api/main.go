package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/user/site-crawler/internal/app"
	"github.com/user/site-crawler/internal/delivery/http/handler"
	"github.com/user/site-crawler/internal/delivery/http/router"
	"github.com/user/site-crawler/internal/usecase"
	"github.com/user/site-crawler/pkg/config"
	"github.com/user/site-crawler/pkg/logger"
)

func main() {
	// --- Configuration ---
	cfg, err := config.Load(nil, os.Getenv("CONFIG_FILE"))
	if err != nil {
		slog.Error("Could not load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	// --- Logger ---
	logLevel, _ := cfg.SlogLevel()
	logger.Init(os.Stdout, logLevel, cfg.LogFormat)
	slog.Info("Logger initialized", "level", logLevel.String())

	// --- Metrics ---
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// --- Stores ---
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, reg)
	if err != nil {
		slog.Error("Unable to initialize stores", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	// --- Use Cases ---
	crawlManager, err := usecase.NewCrawlManager(ctx, a.Dependencies(a.Observer(false)), a.Results)
	if err != nil {
		slog.Error("Unable to create crawl manager", "error", err)
		os.Exit(1)
	}

	// --- HTTP Server ---
	checks := make(map[string]handler.HealthCheck, len(a.Checks))
	for name, check := range a.Checks {
		checks[name] = check
	}
	apiHandler := handler.NewHandler(crawlManager, checks)
	httpRouter := router.New(apiHandler, a.Metrics, reg)

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      httpRouter,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("Starting server", "port", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Could not listen on port", "port", cfg.ServerPort, "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}
	crawlManager.Shutdown()
	slog.Info("Server exiting")
}
