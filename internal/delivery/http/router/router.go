package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/user/site-crawler/internal/delivery/http/handler"
	"github.com/user/site-crawler/internal/delivery/http/middleware"
	"github.com/user/site-crawler/pkg/metrics"
)

// New wires the API routes. m and gatherer may be nil, in which case no
// request metrics are recorded and /metrics is not served.
func New(h *handler.Handler, m *metrics.Metrics, gatherer prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging)
	r.Use(middleware.Metrics(m))
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))

	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.HandleHealthCheck)
		r.Post("/crawl", h.HandleSubmitCrawl)
		r.Get("/crawls/{id}", h.HandleGetCrawlRun)
		r.Get("/status", h.HandleGetPageStatus)
	})

	return r
}
