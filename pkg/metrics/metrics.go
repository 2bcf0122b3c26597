package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the crawler. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	PagesCrawledTotal  prometheus.Counter
	CrawlFailuresTotal *prometheus.CounterVec
	LinksEnqueuedTotal prometheus.Counter
	FetchDuration      prometheus.Histogram
	FetchesInFlight    prometheus.Gauge
	CrawlsTotal        *prometheus.CounterVec
	CrawlDuration      prometheus.Histogram
}

// New registers the crawler metrics with reg. Pass prometheus.DefaultRegisterer
// in production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
		PagesCrawledTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "crawler_pages_crawled_total",
			Help: "Pages fetched successfully and scanned for links.",
		}),
		CrawlFailuresTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "crawler_page_failures_total",
			Help: "Pages that did not yield links, by reason code.",
		}, []string{"reason"}),
		LinksEnqueuedTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "crawler_links_enqueued_total",
			Help: "In-scope, unvisited links pushed onto the frontier.",
		}),
		FetchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "crawler_fetch_duration_seconds",
			Help:    "Duration of page fetches.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		FetchesInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Name: "crawler_fetches_in_flight",
			Help: "Fetches currently holding a permit.",
		}),
		CrawlsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "crawler_crawls_total",
			Help: "Finished crawls, by outcome.",
		}, []string{"status"}),
		CrawlDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "crawler_crawl_duration_seconds",
			Help:    "Wall-clock duration of whole crawls.",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
		}),
	}
}

// FetchStarted marks a permit as taken.
func (m *Metrics) FetchStarted() {
	if m == nil {
		return
	}
	m.FetchesInFlight.Inc()
}

// FetchFinished releases the in-flight slot and records the fetch duration.
func (m *Metrics) FetchFinished(d time.Duration) {
	if m == nil {
		return
	}
	m.FetchesInFlight.Dec()
	m.FetchDuration.Observe(d.Seconds())
}

func (m *Metrics) IncLinksEnqueued(n int) {
	if m == nil || n == 0 {
		return
	}
	m.LinksEnqueuedTotal.Add(float64(n))
}

func (m *Metrics) IncPagesCrawled() {
	if m == nil {
		return
	}
	m.PagesCrawledTotal.Inc()
}

func (m *Metrics) IncCrawlFailure(reason string) {
	if m == nil {
		return
	}
	m.CrawlFailuresTotal.WithLabelValues(reason).Inc()
}

// ObserveCrawl records a finished crawl; status is "success" or "failure".
func (m *Metrics) ObserveCrawl(status string, d time.Duration) {
	if m == nil {
		return
	}
	m.CrawlsTotal.WithLabelValues(status).Inc()
	m.CrawlDuration.Observe(d.Seconds())
}

// ObserveHTTPRequest records one API request.
func (m *Metrics) ObserveHTTPRequest(method, path, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestDuration.WithLabelValues(method, path, status).Observe(d.Seconds())
	m.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
}
