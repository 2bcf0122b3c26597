package observer

import (
	"context"
	"net/url"

	"github.com/user/site-crawler/pkg/metrics"
)

// MetricsObserver counts page outcomes.
type MetricsObserver struct {
	metrics *metrics.Metrics
}

func NewMetricsObserver(m *metrics.Metrics) *MetricsObserver {
	return &MetricsObserver{metrics: m}
}

func (o *MetricsObserver) OnPageCrawled(context.Context, *url.URL, []*url.URL) error {
	o.metrics.IncPagesCrawled()
	return nil
}

func (o *MetricsObserver) OnCrawlFailed(_ context.Context, _ *url.URL, reason string, _ error) error {
	o.metrics.IncCrawlFailure(reason)
	return nil
}
