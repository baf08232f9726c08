package catalog

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/arcanaland/scrymancer/internal/catalogerr"
)

// Metrics holds the Prometheus collectors for catalog traffic.
type Metrics struct {
	PagesFetched  prometheus.Counter
	FetchErrors   *prometheus.CounterVec
	PageWaits     prometheus.Counter
	RecordIssues  *prometheus.CounterVec
	FetchDuration prometheus.Histogram
}

// NewMetrics creates the collectors and registers them on reg. A nil reg keeps
// them on a private registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)
	return &Metrics{
		PagesFetched: factory.NewCounter(prometheus.CounterOpts{
			Name: "scrymancer_pages_fetched_total",
			Help: "Total number of catalog documents fetched successfully",
		}),
		FetchErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "scrymancer_fetch_errors_total",
			Help: "Total number of failed catalog fetches by error kind",
		}, []string{"kind"}),
		PageWaits: factory.NewCounter(prometheus.CounterOpts{
			Name: "scrymancer_page_waits_total",
			Help: "Total number of inter-page waits performed while paginating",
		}),
		RecordIssues: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "scrymancer_record_issues_total",
			Help: "Total number of non-fatal record mapping issues by kind",
		}, []string{"kind"}),
		FetchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "scrymancer_fetch_duration_seconds",
			Help:    "Duration of single catalog round trips",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) observeFetch(start time.Time, err error) {
	m.FetchDuration.Observe(time.Since(start).Seconds())
	if err == nil {
		m.PagesFetched.Inc()
		return
	}
	kind, ok := catalogerr.KindOf(err)
	if !ok {
		kind = "other"
	}
	m.FetchErrors.WithLabelValues(string(kind)).Inc()
}

func (m *Metrics) incrementPageWaits() {
	m.PageWaits.Inc()
}

func (m *Metrics) recordIssues(issues []error) {
	for _, err := range issues {
		kind, ok := catalogerr.KindOf(err)
		if !ok {
			kind = "other"
		}
		m.RecordIssues.WithLabelValues(string(kind)).Inc()
	}
}
