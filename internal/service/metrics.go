package service

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the scout counters exported on /metrics
type Metrics struct {
	searches     *prometheus.CounterVec
	cacheLookups *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	products     prometheus.Histogram
}

// NewMetrics registers the scout metrics with reg. A nil reg gives
// metrics that are recorded but never exported.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &Metrics{
		searches: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "valuescout",
			Name:      "searches_total",
			Help:      "Scout runs by stage and outcome kind.",
		}, []string{"stage", "outcome"}),
		cacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "valuescout",
			Name:      "cache_lookups_total",
			Help:      "Result cache lookups by stage and result.",
		}, []string{"stage", "result"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "valuescout",
			Name:      "stage_duration_seconds",
			Help:      "Time spent in each backend stage.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 40, 60},
		}, []string{"stage"}),
		products: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "valuescout",
			Name:      "products_per_search",
			Help:      "Number of products returned by a search.",
			Buckets:   prometheus.LinearBuckets(0, 1, 9),
		}),
	}
}

func (m *Metrics) observeStage(stage string, started time.Time, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = string(KindOf(err))
	}
	m.searches.WithLabelValues(stage, outcome).Inc()
	m.duration.WithLabelValues(stage).Observe(time.Since(started).Seconds())
}

func (m *Metrics) observeCache(stage string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(stage, result).Inc()
}

func (m *Metrics) observeProducts(n int) {
	if m == nil {
		return
	}
	m.products.Observe(float64(n))
}
