package dashboard

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Render outcomes.
const (
	outcomeOK    = "ok"
	outcomeEmpty = "empty"
	outcomeError = "error"
)

// Metrics holds the dashboard's Prometheus collectors on a private
// registry. A nil *Metrics records nothing.
type Metrics struct {
	registry      *prometheus.Registry
	renders       *prometheus.CounterVec
	cacheLookups  *prometheus.CounterVec
	renderSeconds prometheus.Histogram
}

// NewMetrics registers the dashboard collectors plus the Go runtime ones.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		renders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sunspots",
			Name:      "renders_total",
			Help:      "Dashboard renders by outcome.",
		}, []string{"outcome"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sunspots",
			Name:      "cache_lookups_total",
			Help:      "Table cache lookups by result.",
		}, []string{"result"}),
		renderSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "sunspots",
			Name:      "render_seconds",
			Help:      "Time to summarize and draw the figure.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10),
		}),
	}
	m.registry.MustRegister(
		m.renders,
		m.cacheLookups,
		m.renderSeconds,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) render(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.renders.WithLabelValues(outcome).Inc()
	if outcome == outcomeOK {
		m.renderSeconds.Observe(elapsed.Seconds())
	}
}

func (m *Metrics) cacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}
