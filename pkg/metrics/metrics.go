// Package metrics exposes daemon counters and gauges to prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "umaru"

const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeSkipped = "skipped"
)

type Metrics struct {
	registry *prometheus.Registry

	RefreshCycles   *prometheus.CounterVec
	RefreshDuration prometheus.Histogram
	Commands        *prometheus.CounterVec
	Connections     prometheus.Gauge
	CatalogSize     prometheus.Gauge
	Matched         prometheus.Gauge
	Unresolved      prometheus.Gauge
	PendingEpisodes prometheus.Gauge
}

// New registers every collector on a fresh registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	f := promauto.With(reg)
	return &Metrics{
		registry: reg,
		RefreshCycles: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refresh_cycles_total",
			Help:      "Catalog refresh cycles by outcome.",
		}, []string{"outcome"}),
		RefreshDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "refresh_duration_seconds",
			Help:      "Time spent crawling and reconciling.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10),
		}),
		Commands: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Protocol commands handled by name.",
		}, []string{"command"}),
		Connections: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "open_connections",
			Help:      "Client connections currently being served.",
		}),
		CatalogSize: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "catalog_shows",
			Help:      "Shows in the current catalog snapshot.",
		}),
		Matched: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "watchlist_matched",
			Help:      "Watchlist entries matched to a catalog show.",
		}),
		Unresolved: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "watchlist_unresolved",
			Help:      "Watchlist entries with no acceptable catalog show.",
		}),
		PendingEpisodes: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pending_episodes",
			Help:      "Episodes aired past the ledger for matched shows.",
		}),
	}
}

// Handler serves the registry in the prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the registry the collectors were registered on
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
