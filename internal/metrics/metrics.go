//
// Date: 2026-02-16
// Copyright (c) 2026. All rights reserved.
//

// Package metrics instruments the core pipeline with Prometheus
// collectors: broker subscriber depth, trade publish/drop counts,
// provider decode latency, and per-indicator emission counts. The
// registry accumulates in-process even when nothing scrapes it — tests
// exercise it without binding a port.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry wraps the collectors tradestream exposes.
type Registry struct {
	registry *prometheus.Registry

	ActiveSubscribers prometheus.Gauge
	TradesPublished   prometheus.Counter
	// TradesDropped is always 0 under the broker's no-silent-drop
	// backpressure policy; kept as an explicit metric rather than
	// omitted, so the invariant is visible to anyone scraping metrics.
	TradesDropped    prometheus.Counter
	DecodeLatencyMs  prometheus.Histogram
	IndicatorStates  *prometheus.CounterVec
}

// NewRegistry constructs a Registry with all collectors registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		registry: reg,
		ActiveSubscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "tradestream",
			Subsystem: "broker",
			Name:      "active_subscribers",
			Help:      "Number of subscribers currently attached to the trade broker.",
		}),
		TradesPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tradestream",
			Subsystem: "broker",
			Name:      "trades_published_total",
			Help:      "Total trades published to the broker.",
		}),
		TradesDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tradestream",
			Subsystem: "broker",
			Name:      "trades_dropped_total",
			Help:      "Total trades dropped for backpressure. Always 0: the broker blocks rather than drops.",
		}),
		DecodeLatencyMs: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "tradestream",
			Subsystem: "provider",
			Name:      "decode_latency_ms",
			Help:      "Latency in milliseconds between a trade's source timestamp and local decode time.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}),
		IndicatorStates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tradestream",
			Subsystem: "indicator",
			Name:      "states_emitted_total",
			Help:      "Total indicator states emitted, labeled by indicator ID.",
		}, []string{"indicator_id"}),
	}

	reg.MustRegister(r.ActiveSubscribers, r.TradesPublished, r.TradesDropped, r.DecodeLatencyMs, r.IndicatorStates)
	return r
}

// Handler returns the promhttp handler serving this registry's metrics.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// ObserveTrade records one published trade and its decode latency.
func (r *Registry) ObserveTrade(latencyMs int64) {
	r.TradesPublished.Inc()
	r.DecodeLatencyMs.Observe(float64(latencyMs))
}

// ObserveIndicatorState records one emitted state for the given
// indicator ID.
func (r *Registry) ObserveIndicatorState(indicatorID string) {
	r.IndicatorStates.WithLabelValues(indicatorID).Inc()
}

// SetActiveSubscribers updates the active-subscriber gauge.
func (r *Registry) SetActiveSubscribers(n int) {
	r.ActiveSubscribers.Set(float64(n))
}
