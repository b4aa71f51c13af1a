package observability

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsObserver turns events into Prometheus series. Every event bumps
// docchat_events_total; events carrying a time.Duration under "duration"
// also feed docchat_step_duration_seconds, labelled by "node" when present.
type MetricsObserver struct {
	registry *prometheus.Registry
	events   *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetricsObserver builds an observer with its own registry so tests can
// create as many as they like without duplicate-registration panics.
func NewMetricsObserver() *MetricsObserver {
	reg := prometheus.NewRegistry()

	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "docchat",
		Name:      "events_total",
		Help:      "Observability events by type and source.",
	}, []string{"type", "source", "level"})

	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "docchat",
		Name:      "step_duration_seconds",
		Help:      "Duration of timed steps such as graph nodes and model calls.",
		Buckets:   prometheus.ExponentialBuckets(0.005, 2, 14),
	}, []string{"type", "node"})

	reg.MustRegister(events, duration)

	return &MetricsObserver{
		registry: reg,
		events:   events,
		duration: duration,
	}
}

func (m *MetricsObserver) OnEvent(_ context.Context, event Event) {
	m.events.WithLabelValues(string(event.Type), event.Source, event.Level.String()).Inc()

	d, ok := event.Data["duration"].(time.Duration)
	if !ok {
		return
	}
	node, _ := event.Data["node"].(string)
	m.duration.WithLabelValues(string(event.Type), node).Observe(d.Seconds())
}

// Registry exposes the underlying registry for gathering in tests.
func (m *MetricsObserver) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the observer's series in the Prometheus text format.
func (m *MetricsObserver) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
