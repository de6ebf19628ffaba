package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusObserver aggregates session events into counters and latency
// histograms. A console run has no scrape endpoint, so Flush writes the
// registry in text exposition format for a node_exporter textfile collector.
type PrometheusObserver struct {
	registry *prometheus.Registry
	events   *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	path     string
}

// NewPrometheusObserver writes to path on Flush; an empty path disables
// writing but still aggregates.
func NewPrometheusObserver(path string) *PrometheusObserver {
	reg := prometheus.NewRegistry()
	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "speechlab",
		Name:      "events_total",
		Help:      "Speech session events by name, provider and outcome.",
	}, []string{"name", "provider", "outcome"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "speechlab",
		Name:      "request_duration_seconds",
		Help:      "Wall time of recognize, translate and synthesize calls.",
		Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
	}, []string{"name", "provider"})
	reg.MustRegister(events, latency)
	return &PrometheusObserver{registry: reg, events: events, latency: latency, path: strings.TrimSpace(path)}
}

func (p *PrometheusObserver) RecordEvent(ev MetricsEvent) {
	provider := ev.Tags[TagProvider]
	p.events.WithLabelValues(ev.Name, provider, ev.Tags[TagOutcome]).Inc()
	switch ev.Name {
	case EventRecognizeOnce, EventTranslateOnce, EventSynthesize:
		p.latency.WithLabelValues(ev.Name, provider).Observe(ev.Value)
	}
}

// Gatherer exposes the registry for tests and embedding.
func (p *PrometheusObserver) Gatherer() prometheus.Gatherer { return p.registry }

func (p *PrometheusObserver) Flush() error {
	if p.path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(p.path, p.registry)
}

var _ Flusher = (*PrometheusObserver)(nil)
