// Package metrics exposes Prometheus instrumentation for graph generation.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "flowgen"

// Status label values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Metrics holds the collectors of one process. Each instance owns its registry.
type Metrics struct {
	registry *prometheus.Registry

	generations        *prometheus.CounterVec
	generationDuration *prometheus.HistogramVec
	nodesGenerated     prometheus.Counter
	operations         *prometheus.CounterVec
	graphsPruned       prometheus.Counter
	eventsConsumed     *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		generations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "generations_total",
				Help:      "Total number of graph generation requests",
			},
			[]string{"platform", "approach", "status"},
		),
		generationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "generation_duration_seconds",
				Help:      "Duration of graph generation in seconds",
				Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25},
			},
			[]string{"status"},
		),
		nodesGenerated: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "nodes_generated_total",
				Help:      "Total number of nodes emitted across generated graphs",
			},
		),
		operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "operations_total",
				Help:      "Total number of service operations",
			},
			[]string{"operation", "status"},
		),
		graphsPruned: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "graphs_pruned_total",
				Help:      "Total number of stored graphs removed by retention",
			},
		),
		eventsConsumed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "events_consumed_total",
				Help:      "Total number of graph lifecycle events received from the event bus",
			},
			[]string{"event_type"},
		),
	}

	m.registry.MustRegister(
		m.generations,
		m.generationDuration,
		m.nodesGenerated,
		m.operations,
		m.graphsPruned,
		m.eventsConsumed,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Registry returns the registry the collectors are registered with.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) RecordGeneration(platform, approach, status string, seconds float64, nodes int) {
	m.generations.WithLabelValues(platform, approach, status).Inc()
	m.generationDuration.WithLabelValues(status).Observe(seconds)

	if nodes > 0 {
		m.nodesGenerated.Add(float64(nodes))
	}
}

func (m *Metrics) RecordOperation(operation string, err error) {
	status := StatusSuccess
	if err != nil {
		status = StatusError
	}

	m.operations.WithLabelValues(operation, status).Inc()
}

func (m *Metrics) RecordPruned(count int) {
	if count > 0 {
		m.graphsPruned.Add(float64(count))
	}
}

func (m *Metrics) RecordEvent(eventType string) {
	m.eventsConsumed.WithLabelValues(eventType).Inc()
}
