// Package metrics exposes Prometheus collectors for the HTTP surface, the
// authentication gate and issue lifecycle events.
package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/iliyamo/civic-issue-reporter/internal/queue"
)

// Metrics owns a private registry so several instances (one per test) can
// coexist in a process.
type Metrics struct {
	reg *prometheus.Registry

	InFlight        prometheus.Gauge
	Requests        *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	AuthFailures    *prometheus.CounterVec
	Events          *prometheus.CounterVec
}

// New builds and registers every collector, including the Go runtime and
// process collectors.
func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		InFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "http_in_flight_requests",
			Help: "In-flight HTTP requests.",
		}),
		Requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests.",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latencies in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		AuthFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auth_failures_total",
				Help: "Requests rejected by the identity resolver, by error kind.",
			},
			[]string{"kind"},
		),
		Events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "issue_events_total",
				Help: "Issue lifecycle events emitted, by type.",
			},
			[]string{"type"},
		),
	}
	m.reg.MustRegister(
		m.InFlight, m.Requests, m.RequestDuration, m.AuthFailures, m.Events,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

// AuthFailure counts one rejected request.
func (m *Metrics) AuthFailure(kind string) { m.AuthFailures.WithLabelValues(kind).Inc() }

// Publish counts ev.  It lets Metrics sit in a queue.Fanout next to the real
// sinks.
func (m *Metrics) Publish(_ context.Context, ev queue.IssueEvent) error {
	m.Events.WithLabelValues(ev.Type).Inc()
	return nil
}
