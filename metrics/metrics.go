// Copyright 2025 Harlan Switzer <harlan@harlanswitzer.com>
// All rights reserved.

package metrics

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service's Prometheus instrumentation.
type Metrics struct {
	RequestsLogged     prometheus.Counter
	LogWritesDropped   prometheus.Counter
	EventsCollected    prometheus.Counter
	CollectsRejected   *prometheus.CounterVec
	ClassificationRuns prometheus.Counter
	ClassificationTime prometheus.Histogram
}

// New creates and registers the metric set on its own registry so tests
// can instantiate it repeatedly without duplicate registration panics.
func New() (*Metrics, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		RequestsLogged: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "harlansw_requests_logged_total",
			Help: "Total request observations written to the log store",
		}),
		LogWritesDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "harlansw_log_writes_dropped_total",
			Help: "Request observations dropped because the writer queue was full",
		}),
		EventsCollected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "harlansw_events_collected_total",
			Help: "Behavioral events accepted by the collect endpoint",
		}),
		CollectsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "harlansw_collects_rejected_total",
			Help: "Collect batches rejected, by reason",
		}, []string{"reason"}),
		ClassificationRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "harlansw_classification_runs_total",
			Help: "Completed traffic classification runs",
		}),
		ClassificationTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "harlansw_classification_run_seconds",
			Help:    "Duration of traffic classification runs",
			Buckets: prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(
		m.RequestsLogged,
		m.LogWritesDropped,
		m.EventsCollected,
		m.CollectsRejected,
		m.ClassificationRuns,
		m.ClassificationTime,
	)
	return m, reg
}

// Handler exposes the registry in Prometheus text format.
func Handler(reg *prometheus.Registry) gin.HandlerFunc {
	h := promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	return func(ctx *gin.Context) {
		h.ServeHTTP(ctx.Writer, ctx.Request)
	}
}
