// Package metrics exposes Prometheus collectors fed from the eventbus.
package metrics

import (
	"context"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/shapecast/shapecast/internal/eventbus"
	"github.com/shapecast/shapecast/internal/events"
)

// Attach registers collectors on reg and subscribes them to the eventbus.
func Attach(reg prometheus.Registerer) {
	factory := promauto.With(reg)

	httpRequests := factory.NewCounterVec(prometheus.CounterOpts{
		Name: "shapecast_http_requests_total",
		Help: "HTTP requests served, by method and status code.",
	}, []string{"method", "status"})

	httpDuration := factory.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "shapecast_http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method"})

	projections := factory.NewCounterVec(prometheus.CounterOpts{
		Name: "shapecast_projections_total",
		Help: "Projection attempts, by entity and outcome.",
	}, []string{"entity", "outcome"})

	projectionDuration := factory.NewHistogram(prometheus.HistogramOpts{
		Name:    "shapecast_projection_duration_seconds",
		Help:    "Validation plus projection latency.",
		Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
	})

	reloads := factory.NewCounterVec(prometheus.CounterOpts{
		Name: "shapecast_schema_reloads_total",
		Help: "Schema reload attempts, by outcome.",
	}, []string{"outcome"})

	eventbus.Subscribe(func(ctx context.Context, e events.HTTPFinish) {
		httpRequests.WithLabelValues(e.Request.Method, strconv.Itoa(e.Status)).Inc()
		httpDuration.WithLabelValues(e.Request.Method).Observe(e.Duration.Seconds())
	})

	eventbus.Subscribe(func(ctx context.Context, e events.ProjectionFinish) {
		outcome := "ok"
		if e.Err != nil {
			outcome = "invalid"
		}
		entity := e.Entity
		if entity == "" {
			entity = "unknown"
		}
		projections.WithLabelValues(entity, outcome).Inc()
		projectionDuration.Observe(e.Duration.Seconds())
	})

	eventbus.Subscribe(func(ctx context.Context, e events.SchemaReload) {
		outcome := "ok"
		if e.Err != nil {
			outcome = "error"
		}
		reloads.WithLabelValues(outcome).Inc()
	})
}
