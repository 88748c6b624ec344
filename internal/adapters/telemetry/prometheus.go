package telemetry

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const defaultNamespace = "prisma_soql"

// PrometheusTelemetry implements Telemetry using Prometheus metrics on a
// private registry.
type PrometheusTelemetry struct {
	registry *prometheus.Registry

	queryDuration *prometheus.HistogramVec
	queryTotal    *prometheus.CounterVec
	batchRecords  *prometheus.CounterVec
	batchDuration *prometheus.HistogramVec
	errorTotal    *prometheus.CounterVec
}

// NewPrometheusTelemetry creates a new Prometheus telemetry adapter.
func NewPrometheusTelemetry(config *Config) *PrometheusTelemetry {
	namespace := defaultNamespace
	if config != nil && config.Namespace != "" {
		namespace = config.Namespace
	}

	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &PrometheusTelemetry{
		registry: reg,
		queryDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "query_duration_seconds",
				Help:      "Latency of query round trips in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"model", "operation"},
		),
		queryTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "queries_total",
				Help:      "Total number of queries sent",
			},
			[]string{"model", "operation", "status"},
		),
		batchRecords: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "batch_records_total",
				Help:      "Records submitted in write batches by outcome",
			},
			[]string{"model", "operation", "outcome"},
		),
		batchDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "batch_duration_seconds",
				Help:      "Latency of write batches in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"model", "operation"},
		),
		errorTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "errors_total",
				Help:      "Total number of failed operations",
			},
			[]string{"model", "operation"},
		),
	}
}

// RecordQuery records a query execution.
func (p *PrometheusTelemetry) RecordQuery(ctx context.Context, info QueryInfo) {
	status := "success"
	if !info.Success {
		status = "error"
	}
	p.queryTotal.WithLabelValues(info.Model, info.Operation, status).Inc()
	p.queryDuration.WithLabelValues(info.Model, info.Operation).Observe(info.Duration.Seconds())
}

// RecordBatch records a write batch.
func (p *PrometheusTelemetry) RecordBatch(ctx context.Context, info BatchInfo) {
	failed := info.Submitted - info.Succeeded
	p.batchRecords.WithLabelValues(info.Model, info.Operation, "succeeded").Add(float64(info.Succeeded))
	if failed > 0 {
		p.batchRecords.WithLabelValues(info.Model, info.Operation, "failed").Add(float64(failed))
	}
	p.batchDuration.WithLabelValues(info.Model, info.Operation).Observe(info.Duration.Seconds())
}

// RecordError records an error.
func (p *PrometheusTelemetry) RecordError(ctx context.Context, info ErrorInfo) {
	p.errorTotal.WithLabelValues(info.Model, info.Operation).Inc()
}

// Flush is a no-op; metrics are collected on scrape.
func (p *PrometheusTelemetry) Flush(ctx context.Context) error {
	return nil
}

// Close closes the telemetry adapter.
func (p *PrometheusTelemetry) Close(ctx context.Context) error {
	return nil
}

// Registry returns the registry holding the adapter's collectors.
func (p *PrometheusTelemetry) Registry() *prometheus.Registry {
	return p.registry
}

// Handler returns an HTTP handler exposing the metrics.
func (p *PrometheusTelemetry) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

// Ensure PrometheusTelemetry implements Telemetry interface.
var _ Telemetry = (*PrometheusTelemetry)(nil)
