// Package telemetry provides telemetry adapter interfaces.
package telemetry

import (
	"context"
	"time"
)

// Telemetry defines the telemetry adapter interface.
type Telemetry interface {
	// RecordQuery records a read or count round trip.
	RecordQuery(ctx context.Context, info QueryInfo)

	// RecordBatch records a reconciled write batch.
	RecordBatch(ctx context.Context, info BatchInfo)

	// RecordError records an error.
	RecordError(ctx context.Context, info ErrorInfo)

	// Flush flushes any buffered telemetry data.
	Flush(ctx context.Context) error

	// Close closes the telemetry adapter.
	Close(ctx context.Context) error
}

// QueryInfo contains information about a query.
type QueryInfo struct {
	// Model is the model being queried.
	Model string

	// Operation is read or aggregate.
	Operation string

	// SOQL is the dialect string sent.
	SOQL string

	// Duration is how long the round trip took.
	Duration time.Duration

	// Success indicates if the query succeeded.
	Success bool

	// Rows is the number of decoded rows, or the count for aggregates.
	Rows int
}

// BatchInfo contains information about a write batch.
type BatchInfo struct {
	Model     string
	Operation string
	Duration  time.Duration

	// Submitted is the number of records sent.
	Submitted int

	// Succeeded is the number of records accepted.
	Succeeded int
}

// ErrorInfo contains information about an error.
type ErrorInfo struct {
	// Error is the error that occurred.
	Error error

	// Model is the model involved (if applicable).
	Model string

	// Operation is the operation that failed.
	Operation string

	// Query is the dialect string (if applicable).
	Query string
}

// Config holds Prometheus telemetry configuration.
type Config struct {
	// Namespace prefixes every metric name.
	Namespace string
}

// Discard is the Telemetry used when metrics are disabled. It drops every
// record.
var Discard Telemetry = discard{}

type discard struct{}

func (discard) RecordQuery(context.Context, QueryInfo) {}
func (discard) RecordBatch(context.Context, BatchInfo) {}
func (discard) RecordError(context.Context, ErrorInfo) {}
func (discard) Flush(context.Context) error { return nil }
func (discard) Close(context.Context) error { return nil }
