// Package transport defines the session with the remote record service.
package transport

import (
	"context"
	"strings"

	mutationdomain "github.com/satishbabariya/prisma-soql/internal/core/mutation/domain"
)

// Transport is the network session with the remote service. Timeouts and
// cancellation are carried by ctx.
type Transport interface {
	// Query runs a dialect string and returns the raw answer.
	Query(ctx context.Context, soql string) (RawResult, error)

	// Create submits new records. A partial failure is reported as a
	// *mutationdomain.BatchError carrying every outcome.
	Create(ctx context.Context, payloads []mutationdomain.RecordPayload) (mutationdomain.BatchResult, error)

	// Update submits changes to existing records, reporting partial failure
	// like Create.
	Update(ctx context.Context, payloads []mutationdomain.RecordPayload) (mutationdomain.BatchResult, error)

	// Delete removes records by id, reporting partial failure like Create.
	Delete(ctx context.Context, ids []string) (mutationdomain.BatchResult, error)
}

// RawResult is an undecoded query answer. Count queries report Size with nil
// Records.
type RawResult struct {
	Size    int
	Records []Record
}

// Record is one returned row keyed by remote field name.
type Record map[string]any

// Lookup returns a field value, matching the name exactly first and then
// case-insensitively since remote field names are not case sensitive.
func (r Record) Lookup(field string) (any, bool) {
	if v, ok := r[field]; ok {
		return v, true
	}
	lower := strings.ToLower(field)
	for k, v := range r {
		if strings.ToLower(k) == lower {
			return v, true
		}
	}
	return nil, false
}
