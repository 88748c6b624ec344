// Package executor turns create, update and delete requests into single
// batched transport calls.
//
// Update and delete resolve their target keys directly when the query holds
// an equality condition on the model's key property. Every other condition of
// such a query is ignored: id = X AND name = 'Bob' writes record X whatever
// its name. A filter without a key equality costs an extra read to find the
// matching keys.
package executor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/satishbabariya/prisma-soql/internal/adapters/telemetry"
	"github.com/satishbabariya/prisma-soql/internal/adapters/transport"
	"github.com/satishbabariya/prisma-soql/internal/core/mutation/domain"
	"github.com/satishbabariya/prisma-soql/internal/core/mutation/reconciler"
	querydomain "github.com/satishbabariya/prisma-soql/internal/core/query/domain"
	"github.com/satishbabariya/prisma-soql/internal/core/query/mapper"
	"github.com/satishbabariya/prisma-soql/internal/core/resource"
	"github.com/satishbabariya/prisma-soql/internal/core/schema"
	schemadomain "github.com/satishbabariya/prisma-soql/internal/core/schema/domain"
	"github.com/satishbabariya/prisma-soql/internal/debug"
)

// KeyReader runs the read used to resolve keys when a filter does not name
// the key directly.
type KeyReader interface {
	Read(ctx context.Context, query *querydomain.Query) ([]mapper.Row, error)
}

// BulkExecutor submits batched writes and reconciles their answers.
type BulkExecutor struct {
	transport  transport.Transport
	reader     KeyReader
	reconciler *reconciler.Reconciler
	naming     schema.NamingStrategy
	telemetry  telemetry.Telemetry
}

// Option configures a BulkExecutor.
type Option func(*BulkExecutor)

// WithTelemetry records every reconciled batch.
func WithTelemetry(t telemetry.Telemetry) Option {
	return func(e *BulkExecutor) {
		e.telemetry = t
	}
}

// NewBulkExecutor creates a new bulk executor.
func NewBulkExecutor(t transport.Transport, reader KeyReader, rec *reconciler.Reconciler, naming schema.NamingStrategy, opts ...Option) *BulkExecutor {
	if naming == nil {
		naming = schema.DefaultNaming{}
	}
	if rec == nil {
		rec = reconciler.NewReconciler(nil)
	}
	e := &BulkExecutor{
		transport:  t,
		reader:     reader,
		reconciler: rec,
		naming:     naming,
		telemetry:  telemetry.Discard,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Create inserts resources in one batch and returns how many were accepted.
// Created ids are written back onto the resources; rejected resources carry
// field errors.
func (e *BulkExecutor) Create(ctx context.Context, resources []resource.Resource) (int, error) {
	if len(resources) == 0 {
		return 0, nil
	}

	model := resources[0].Model()
	storage := schema.ResolveStorage(e.naming, model)

	payloads := make([]domain.RecordPayload, len(resources))
	for i, res := range resources {
		if res.Model() != model {
			return 0, fmt.Errorf("create batch mixes models %s and %s", model.Name, res.Model().Name)
		}
		payload := domain.RecordPayload{SObject: storage}
		for _, attr := range res.DirtyAttributes() {
			if attr.Property.Key {
				continue
			}
			e.setField(&payload, model, attr)
		}
		payloads[i] = payload
	}

	debug.Debug("submitting batch", "operation", "create", "model", model.Name, "records", len(payloads))
	start := time.Now()
	results, err := absorbPartialFailure(e.transport.Create(ctx, payloads))
	if err != nil {
		return 0, fmt.Errorf("failed to create %s records: %w", model.Name, err)
	}

	report, err := e.reconcile(ctx, start, reconciler.Batch{
		Operation: domain.Create,
		Model:     model,
		Payloads:  payloads,
		Results:   results,
		Resources: resources,
	})
	if err != nil {
		return 0, err
	}
	return report.Succeeded, nil
}

// Update applies attributes to every record matched by query and returns how
// many were accepted.
func (e *BulkExecutor) Update(ctx context.Context, attributes []resource.Attribute, query *querydomain.Query) (int, error) {
	report, err := e.UpdateReport(ctx, attributes, query)
	if err != nil {
		return 0, err
	}
	return report.Succeeded, nil
}

// UpdateReport is Update returning the reconciled batch, including every
// rejected record and the errors attached to it.
func (e *BulkExecutor) UpdateReport(ctx context.Context, attributes []resource.Attribute, query *querydomain.Query) (*reconciler.Report, error) {
	empty := &reconciler.Report{Operation: domain.Update}
	if len(attributes) == 0 {
		return empty, nil
	}

	keys, err := e.resolveKeys(ctx, query)
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return empty, nil
	}

	model := query.Model
	storage := schema.ResolveStorage(e.naming, model)

	payloads := make([]domain.RecordPayload, len(keys))
	for i, key := range keys {
		payload := domain.RecordPayload{SObject: storage, ID: key}
		for _, attr := range attributes {
			if attr.Property.Key {
				continue
			}
			e.setField(&payload, model, attr)
		}
		payloads[i] = payload
	}

	debug.Debug("submitting batch", "operation", "update", "model", model.Name, "records", len(payloads))
	start := time.Now()
	results, err := absorbPartialFailure(e.transport.Update(ctx, payloads))
	if err != nil {
		return nil, fmt.Errorf("failed to update %s records: %w", model.Name, err)
	}

	return e.reconcile(ctx, start, reconciler.Batch{
		Operation: domain.Update,
		Model:     model,
		Payloads:  payloads,
		Results:   results,
	})
}

// Delete removes every record matched by query and returns how many were
// deleted.
func (e *BulkExecutor) Delete(ctx context.Context, query *querydomain.Query) (int, error) {
	report, err := e.DeleteReport(ctx, query)
	if err != nil {
		return 0, err
	}
	return report.Succeeded, nil
}

// DeleteReport is Delete returning the reconciled batch.
func (e *BulkExecutor) DeleteReport(ctx context.Context, query *querydomain.Query) (*reconciler.Report, error) {
	keys, err := e.resolveKeys(ctx, query)
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return &reconciler.Report{Operation: domain.Delete}, nil
	}

	model := query.Model
	storage := schema.ResolveStorage(e.naming, model)

	payloads := make([]domain.RecordPayload, len(keys))
	for i, key := range keys {
		payloads[i] = domain.RecordPayload{SObject: storage, ID: key}
	}

	debug.Debug("submitting batch", "operation", "delete", "model", model.Name, "records", len(keys))
	start := time.Now()
	results, err := absorbPartialFailure(e.transport.Delete(ctx, keys))
	if err != nil {
		return nil, fmt.Errorf("failed to delete %s records: %w", model.Name, err)
	}

	return e.reconcile(ctx, start, reconciler.Batch{
		Operation: domain.Delete,
		Model:     model,
		Payloads:  payloads,
		Results:   results,
	})
}

func (e *BulkExecutor) reconcile(ctx context.Context, start time.Time, b reconciler.Batch) (*reconciler.Report, error) {
	report, err := e.reconciler.Apply(b)
	if err != nil {
		return nil, err
	}
	e.telemetry.RecordBatch(ctx, telemetry.BatchInfo{
		Model:     b.Model.Name,
		Operation: string(b.Operation),
		Duration:  time.Since(start),
		Submitted: report.Submitted,
		Succeeded: report.Succeeded,
	})
	return report, nil
}

// resolveKeys returns the normalized keys targeted by query. A key equality
// condition is used as is; otherwise one read narrowed to the key field
// supplies a key per matching row, in row order.
func (e *BulkExecutor) resolveKeys(ctx context.Context, query *querydomain.Query) ([]string, error) {
	if query == nil || query.Model == nil {
		return nil, querydomain.BuildErrorf("query has no model")
	}
	keyProp := query.Model.KeyProperty()
	if keyProp == nil {
		return nil, querydomain.BuildErrorf("model %s has no key property", query.Model.Name)
	}

	if cond, ok := query.KeyCondition(); ok {
		if cond.Value == nil {
			return nil, nil
		}
		return []string{keyString(keyProp, cond.Value)}, nil
	}

	if e.reader == nil {
		return nil, errors.New("no key reader configured for filtered writes")
	}

	read := query.Clone()
	read.Fields = []querydomain.Field{querydomain.PropertyField{Property: keyProp}}

	debug.Debug("resolving keys with a read", "model", query.Model.Name)
	rows, err := e.reader.Read(ctx, read)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s keys: %w", query.Model.Name, err)
	}

	keys := make([]string, 0, len(rows))
	for _, row := range rows {
		value := row[keyProp]
		if value == nil {
			continue
		}
		keys = append(keys, keyString(keyProp, value))
	}
	return keys, nil
}

func (e *BulkExecutor) setField(payload *domain.RecordPayload, model *schemadomain.Model, attr resource.Attribute) {
	field := schema.ResolveField(e.naming, model, attr.Property)
	payload.Set(field, schemadomain.NormalizeID(attr.Property, attr.Value))
}

func keyString(prop *schemadomain.Property, value any) string {
	value = schemadomain.NormalizeID(prop, value)
	switch v := value.(type) {
	case string:
		return v
	case *string:
		if v != nil {
			return *v
		}
	}
	return fmt.Sprint(value)
}

// absorbPartialFailure turns a *domain.BatchError into its results so that
// partial failures are reconciled instead of returned.
func absorbPartialFailure(results domain.BatchResult, err error) (domain.BatchResult, error) {
	if err == nil {
		return results, nil
	}
	var batchErr *domain.BatchError
	if errors.As(err, &batchErr) {
		return batchErr.Results, nil
	}
	return nil, err
}
