// Package sandbox implements a transport over a local SQL database. It
// answers the same dialect strings and reports batch outcomes in the same
// shape as the remote service so the adapter can be exercised offline.
package sandbox

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/satishbabariya/prisma-soql/internal/adapters/database"
	"github.com/satishbabariya/prisma-soql/internal/adapters/transport"
	"github.com/satishbabariya/prisma-soql/internal/core/mutation/domain"
	"github.com/satishbabariya/prisma-soql/internal/core/schema"
	schemadomain "github.com/satishbabariya/prisma-soql/internal/core/schema/domain"
	"github.com/satishbabariya/prisma-soql/internal/debug"
)

// Status codes produced by the sandbox in addition to the ones the
// reconciler understands.
const (
	CodeEntityIsDeleted = "ENTITY_IS_DELETED"
)

// Transport answers queries and writes against a SQL database.
type Transport struct {
	db     database.Adapter
	naming schema.NamingStrategy
	models map[string]*schemadomain.Model
	newID  func() string
}

// Option configures a Transport.
type Option func(*Transport)

// WithNaming sets the naming strategy used to find tables and columns.
func WithNaming(naming schema.NamingStrategy) Option {
	return func(t *Transport) {
		t.naming = naming
	}
}

// WithIDGenerator replaces the generator of 15 character record ids.
func WithIDGenerator(gen func() string) Option {
	return func(t *Transport) {
		t.newID = gen
	}
}

// New creates a sandbox transport over a connected adapter.
func New(db database.Adapter, models []*schemadomain.Model, opts ...Option) *Transport {
	t := &Transport{
		db:     db,
		naming: schema.DefaultNaming{},
		models: make(map[string]*schemadomain.Model),
		newID:  newRecordID,
	}
	for _, opt := range opts {
		opt(t)
	}
	for _, m := range models {
		t.models[strings.ToLower(schema.ResolveStorage(t.naming, m))] = m
	}
	return t
}

// Query implements transport.Transport.
func (t *Transport) Query(ctx context.Context, soql string) (transport.RawResult, error) {
	stmt, err := t.rewrite(soql)
	if err != nil {
		return transport.RawResult{}, err
	}
	debug.Debug("Sandbox query", "sql", stmt.SQL, "args", len(stmt.Args))

	if stmt.Count {
		var n int
		row := t.db.QueryRow(ctx, stmt.SQL, stmt.Args...)
		if row == nil {
			return transport.RawResult{}, database.ErrNotConnected
		}
		if err := row.Scan(&n); err != nil {
			return transport.RawResult{}, fmt.Errorf("sandbox count failed: %w", err)
		}
		return transport.RawResult{Size: n}, nil
	}

	rows, err := t.db.Query(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return transport.RawResult{}, fmt.Errorf("sandbox query failed: %w", err)
	}
	defer rows.Close()

	records, err := scanRecords(rows)
	if err != nil {
		return transport.RawResult{}, err
	}
	return transport.RawResult{Size: len(records), Records: records}, nil
}

func scanRecords(rows *sql.Rows) ([]transport.Record, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var records []transport.Record
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		record := make(transport.Record, len(columns))
		for i, col := range columns {
			if b, ok := values[i].([]byte); ok {
				record[col] = string(b)
				continue
			}
			record[col] = values[i]
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// Create implements transport.Transport.
func (t *Transport) Create(ctx context.Context, payloads []domain.RecordPayload) (domain.BatchResult, error) {
	results := make(domain.BatchResult, len(payloads))
	for i, p := range payloads {
		model, err := t.model(p.SObject)
		if err != nil {
			return nil, err
		}

		id := t.newID()
		columns := []string{t.db.QuoteIdentifier(t.keyColumn(model))}
		args := []any{id}
		for _, f := range p.Fields {
			columns = append(columns, t.db.QuoteIdentifier(f.Field))
			args = append(args, t.argValue(model, f))
		}

		query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
			t.db.QuoteIdentifier(p.SObject), strings.Join(columns, ", "), t.placeholders(len(args)))
		if _, err := t.db.Execute(ctx, query, args...); err != nil {
			outcome, ferr := t.failure(ctx, model, p, err)
			if ferr != nil {
				return nil, ferr
			}
			results[i] = outcome
			continue
		}
		results[i] = domain.Outcome{Success: true, ID: id + CaseSafeSuffix(id)}
	}
	return results, domain.NewBatchError(domain.Create, results)
}

// Update implements transport.Transport.
func (t *Transport) Update(ctx context.Context, payloads []domain.RecordPayload) (domain.BatchResult, error) {
	results := make(domain.BatchResult, len(payloads))
	for i, p := range payloads {
		model, err := t.model(p.SObject)
		if err != nil {
			return nil, err
		}

		id := shortID(p.ID)
		exists, err := t.exists(ctx, model, id)
		if err != nil {
			return nil, err
		}
		if !exists {
			results[i] = deleted(p.ID)
			continue
		}
		if len(p.Fields) == 0 {
			results[i] = domain.Outcome{Success: true, ID: p.ID}
			continue
		}

		sets := make([]string, 0, len(p.Fields))
		args := make([]any, 0, len(p.Fields)+1)
		for _, f := range p.Fields {
			args = append(args, t.argValue(model, f))
			sets = append(sets, t.db.QuoteIdentifier(f.Field)+" = "+t.db.Placeholder(len(args)))
		}
		args = append(args, id)

		query := fmt.Sprintf("UPDATE %s SET %s WHERE %s = %s",
			t.db.QuoteIdentifier(p.SObject), strings.Join(sets, ", "),
			t.db.QuoteIdentifier(t.keyColumn(model)), t.db.Placeholder(len(args)))
		if _, err := t.db.Execute(ctx, query, args...); err != nil {
			outcome, ferr := t.failure(ctx, model, p, err)
			if ferr != nil {
				return nil, ferr
			}
			results[i] = outcome
			continue
		}
		results[i] = domain.Outcome{Success: true, ID: p.ID}
	}
	return results, domain.NewBatchError(domain.Update, results)
}

// Delete implements transport.Transport. Ids are looked up in every
// registered table since the remote service accepts bare ids.
func (t *Transport) Delete(ctx context.Context, ids []string) (domain.BatchResult, error) {
	results := make(domain.BatchResult, len(ids))
	for i, raw := range ids {
		id := shortID(raw)
		model, err := t.owner(ctx, id)
		if err != nil {
			return nil, err
		}
		if model == nil {
			results[i] = deleted(raw)
			continue
		}

		query := fmt.Sprintf("DELETE FROM %s WHERE %s = %s",
			t.db.QuoteIdentifier(schema.ResolveStorage(t.naming, model)),
			t.db.QuoteIdentifier(t.keyColumn(model)), t.db.Placeholder(1))
		if _, err := t.db.Execute(ctx, query, id); err != nil {
			return nil, fmt.Errorf("sandbox delete failed: %w", err)
		}
		results[i] = domain.Outcome{Success: true, ID: raw}
	}
	return results, domain.NewBatchError(domain.Delete, results)
}

// failure turns a constraint violation into a failed outcome. Other errors
// are returned as transport failures.
func (t *Transport) failure(ctx context.Context, model *schemadomain.Model, p domain.RecordPayload, err error) (domain.Outcome, error) {
	v := t.db.ClassifyError(err)
	switch v.Kind {
	case database.ViolationUnique:
		value := v.Value
		if value == "" {
			if raw, ok := lookupField(p, v.Column); ok {
				value = fmt.Sprint(raw)
			}
		}
		existing := t.lookupID(ctx, model, v.Column, value)
		return failed(p.ID, domain.ErrorDetail{
			StatusCode: domain.CodeDuplicateValue,
			Message:    fmt.Sprintf("duplicate value found: %s duplicates value on record with id: %s", value, existing),
			Fields:     []string{v.Column},
		}), nil

	case database.ViolationNotNull:
		return failed(p.ID, domain.ErrorDetail{
			StatusCode: domain.CodeRequiredFieldMissing,
			Message:    fmt.Sprintf("Required fields are missing: [%s]", v.Column),
			Fields:     []string{v.Column},
		}), nil

	default:
		return domain.Outcome{}, fmt.Errorf("sandbox write to %s failed: %w", p.SObject, err)
	}
}

// lookupID returns the id of the record already holding value, or
// "unknown".
func (t *Transport) lookupID(ctx context.Context, model *schemadomain.Model, column, value string) string {
	if column == "" {
		return "unknown"
	}
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = %s",
		t.db.QuoteIdentifier(t.keyColumn(model)),
		t.db.QuoteIdentifier(schema.ResolveStorage(t.naming, model)),
		t.db.QuoteIdentifier(column), t.db.Placeholder(1))
	row := t.db.QueryRow(ctx, query, value)
	if row == nil {
		return "unknown"
	}
	var id string
	if err := row.Scan(&id); err != nil {
		return "unknown"
	}
	return id + CaseSafeSuffix(id)
}

func (t *Transport) exists(ctx context.Context, model *schemadomain.Model, id string) (bool, error) {
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s = %s",
		t.db.QuoteIdentifier(schema.ResolveStorage(t.naming, model)),
		t.db.QuoteIdentifier(t.keyColumn(model)), t.db.Placeholder(1))
	row := t.db.QueryRow(ctx, query, id)
	if row == nil {
		return false, database.ErrNotConnected
	}
	var n int
	if err := row.Scan(&n); err != nil {
		return false, fmt.Errorf("sandbox lookup failed: %w", err)
	}
	return n > 0, nil
}

// owner finds the model whose table holds id, or nil.
func (t *Transport) owner(ctx context.Context, id string) (*schemadomain.Model, error) {
	for _, model := range t.sortedModels() {
		ok, err := t.exists(ctx, model, id)
		if err != nil {
			return nil, err
		}
		if ok {
			return model, nil
		}
	}
	return nil, nil
}

func (t *Transport) model(storage string) (*schemadomain.Model, error) {
	m, ok := t.models[strings.ToLower(storage)]
	if !ok {
		return nil, fmt.Errorf("sandbox has no table for %s", storage)
	}
	if m.KeyProperty() == nil {
		return nil, fmt.Errorf("sandbox table %s has no key column", storage)
	}
	return m, nil
}

func (t *Transport) keyColumn(model *schemadomain.Model) string {
	return schema.ResolveField(t.naming, model, model.KeyProperty())
}

// argValue converts a payload value into a driver argument. Times are
// formatted for the column type and ids are shortened.
func (t *Transport) argValue(model *schemadomain.Model, f domain.FieldValue) any {
	prop := t.property(model, f.Field)
	switch v := f.Value.(type) {
	case *string:
		if v == nil {
			return nil
		}
		return t.argValue(model, domain.FieldValue{Field: f.Field, Value: *v})
	case time.Time:
		if prop != nil && prop.Type == schemadomain.TypeDate {
			return v.UTC().Format("2006-01-02")
		}
		return t.formatDateTime(v)
	case string:
		if prop != nil && prop.Type == schemadomain.TypeID {
			return shortID(v)
		}
		return v
	default:
		return v
	}
}

func (t *Transport) property(model *schemadomain.Model, field string) *schemadomain.Property {
	for _, p := range model.Properties {
		if strings.EqualFold(schema.ResolveField(t.naming, model, p), field) {
			return p
		}
	}
	return nil
}

func (t *Transport) formatDateTime(v time.Time) string {
	if t.db.GetDialect() == database.MySQL {
		return v.UTC().Format("2006-01-02 15:04:05")
	}
	return v.UTC().Format("2006-01-02T15:04:05Z")
}

// formatDateTimeLiteral converts a dialect datetime literal into the stored
// representation.
func (t *Transport) formatDateTimeLiteral(literal string) string {
	v, err := time.Parse(time.RFC3339Nano, literal)
	if err != nil {
		return literal
	}
	return t.formatDateTime(v)
}

func (t *Transport) placeholders(n int) string {
	out := make([]string, n)
	for i := range out {
		out[i] = t.db.Placeholder(i + 1)
	}
	return strings.Join(out, ", ")
}

func lookupField(p domain.RecordPayload, column string) (any, bool) {
	for _, f := range p.Fields {
		if strings.EqualFold(f.Field, column) {
			return f.Value, true
		}
	}
	return nil, false
}

func failed(id string, detail domain.ErrorDetail) domain.Outcome {
	return domain.Outcome{Success: false, ID: id, Errors: []domain.ErrorDetail{detail}}
}

func deleted(id string) domain.Outcome {
	return failed(id, domain.ErrorDetail{
		StatusCode: CodeEntityIsDeleted,
		Message:    "entity is deleted",
	})
}

// newRecordID returns a random 15 character id.
func newRecordID() string {
	return "a0" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:13]
}

func shortID(id string) string {
	return schemadomain.TruncateID(id)
}

// CaseSafeSuffix computes the three character checksum that turns a case
// sensitive 15 character id into its 18 character form.
func CaseSafeSuffix(id string) string {
	const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ012345"
	if len(id) != schemadomain.ExternalIDLength {
		return ""
	}

	var b strings.Builder
	for chunk := 0; chunk < 3; chunk++ {
		bits := 0
		for i := 0; i < 5; i++ {
			c := id[chunk*5+i]
			if c >= 'A' && c <= 'Z' {
				bits |= 1 << i
			}
		}
		b.WriteByte(alphabet[bits])
	}
	return b.String()
}

var _ transport.Transport = (*Transport)(nil)
