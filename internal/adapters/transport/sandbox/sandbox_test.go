package sandbox

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/prisma-soql/internal/adapters/database"
	"github.com/satishbabariya/prisma-soql/internal/adapters/database/sqlite"
	"github.com/satishbabariya/prisma-soql/internal/core/mutation/domain"
	schemadomain "github.com/satishbabariya/prisma-soql/internal/core/schema/domain"
)

func accountModel() *schemadomain.Model {
	return &schemadomain.Model{
		Name: "crm.Account",
		Properties: []*schemadomain.Property{
			{Name: "id", Type: schemadomain.TypeID, Key: true, Serial: true, ExternalID: true},
			{Name: "name", Type: schemadomain.TypeString, Required: true},
			{Name: "email", Type: schemadomain.TypeString, Unique: true},
			{Name: "amount", Type: schemadomain.TypeFloat},
			{Name: "active", Type: schemadomain.TypeBoolean},
			{Name: "created_date", Type: schemadomain.TypeDateTime},
		},
	}
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("a%014d", n)
	}
}

func newSandbox(t *testing.T) *Transport {
	t.Helper()
	ctx := context.Background()

	db, err := NewAdapter(database.Config{Provider: "sqlite", URL: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, db.Connect(ctx))
	t.Cleanup(func() { _ = db.Disconnect(ctx) })

	sb := New(db, []*schemadomain.Model{accountModel()}, WithIDGenerator(sequentialIDs()))
	require.NoError(t, sb.Provision(ctx))
	return sb
}

func TestNewAdapter(t *testing.T) {
	db, err := NewAdapter(database.Config{Provider: "sqlite", URL: ":memory:"})
	require.NoError(t, err)
	assert.IsType(t, &sqlite.SQLiteAdapter{}, db)

	db, err = NewAdapter(database.Config{Provider: "postgresql", URL: "postgres://localhost/sandbox"})
	require.NoError(t, err)
	assert.Equal(t, database.PostgreSQL, db.GetDialect())

	_, err = NewAdapter(database.Config{Provider: "oracle", URL: "x"})
	assert.Error(t, err)
}

func TestCreateTableSQL(t *testing.T) {
	db, err := sqlite.NewSQLiteAdapter(database.Config{URL: ":memory:"})
	require.NoError(t, err)
	sb := New(db, nil)

	ddl, err := sb.CreateTableSQL(accountModel())
	require.NoError(t, err)
	assert.Equal(t, `CREATE TABLE IF NOT EXISTS "Account" ("Id" VARCHAR(18) PRIMARY KEY, "Name" TEXT NOT NULL, "Email" TEXT UNIQUE, "Amount" REAL, "Active" BOOLEAN, "CreatedDate" DATETIME)`, ddl)

	_, err = sb.CreateTableSQL(&schemadomain.Model{Name: "Keyless", Properties: []*schemadomain.Property{{Name: "name", Type: schemadomain.TypeString}}})
	assert.Error(t, err)
}

func TestRewrite(t *testing.T) {
	db, err := sqlite.NewSQLiteAdapter(database.Config{URL: ":memory:"})
	require.NoError(t, err)
	sb := New(db, nil)

	tests := []struct {
		name  string
		soql  string
		sql   string
		args  []any
		count bool
	}{
		{
			name: "select with literals",
			soql: `SELECT Id, Name FROM Account WHERE (Name = 'O\'Brien') AND (Amount > 100) ORDER BY Name ASC LIMIT 10`,
			sql:  `SELECT "Id", "Name" FROM "Account" WHERE ("Name" = ?) AND ("Amount" > 100) ORDER BY "Name" ASC LIMIT 10`,
			args: []any{"O'Brien"},
		},
		{
			name:  "count",
			soql:  `SELECT count() FROM Account WHERE (Active = true)`,
			sql:   `SELECT COUNT(*) FROM "Account" WHERE ("Active" = ?)`,
			args:  []any{true},
			count: true,
		},
		{
			name: "set membership",
			soql: `SELECT Id FROM Account WHERE (Name NOT IN ('a', 'b'))`,
			sql:  `SELECT "Id" FROM "Account" WHERE ("Name" NOT IN (?, ?))`,
			args: []any{"a", "b"},
		},
		{
			name: "null comparisons",
			soql: `SELECT Id FROM Account WHERE (Email = null) AND (Name != null)`,
			sql:  `SELECT "Id" FROM "Account" WHERE ("Email" IS NULL) AND ("Name" IS NOT NULL)`,
		},
		{
			name: "dates and like",
			soql: `SELECT Id FROM Account WHERE (CreatedDate >= 2024-01-01T00:00:00Z) AND (Name LIKE 'Ac%')`,
			sql:  `SELECT "Id" FROM "Account" WHERE ("CreatedDate" >= ?) AND ("Name" LIKE ?)`,
			args: []any{"2024-01-01T00:00:00Z", "Ac%"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stmt, err := sb.rewrite(tt.soql)
			require.NoError(t, err)
			assert.Equal(t, tt.sql, stmt.SQL)
			assert.Equal(t, tt.args, stmt.Args)
			assert.Equal(t, tt.count, stmt.Count)
		})
	}

	_, err = sb.rewrite(`SELECT Id FROM Account WHERE (CreatedDate > LAST_N_DAYS:30)`)
	assert.Error(t, err)
}

func TestTransport_CreateAndQuery(t *testing.T) {
	ctx := context.Background()
	sb := newSandbox(t)

	results, err := sb.Create(ctx, []domain.RecordPayload{
		{SObject: "Account", Fields: []domain.FieldValue{
			{Field: "Name", Value: "Acme"},
			{Field: "Email", Value: "acme@example.com"},
			{Field: "Amount", Value: 100.5},
			{Field: "CreatedDate", Value: time.Date(2024, 1, 31, 10, 0, 0, 0, time.UTC)},
		}},
		{SObject: "Account", Fields: []domain.FieldValue{
			{Field: "Name", Value: "Globex"},
			{Field: "Amount", Value: 20.0},
		}},
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "a00000000000001AAA", results[0].ID)
	assert.True(t, results[1].Success)

	raw, err := sb.Query(ctx, `SELECT Id, Name, Amount FROM Account WHERE (Amount > 50) ORDER BY Name ASC`)
	require.NoError(t, err)
	require.Len(t, raw.Records, 1)
	assert.Equal(t, "a00000000000001", raw.Records[0]["Id"])
	assert.Equal(t, "Acme", raw.Records[0]["Name"])
	assert.Equal(t, 100.5, raw.Records[0]["Amount"])

	raw, err = sb.Query(ctx, `SELECT count() FROM Account WHERE (CreatedDate >= 2024-01-01T00:00:00Z)`)
	require.NoError(t, err)
	assert.Equal(t, 1, raw.Size)
	assert.Nil(t, raw.Records)
}

func TestTransport_CreateViolations(t *testing.T) {
	ctx := context.Background()
	sb := newSandbox(t)

	_, err := sb.Create(ctx, []domain.RecordPayload{
		{SObject: "Account", Fields: []domain.FieldValue{{Field: "Name", Value: "Acme"}, {Field: "Email", Value: "x@y.com"}}},
	})
	require.NoError(t, err)

	results, err := sb.Create(ctx, []domain.RecordPayload{
		{SObject: "Account", Fields: []domain.FieldValue{{Field: "Name", Value: "Copy"}, {Field: "Email", Value: "x@y.com"}}},
		{SObject: "Account", Fields: []domain.FieldValue{{Field: "Email", Value: "z@y.com"}}},
		{SObject: "Account", Fields: []domain.FieldValue{{Field: "Name", Value: "Fine"}}},
	})

	var batchErr *domain.BatchError
	require.True(t, errors.As(err, &batchErr))
	assert.Equal(t, domain.Create, batchErr.Operation)
	require.Len(t, results, 3)

	assert.False(t, results[0].Success)
	assert.Equal(t, domain.ErrorDetail{
		StatusCode: domain.CodeDuplicateValue,
		Message:    "duplicate value found: x@y.com duplicates value on record with id: a00000000000001AAA",
		Fields:     []string{"Email"},
	}, results[0].Errors[0])

	assert.False(t, results[1].Success)
	assert.Equal(t, domain.CodeRequiredFieldMissing, results[1].Errors[0].StatusCode)
	assert.Equal(t, []string{"Name"}, results[1].Errors[0].Fields)

	assert.True(t, results[2].Success)
	assert.Len(t, batchErr.SuccessfulRecords(), 1)
}

func TestTransport_UpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	sb := newSandbox(t)

	created, err := sb.Create(ctx, []domain.RecordPayload{
		{SObject: "Account", Fields: []domain.FieldValue{{Field: "Name", Value: "Acme"}}},
	})
	require.NoError(t, err)
	id := created[0].ID

	results, err := sb.Update(ctx, []domain.RecordPayload{
		{SObject: "Account", ID: id, Fields: []domain.FieldValue{{Field: "Name", Value: "Acme Corp"}, {Field: "Active", Value: true}}},
		{SObject: "Account", ID: "a99999999999999", Fields: []domain.FieldValue{{Field: "Name", Value: "Ghost"}}},
	})
	var batchErr *domain.BatchError
	require.True(t, errors.As(err, &batchErr))
	assert.True(t, results[0].Success)
	assert.Equal(t, id, results[0].ID)
	assert.Equal(t, CodeEntityIsDeleted, results[1].Errors[0].StatusCode)

	raw, err := sb.Query(ctx, `SELECT Name FROM Account WHERE (Active = true)`)
	require.NoError(t, err)
	require.Len(t, raw.Records, 1)
	assert.Equal(t, "Acme Corp", raw.Records[0]["Name"])

	results, err = sb.Delete(ctx, []string{id, "a99999999999999"})
	require.Error(t, err)
	assert.True(t, results[0].Success)
	assert.False(t, results[1].Success)

	raw, err = sb.Query(ctx, `SELECT count() FROM Account`)
	require.NoError(t, err)
	assert.Equal(t, 0, raw.Size)
}

func TestTransport_UnknownObject(t *testing.T) {
	sb := newSandbox(t)

	_, err := sb.Create(context.Background(), []domain.RecordPayload{{SObject: "Lead"}})
	assert.Error(t, err)
}

func TestShortID(t *testing.T) {
	assert.Equal(t, "001000000000001", shortID("001000000000001AAA"))
	assert.Equal(t, "short", shortID("short"))

	got := shortID(strings.Repeat("ø", 18))
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, 15, utf8.RuneCountInString(got))
}

func TestCaseSafeSuffix(t *testing.T) {
	assert.Equal(t, "IAC", CaseSafeSuffix("001A0000006Vm9r"))
	assert.Equal(t, "AAA", CaseSafeSuffix("a00000000000001"))
	assert.Equal(t, "", CaseSafeSuffix("short"))
}
