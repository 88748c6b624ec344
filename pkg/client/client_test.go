package client

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func accountModel() *Model {
	return &Model{
		Name: "crm.Account",
		Properties: []*Property{
			{Name: "id", Type: TypeID, Key: true, Serial: true, ExternalID: true},
			{Name: "name", Type: TypeString, Required: true},
			{Name: "email", Type: TypeString, Unique: true},
			{Name: "amount", Type: TypeFloat},
		},
	}
}

type unavailableTransport struct {
	queries []string
}

func (t *unavailableTransport) Query(_ context.Context, soql string) (RawResult, error) {
	t.queries = append(t.queries, soql)
	return RawResult{}, fmt.Errorf("query: %w", ErrServiceUnavailable)
}

func (t *unavailableTransport) Create(context.Context, []RecordPayload) (BatchResult, error) {
	return nil, ErrServiceUnavailable
}

func (t *unavailableTransport) Update(context.Context, []RecordPayload) (BatchResult, error) {
	return nil, ErrServiceUnavailable
}

func (t *unavailableTransport) Delete(context.Context, []string) (BatchResult, error) {
	return nil, ErrServiceUnavailable
}

func sandboxClient(t *testing.T) (*Client, *Model) {
	t.Helper()
	model := accountModel()
	c, err := OpenSandbox(context.Background(), "sqlite", ":memory:", WithModels(model))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close(context.Background()) })
	return c, model
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()
	ApplyOptions(config, WithQueryTimeout(time.Second), WithLogQueries(false))

	assert.Equal(t, time.Second, config.QueryTimeout)
	assert.NotNil(t, config.Naming)
	assert.NotNil(t, config.Telemetry)
	assert.Empty(t, config.Models)
}

func TestNew_RequiresTransport(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)
}

func TestNew_SchemaFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/schema.yaml", []byte(`
models:
  - name: Contact
    properties:
      - name: id
        type: id
        key: true
      - name: lastName
`), 0o644))

	c, err := New(&unavailableTransport{}, WithSchemaFile(fs, "/schema.yaml"))
	require.NoError(t, err)

	soql, err := c.Translate(context.Background(), "Contact",
		WithSelect("lastName"),
		WithWhere(StartsWith("lastName", "O'")),
	)
	require.NoError(t, err)
	assert.Equal(t, `SELECT LastName FROM Contact WHERE (LastName LIKE 'O\'%')`, soql)

	_, err = New(&unavailableTransport{}, WithSchemaFile(fs, "/missing.yaml"))
	assert.Error(t, err)
}

func TestClient_Translate(t *testing.T) {
	c, err := New(&unavailableTransport{}, WithModels(accountModel()))
	require.NoError(t, err)

	soql, err := c.Translate(context.Background(), "crm.Account",
		WithSelect("id", "name"),
		WithWhere(Gte("amount", 10), In("name", []string{"Acme", "Globex"})),
		WithOrderBy("name", Desc),
		WithTake(5),
	)
	require.NoError(t, err)
	assert.Equal(t, "SELECT Id, Name FROM Account WHERE (Amount >= 10) AND (Name IN ('Acme', 'Globex')) ORDER BY Name DESC LIMIT 5", soql)

	_, err = c.Translate(context.Background(), "crm.Opportunity")
	assert.Error(t, err)
}

func TestClient_ServiceUnavailable(t *testing.T) {
	tr := &unavailableTransport{}
	c, err := New(tr, WithModels(accountModel()))
	require.NoError(t, err)

	_, err = c.FindMany(context.Background(), "crm.Account")
	assert.True(t, IsServiceUnavailable(err))
	assert.Len(t, tr.queries, 1)

	_, err = c.Count(context.Background(), "crm.Account")
	assert.True(t, IsServiceUnavailable(err))
}

func TestClient_SandboxRoundTrip(t *testing.T) {
	ctx := context.Background()
	c, model := sandboxClient(t)

	acme := NewRecordFrom(model, map[string]any{"name": "Acme", "email": "a@acme.com", "amount": 120.0})
	globex := NewRecordFrom(model, map[string]any{"name": "Globex", "amount": 15.0})
	copycat := NewRecordFrom(model, map[string]any{"name": "Copycat", "email": "a@acme.com"})

	n, err := c.Create(ctx, acme, globex, copycat)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.True(t, acme.Valid())
	assert.False(t, copycat.Valid())

	row, err := c.FindFirst(ctx, "crm.Account", WithWhere(Equals("name", "Acme")))
	require.NoError(t, err)
	assert.Equal(t, "a@acme.com", row[model.Property("email")])

	_, err = c.FindFirst(ctx, "crm.Account", WithWhere(Equals("name", "Initech")))
	assert.True(t, IsNotFound(err))

	n, err = c.Update(ctx, "crm.Account", map[string]any{"amount": 80.0}, Lt("amount", 50))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = c.Update(ctx, "crm.Account", map[string]any{"revenue": 1}, Lt("amount", 50))
	assert.True(t, IsQueryBuild(err))

	rows, err := c.FindMany(ctx, "crm.Account", WithOrderBy("amount", Asc))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 80.0, rows[0][model.Property("amount")])

	n, err = c.Delete(ctx, "crm.Account", Equals("id", acme.Get(model.Property("id"))))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	count, err := c.Count(ctx, "crm.Account")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestClient_UpdateReportAttachesFieldErrors(t *testing.T) {
	ctx := context.Background()
	c, model := sandboxClient(t)

	acme := NewRecordFrom(model, map[string]any{"name": "Acme", "amount": 120.0})
	globex := NewRecordFrom(model, map[string]any{"name": "Globex", "amount": 15.0})
	_, err := c.Create(ctx, acme, globex)
	require.NoError(t, err)

	report, err := c.UpdateReport(ctx, "crm.Account", map[string]any{"name": nil}, Gt("amount", 100))
	require.NoError(t, err)
	assert.Equal(t, 1, report.Submitted)
	assert.Zero(t, report.Succeeded)
	require.Len(t, report.Failures, 1)
	assert.Same(t, acme, report.Failures[0].Resource)
	assert.Equal(t, []string{"Required fields are missing: [Name]"}, acme.FieldErrors()["Name"])
	assert.True(t, globex.Valid())

	report, err = c.DeleteReport(ctx, "crm.Account", Lt("amount", 50))
	require.NoError(t, err)
	assert.Equal(t, 1, report.Succeeded)
	assert.Empty(t, report.Failures)
}
