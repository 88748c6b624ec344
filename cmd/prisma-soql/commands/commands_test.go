package commands

import (
	"bytes"
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/prisma-soql/internal/adapters/database"
	"github.com/satishbabariya/prisma-soql/internal/adapters/transport/sandbox"
	"github.com/satishbabariya/prisma-soql/internal/core/schema"
	"github.com/satishbabariya/prisma-soql/internal/ui"
	"github.com/satishbabariya/prisma-soql/internal/utils/container"
)

const testSchema = `
models:
  - name: crm.Account
    properties:
      - name: id
        type: id
        key: true
        serial: true
        external_id: true
      - name: name
        required: true
      - name: email
        unique: true
      - name: amount
        type: float
`

const testConfig = `
transport: sandbox
schema_path: /app/schema.yaml
sandbox:
  provider: sqlite
  url: ":memory:"
`

type harness struct {
	fs  afero.Fs
	sb  *sandbox.Transport
	out *bytes.Buffer
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ctx := context.Background()

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/app/schema.yaml", []byte(testSchema), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/app/.prisma-soql.yaml", []byte(testConfig), 0o644))

	models, err := schema.Parse([]byte(testSchema))
	require.NoError(t, err)
	db, err := sandbox.NewAdapter(database.Config{Provider: "sqlite", URL: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, db.Connect(ctx))
	t.Cleanup(func() { _ = db.Disconnect(ctx) })

	sb := sandbox.New(db, models)
	require.NoError(t, sb.Provision(ctx))

	var out bytes.Buffer
	prevOut, prevErr := ui.Out, ui.Err
	ui.Out, ui.Err = &out, &out
	t.Cleanup(func() { ui.Out, ui.Err = prevOut, prevErr })

	return &harness{fs: fs, sb: sb, out: &out}
}

func (h *harness) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	h.out.Reset()

	app := &App{fs: h.fs, opts: []container.Option{container.WithTransport(h.sb)}}
	root := newRootCommand(app, "test", "abc123")
	root.SetArgs(append([]string{"--config", "/app/.prisma-soql.yaml"}, args...))
	root.SetOut(h.out)
	root.SetErr(h.out)
	err := root.ExecuteContext(context.Background())
	return h.out.String(), err
}

func TestTranslateCommand(t *testing.T) {
	h := newHarness(t)

	out, err := h.run(t, "translate", "Account", "--select", "id,name", "--where", "name = 'Acme' AND amount >= 10", "--order", "name desc", "--limit", "5")
	require.NoError(t, err)
	assert.Equal(t, "SELECT Id, Name FROM Account WHERE (Name = 'Acme') AND (Amount >= 10) ORDER BY Name DESC LIMIT 5\n", out)

	out, err = h.run(t, "translate", "Account", "--count")
	require.NoError(t, err)
	assert.Equal(t, "SELECT count() FROM Account\n", out)

	_, err = h.run(t, "translate", "Lead")
	assert.Error(t, err)

	_, err = h.run(t, "translate", "Account", "--where", "nickname = 'x'")
	assert.Error(t, err)
}

func TestWriteAndReadCommands(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, afero.WriteFile(h.fs, "/app/records.yaml", []byte(`
- name: Globex
  email: sales@globex.com
  amount: 15
- name: Copycat
  email: sales@globex.com
`), 0o644))

	out, err := h.run(t, "create", "Account", "--set", "name=Acme", "--set", "amount=120")
	require.NoError(t, err)
	assert.Contains(t, out, "create: 1 succeeded")

	out, err = h.run(t, "create", "Account", "--file", "/app/records.yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "1 failed")
	assert.Contains(t, out, "record 2 rejected")
	assert.Contains(t, out, "duplicate value found")

	out, err = h.run(t, "count", "Account", "--where", "amount > 100")
	require.NoError(t, err)
	assert.Equal(t, "1\n", out)

	out, err = h.run(t, "query", "Account", "--select", "name", "--order", "name")
	require.NoError(t, err)
	assert.Contains(t, out, "Acme")
	assert.Contains(t, out, "Globex")

	out, err = h.run(t, "update", "Account", "--where", "name = 'Acme'", "--set", "amount=10")
	require.NoError(t, err)
	assert.Contains(t, out, "update: 1 succeeded")

	out, err = h.run(t, "delete", "Account", "--yes", "--where", "amount < 50")
	require.NoError(t, err)
	assert.Contains(t, out, "delete: 2 succeeded")

	out, err = h.run(t, "count", "Account")
	require.NoError(t, err)
	assert.Equal(t, "0\n", out)
}

func TestUpdateCommand_ReportsRejectedRecords(t *testing.T) {
	h := newHarness(t)

	_, err := h.run(t, "create", "Account", "--set", "name=Acme", "--set", "amount=120")
	require.NoError(t, err)

	out, err := h.run(t, "update", "Account", "--where", "amount > 100", "--set", "name=null")
	require.NoError(t, err)
	assert.Contains(t, out, "update: 0 succeeded, 1 failed")
	assert.Contains(t, out, "rejected")
	assert.Contains(t, out, "Required fields are missing: [Name]")

	out, err = h.run(t, "query", "Account", "--select", "name")
	require.NoError(t, err)
	assert.Contains(t, out, "Acme")
}

func TestCreateCommand_RequiresInput(t *testing.T) {
	h := newHarness(t)

	_, err := h.run(t, "create", "Account")
	assert.Error(t, err)

	_, err = h.run(t, "update", "Account", "--where", "name = 'x'")
	assert.Error(t, err)
}

func TestValidateCommand(t *testing.T) {
	h := newHarness(t)

	out, err := h.run(t, "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "crm.Account")
	assert.Contains(t, out, "1 models")

	require.NoError(t, afero.WriteFile(h.fs, "/app/broken.yaml", []byte("models:\n  - name: X\n    bogus: 1\n"), 0o644))
	_, err = h.run(t, "validate", "--schema", "/app/broken.yaml")
	assert.Error(t, err)
}

func TestVersionCommand(t *testing.T) {
	h := newHarness(t)

	out, err := h.run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "prisma-soql version test")
	assert.Contains(t, out, "abc123")
}
