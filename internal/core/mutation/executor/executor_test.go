package executor_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/prisma-soql/internal/adapters/transport"
	"github.com/satishbabariya/prisma-soql/internal/core/mutation/domain"
	"github.com/satishbabariya/prisma-soql/internal/core/mutation/executor"
	"github.com/satishbabariya/prisma-soql/internal/core/mutation/reconciler"
	querydomain "github.com/satishbabariya/prisma-soql/internal/core/query/domain"
	"github.com/satishbabariya/prisma-soql/internal/core/query/mapper"
	"github.com/satishbabariya/prisma-soql/internal/core/resource"
	"github.com/satishbabariya/prisma-soql/internal/core/schema"
	schemadomain "github.com/satishbabariya/prisma-soql/internal/core/schema/domain"
)

type fakeTransport struct {
	creates [][]domain.RecordPayload
	updates [][]domain.RecordPayload
	deletes [][]string

	result func(n int) (domain.BatchResult, error)
}

func (f *fakeTransport) answer(n int) (domain.BatchResult, error) {
	if f.result != nil {
		return f.result(n)
	}
	results := make(domain.BatchResult, n)
	for i := range results {
		results[i] = domain.Outcome{Success: true}
	}
	return results, nil
}

func (f *fakeTransport) Query(context.Context, string) (transport.RawResult, error) {
	return transport.RawResult{}, errors.New("unexpected query")
}

func (f *fakeTransport) Create(_ context.Context, p []domain.RecordPayload) (domain.BatchResult, error) {
	f.creates = append(f.creates, p)
	return f.answer(len(p))
}

func (f *fakeTransport) Update(_ context.Context, p []domain.RecordPayload) (domain.BatchResult, error) {
	f.updates = append(f.updates, p)
	return f.answer(len(p))
}

func (f *fakeTransport) Delete(_ context.Context, ids []string) (domain.BatchResult, error) {
	f.deletes = append(f.deletes, ids)
	return f.answer(len(ids))
}

type fakeReader struct {
	calls   []*querydomain.Query
	keyRows []any
}

func (f *fakeReader) Read(_ context.Context, q *querydomain.Query) ([]mapper.Row, error) {
	f.calls = append(f.calls, q)
	prop := q.Model.KeyProperty()
	rows := make([]mapper.Row, len(f.keyRows))
	for i, k := range f.keyRows {
		rows[i] = mapper.Row{prop: k}
	}
	return rows, nil
}

func contactModel() *schemadomain.Model {
	return &schemadomain.Model{
		Name: "Contact",
		Properties: []*schemadomain.Property{
			{Name: "id", Type: schemadomain.TypeID, Key: true, Serial: true, ExternalID: true},
			{Name: "account_id", Type: schemadomain.TypeID, ExternalID: true},
			{Name: "last_name", Type: schemadomain.TypeString},
			{Name: "age", Type: schemadomain.TypeInteger},
		},
	}
}

func newExecutor(tr *fakeTransport, rd *fakeReader) *executor.BulkExecutor {
	return executor.NewBulkExecutor(tr, rd, reconciler.NewReconciler(resource.NewMemoryIdentityMap()), schema.DefaultNaming{})
}

func TestCreate(t *testing.T) {
	model := contactModel()
	tr := &fakeTransport{result: func(n int) (domain.BatchResult, error) {
		return domain.BatchResult{{Success: true, ID: "0035000000aBcDeAAA"}}, nil
	}}
	exec := newExecutor(tr, nil)

	rec := resource.NewRecordFrom(model, map[string]any{
		"id":         "ignored",
		"account_id": "0015000000zYxWvAAA",
		"last_name":  "Smith",
	})

	n, err := exec.Create(context.Background(), []resource.Resource{rec})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.Len(t, tr.creates, 1)
	payload := tr.creates[0][0]
	assert.Equal(t, "Contact", payload.SObject)
	assert.Empty(t, payload.ID)
	assert.Equal(t, []domain.FieldValue{
		{Field: "AccountId", Value: "0015000000zYxWv"},
		{Field: "LastName", Value: "Smith"},
	}, payload.Fields)

	assert.Equal(t, "0035000000aBcDe", rec.Get(model.Property("id")))
}

func TestCreate_PartialFailure(t *testing.T) {
	model := contactModel()
	tr := &fakeTransport{result: func(n int) (domain.BatchResult, error) {
		results := domain.BatchResult{
			{Success: true, ID: "003000000000001"},
			{Errors: []domain.ErrorDetail{{StatusCode: domain.CodeRequiredFieldMissing, Message: "missing", Fields: []string{"LastName"}}}},
			{Success: true, ID: "003000000000003"},
		}
		return results, domain.NewBatchError(domain.Create, results)
	}}
	exec := newExecutor(tr, nil)

	resources := []resource.Resource{
		resource.NewRecordFrom(model, map[string]any{"last_name": "A"}),
		resource.NewRecordFrom(model, map[string]any{"age": 3}),
		resource.NewRecordFrom(model, map[string]any{"last_name": "C"}),
	}

	n, err := exec.Create(context.Background(), resources)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	withErrors := 0
	for _, r := range resources {
		if len(r.FieldErrors()) > 0 {
			withErrors++
		}
	}
	assert.Equal(t, 1, withErrors)
}

func TestCreate_TransportFailure(t *testing.T) {
	model := contactModel()
	tr := &fakeTransport{result: func(int) (domain.BatchResult, error) {
		return nil, domain.ErrServiceUnavailable
	}}

	_, err := newExecutor(tr, nil).Create(context.Background(), []resource.Resource{resource.NewRecord(model)})
	assert.True(t, domain.IsServiceUnavailable(err))
}

func TestCreate_Empty(t *testing.T) {
	tr := &fakeTransport{}
	n, err := newExecutor(tr, nil).Create(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, tr.creates)
}

func TestUpdate_KeyEqualitySkipsRead(t *testing.T) {
	model := contactModel()
	tr := &fakeTransport{}
	rd := &fakeReader{}
	exec := newExecutor(tr, rd)

	q := &querydomain.Query{
		Model: model,
		Conditions: []querydomain.Condition{
			{Operator: querydomain.Eq, Property: model.Property("id"), Value: "0035000000aBcDeAAA"},
		},
	}
	attrs := []resource.Attribute{{Property: model.Property("last_name"), Value: "Jones"}}

	n, err := exec.Update(context.Background(), attrs, q)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Empty(t, rd.calls)

	require.Len(t, tr.updates, 1)
	require.Len(t, tr.updates[0], 1)
	assert.Equal(t, "0035000000aBcDe", tr.updates[0][0].ID)
	assert.Equal(t, []domain.FieldValue{{Field: "LastName", Value: "Jones"}}, tr.updates[0][0].Fields)
}

func TestUpdate_FilterReadsKeysOnce(t *testing.T) {
	model := contactModel()
	tr := &fakeTransport{}
	rd := &fakeReader{keyRows: []any{"003000000000001AAA", "003000000000002AAA", nil}}
	exec := newExecutor(tr, rd)

	q := &querydomain.Query{
		Model: model,
		Fields: []querydomain.Field{
			querydomain.PropertyField{Property: model.Property("last_name")},
		},
		Conditions: []querydomain.Condition{
			{Operator: querydomain.Gt, Property: model.Property("age"), Value: 30},
		},
	}
	attrs := []resource.Attribute{{Property: model.Property("age"), Value: 31}}

	n, err := exec.Update(context.Background(), attrs, q)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.Len(t, rd.calls, 1)
	read := rd.calls[0]
	assert.Equal(t, []querydomain.Field{querydomain.PropertyField{Property: model.Property("id")}}, read.Fields)
	assert.Equal(t, q.Conditions, read.Conditions)
	assert.Len(t, q.Fields, 1, "caller query must not be modified")

	require.Len(t, tr.updates, 1)
	var ids []string
	for _, p := range tr.updates[0] {
		ids = append(ids, p.ID)
		assert.Equal(t, []domain.FieldValue{{Field: "Age", Value: 31}}, p.Fields)
	}
	assert.Equal(t, []string{"003000000000001", "003000000000002"}, ids)
}

func TestUpdate_NoMatchesSkipsWrite(t *testing.T) {
	model := contactModel()
	tr := &fakeTransport{}
	rd := &fakeReader{}

	q := &querydomain.Query{
		Model:      model,
		Conditions: []querydomain.Condition{{Operator: querydomain.Lt, Property: model.Property("age"), Value: 0}},
	}
	n, err := newExecutor(tr, rd).Update(context.Background(),
		[]resource.Attribute{{Property: model.Property("age"), Value: 1}}, q)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Len(t, rd.calls, 1)
	assert.Empty(t, tr.updates)
}

func TestDelete(t *testing.T) {
	model := contactModel()

	t.Run("key equality", func(t *testing.T) {
		tr := &fakeTransport{}
		rd := &fakeReader{}
		q := &querydomain.Query{
			Model:      model,
			Conditions: []querydomain.Condition{{Operator: querydomain.Eq, Property: model.Property("id"), Value: "0035000000aBcDeAAA"}},
		}

		n, err := newExecutor(tr, rd).Delete(context.Background(), q)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
		assert.Empty(t, rd.calls)
		assert.Equal(t, [][]string{{"0035000000aBcDe"}}, tr.deletes)
	})

	t.Run("filter", func(t *testing.T) {
		tr := &fakeTransport{}
		rd := &fakeReader{keyRows: []any{"a", "b", "c"}}
		q := &querydomain.Query{
			Model:      model,
			Conditions: []querydomain.Condition{{Operator: querydomain.Like, Property: model.Property("last_name"), Value: "S%"}},
		}

		n, err := newExecutor(tr, rd).Delete(context.Background(), q)
		require.NoError(t, err)
		assert.Equal(t, 3, n)
		assert.Len(t, rd.calls, 1)
		assert.Equal(t, [][]string{{"a", "b", "c"}}, tr.deletes)
	})

	t.Run("fatal status", func(t *testing.T) {
		tr := &fakeTransport{result: func(int) (domain.BatchResult, error) {
			results := domain.BatchResult{{Errors: []domain.ErrorDetail{{StatusCode: domain.CodeServerUnavailable, Message: "down"}}}}
			return results, domain.NewBatchError(domain.Delete, results)
		}}
		q := &querydomain.Query{
			Model:      model,
			Conditions: []querydomain.Condition{{Operator: querydomain.Eq, Property: model.Property("id"), Value: "x"}},
		}

		n, err := newExecutor(tr, &fakeReader{}).Delete(context.Background(), q)
		assert.Zero(t, n)
		assert.True(t, domain.IsServiceUnavailable(err))
	})
}

func TestDelete_ModelWithoutKey(t *testing.T) {
	model := &schemadomain.Model{Name: "Log", Properties: []*schemadomain.Property{{Name: "body"}}}
	_, err := newExecutor(&fakeTransport{}, &fakeReader{}).Delete(context.Background(), &querydomain.Query{Model: model})
	assert.True(t, querydomain.IsQueryBuild(err))
}

func TestUpdate_KeyEqualityIgnoresOtherConditions(t *testing.T) {
	model := contactModel()
	tr := &fakeTransport{}
	rd := &fakeReader{}

	q := &querydomain.Query{
		Model: model,
		Conditions: []querydomain.Condition{
			{Operator: querydomain.Eq, Property: model.Property("last_name"), Value: "Bob"},
			{Operator: querydomain.Eq, Property: model.Property("id"), Value: "0035000000aBcDeAAA"},
			{Operator: querydomain.Gt, Property: model.Property("age"), Value: 99},
		},
	}
	n, err := newExecutor(tr, rd).Update(context.Background(),
		[]resource.Attribute{{Property: model.Property("age"), Value: 1}}, q)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Empty(t, rd.calls)

	require.Len(t, tr.updates, 1)
	require.Len(t, tr.updates[0], 1)
	assert.Equal(t, "0035000000aBcDe", tr.updates[0][0].ID)
}

func TestUpdateReport(t *testing.T) {
	model := contactModel()
	missing := domain.ErrorDetail{StatusCode: domain.CodeRequiredFieldMissing, Message: "Required fields are missing: [LastName]", Fields: []string{"LastName"}}
	tr := &fakeTransport{result: func(int) (domain.BatchResult, error) {
		results := domain.BatchResult{{Success: true}, {Errors: []domain.ErrorDetail{missing}}}
		return results, domain.NewBatchError(domain.Update, results)
	}}
	rd := &fakeReader{keyRows: []any{"003000000000001AAA", "003000000000002AAA"}}

	q := &querydomain.Query{
		Model:      model,
		Conditions: []querydomain.Condition{{Operator: querydomain.Gt, Property: model.Property("age"), Value: 30}},
	}
	report, err := newExecutor(tr, rd).UpdateReport(context.Background(),
		[]resource.Attribute{{Property: model.Property("last_name"), Value: nil}}, q)
	require.NoError(t, err)

	assert.Equal(t, domain.Update, report.Operation)
	assert.Equal(t, 2, report.Submitted)
	assert.Equal(t, 1, report.Succeeded)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, 1, report.Failures[0].Index)
	assert.Equal(t, "003000000000002", report.Failures[0].ID)
	assert.Equal(t, []domain.ErrorDetail{missing}, report.Failures[0].Errors)
}

func TestDeleteReport_NoMatches(t *testing.T) {
	model := contactModel()
	q := &querydomain.Query{
		Model:      model,
		Conditions: []querydomain.Condition{{Operator: querydomain.Lt, Property: model.Property("age"), Value: 0}},
	}
	report, err := newExecutor(&fakeTransport{}, &fakeReader{}).DeleteReport(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, domain.Delete, report.Operation)
	assert.Zero(t, report.Submitted)
	assert.Empty(t, report.Failures)
}
