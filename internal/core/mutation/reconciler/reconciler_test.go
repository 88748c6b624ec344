package reconciler_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/prisma-soql/internal/core/mutation/domain"
	"github.com/satishbabariya/prisma-soql/internal/core/mutation/reconciler"
	"github.com/satishbabariya/prisma-soql/internal/core/resource"
	schemadomain "github.com/satishbabariya/prisma-soql/internal/core/schema/domain"
)

func contactModel() *schemadomain.Model {
	return &schemadomain.Model{
		Name: "Contact",
		Properties: []*schemadomain.Property{
			{Name: "id", Type: schemadomain.TypeID, Key: true, Serial: true, ExternalID: true},
			{Name: "email", Field: "Email", Type: schemadomain.TypeString},
			{Name: "last_name", Field: "LastName", Type: schemadomain.TypeString},
		},
	}
}

func newBatch(model *schemadomain.Model, op domain.Operation, n int) ([]resource.Resource, []domain.RecordPayload) {
	resources := make([]resource.Resource, n)
	payloads := make([]domain.RecordPayload, n)
	for i := range resources {
		resources[i] = resource.NewRecord(model)
		payloads[i] = domain.RecordPayload{SObject: "Contact"}
	}
	return resources, payloads
}

func TestReconcile_AllSucceededAssignsIDs(t *testing.T) {
	model := contactModel()
	resources, payloads := newBatch(model, domain.Create, 2)

	n, err := reconciler.NewReconciler(nil).Reconcile(reconciler.Batch{
		Operation: domain.Create,
		Model:     model,
		Payloads:  payloads,
		Results: domain.BatchResult{
			{Success: true, ID: "0035000000aBcDeAAA"},
			{Success: true, ID: "0035000000fGhIjAAA"},
		},
		Resources: resources,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	idProp := model.Property("id")
	assert.Equal(t, "0035000000aBcDe", resources[0].Get(idProp))
	assert.Equal(t, "0035000000fGhIj", resources[1].Get(idProp))
}

func TestReconcile_PartialFailure(t *testing.T) {
	model := contactModel()
	resources, payloads := newBatch(model, domain.Create, 4)

	results := domain.BatchResult{
		{Success: true, ID: "003000000000001AAA"},
		{Success: false, Errors: []domain.ErrorDetail{{
			StatusCode: domain.CodeRequiredFieldMissing,
			Message:    "Required fields are missing: [LastName]",
			Fields:     []string{"LastName"},
		}}},
		{Success: true, ID: "003000000000003AAA"},
		{Success: false, Errors: []domain.ErrorDetail{{
			StatusCode: domain.CodeInvalidEmailAddress,
			Message:    "Email: invalid email address: nope",
			Fields:     []string{"Email"},
		}}},
	}

	n, err := reconciler.NewReconciler(nil).Reconcile(reconciler.Batch{
		Operation: domain.Create,
		Model:     model,
		Payloads:  payloads,
		Results:   results,
		Resources: resources,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	withErrors := 0
	for _, res := range resources {
		if len(res.FieldErrors()) > 0 {
			withErrors++
		}
	}
	assert.Equal(t, 2, withErrors)
	assert.Equal(t, []string{"Required fields are missing: [LastName]"}, resources[1].FieldErrors()["LastName"])
	assert.Contains(t, resources[3].FieldErrors(), "Email")
	assert.Nil(t, resources[1].Get(model.Property("id")))
}

func TestReconcile_DuplicateValue(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    map[string][]string
	}{
		{
			name:    "extracts value",
			message: "duplicate value found: foo@bar.com duplicates value on record 123",
			want: map[string][]string{
				"foo@bar.com": {"duplicate value found: foo@bar.com duplicates value on record 123"},
			},
		},
		{
			name:    "unparseable message is skipped",
			message: "this record already exists",
			want:    map[string][]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model := contactModel()
			resources, payloads := newBatch(model, domain.Create, 1)

			n, err := reconciler.NewReconciler(nil).Reconcile(reconciler.Batch{
				Operation: domain.Create,
				Model:     model,
				Payloads:  payloads,
				Results: domain.BatchResult{{Errors: []domain.ErrorDetail{{
					StatusCode: domain.CodeDuplicateValue,
					Message:    tt.message,
				}}}},
				Resources: resources,
			})
			require.NoError(t, err)
			assert.Equal(t, 0, n)
			assert.Equal(t, tt.want, resources[0].FieldErrors())
		})
	}
}

func TestReconcile_FatalStatuses(t *testing.T) {
	tests := []struct {
		name  string
		code  string
		check func(error) bool
	}{
		{name: "server unavailable", code: domain.CodeServerUnavailable, check: domain.IsServiceUnavailable},
		{name: "unknown status", code: "ENTITY_IS_LOCKED", check: domain.IsUnknownStatusCode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model := contactModel()
			resources, payloads := newBatch(model, domain.Update, 3)

			n, err := reconciler.NewReconciler(nil).Reconcile(reconciler.Batch{
				Operation: domain.Update,
				Model:     model,
				Payloads:  payloads,
				Results: domain.BatchResult{
					{Errors: []domain.ErrorDetail{{StatusCode: domain.CodeRequiredFieldMissing, Message: "missing", Fields: []string{"LastName"}}}},
					{Errors: []domain.ErrorDetail{{StatusCode: tt.code, Message: "boom"}}},
					{Errors: []domain.ErrorDetail{{StatusCode: domain.CodeRequiredFieldMissing, Message: "missing", Fields: []string{"Email"}}}},
				},
				Resources: resources,
			})
			require.Error(t, err)
			assert.True(t, tt.check(err))
			assert.Zero(t, n)

			var statusErr *domain.StatusError
			require.ErrorAs(t, err, &statusErr)
			assert.Equal(t, tt.code, statusErr.StatusCode)
			assert.Equal(t, 1, statusErr.Index)

			// Records after the fatal one are left untouched.
			assert.Empty(t, resources[2].FieldErrors())
		})
	}
}

func TestReconcile_IdentityCorrelation(t *testing.T) {
	model := contactModel()
	idProp := model.Property("id")

	known := resource.NewRecordFrom(model, map[string]any{"id": "0035000000aBcDe"})
	identity := resource.NewMemoryIdentityMap()
	identity.Put(known)

	payloads := []domain.RecordPayload{
		{SObject: "Contact", ID: "0035000000aBcDe"},
		{SObject: "Contact", ID: "003500000unknown"},
	}
	results := domain.BatchResult{
		{Errors: []domain.ErrorDetail{{StatusCode: domain.CodeRequiredFieldMissing, Message: "missing", Fields: []string{"LastName"}}}},
		{Errors: []domain.ErrorDetail{{StatusCode: domain.CodeRequiredFieldMissing, Message: "missing", Fields: []string{"LastName"}}}},
	}

	n, err := reconciler.NewReconciler(identity).Reconcile(reconciler.Batch{
		Operation: domain.Delete,
		Model:     model,
		Payloads:  payloads,
		Results:   results,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Equal(t, []string{"missing"}, known.FieldErrors()["LastName"])
	assert.Equal(t, "0035000000aBcDe", known.Get(idProp))
}

func TestReconcile_LengthMismatch(t *testing.T) {
	model := contactModel()
	_, payloads := newBatch(model, domain.Create, 2)

	_, err := reconciler.NewReconciler(nil).Reconcile(reconciler.Batch{
		Operation: domain.Create,
		Model:     model,
		Payloads:  payloads,
		Results:   domain.BatchResult{{Success: true}},
	})
	assert.ErrorIs(t, err, domain.ErrCorrelation)
}

func TestApply_ReportsFailures(t *testing.T) {
	model := contactModel()

	known := resource.NewRecordFrom(model, map[string]any{"id": "0035000000aBcDe"})
	identity := resource.NewMemoryIdentityMap()
	identity.Put(known)

	missing := domain.ErrorDetail{StatusCode: domain.CodeRequiredFieldMissing, Message: "missing", Fields: []string{"LastName"}}
	report, err := reconciler.NewReconciler(identity).Apply(reconciler.Batch{
		Operation: domain.Update,
		Model:     model,
		Payloads: []domain.RecordPayload{
			{SObject: "Contact", ID: "0035000000aBcDe"},
			{SObject: "Contact", ID: "0035000000zzzzz"},
			{SObject: "Contact", ID: "003500000unknown"},
		},
		Results: domain.BatchResult{
			{Errors: []domain.ErrorDetail{missing}},
			{Success: true},
			{Errors: []domain.ErrorDetail{missing}},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, domain.Update, report.Operation)
	assert.Equal(t, 3, report.Submitted)
	assert.Equal(t, 1, report.Succeeded)
	require.Len(t, report.Failures, 2)

	assert.Equal(t, 0, report.Failures[0].Index)
	assert.Same(t, known, report.Failures[0].Resource)
	assert.Equal(t, []domain.ErrorDetail{missing}, report.Failures[0].Errors)

	assert.Equal(t, 2, report.Failures[1].Index)
	assert.Equal(t, "003500000unknown", report.Failures[1].ID)
	assert.Nil(t, report.Failures[1].Resource)

	assert.Equal(t, []resource.Resource{known}, report.Rejected())
}
