// Package reconciler applies a positional batch answer back onto the domain
// objects that produced it.
package reconciler

import (
	"fmt"
	"regexp"

	"github.com/satishbabariya/prisma-soql/internal/core/mutation/domain"
	"github.com/satishbabariya/prisma-soql/internal/core/resource"
	schemadomain "github.com/satishbabariya/prisma-soql/internal/core/schema/domain"
	"github.com/satishbabariya/prisma-soql/internal/debug"
)

var duplicateValuePattern = regexp.MustCompile(`duplicate value found: (.*) duplicates`)

// Batch is a submitted batch together with its answer. Results[i] answers
// Payloads[i].
type Batch struct {
	Operation domain.Operation
	Model     *schemadomain.Model
	Payloads  []domain.RecordPayload
	Results   domain.BatchResult

	// Resources are the caller's objects in payload order. When nil,
	// outcomes are correlated through the identity map by payload id.
	Resources []resource.Resource
}

// Reconciler walks a batch answer record by record.
type Reconciler struct {
	identity resource.IdentityMap
}

// NewReconciler creates a reconciler. identity may be nil when every batch
// carries its resources.
func NewReconciler(identity resource.IdentityMap) *Reconciler {
	return &Reconciler{identity: identity}
}

// Failure is a record the remote service rejected.
type Failure struct {
	// Index is the position of the record in the batch.
	Index int
	// ID is the submitted key; empty for creates.
	ID string
	// Resource is nil when nothing correlates with the record.
	Resource resource.Resource
	Errors   []domain.ErrorDetail
}

// Report is the outcome of a reconciled batch.
type Report struct {
	Operation domain.Operation
	Submitted int
	Succeeded int
	Failures  []Failure
}

// Rejected returns the resources of failed records in batch order, skipping
// records that correlate with nothing.
func (r *Report) Rejected() []resource.Resource {
	var out []resource.Resource
	for _, f := range r.Failures {
		if f.Resource != nil {
			out = append(out, f.Resource)
		}
	}
	return out
}

// Reconcile assigns created ids, attaches field errors for failed records and
// returns the number of records that did not fail. A fatal status aborts the
// walk and is returned as a *domain.StatusError.
func (r *Reconciler) Reconcile(b Batch) (int, error) {
	report, err := r.Apply(b)
	if err != nil {
		return 0, err
	}
	return report.Succeeded, nil
}

// Apply reconciles b like Reconcile and reports every failed record.
func (r *Reconciler) Apply(b Batch) (*Report, error) {
	if len(b.Payloads) != len(b.Results) {
		return nil, fmt.Errorf("%w: %d payloads, %d results", domain.ErrCorrelation, len(b.Payloads), len(b.Results))
	}
	if b.Resources != nil && len(b.Resources) != len(b.Payloads) {
		return nil, fmt.Errorf("%w: %d payloads, %d resources", domain.ErrCorrelation, len(b.Payloads), len(b.Resources))
	}

	log := debug.With("operation", string(b.Operation), "model", b.Model.Name)

	report := &Report{Operation: b.Operation, Submitted: len(b.Payloads)}
	for i, outcome := range b.Results {
		res := r.correlate(b, i)

		if outcome.Success {
			if b.Operation == domain.Create {
				assignID(b.Model, res, outcome.ID)
			}
			continue
		}

		if res == nil {
			log.Warn("no resource correlates with failed record", "index", i, "id", b.Payloads[i].ID)
		}
		for _, detail := range outcome.Errors {
			if err := applyDetail(res, i, detail); err != nil {
				log.Error("aborting reconciliation", "index", i, "status", detail.StatusCode, "error", err)
				return nil, err
			}
		}
		report.Failures = append(report.Failures, Failure{
			Index:    i,
			ID:       b.Payloads[i].ID,
			Resource: res,
			Errors:   outcome.Errors,
		})
	}

	report.Succeeded = report.Submitted - len(report.Failures)
	if len(report.Failures) > 0 {
		log.Warn("batch partially failed", "succeeded", report.Succeeded, "failed", len(report.Failures))
	} else {
		log.Debug("batch reconciled", "succeeded", report.Succeeded)
	}
	return report, nil
}

func (r *Reconciler) correlate(b Batch, i int) resource.Resource {
	if b.Resources != nil {
		return b.Resources[i]
	}
	if r.identity == nil || b.Payloads[i].ID == "" {
		return nil
	}
	res, ok := r.identity.Lookup(b.Model, b.Payloads[i].ID)
	if !ok {
		return nil
	}
	return res
}

func applyDetail(res resource.Resource, index int, detail domain.ErrorDetail) error {
	switch domain.ClassifyStatus(detail.StatusCode) {
	case domain.StatusDuplicateValue:
		m := duplicateValuePattern.FindStringSubmatch(detail.Message)
		if m == nil {
			debug.Debug("duplicate value message not understood", "index", index, "message", detail.Message)
			return nil
		}
		if res != nil {
			res.AddFieldError(m[1], detail.Message)
		}
		return nil

	case domain.StatusRequiredFieldMissing, domain.StatusInvalidEmailAddress:
		if res != nil {
			for _, field := range detail.Fields {
				res.AddFieldError(field, detail.Message)
			}
		}
		return nil

	case domain.StatusServerUnavailable:
		return &domain.StatusError{
			StatusCode: detail.StatusCode,
			Message:    detail.Message,
			Index:      index,
			Cause:      domain.ErrServiceUnavailable,
		}

	default:
		return &domain.StatusError{
			StatusCode: detail.StatusCode,
			Message:    detail.Message,
			Index:      index,
			Cause:      domain.ErrUnknownStatusCode,
		}
	}
}

// assignID stores a created id on the serial key of res.
func assignID(model *schemadomain.Model, res resource.Resource, id string) {
	if res == nil || id == "" {
		return
	}
	prop := model.SerialKey()
	if prop == nil {
		return
	}
	res.Set(prop, schemadomain.NormalizeID(prop, id))
}
