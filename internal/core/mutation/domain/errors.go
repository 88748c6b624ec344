package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrServiceUnavailable is returned when the remote service reports that
	// it is unavailable.
	ErrServiceUnavailable = errors.New("the remote service is currently unavailable")

	// ErrUnknownStatusCode is returned for remote error codes outside the
	// known set.
	ErrUnknownStatusCode = errors.New("unknown status code")

	// ErrCorrelation is returned when a batch answer cannot be correlated
	// positionally with the submitted payloads.
	ErrCorrelation = errors.New("batch result does not correlate with payloads")
)

// StatusError is a fatal remote status encountered during reconciliation.
type StatusError struct {
	StatusCode string
	Message    string
	// Index is the position of the failing record in the batch.
	Index int
	Cause error
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	if e.Cause == ErrUnknownStatusCode {
		return fmt.Sprintf("got an unknown statusCode %q at record %d: %s", e.StatusCode, e.Index, e.Message)
	}
	return fmt.Sprintf("%v (%s at record %d)", e.Cause, e.StatusCode, e.Index)
}

// Unwrap returns the underlying error.
func (e *StatusError) Unwrap() error {
	return e.Cause
}

// BatchError is returned by transports when some records of a batch failed.
// It carries the full positional result so callers can reconcile it.
type BatchError struct {
	Operation Operation
	Results   BatchResult
}

// Error implements the error interface.
func (e *BatchError) Error() string {
	return fmt.Sprintf("%s batch partially failed: %d of %d records succeeded",
		e.Operation, e.Results.Succeeded(), len(e.Results))
}

// SuccessfulRecords returns the successful outcomes.
func (e *BatchError) SuccessfulRecords() BatchResult {
	var ok BatchResult
	for _, o := range e.Results {
		if o.Success {
			ok = append(ok, o)
		}
	}
	return ok
}

// NewBatchError returns a BatchError when results contain a failure, nil
// otherwise.
func NewBatchError(op Operation, results BatchResult) error {
	if !results.Failed() {
		return nil
	}
	return &BatchError{Operation: op, Results: results}
}

// IsServiceUnavailable checks if an error reports an unavailable service.
func IsServiceUnavailable(err error) bool {
	return errors.Is(err, ErrServiceUnavailable)
}

// IsUnknownStatusCode checks if an error reports an unrecognized status code.
func IsUnknownStatusCode(err error) bool {
	return errors.Is(err, ErrUnknownStatusCode)
}
