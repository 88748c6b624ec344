package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedOperation is returned for aggregate functions the dialect
	// cannot express.
	ErrUnsupportedOperation = errors.New("unsupported operation")

	// ErrQueryBuild is returned when a query cannot be rendered.
	ErrQueryBuild = errors.New("query build error")
)

// QueryError represents a query compilation error with context.
type QueryError struct {
	Operation string
	Model     string
	Cause     error
}

// Error implements the error interface.
func (e *QueryError) Error() string {
	if e.Model != "" {
		return fmt.Sprintf("%s on %s: %v", e.Operation, e.Model, e.Cause)
	}
	return fmt.Sprintf("%s: %v", e.Operation, e.Cause)
}

// Unwrap returns the underlying error.
func (e *QueryError) Unwrap() error {
	return e.Cause
}

// NewQueryError creates a new QueryError.
func NewQueryError(op, model string, cause error) *QueryError {
	return &QueryError{
		Operation: op,
		Model:     model,
		Cause:     cause,
	}
}

// Unsupportedf wraps ErrUnsupportedOperation with a formatted message.
func Unsupportedf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrUnsupportedOperation, fmt.Sprintf(format, args...))
}

// BuildErrorf wraps ErrQueryBuild with a formatted message.
func BuildErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrQueryBuild, fmt.Sprintf(format, args...))
}

// IsUnsupported checks if an error is an unsupported operation error.
func IsUnsupported(err error) bool {
	return errors.Is(err, ErrUnsupportedOperation)
}

// IsQueryBuild checks if an error is a query build error.
func IsQueryBuild(err error) bool {
	return errors.Is(err, ErrQueryBuild)
}
