// Package client provides error types for client operations.
package client

import (
	"errors"

	mutationdomain "github.com/satishbabariya/prisma-soql/internal/core/mutation/domain"
	querydomain "github.com/satishbabariya/prisma-soql/internal/core/query/domain"
	"github.com/satishbabariya/prisma-soql/internal/service"
)

// Sentinel errors for common error conditions.
var (
	// ErrNotFound indicates that a record was not found.
	ErrNotFound = service.ErrNotFound

	// ErrUnsupportedOperation indicates a query the dialect cannot express.
	ErrUnsupportedOperation = querydomain.ErrUnsupportedOperation

	// ErrQueryBuild indicates a malformed query.
	ErrQueryBuild = querydomain.ErrQueryBuild

	// ErrServiceUnavailable indicates that the remote service is down.
	ErrServiceUnavailable = mutationdomain.ErrServiceUnavailable

	// ErrUnknownStatusCode indicates a remote error code outside the known set.
	ErrUnknownStatusCode = mutationdomain.ErrUnknownStatusCode

	// ErrCorrelation indicates a batch answer that does not line up with
	// the submitted records.
	ErrCorrelation = mutationdomain.ErrCorrelation
)

// Rich error types.
type (
	QueryError    = querydomain.QueryError
	StatusError   = mutationdomain.StatusError
	BatchError    = mutationdomain.BatchError
	NotFoundError = service.NotFoundError
)

// IsNotFound checks if an error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsUnsupported checks if an error reports an unsupported query.
func IsUnsupported(err error) bool {
	return errors.Is(err, ErrUnsupportedOperation)
}

// IsQueryBuild checks if an error reports a malformed query.
func IsQueryBuild(err error) bool {
	return errors.Is(err, ErrQueryBuild)
}

// IsServiceUnavailable checks if an error reports an unavailable service.
func IsServiceUnavailable(err error) bool {
	return errors.Is(err, ErrServiceUnavailable)
}

// IsUnknownStatusCode checks if an error reports an unrecognized status.
func IsUnknownStatusCode(err error) bool {
	return errors.Is(err, ErrUnknownStatusCode)
}
