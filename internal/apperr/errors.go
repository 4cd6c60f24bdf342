// Package apperr holds the error taxonomy shared by repositories, services and handlers.
//
// Business-rule failures (Unauthorized, Forbidden, NotFound, UnknownStatus,
// InvalidInput) are recovered by the HTTP layer and shown to the caller.
// Storage failures (ConstraintViolation, StorageUnavailable) are shown as a
// generic message; the wrapped cause is only logged.
package apperr

import "errors"

var (
	ErrUnauthorized        = errors.New("authentication required")
	ErrForbidden           = errors.New("insufficient role")
	ErrNotFound            = errors.New("not found")
	ErrUnknownStatus       = errors.New("unknown status")
	ErrInvalidInput        = errors.New("invalid input")
	ErrConstraintViolation = errors.New("constraint violation")
	ErrStorageUnavailable  = errors.New("storage unavailable")
)

// IsBusiness reports whether err is a business-rule rejection rather than a storage failure.
func IsBusiness(err error) bool {
	return errors.Is(err, ErrUnauthorized) ||
		errors.Is(err, ErrForbidden) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrUnknownStatus) ||
		errors.Is(err, ErrInvalidInput)
}
