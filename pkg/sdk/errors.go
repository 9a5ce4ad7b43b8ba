package mastplan

import "github.com/kailas-cloud/mastplan/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrNameNotResolved    = domain.ErrNameNotResolved
	ErrServiceUnavailable = domain.ErrServiceUnavailable
	ErrMalformedResponse  = domain.ErrMalformedResponse
	ErrInvalidFilterSpec  = domain.ErrInvalidFilterSpec
	ErrInvalidName        = domain.ErrInvalidName
	ErrInvalidPosition    = domain.ErrInvalidPosition
)

// ServiceError carries the archive service name, HTTP status and message of a failed call.
// Extract it with errors.As.
type ServiceError = domain.ServiceError
