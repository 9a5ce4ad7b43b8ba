package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNameNotResolved signals that the lookup service returned no candidate coordinates.
	ErrNameNotResolved = errors.New("name not resolved")
	// ErrServiceUnavailable signals a network failure, timeout or 5xx from the archive.
	ErrServiceUnavailable = errors.New("service unavailable")
	// ErrMalformedResponse signals a response that violates the expected schema.
	ErrMalformedResponse = errors.New("malformed response")
	// ErrInvalidFilterSpec signals a filter list rejected locally or by the archive.
	ErrInvalidFilterSpec = errors.New("invalid filter spec")

	// ErrInvalidName signals an empty object name.
	ErrInvalidName = errors.New("invalid object name")
	// ErrInvalidPosition signals coordinates or a radius outside the allowed range.
	ErrInvalidPosition = errors.New("invalid position")
)

// ServiceError carries the remote context of a failed archive call.
// It unwraps to one of the sentinels above.
type ServiceError struct {
	Service string
	Status  int // HTTP status, 0 when no response was received
	Msg     string
	Err     error
}

func (e *ServiceError) Error() string {
	switch {
	case e.Status != 0 && e.Msg != "":
		return fmt.Sprintf("%s: %s (http %d): %s", e.Service, e.Err.Error(), e.Status, e.Msg)
	case e.Status != 0:
		return fmt.Sprintf("%s: %s (http %d)", e.Service, e.Err.Error(), e.Status)
	case e.Msg != "":
		return fmt.Sprintf("%s: %s: %s", e.Service, e.Err.Error(), e.Msg)
	default:
		return fmt.Sprintf("%s: %s", e.Service, e.Err.Error())
	}
}

func (e *ServiceError) Unwrap() error { return e.Err }

// NewServiceError creates a ServiceError wrapping the given sentinel.
func NewServiceError(service string, status int, msg string, sentinel error) error {
	return &ServiceError{Service: service, Status: status, Msg: msg, Err: sentinel}
}
