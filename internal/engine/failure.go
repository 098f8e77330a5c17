package engine

import (
	"errors"
	"fmt"
)

// FailureKind classifies why a lookup failed. Callers branch on the kind,
// never on raw status codes.
type FailureKind int

const (
	// FailureValidation means the backend rejected the input (HTTP 400).
	FailureValidation FailureKind = iota + 1
	// FailureNotFound means the entity does not exist (HTTP 404).
	FailureNotFound
	// FailureServer covers every other non-success status.
	FailureServer
	// FailureTransport covers network errors, cancellation and malformed payloads.
	FailureTransport
)

// String returns the lowercase name of the kind.
func (k FailureKind) String() string {
	switch k {
	case FailureValidation:
		return "validation"
	case FailureNotFound:
		return "not_found"
	case FailureServer:
		return "server"
	case FailureTransport:
		return "transport"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// Failure is the single error type produced by the API client.
type Failure struct {
	Kind FailureKind
	// Status is the HTTP status, or 0 for transport failures.
	Status int
	// Message is the backend's user-facing message, if any.
	Message string
	Cause   error
}

// Error implements error.
func (f *Failure) Error() string {
	var s string
	if f.Status != 0 {
		s = fmt.Sprintf("%s failure (HTTP %d)", f.Kind, f.Status)
	} else {
		s = fmt.Sprintf("%s failure", f.Kind)
	}
	if f.Message != "" {
		s += ": " + f.Message
	}
	if f.Cause != nil {
		s += ": " + f.Cause.Error()
	}
	return s
}

// Unwrap returns the underlying cause.
func (f *Failure) Unwrap() error {
	return f.Cause
}

// NewValidationFailure builds a FailureValidation carrying the user-facing message.
func NewValidationFailure(status int, message string) *Failure {
	return &Failure{Kind: FailureValidation, Status: status, Message: message}
}

// NewNotFoundFailure builds a FailureNotFound.
func NewNotFoundFailure(status int, message string) *Failure {
	return &Failure{Kind: FailureNotFound, Status: status, Message: message}
}

// NewServerFailure builds a FailureServer.
func NewServerFailure(status int, message string) *Failure {
	return &Failure{Kind: FailureServer, Status: status, Message: message}
}

// NewTransportFailure wraps a transport-level error.
func NewTransportFailure(cause error) *Failure {
	return &Failure{Kind: FailureTransport, Cause: cause}
}

// AsFailure extracts a *Failure from err's chain.
func AsFailure(err error) (*Failure, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}

// toFailure guarantees a *Failure for any non-nil error; anything the API
// did not classify is treated as a transport problem.
func toFailure(err error) *Failure {
	if f, ok := AsFailure(err); ok {
		return f
	}
	return NewTransportFailure(err)
}
