// Package errors defines the error taxonomy for entry registration.
package errors

import (
	"errors"
	"fmt"
)

// DomainError represents errors in the domain logic
type DomainError struct {
	Code    string
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is reports whether target is a DomainError with the same code, so that
// wrapped instances match the package sentinels with errors.Is.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// Input validation errors. These never reach the network.
var (
	ErrMalformedIdentity = &DomainError{
		Code:    "MALFORMED_IDENTITY",
		Message: "identity is malformed",
	}

	ErrMalformedSelector = &DomainError{
		Code:    "MALFORMED_SELECTOR",
		Message: "selector is malformed",
	}

	ErrMissingSelectors = &DomainError{
		Code:    "MISSING_SELECTORS",
		Message: "at least one selector is required",
	}

	ErrInvalidField = &DomainError{
		Code:    "INVALID_FIELD",
		Message: "entry field is invalid",
	}
)

// Local bootstrap errors. Fatal, raised before any registration attempt.
var (
	ErrAgentUnreachable = &DomainError{
		Code:    "AGENT_UNREACHABLE",
		Message: "identity agent is unreachable",
	}

	ErrIdentityContext = &DomainError{
		Code:    "IDENTITY_CONTEXT_ERROR",
		Message: "identity agent could not supply a credential",
	}

	ErrNoCredentialAvailable = &DomainError{
		Code:    "NO_CREDENTIAL_AVAILABLE",
		Message: "no leaf credential is available",
	}

	ErrUnknownTrustDomain = &DomainError{
		Code:    "UNKNOWN_TRUST_DOMAIN",
		Message: "no trust bundle for trust domain",
	}
)

// Transport and remote errors.
var (
	ErrPeerValidationFailed = &DomainError{
		Code:    "PEER_VALIDATION_FAILED",
		Message: "peer certificate validation failed",
	}

	ErrProtocolViolation = &DomainError{
		Code:    "PROTOCOL_VIOLATION",
		Message: "control plane response violates the entry API contract",
	}

	ErrTransportFailure = &DomainError{
		Code:    "TRANSPORT_FAILURE",
		Message: "registration call failed",
	}
)

// NewDomainError creates a new domain error with context
func NewDomainError(base *DomainError, err error) error {
	return &DomainError{
		Code:    base.Code,
		Message: base.Message,
		Err:     err,
	}
}

// NewFieldError creates a domain error carrying a ValidationError for the offending field.
func NewFieldError(base *DomainError, field string, value interface{}, message string) error {
	return NewDomainError(base, &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	})
}

// ValidationError represents input validation errors
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for field '%s': %s (value: %v)", e.Field, e.Message, e.Value)
}

// Category groups error kinds by where they originate.
type Category int

const (
	CategoryRuntime Category = iota
	CategoryInput
	CategoryBootstrap
	CategoryRemote
)

func (c Category) String() string {
	switch c {
	case CategoryInput:
		return "input"
	case CategoryBootstrap:
		return "bootstrap"
	case CategoryRemote:
		return "remote"
	default:
		return "runtime"
	}
}

// CategoryOf classifies err. Unknown errors are runtime errors.
func CategoryOf(err error) Category {
	switch {
	case err == nil:
		return CategoryRuntime
	case errors.Is(err, ErrMalformedIdentity),
		errors.Is(err, ErrMalformedSelector),
		errors.Is(err, ErrMissingSelectors),
		errors.Is(err, ErrInvalidField),
		errors.Is(err, ErrInvalidConfig):
		return CategoryInput
	case errors.Is(err, ErrAgentUnreachable),
		errors.Is(err, ErrIdentityContext),
		errors.Is(err, ErrNoCredentialAvailable),
		errors.Is(err, ErrUnknownTrustDomain),
		errors.Is(err, ErrPeerValidationFailed):
		return CategoryBootstrap
	case errors.Is(err, ErrProtocolViolation):
		return CategoryRemote
	default:
		return CategoryRuntime
	}
}

// Code returns the code of the outermost DomainError in err's chain, or "".
func Code(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}
