package errors

import (
	"fmt"
	"strings"
)

// ErrInvalidConfig marks configuration that failed loading or validation.
// It is an input error: nothing has been contacted yet.
var ErrInvalidConfig = &DomainError{
	Code:    "INVALID_CONFIG",
	Message: "configuration is invalid",
}

// ConfigValidationError collects every invalid configuration field so an
// operator can fix them in one pass.
type ConfigValidationError struct {
	Errors []error
}

func (e *ConfigValidationError) Error() string {
	switch len(e.Errors) {
	case 0:
		return "configuration validation failed"
	case 1:
		return fmt.Sprintf("configuration validation failed: %v", e.Errors[0])
	}
	msgs := make([]string, 0, len(e.Errors))
	for _, err := range e.Errors {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("configuration validation failed with %d errors: %s", len(e.Errors), strings.Join(msgs, "; "))
}

func (e *ConfigValidationError) Unwrap() []error {
	return e.Errors
}

// NewConfigValidationError wraps errs as an ErrInvalidConfig domain error.
// It returns nil when errs is empty.
func NewConfigValidationError(errs ...error) error {
	if len(errs) == 0 {
		return nil
	}
	return NewDomainError(ErrInvalidConfig, &ConfigValidationError{Errors: errs})
}
