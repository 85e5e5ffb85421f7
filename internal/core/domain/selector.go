package domain

import (
	"fmt"
	"strings"

	"github.com/sufield/entryadmin/internal/core/errors"
)

// Selector is a type/value pair used by the control plane to attest which
// workload an entry applies to, e.g. type "unix" and value "uid:1001".
type Selector struct {
	typ   string
	value string
}

// NewSelector builds a selector from its parts.
func NewSelector(typ, value string) (Selector, error) {
	if typ == "" {
		return Selector{}, errors.NewFieldError(errors.ErrMalformedSelector, "selector", typ+":"+value, "selector type cannot be empty")
	}
	if value == "" {
		return Selector{}, errors.NewFieldError(errors.ErrMalformedSelector, "selector", typ+":"+value, "selector value cannot be empty")
	}
	return Selector{typ: typ, value: value}, nil
}

// ParseSelector parses "type:value". Only the first colon delimits, so
// "unix:uid:1001" yields type "unix" and value "uid:1001".
func ParseSelector(s string) (Selector, error) {
	return parseSelectorField("selector", s)
}

func parseSelectorField(field, s string) (Selector, error) {
	typ, value, found := strings.Cut(s, ":")
	if !found {
		return Selector{}, errors.NewFieldError(errors.ErrMalformedSelector, field, s, "expected type:value")
	}
	if typ == "" {
		return Selector{}, errors.NewFieldError(errors.ErrMalformedSelector, field, s, "selector type cannot be empty")
	}
	if value == "" {
		return Selector{}, errors.NewFieldError(errors.ErrMalformedSelector, field, s, "selector value cannot be empty")
	}
	return Selector{typ: typ, value: value}, nil
}

// Type returns the selector type.
func (s Selector) Type() string { return s.typ }

// Value returns the selector value, which may itself contain colons.
func (s Selector) Value() string { return s.value }

// String renders the selector in type:value form.
func (s Selector) String() string {
	return fmt.Sprintf("%s:%s", s.typ, s.value)
}

// MarshalText implements encoding.TextMarshaler.
func (s Selector) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
