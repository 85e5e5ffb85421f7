// Package domain provides validation using go-playground/validator/v10 with SPIFFE-specific custom validators.
package domain

import (
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/spiffe/go-spiffe/v2/spiffeid"
)

// Validator wraps go-playground/validator with SPIFFE-specific custom validators.
type Validator struct {
	validator *validator.Validate
}

var (
	defaultValidatorOnce sync.Once
	defaultValidator     *Validator
)

// NewValidator creates a new validation instance with custom SPIFFE validators.
func NewValidator() *Validator {
	validate := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their serialized names so errors match flags and config keys.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"json", "mapstructure"} {
			name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return fld.Name
	})

	_ = validate.RegisterValidation("spiffe_id", validateSPIFFEIDCustom)
	_ = validate.RegisterValidation("trust_domain", validateTrustDomainCustom)
	_ = validate.RegisterValidation("dns_name", validateDNSNameCustom)

	return &Validator{
		validator: validate,
	}
}

// DefaultValidator returns a shared Validator; validator.Validate is safe for concurrent use.
func DefaultValidator() *Validator {
	defaultValidatorOnce.Do(func() {
		defaultValidator = NewValidator()
	})
	return defaultValidator
}

// Validate validates a struct using go-playground/validator with SPIFFE extensions.
func (v *Validator) Validate(s interface{}) error {
	return v.validator.Struct(s)
}

// ValidateVar validates a single variable using the specified tag.
func (v *Validator) ValidateVar(field interface{}, tag string) error {
	return v.validator.Var(field, tag)
}

// RegisterValidation adds a custom tag for callers outside the domain, such as config loading.
func (v *Validator) RegisterValidation(tag string, fn validator.Func) error {
	return v.validator.RegisterValidation(tag, fn)
}

// SPIFFE ID custom validator that uses go-spiffe/v2 library for proper validation.
func validateSPIFFEIDCustom(fl validator.FieldLevel) bool {
	spiffeID := fl.Field().String()
	if spiffeID == "" {
		return true // Empty values handled by 'required' tag
	}
	_, err := spiffeid.FromString(spiffeID)
	return err == nil
}

// Trust domain custom validator; accepts "example.org" and "spiffe://example.org".
func validateTrustDomainCustom(fl validator.FieldLevel) bool {
	td := fl.Field().String()
	if td == "" {
		return true // Empty values handled by 'required' tag
	}
	_, err := spiffeid.TrustDomainFromString(td)
	return err == nil
}

// DNS name custom validator. A single leading wildcard label is allowed, as in "*.example.org".
func validateDNSNameCustom(fl validator.FieldLevel) bool {
	name := fl.Field().String()
	if name == "" || len(name) > 253 {
		return false
	}
	name = strings.TrimPrefix(name, "*.")

	for _, label := range strings.Split(name, ".") {
		if len(label) == 0 || len(label) > 63 {
			return false
		}
		if label[0] == '-' || label[len(label)-1] == '-' {
			return false
		}
		for _, ch := range label {
			if !((ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') ||
				(ch >= '0' && ch <= '9') || ch == '-') {
				return false
			}
		}
	}
	return true
}
