// Package domain contains the registration model: identities, selectors,
// credentials, trust bundles and the entry definition sent to the control plane.
package domain

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spiffe/go-spiffe/v2/spiffeid"

	"github.com/sufield/entryadmin/internal/core/errors"
)

// TrustDomain represents a trust boundary in the system, typically a domain name like "example.org".
// This is a thin wrapper around go-spiffe's TrustDomain to leverage SDK validation.
type TrustDomain struct {
	td spiffeid.TrustDomain
}

// NewTrustDomain creates a validated TrustDomain from a string.
// Both the bare name ("example.org") and the SPIFFE form ("spiffe://example.org") are accepted.
func NewTrustDomain(name string) (TrustDomain, error) {
	if strings.TrimSpace(name) == "" {
		return TrustDomain{}, fmt.Errorf("trust domain cannot be empty")
	}

	td, err := spiffeid.TrustDomainFromString(name)
	if err != nil {
		return TrustDomain{}, fmt.Errorf("invalid trust domain %q: %w", name, err)
	}

	return TrustDomain{td: td}, nil
}

// MustNewTrustDomain creates a TrustDomain or panics if validation fails.
// Use only in tests or when you're certain the input is valid.
func MustNewTrustDomain(name string) TrustDomain {
	td, err := NewTrustDomain(name)
	if err != nil {
		panic(fmt.Sprintf("invalid trust domain %q: %v", name, err))
	}
	return td
}

// String returns the trust domain name.
func (td TrustDomain) String() string {
	if td.IsZero() {
		return ""
	}
	return td.td.Name()
}

// IsZero checks if the TrustDomain is empty/unset.
func (td TrustDomain) IsZero() bool {
	return td.td.IsZero()
}

// Equals checks equality with another TrustDomain.
func (td TrustDomain) Equals(other TrustDomain) bool {
	return td.td.Compare(other.td) == 0
}

// ToSPIFFEURI converts the trust domain to its SPIFFE URI form.
func (td TrustDomain) ToSPIFFEURI() string {
	if td.IsZero() {
		return ""
	}
	return td.td.IDString()
}

// MarshalJSON implements json.Marshaler interface.
func (td TrustDomain) MarshalJSON() ([]byte, error) {
	return json.Marshal(td.String())
}

// ToSpiffeTrustDomain returns the underlying go-spiffe TrustDomain.
// This is for adapter layer use when interfacing with go-spiffe directly.
func (td TrustDomain) ToSpiffeTrustDomain() spiffeid.TrustDomain {
	return td.td
}

// FromSpiffeTrustDomain creates a TrustDomain from go-spiffe's TrustDomain.
func FromSpiffeTrustDomain(std spiffeid.TrustDomain) TrustDomain {
	return TrustDomain{td: std}
}

// parseFederatedTrustDomain validates one federates-with value for the given field.
func parseFederatedTrustDomain(field, name string) (TrustDomain, error) {
	td, err := NewTrustDomain(name)
	if err != nil {
		return TrustDomain{}, errors.NewFieldError(errors.ErrInvalidField, field, name, err.Error())
	}
	return td, nil
}
