package domain

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spiffe/go-spiffe/v2/spiffeid"

	"github.com/sufield/entryadmin/internal/core/errors"
)

// Identity is a SPIFFE ID: a trust domain plus an optional path.
//
// The zero value is an unset identity. Values are immutable and safe to copy.
// String form is always spiffe://<trust-domain>/<path>, or spiffe://<trust-domain>
// when the path is empty.
type Identity struct {
	id spiffeid.ID
}

// ParseIdentity parses and normalizes a SPIFFE ID string.
// Any failure is reported as errors.ErrMalformedIdentity.
func ParseIdentity(s string) (Identity, error) {
	return parseIdentityField("spiffe_id", s)
}

// MustParseIdentity is like ParseIdentity but panics on error.
func MustParseIdentity(s string) Identity {
	id, err := ParseIdentity(s)
	if err != nil {
		panic(err)
	}
	return id
}

// IdentityFromSPIFFEID wraps an already validated go-spiffe ID.
func IdentityFromSPIFFEID(id spiffeid.ID) Identity {
	return Identity{id: id}
}

// NewIdentity builds an identity from a trust domain and a path such as "/workload".
func NewIdentity(td TrustDomain, path string) (Identity, error) {
	if td.IsZero() {
		return Identity{}, errors.NewFieldError(errors.ErrMalformedIdentity, "trust_domain", "", "trust domain cannot be empty")
	}
	id, err := spiffeid.FromPath(td.ToSpiffeTrustDomain(), path)
	if err != nil {
		return Identity{}, errors.NewFieldError(errors.ErrMalformedIdentity, "path", path, err.Error())
	}
	return Identity{id: id}, nil
}

func parseIdentityField(field, s string) (Identity, error) {
	if strings.TrimSpace(s) == "" {
		return Identity{}, errors.NewFieldError(errors.ErrMalformedIdentity, field, s, "identity cannot be blank")
	}
	id, err := spiffeid.FromString(s)
	if err != nil {
		return Identity{}, errors.NewFieldError(errors.ErrMalformedIdentity, field, s, err.Error())
	}
	return Identity{id: id}, nil
}

// TrustDomain returns the trust domain of the identity.
func (i Identity) TrustDomain() TrustDomain {
	return FromSpiffeTrustDomain(i.id.TrustDomain())
}

// Path returns the path component including its leading slash, or "" when empty.
func (i Identity) Path() string {
	return i.id.Path()
}

// String renders the identity as a SPIFFE URI.
func (i Identity) String() string {
	return i.id.String()
}

// IsZero reports whether the identity is unset.
func (i Identity) IsZero() bool {
	return i.id.IsZero()
}

// MemberOf reports whether the identity belongs to td.
func (i Identity) MemberOf(td TrustDomain) bool {
	return i.id.MemberOf(td.ToSpiffeTrustDomain())
}

// Equals compares two identities.
func (i Identity) Equals(other Identity) bool {
	return i.id.String() == other.id.String()
}

// ToSPIFFEID returns the underlying go-spiffe ID for adapter use.
func (i Identity) ToSPIFFEID() spiffeid.ID {
	return i.id
}

// MarshalJSON implements json.Marshaler.
func (i Identity) MarshalJSON() ([]byte, error) {
	return json.Marshal(i.String())
}

// MarshalYAML implements yaml.Marshaler.
func (i Identity) MarshalYAML() (interface{}, error) {
	return i.String(), nil
}

// GoString keeps %#v output readable in test failures.
func (i Identity) GoString() string {
	return fmt.Sprintf("domain.Identity(%q)", i.String())
}
