package domain

import (
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/sufield/entryadmin/internal/core/errors"
)

// EntryInput carries the operator-supplied primitive values for one entry.
type EntryInput struct {
	SPIFFEID      string   `json:"spiffe_id"`
	ParentID      string   `json:"parent_id"`
	Selectors     []string `json:"selectors"`
	DNSNames      []string `json:"dns_names" validate:"dive,dns_name"`
	FederatesWith []string `json:"federates_with"`
	Admin         bool     `json:"admin"`
	Downstream    bool     `json:"downstream"`
	X509SVIDTTL   int32    `json:"ttl" validate:"gte=0"`
	JWTSVIDTTL    int32    `json:"jwt_ttl" validate:"gte=0"`
	ExpiresAt     int64    `json:"entry_expiry" validate:"gte=0"`
	Hint          string   `json:"hint" validate:"max=1024"`
	StoreSVID     bool     `json:"store_svid"`
}

// EntryDefinition is a validated, immutable registration entry.
// Build it with NewEntryDefinition; accessors return copies.
type EntryDefinition struct {
	id            Identity
	parentID      Identity
	selectors     []Selector
	dnsNames      []string
	federatesWith []TrustDomain
	admin         bool
	downstream    bool
	x509SVIDTTL   int32
	jwtSVIDTTL    int32
	expiresAt     int64
	hint          string
	storeSVID     bool
}

// NewEntryDefinition validates in a fixed order: identity, selector presence,
// each selector, parent identity, then the remaining field constraints.
// The first failure is returned; nothing partially built escapes.
func NewEntryDefinition(in EntryInput) (*EntryDefinition, error) {
	id, err := parseIdentityField("spiffe_id", in.SPIFFEID)
	if err != nil {
		return nil, err
	}

	if len(in.Selectors) == 0 {
		return nil, errors.NewFieldError(errors.ErrMissingSelectors, "selectors", in.Selectors, "at least one selector is required")
	}

	selectors := make([]Selector, 0, len(in.Selectors))
	for i, raw := range in.Selectors {
		sel, err := parseSelectorField(fmt.Sprintf("selectors[%d]", i), raw)
		if err != nil {
			return nil, err
		}
		selectors = append(selectors, sel)
	}

	var parentID Identity
	if strings.TrimSpace(in.ParentID) != "" {
		parentID, err = parseIdentityField("parent_id", in.ParentID)
		if err != nil {
			return nil, err
		}
	}

	if err := DefaultValidator().Validate(in); err != nil {
		return nil, fieldErrorFromValidator(err)
	}

	federatesWith := make([]TrustDomain, 0, len(in.FederatesWith))
	for i, name := range in.FederatesWith {
		td, err := parseFederatedTrustDomain(fmt.Sprintf("federates_with[%d]", i), name)
		if err != nil {
			return nil, err
		}
		federatesWith = append(federatesWith, td)
	}

	return &EntryDefinition{
		id:            id,
		parentID:      parentID,
		selectors:     selectors,
		dnsNames:      append([]string(nil), in.DNSNames...),
		federatesWith: federatesWith,
		admin:         in.Admin,
		downstream:    in.Downstream,
		x509SVIDTTL:   in.X509SVIDTTL,
		jwtSVIDTTL:    in.JWTSVIDTTL,
		expiresAt:     in.ExpiresAt,
		hint:          in.Hint,
		storeSVID:     in.StoreSVID,
	}, nil
}

func fieldErrorFromValidator(err error) error {
	var fieldErrs validator.ValidationErrors
	if stderrors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		msg := fmt.Sprintf("failed %q constraint", fe.Tag())
		if fe.Param() != "" {
			msg = fmt.Sprintf("failed %q constraint (%s)", fe.Tag(), fe.Param())
		}
		return errors.NewFieldError(errors.ErrInvalidField, fe.Field(), fe.Value(), msg)
	}
	return errors.NewDomainError(errors.ErrInvalidField, err)
}

// ID returns the identity the entry registers.
func (e *EntryDefinition) ID() Identity { return e.id }

// ParentID returns the parent identity and whether one was given.
func (e *EntryDefinition) ParentID() (Identity, bool) {
	return e.parentID, !e.parentID.IsZero()
}

// Selectors returns a copy of the selectors in input order.
func (e *EntryDefinition) Selectors() []Selector {
	return append([]Selector(nil), e.selectors...)
}

// DNSNames returns a copy of the DNS names.
func (e *EntryDefinition) DNSNames() []string {
	return append([]string(nil), e.dnsNames...)
}

// FederatesWith returns a copy of the federated trust domains.
func (e *EntryDefinition) FederatesWith() []TrustDomain {
	return append([]TrustDomain(nil), e.federatesWith...)
}

// Admin reports whether the entry grants access to the registration API.
func (e *EntryDefinition) Admin() bool { return e.admin }

// Downstream reports whether the entry describes a downstream server.
func (e *EntryDefinition) Downstream() bool { return e.downstream }

// X509SVIDTTL is the X509-SVID lifetime in seconds; 0 means the server default.
func (e *EntryDefinition) X509SVIDTTL() int32 { return e.x509SVIDTTL }

// JWTSVIDTTL is the JWT-SVID lifetime in seconds; 0 means the server default.
func (e *EntryDefinition) JWTSVIDTTL() int32 { return e.jwtSVIDTTL }

// ExpiresAt is the entry expiry in epoch seconds; 0 means never.
func (e *EntryDefinition) ExpiresAt() int64 { return e.expiresAt }

// Hint is an optional workload hint.
func (e *EntryDefinition) Hint() string { return e.hint }

// StoreSVID reports whether issued SVIDs are stored by an SVIDStore plugin.
func (e *EntryDefinition) StoreSVID() bool { return e.storeSVID }
