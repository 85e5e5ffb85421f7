package spiffe

import (
	"fmt"
	"strings"

	"github.com/spiffe/go-spiffe/v2/spiffeid"
	"github.com/spiffe/go-spiffe/v2/spiffetls/tlsconfig"

	"github.com/sufield/entryadmin/internal/core/domain"
	"github.com/sufield/entryadmin/internal/core/errors"
)

// PeerPolicy decides which server identities the client accepts.
// Exact IDs take precedence over trust-domain membership. An empty policy
// accepts any member of the local workload's trust domain.
type PeerPolicy struct {
	ServerIDs   []domain.Identity
	TrustDomain domain.TrustDomain
}

// NewPeerPolicy parses operator-supplied server IDs and trust domain.
func NewPeerPolicy(serverIDs []string, trustDomain string) (PeerPolicy, error) {
	var policy PeerPolicy
	for i, raw := range serverIDs {
		id, err := domain.ParseIdentity(raw)
		if err != nil {
			return PeerPolicy{}, errors.NewFieldError(errors.ErrInvalidField,
				fmt.Sprintf("server_id[%d]", i), raw, "not a valid SPIFFE ID")
		}
		policy.ServerIDs = append(policy.ServerIDs, id)
	}
	if strings.TrimSpace(trustDomain) != "" {
		td, err := domain.NewTrustDomain(trustDomain)
		if err != nil {
			return PeerPolicy{}, errors.NewFieldError(errors.ErrInvalidField,
				"server_trust_domain", trustDomain, "not a valid trust domain")
		}
		policy.TrustDomain = td
	}
	return policy, nil
}

// Authorizer resolves the policy into a go-spiffe authorizer. local is the
// trust domain of the workload's own credential and is used when the policy is empty.
func (p PeerPolicy) Authorizer(local domain.TrustDomain) tlsconfig.Authorizer {
	switch {
	case len(p.ServerIDs) == 1:
		return tlsconfig.AuthorizeID(p.ServerIDs[0].ToSPIFFEID())
	case len(p.ServerIDs) > 1:
		ids := make([]spiffeid.ID, 0, len(p.ServerIDs))
		for _, id := range p.ServerIDs {
			ids = append(ids, id.ToSPIFFEID())
		}
		return tlsconfig.AuthorizeOneOf(ids...)
	case !p.TrustDomain.IsZero():
		return tlsconfig.AuthorizeMemberOf(p.TrustDomain.ToSpiffeTrustDomain())
	default:
		return tlsconfig.AuthorizeMemberOf(local.ToSpiffeTrustDomain())
	}
}

// Describe renders the policy for logs.
func (p PeerPolicy) Describe(local domain.TrustDomain) string {
	switch {
	case len(p.ServerIDs) > 0:
		ids := make([]string, 0, len(p.ServerIDs))
		for _, id := range p.ServerIDs {
			ids = append(ids, id.String())
		}
		return "one of [" + strings.Join(ids, ", ") + "]"
	case !p.TrustDomain.IsZero():
		return "member of " + p.TrustDomain.String()
	default:
		return "member of " + local.String()
	}
}
