package domain

import (
	"crypto/x509"
	"fmt"
	"sort"
)

// TrustBundle holds the trust anchors for one trust domain.
// This is a domain value object; rotation replaces it wholesale.
type TrustBundle struct {
	trustDomain TrustDomain
	authorities []*x509.Certificate
}

// NewTrustBundle creates a new TrustBundle with validation.
func NewTrustBundle(td TrustDomain, authorities []*x509.Certificate) (*TrustBundle, error) {
	if td.IsZero() {
		return nil, fmt.Errorf("trust bundle requires a trust domain")
	}
	if len(authorities) == 0 {
		return nil, fmt.Errorf("trust bundle for %q cannot be empty", td)
	}
	certs := make([]*x509.Certificate, 0, len(authorities))
	for i, cert := range authorities {
		if cert == nil {
			return nil, fmt.Errorf("trust bundle for %q has nil authority at index %d", td, i)
		}
		certs = append(certs, cert)
	}
	return &TrustBundle{trustDomain: td, authorities: certs}, nil
}

// TrustDomain returns the trust domain the bundle anchors.
func (b *TrustBundle) TrustDomain() TrustDomain { return b.trustDomain }

// Authorities returns a copy of the trust anchors in their original order.
func (b *TrustBundle) Authorities() []*x509.Certificate {
	out := make([]*x509.Certificate, len(b.authorities))
	copy(out, b.authorities)
	return out
}

// TrustBundleSet indexes bundles by trust-domain name.
type TrustBundleSet struct {
	bundles map[string]*TrustBundle
}

// NewTrustBundleSet builds a set. A later bundle for the same trust domain replaces an earlier one.
func NewTrustBundleSet(bundles ...*TrustBundle) *TrustBundleSet {
	set := &TrustBundleSet{bundles: make(map[string]*TrustBundle, len(bundles))}
	for _, b := range bundles {
		if b == nil {
			continue
		}
		set.bundles[b.trustDomain.String()] = b
	}
	return set
}

// Get returns the bundle for the named trust domain.
func (s *TrustBundleSet) Get(name string) (*TrustBundle, bool) {
	if s == nil {
		return nil, false
	}
	b, ok := s.bundles[name]
	return b, ok
}

// TrustDomains lists the known trust-domain names, sorted.
func (s *TrustBundleSet) TrustDomains() []string {
	if s == nil {
		return nil
	}
	names := make([]string, 0, len(s.bundles))
	for name := range s.bundles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of bundles.
func (s *TrustBundleSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.bundles)
}

// IdentityContext is one snapshot fetched from the identity agent.
type IdentityContext struct {
	Leaf    *LeafCredential
	Bundles *TrustBundleSet
}
