package spiffe

import (
	"fmt"

	"github.com/spiffe/go-spiffe/v2/bundle/x509bundle"
	"github.com/spiffe/go-spiffe/v2/spiffeid"
	"github.com/spiffe/go-spiffe/v2/svid/x509svid"
	"go.uber.org/atomic"

	"github.com/sufield/entryadmin/internal/core/domain"
	"github.com/sufield/entryadmin/internal/core/errors"
	"github.com/sufield/entryadmin/internal/core/ports"
)

var (
	_ ports.CredentialStore = (*CredentialProvider)(nil)
	_ x509svid.Source       = (*CredentialProvider)(nil)
	_ x509bundle.Source     = (*CredentialProvider)(nil)
)

// CredentialProvider holds the latest identity context as an atomically
// swapped snapshot. Reads never block and always see a complete context.
type CredentialProvider struct {
	snapshot atomic.Pointer[domain.IdentityContext]
}

// NewCredentialProvider returns an empty provider. Until Update is called,
// CurrentLeafCredential reports NoCredentialAvailable.
func NewCredentialProvider() *CredentialProvider {
	return &CredentialProvider{}
}

// Update replaces the snapshot. A nil context clears it.
func (p *CredentialProvider) Update(ic *domain.IdentityContext) {
	p.snapshot.Store(ic)
}

// CurrentLeafCredential returns the leaf from the latest snapshot.
func (p *CredentialProvider) CurrentLeafCredential() (*domain.LeafCredential, error) {
	ic := p.snapshot.Load()
	if ic == nil || ic.Leaf == nil {
		return nil, errors.ErrNoCredentialAvailable
	}
	return ic.Leaf, nil
}

// BundleForTrustDomain returns the named trust domain's bundle from the latest snapshot.
func (p *CredentialProvider) BundleForTrustDomain(name string) (*domain.TrustBundle, error) {
	ic := p.snapshot.Load()
	if ic != nil {
		if b, ok := ic.Bundles.Get(name); ok {
			return b, nil
		}
	}
	return nil, errors.NewDomainError(errors.ErrUnknownTrustDomain, fmt.Errorf("no bundle for trust domain %q", name))
}

// GetX509SVID implements x509svid.Source.
func (p *CredentialProvider) GetX509SVID() (*x509svid.SVID, error) {
	return SVIDSource(p).GetX509SVID()
}

// GetX509BundleForTrustDomain implements x509bundle.Source.
func (p *CredentialProvider) GetX509BundleForTrustDomain(td spiffeid.TrustDomain) (*x509bundle.Bundle, error) {
	return BundleSource(p).GetX509BundleForTrustDomain(td)
}
