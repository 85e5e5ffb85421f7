package spiffe

import (
	"github.com/spiffe/go-spiffe/v2/bundle/x509bundle"
	"github.com/spiffe/go-spiffe/v2/spiffeid"
	"github.com/spiffe/go-spiffe/v2/svid/x509svid"

	"github.com/sufield/entryadmin/internal/core/ports"
)

// SVIDSource exposes a CredentialProvider's current leaf as an x509svid.Source.
// Every call reads the provider afresh, so a rotated credential is picked up
// by the next handshake.
func SVIDSource(p ports.CredentialProvider) x509svid.Source {
	return svidSource{p}
}

// BundleSource exposes a CredentialProvider's bundles as an x509bundle.Source.
func BundleSource(p ports.CredentialProvider) x509bundle.Source {
	return bundleSource{p}
}

type svidSource struct{ p ports.CredentialProvider }

func (s svidSource) GetX509SVID() (*x509svid.SVID, error) {
	leaf, err := s.p.CurrentLeafCredential()
	if err != nil {
		return nil, err
	}
	return &x509svid.SVID{
		ID:           leaf.ID().ToSPIFFEID(),
		Certificates: leaf.Certificates(),
		PrivateKey:   leaf.PrivateKey(),
	}, nil
}

type bundleSource struct{ p ports.CredentialProvider }

func (s bundleSource) GetX509BundleForTrustDomain(td spiffeid.TrustDomain) (*x509bundle.Bundle, error) {
	b, err := s.p.BundleForTrustDomain(td.Name())
	if err != nil {
		return nil, err
	}
	return x509bundle.FromX509Authorities(td, b.Authorities()), nil
}
