package domain

import (
	"crypto"
	"crypto/x509"
	"fmt"
	"reflect"
	"time"

	"github.com/spiffe/go-spiffe/v2/spiffeid"
)

// LeafCredential is the short-lived certificate chain and private key that
// currently identifies the local workload. It is replaced wholesale on
// rotation and never mutated.
type LeafCredential struct {
	id           Identity
	certificates []*x509.Certificate
	privateKey   crypto.Signer
}

// NewLeafCredential validates a chain (leaf first) and its private key.
// The leaf must carry exactly one SPIFFE URI SAN and match the key.
func NewLeafCredential(certificates []*x509.Certificate, key crypto.Signer) (*LeafCredential, error) {
	if len(certificates) == 0 || certificates[0] == nil {
		return nil, fmt.Errorf("leaf credential requires at least one certificate")
	}
	if key == nil {
		return nil, fmt.Errorf("leaf credential requires a private key")
	}

	leaf := certificates[0]
	if len(leaf.URIs) != 1 {
		return nil, fmt.Errorf("leaf certificate must have exactly one URI SAN, found %d", len(leaf.URIs))
	}
	id, err := spiffeid.FromURI(leaf.URIs[0])
	if err != nil {
		return nil, fmt.Errorf("leaf certificate URI SAN is not a SPIFFE ID: %w", err)
	}

	if !publicKeysEqual(leaf.PublicKey, key.Public()) {
		return nil, fmt.Errorf("private key does not match leaf certificate public key")
	}

	chain := make([]*x509.Certificate, len(certificates))
	copy(chain, certificates)

	return &LeafCredential{
		id:           IdentityFromSPIFFEID(id),
		certificates: chain,
		privateKey:   key,
	}, nil
}

// ID returns the identity asserted by the leaf certificate.
func (c *LeafCredential) ID() Identity { return c.id }

// Certificates returns a copy of the chain, leaf first.
func (c *LeafCredential) Certificates() []*x509.Certificate {
	out := make([]*x509.Certificate, len(c.certificates))
	copy(out, c.certificates)
	return out
}

// PrivateKey returns the signer matching the leaf certificate.
func (c *LeafCredential) PrivateKey() crypto.Signer { return c.privateKey }

// NotBefore is the start of the leaf's validity window.
func (c *LeafCredential) NotBefore() time.Time { return c.certificates[0].NotBefore }

// NotAfter is the end of the leaf's validity window.
func (c *LeafCredential) NotAfter() time.Time { return c.certificates[0].NotAfter }

// ValidAt reports whether t falls inside the validity window.
func (c *LeafCredential) ValidAt(t time.Time) bool {
	return !t.Before(c.NotBefore()) && !t.After(c.NotAfter())
}

// RawChain returns the DER encoding of every certificate in the chain.
func (c *LeafCredential) RawChain() [][]byte {
	raw := make([][]byte, 0, len(c.certificates))
	for _, cert := range c.certificates {
		raw = append(raw, cert.Raw)
	}
	return raw
}

type equalPublicKey interface {
	Equal(crypto.PublicKey) bool
}

func publicKeysEqual(a, b crypto.PublicKey) bool {
	if ak, ok := a.(equalPublicKey); ok {
		return ak.Equal(b)
	}
	return reflect.DeepEqual(a, b)
}
