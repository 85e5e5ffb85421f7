// Package testpki issues throwaway SPIFFE certificate authorities and SVIDs for tests.
package testpki

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sufield/entryadmin/internal/core/domain"
)

var serial atomic.Int64

// CA is a self-signed root for one trust domain.
type CA struct {
	TrustDomain string
	Cert        *x509.Certificate
	Key         crypto.Signer
}

// NewCA creates a root CA whose certificate carries the trust domain's SPIFFE ID.
func NewCA(t testing.TB, trustDomain string) *CA {
	t.Helper()

	key := newKey(t)
	tmpl := &x509.Certificate{
		SerialNumber:          nextSerial(),
		Subject:               pkix.Name{Organization: []string{"testpki"}, CommonName: trustDomain + " root"},
		URIs:                  []*url.URL{{Scheme: "spiffe", Host: trustDomain}},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(24 * time.Hour),
		IsCA:                  true,
		BasicConstraintsValid: true,
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageCRLSign,
	}
	cert := sign(t, tmpl, tmpl, key.Public(), key)
	return &CA{TrustDomain: trustDomain, Cert: cert, Key: key}
}

// SVIDOption adjusts a leaf template before signing.
type SVIDOption func(*x509.Certificate)

// WithoutURI drops the URI SAN so the leaf asserts no SPIFFE ID.
func WithoutURI() SVIDOption {
	return func(c *x509.Certificate) { c.URIs = nil }
}

// WithValidity overrides the validity window.
func WithValidity(notBefore, notAfter time.Time) SVIDOption {
	return func(c *x509.Certificate) {
		c.NotBefore = notBefore
		c.NotAfter = notAfter
	}
}

// IssueSVID signs an X509-SVID for spiffeID and returns the chain (leaf first) and key.
func (ca *CA) IssueSVID(t testing.TB, spiffeID string, opts ...SVIDOption) ([]*x509.Certificate, crypto.Signer) {
	t.Helper()

	u, err := url.Parse(spiffeID)
	if err != nil {
		t.Fatalf("parse SPIFFE ID %q: %v", spiffeID, err)
	}
	key := newKey(t)
	tmpl := &x509.Certificate{
		SerialNumber: nextSerial(),
		Subject:      pkix.Name{Organization: []string{"testpki"}},
		URIs:         []*url.URL{u},
		NotBefore:    time.Now().Add(-time.Minute),
		NotAfter:     time.Now().Add(time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth, x509.ExtKeyUsageClientAuth},
	}
	for _, opt := range opts {
		opt(tmpl)
	}
	leaf := sign(t, tmpl, ca.Cert, key.Public(), ca.Key)
	return []*x509.Certificate{leaf}, key
}

// LeafCredential issues an SVID and wraps it as a domain credential.
func (ca *CA) LeafCredential(t testing.TB, spiffeID string, opts ...SVIDOption) *domain.LeafCredential {
	t.Helper()

	certs, key := ca.IssueSVID(t, spiffeID, opts...)
	leaf, err := domain.NewLeafCredential(certs, key)
	if err != nil {
		t.Fatalf("build leaf credential: %v", err)
	}
	return leaf
}

// Bundle returns the CA as a one-authority trust bundle.
func (ca *CA) Bundle(t testing.TB) *domain.TrustBundle {
	t.Helper()

	b, err := domain.NewTrustBundle(domain.MustNewTrustDomain(ca.TrustDomain), []*x509.Certificate{ca.Cert})
	if err != nil {
		t.Fatalf("build trust bundle: %v", err)
	}
	return b
}

// RawChain returns the DER bytes of certs, as a TLS peer would present them.
func RawChain(certs []*x509.Certificate) [][]byte {
	raw := make([][]byte, 0, len(certs))
	for _, c := range certs {
		raw = append(raw, c.Raw)
	}
	return raw
}

func newKey(t testing.TB) *ecdsa.PrivateKey {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	return key
}

func sign(t testing.TB, tmpl, parent *x509.Certificate, pub crypto.PublicKey, signer crypto.Signer) *x509.Certificate {
	t.Helper()
	der, err := x509.CreateCertificate(rand.Reader, tmpl, parent, pub, signer)
	if err != nil {
		t.Fatalf("create certificate: %v", err)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		t.Fatalf("parse certificate: %v", err)
	}
	return cert
}

func nextSerial() *big.Int {
	return big.NewInt(serial.Add(1) + time.Now().UnixNano())
}
