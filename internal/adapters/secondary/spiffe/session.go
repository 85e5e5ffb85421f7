package spiffe

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"log/slog"

	"github.com/spiffe/go-spiffe/v2/bundle/x509bundle"
	"github.com/spiffe/go-spiffe/v2/spiffetls/tlsconfig"
	"github.com/spiffe/go-spiffe/v2/svid/x509svid"
	"go.uber.org/atomic"

	"github.com/sufield/entryadmin/internal/core/errors"
	"github.com/sufield/entryadmin/internal/core/ports"
)

// SessionBuilder produces client TLS configurations that authenticate with the
// provider's current leaf credential and authenticate the server against the
// provider's trust bundles.
//
// TLS callbacks run on transport goroutines; the last peer validation failure
// is kept atomically so callers can report it after a failed call.
type SessionBuilder struct {
	creds   ports.CredentialProvider
	policy  PeerPolicy
	logger  *slog.Logger
	peerErr atomic.Error
}

// NewSessionBuilder creates a session builder.
func NewSessionBuilder(creds ports.CredentialProvider, policy PeerPolicy, logger *slog.Logger) *SessionBuilder {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionBuilder{creds: creds, policy: policy, logger: logger}
}

// ClientTLSConfig builds the client side of a mutually authenticated session.
// It fails with NoCredentialAvailable before any network I/O if the provider
// holds no leaf credential.
func (b *SessionBuilder) ClientTLSConfig() (*tls.Config, error) {
	leaf, err := b.creds.CurrentLeafCredential()
	if err != nil {
		return nil, errors.NewDomainError(errors.ErrNoCredentialAvailable, err)
	}

	local := leaf.ID().TrustDomain()
	authorizer := b.policy.Authorizer(local)
	b.logger.Debug("building client TLS config",
		"spiffe_id", leaf.ID().String(),
		"peer_policy", b.policy.Describe(local))

	return &tls.Config{
		MinVersion:           tls.VersionTLS12,
		GetClientCertificate: tlsconfig.GetClientCertificate(SVIDSource(b.creds)),
		// Hostname verification does not apply to SPIFFE peers; the chain and
		// the peer ID are checked in VerifyPeerCertificate instead.
		InsecureSkipVerify:    true, //nolint:gosec
		VerifyPeerCertificate: b.verifyPeer(authorizer),
	}, nil
}

// PeerError returns the most recent peer validation failure, or nil.
func (b *SessionBuilder) PeerError() error {
	return b.peerErr.Load()
}

func (b *SessionBuilder) verifyPeer(authorizer tlsconfig.Authorizer) func([][]byte, [][]*x509.Certificate) error {
	return func(raw [][]byte, _ [][]*x509.Certificate) error {
		if err := b.validatePeer(raw, authorizer); err != nil {
			wrapped := errors.NewDomainError(errors.ErrPeerValidationFailed, err)
			b.peerErr.Store(wrapped)
			b.logger.Warn("server certificate rejected", "error", err)
			return wrapped
		}
		b.peerErr.Store(nil)
		return nil
	}
}

// validatePeer checks the chain against the bundle of the peer's own trust
// domain only, then applies the allow policy.
func (b *SessionBuilder) validatePeer(raw [][]byte, authorizer tlsconfig.Authorizer) error {
	if len(raw) == 0 {
		return fmt.Errorf("server presented no certificate")
	}

	certs := make([]*x509.Certificate, 0, len(raw))
	for i, der := range raw {
		cert, err := x509.ParseCertificate(der)
		if err != nil {
			return fmt.Errorf("parse server certificate %d: %w", i, err)
		}
		certs = append(certs, cert)
	}

	id, err := x509svid.IDFromCert(certs[0])
	if err != nil {
		return fmt.Errorf("server certificate has no SPIFFE ID: %w", err)
	}

	td := id.TrustDomain()
	bundle, err := b.creds.BundleForTrustDomain(td.Name())
	if err != nil {
		return fmt.Errorf("server %q: %w", id, err)
	}

	_, chains, err := x509svid.Verify(certs, x509bundle.FromX509Authorities(td, bundle.Authorities()))
	if err != nil {
		return fmt.Errorf("server %q: %w", id, err)
	}

	if err := authorizer(id, chains); err != nil {
		return fmt.Errorf("server %q not authorized: %w", id, err)
	}
	return nil
}
