package spiffe_test

import (
	"crypto/tls"
	"crypto/x509"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sufield/entryadmin/internal/adapters/secondary/spiffe"
	"github.com/sufield/entryadmin/internal/core/errors"
	"github.com/sufield/entryadmin/internal/testing/testpki"
)

func newSession(t *testing.T, policy spiffe.PeerPolicy, cas ...*testpki.CA) (*spiffe.SessionBuilder, *tls.Config) {
	t.Helper()
	p := spiffe.NewCredentialProvider()
	p.Update(identityContext(t, cas[0], "spiffe://"+cas[0].TrustDomain+"/admin", cas[1:]...))

	b := spiffe.NewSessionBuilder(p, policy, nil)
	cfg, err := b.ClientTLSConfig()
	require.NoError(t, err)
	return b, cfg
}

func TestSessionBuilder_NoCredential(t *testing.T) {
	b := spiffe.NewSessionBuilder(spiffe.NewCredentialProvider(), spiffe.PeerPolicy{}, nil)

	cfg, err := b.ClientTLSConfig()
	assert.Nil(t, cfg)
	assert.ErrorIs(t, err, errors.ErrNoCredentialAvailable)
}

func TestSessionBuilder_ConfigShape(t *testing.T) {
	ca := testpki.NewCA(t, "example.org")
	_, cfg := newSession(t, spiffe.PeerPolicy{}, ca)

	assert.Equal(t, uint16(tls.VersionTLS12), cfg.MinVersion)
	assert.NotNil(t, cfg.GetClientCertificate)
	assert.NotNil(t, cfg.VerifyPeerCertificate)
	assert.Empty(t, cfg.Certificates, "credential must be read per handshake, not pinned")

	cert, err := cfg.GetClientCertificate(&tls.CertificateRequestInfo{})
	require.NoError(t, err)
	leaf, err := x509.ParseCertificate(cert.Certificate[0])
	require.NoError(t, err)
	assert.Equal(t, "spiffe://example.org/admin", leaf.URIs[0].String())
}

func TestSessionBuilder_VerifyPeer(t *testing.T) {
	ca := testpki.NewCA(t, "example.org")
	partner := testpki.NewCA(t, "partner.org")
	stranger := testpki.NewCA(t, "stranger.org")
	impostor := testpki.NewCA(t, "example.org")

	serverChain, _ := ca.IssueSVID(t, "spiffe://example.org/spire/server")
	partnerChain, _ := partner.IssueSVID(t, "spiffe://partner.org/spire/server")
	strangerChain, _ := stranger.IssueSVID(t, "spiffe://stranger.org/spire/server")
	forgedChain, _ := impostor.IssueSVID(t, "spiffe://example.org/spire/server")
	noIDChain, _ := ca.IssueSVID(t, "spiffe://example.org/spire/server", testpki.WithoutURI())
	otherChain, _ := ca.IssueSVID(t, "spiffe://example.org/not-the-server")

	serverOnly, err := spiffe.NewPeerPolicy([]string{"spiffe://example.org/spire/server"}, "")
	require.NoError(t, err)
	partnerTD, err := spiffe.NewPeerPolicy(nil, "partner.org")
	require.NoError(t, err)

	tests := []struct {
		name      string
		policy    spiffe.PeerPolicy
		raw       [][]byte
		wantErr   bool
		wantCause error
	}{
		{name: "server in local trust domain", raw: testpki.RawChain(serverChain)},
		{name: "exact server id", policy: serverOnly, raw: testpki.RawChain(serverChain)},
		{name: "federated server", policy: partnerTD, raw: testpki.RawChain(partnerChain)},
		{
			name:      "unknown trust domain with a valid chain",
			policy:    spiffe.PeerPolicy{},
			raw:       testpki.RawChain(strangerChain),
			wantErr:   true,
			wantCause: errors.ErrUnknownTrustDomain,
		},
		{name: "chain not signed by the bundle", raw: testpki.RawChain(forgedChain), wantErr: true},
		{name: "no SPIFFE ID", raw: testpki.RawChain(noIDChain), wantErr: true},
		{name: "not the expected server", policy: serverOnly, raw: testpki.RawChain(otherChain), wantErr: true},
		{name: "federated peer outside policy", raw: testpki.RawChain(partnerChain), wantErr: true},
		{name: "garbage", raw: [][]byte{[]byte("not a certificate")}, wantErr: true},
		{name: "empty", raw: nil, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, cfg := newSession(t, tt.policy, ca, partner)

			err := cfg.VerifyPeerCertificate(tt.raw, nil)
			if !tt.wantErr {
				assert.NoError(t, err)
				assert.NoError(t, b.PeerError())
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, errors.ErrPeerValidationFailed)
			if tt.wantCause != nil {
				assert.ErrorIs(t, err, tt.wantCause)
			}
			assert.ErrorIs(t, b.PeerError(), errors.ErrPeerValidationFailed)
		})
	}
}

// TestSessionBuilder_Handshake runs a real TLS handshake against a server that
// requires client certificates from the same trust domain.
func TestSessionBuilder_Handshake(t *testing.T) {
	ca := testpki.NewCA(t, "example.org")
	stranger := testpki.NewCA(t, "stranger.org")

	t.Run("mutually authenticated", func(t *testing.T) {
		b, clientCfg := newSession(t, spiffe.PeerPolicy{}, ca)
		clientErr, serverErr := handshake(t, clientCfg, serverConfig(t, ca, ca))
		assert.NoError(t, clientErr)
		assert.NoError(t, serverErr)
		assert.NoError(t, b.PeerError())
	})

	t.Run("server from unknown trust domain", func(t *testing.T) {
		b, clientCfg := newSession(t, spiffe.PeerPolicy{}, ca)
		clientErr, _ := handshake(t, clientCfg, serverConfig(t, stranger, ca))
		assert.Error(t, clientErr)
		assert.ErrorIs(t, b.PeerError(), errors.ErrUnknownTrustDomain)
	})
}

func serverConfig(t *testing.T, issuer, clientCA *testpki.CA) *tls.Config {
	t.Helper()
	chain, key := issuer.IssueSVID(t, "spiffe://"+issuer.TrustDomain+"/spire/server")
	pool := x509.NewCertPool()
	pool.AddCert(clientCA.Cert)
	return &tls.Config{
		MinVersion:   tls.VersionTLS12,
		Certificates: []tls.Certificate{{Certificate: testpki.RawChain(chain), PrivateKey: key}},
		ClientAuth:   tls.RequireAndVerifyClientCert,
		ClientCAs:    pool,
	}
}

func handshake(t *testing.T, clientCfg, serverCfg *tls.Config) (clientErr, serverErr error) {
	t.Helper()
	ln, err := tls.Listen("tcp", "127.0.0.1:0", serverCfg)
	require.NoError(t, err)
	defer ln.Close()

	done := make(chan error, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			done <- err
			return
		}
		defer conn.Close()
		done <- conn.(*tls.Conn).Handshake()
	}()

	conn, err := tls.Dial("tcp", ln.Addr().String(), clientCfg)
	if err == nil {
		_ = conn.Close()
	}
	return err, <-done
}
