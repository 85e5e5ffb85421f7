package spiffe_test

import (
	"sync"
	"testing"

	"github.com/spiffe/go-spiffe/v2/spiffeid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sufield/entryadmin/internal/adapters/secondary/spiffe"
	"github.com/sufield/entryadmin/internal/core/domain"
	"github.com/sufield/entryadmin/internal/core/errors"
	"github.com/sufield/entryadmin/internal/testing/testpki"
)

func identityContext(t *testing.T, ca *testpki.CA, id string, extra ...*testpki.CA) *domain.IdentityContext {
	t.Helper()
	bundles := []*domain.TrustBundle{ca.Bundle(t)}
	for _, other := range extra {
		bundles = append(bundles, other.Bundle(t))
	}
	return &domain.IdentityContext{
		Leaf:    ca.LeafCredential(t, id),
		Bundles: domain.NewTrustBundleSet(bundles...),
	}
}

func TestCredentialProvider_Empty(t *testing.T) {
	p := spiffe.NewCredentialProvider()

	_, err := p.CurrentLeafCredential()
	assert.ErrorIs(t, err, errors.ErrNoCredentialAvailable)

	_, err = p.BundleForTrustDomain("example.org")
	assert.ErrorIs(t, err, errors.ErrUnknownTrustDomain)

	_, err = p.GetX509SVID()
	assert.ErrorIs(t, err, errors.ErrNoCredentialAvailable)
}

func TestCredentialProvider_Update(t *testing.T) {
	ca := testpki.NewCA(t, "example.org")
	partner := testpki.NewCA(t, "partner.org")
	p := spiffe.NewCredentialProvider()

	ic := identityContext(t, ca, "spiffe://example.org/admin", partner)
	p.Update(ic)

	leaf, err := p.CurrentLeafCredential()
	require.NoError(t, err)
	assert.Same(t, ic.Leaf, leaf)

	b, err := p.BundleForTrustDomain("partner.org")
	require.NoError(t, err)
	assert.Equal(t, "partner.org", b.TrustDomain().String())

	_, err = p.BundleForTrustDomain("unknown.org")
	assert.ErrorIs(t, err, errors.ErrUnknownTrustDomain)

	p.Update(nil)
	_, err = p.CurrentLeafCredential()
	assert.ErrorIs(t, err, errors.ErrNoCredentialAvailable)
}

func TestCredentialProvider_SourcesFollowRotation(t *testing.T) {
	ca := testpki.NewCA(t, "example.org")
	p := spiffe.NewCredentialProvider()

	first := identityContext(t, ca, "spiffe://example.org/first")
	second := identityContext(t, ca, "spiffe://example.org/second")
	source := spiffe.SVIDSource(p)

	p.Update(first)
	svid, err := source.GetX509SVID()
	require.NoError(t, err)
	assert.Equal(t, "spiffe://example.org/first", svid.ID.String())

	p.Update(second)
	svid, err = source.GetX509SVID()
	require.NoError(t, err)
	assert.Equal(t, "spiffe://example.org/second", svid.ID.String())
	assert.Equal(t, second.Leaf.Certificates()[0].Raw, svid.Certificates[0].Raw)

	bundle, err := p.GetX509BundleForTrustDomain(spiffeid.RequireTrustDomainFromString("example.org"))
	require.NoError(t, err)
	assert.True(t, bundle.HasX509Authority(ca.Cert))
}

func TestCredentialProvider_ConcurrentReadsSeeWholeSnapshots(t *testing.T) {
	ca := testpki.NewCA(t, "example.org")
	p := spiffe.NewCredentialProvider()

	contexts := []*domain.IdentityContext{
		identityContext(t, ca, "spiffe://example.org/a"),
		identityContext(t, ca, "spiffe://example.org/b"),
	}
	p.Update(contexts[0])

	valid := map[string]bool{}
	for _, ic := range contexts {
		valid[ic.Leaf.ID().String()] = true
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			p.Update(contexts[i%2])
		}
	}()

	for i := 0; i < 500; i++ {
		leaf, err := p.CurrentLeafCredential()
		require.NoError(t, err)
		assert.True(t, valid[leaf.ID().String()])
	}
	wg.Wait()
}
