package entryapi

import (
	"testing"

	"github.com/spiffe/spire-api-sdk/proto/spire/api/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sufield/entryadmin/internal/core/domain"
)

func TestBuildBatchCreateRequest_WorkloadEntry(t *testing.T) {
	def, err := domain.NewEntryDefinition(domain.EntryInput{
		SPIFFEID:    "spiffe://example.org/workload",
		Selectors:   []string{"unix:uid:1001"},
		X509SVIDTTL: 3600,
	})
	require.NoError(t, err)

	req := BuildBatchCreateRequest(def)
	require.Len(t, req.GetEntries(), 1)
	entry := req.GetEntries()[0]

	assert.Equal(t, "example.org", entry.GetSpiffeId().GetTrustDomain())
	assert.Equal(t, "/workload", entry.GetSpiffeId().GetPath())
	require.Len(t, entry.GetSelectors(), 1)
	assert.Equal(t, "unix", entry.GetSelectors()[0].GetType())
	assert.Equal(t, "uid:1001", entry.GetSelectors()[0].GetValue())
	assert.Equal(t, int32(3600), entry.GetX509SvidTtl())
	assert.Nil(t, entry.GetParentId())
	assert.Empty(t, entry.GetId(), "the server assigns entry IDs")
}

func TestBuildBatchCreateRequest_AllFields(t *testing.T) {
	def, err := domain.NewEntryDefinition(domain.EntryInput{
		SPIFFEID:      "spiffe://example.org/ns/prod/sa/api",
		ParentID:      "spiffe://example.org/spire/agent/k8s_psat/cluster/node-1",
		Selectors:     []string{"k8s:ns:prod", "k8s:sa:api"},
		DNSNames:      []string{"api.prod.svc", "*.api.example.org"},
		FederatesWith: []string{"spiffe://partner.org", "other.org"},
		Admin:         true,
		Downstream:    true,
		X509SVIDTTL:   600,
		JWTSVIDTTL:    300,
		ExpiresAt:     1893456000,
		Hint:          "external",
		StoreSVID:     true,
	})
	require.NoError(t, err)

	entry := BuildBatchCreateRequest(def).GetEntries()[0]

	assert.Equal(t, "example.org", entry.GetSpiffeId().GetTrustDomain())
	assert.Equal(t, "/ns/prod/sa/api", entry.GetSpiffeId().GetPath())
	assert.Equal(t, "example.org", entry.GetParentId().GetTrustDomain())
	assert.Equal(t, "/spire/agent/k8s_psat/cluster/node-1", entry.GetParentId().GetPath())
	assert.Len(t, entry.GetSelectors(), 2)
	assert.Equal(t, "k8s", entry.GetSelectors()[1].GetType())
	assert.Equal(t, "sa:api", entry.GetSelectors()[1].GetValue())
	assert.Equal(t, []string{"api.prod.svc", "*.api.example.org"}, entry.GetDnsNames())
	assert.Equal(t, []string{"partner.org", "other.org"}, entry.GetFederatesWith())
	assert.True(t, entry.GetAdmin())
	assert.True(t, entry.GetDownstream())
	assert.Equal(t, int32(600), entry.GetX509SvidTtl())
	assert.Equal(t, int32(300), entry.GetJwtSvidTtl())
	assert.Equal(t, int64(1893456000), entry.GetExpiresAt())
	assert.Equal(t, "external", entry.GetHint())
	assert.True(t, entry.GetStoreSvid())
}

func TestFromProtoEntry(t *testing.T) {
	assert.Nil(t, fromProtoEntry(nil))

	got := fromProtoEntry(&types.Entry{
		Id:             "entry-1",
		SpiffeId:       &types.SPIFFEID{TrustDomain: "example.org", Path: "/workload"},
		ParentId:       &types.SPIFFEID{TrustDomain: "example.org", Path: "spire/agent/x"},
		Selectors:      []*types.Selector{{Type: "unix", Value: "uid:1001"}},
		X509SvidTtl:    3600,
		CreatedAt:      1700000000,
		RevisionNumber: 2,
	})
	assert.Equal(t, &domain.RegisteredEntry{
		ID:             "entry-1",
		SPIFFEID:       "spiffe://example.org/workload",
		ParentID:       "spiffe://example.org/spire/agent/x",
		Selectors:      []string{"unix:uid:1001"},
		X509SVIDTTL:    3600,
		CreatedAt:      1700000000,
		RevisionNumber: 2,
	}, got)
}
