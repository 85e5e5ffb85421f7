// Package entryapi talks to the control plane's Entry API (SPIRE server entry/v1).
package entryapi

import (
	"strings"

	entryv1 "github.com/spiffe/spire-api-sdk/proto/spire/api/server/entry/v1"
	"github.com/spiffe/spire-api-sdk/proto/spire/api/types"

	"github.com/sufield/entryadmin/internal/core/domain"
)

// BuildBatchCreateRequest encodes def as a BatchCreateEntry request carrying
// exactly one entry. Identities travel as structured trust domain and path.
func BuildBatchCreateRequest(def *domain.EntryDefinition) *entryv1.BatchCreateEntryRequest {
	return &entryv1.BatchCreateEntryRequest{
		Entries: []*types.Entry{toProtoEntry(def)},
	}
}

func toProtoEntry(def *domain.EntryDefinition) *types.Entry {
	entry := &types.Entry{
		SpiffeId:    toProtoSPIFFEID(def.ID()),
		Selectors:   toProtoSelectors(def.Selectors()),
		X509SvidTtl: def.X509SVIDTTL(),
		JwtSvidTtl:  def.JWTSVIDTTL(),
		Admin:       def.Admin(),
		Downstream:  def.Downstream(),
		ExpiresAt:   def.ExpiresAt(),
		DnsNames:    def.DNSNames(),
		Hint:        def.Hint(),
		StoreSvid:   def.StoreSVID(),
	}
	if parent, ok := def.ParentID(); ok {
		entry.ParentId = toProtoSPIFFEID(parent)
	}
	for _, td := range def.FederatesWith() {
		entry.FederatesWith = append(entry.FederatesWith, td.String())
	}
	return entry
}

func toProtoSPIFFEID(id domain.Identity) *types.SPIFFEID {
	return &types.SPIFFEID{
		TrustDomain: id.TrustDomain().String(),
		Path:        id.Path(),
	}
}

func toProtoSelectors(selectors []domain.Selector) []*types.Selector {
	out := make([]*types.Selector, 0, len(selectors))
	for _, s := range selectors {
		out = append(out, &types.Selector{Type: s.Type(), Value: s.Value()})
	}
	return out
}

// fromProtoEntry converts the server's echo into the plain result view.
func fromProtoEntry(e *types.Entry) *domain.RegisteredEntry {
	if e == nil {
		return nil
	}
	out := &domain.RegisteredEntry{
		ID:             e.GetId(),
		SPIFFEID:       spiffeIDString(e.GetSpiffeId()),
		ParentID:       spiffeIDString(e.GetParentId()),
		DNSNames:       append([]string(nil), e.GetDnsNames()...),
		FederatesWith:  append([]string(nil), e.GetFederatesWith()...),
		Admin:          e.GetAdmin(),
		Downstream:     e.GetDownstream(),
		X509SVIDTTL:    e.GetX509SvidTtl(),
		JWTSVIDTTL:     e.GetJwtSvidTtl(),
		ExpiresAt:      e.GetExpiresAt(),
		Hint:           e.GetHint(),
		StoreSVID:      e.GetStoreSvid(),
		CreatedAt:      e.GetCreatedAt(),
		RevisionNumber: e.GetRevisionNumber(),
	}
	for _, s := range e.GetSelectors() {
		out.Selectors = append(out.Selectors, s.GetType()+":"+s.GetValue())
	}
	return out
}

func spiffeIDString(id *types.SPIFFEID) string {
	if id == nil || id.GetTrustDomain() == "" {
		return ""
	}
	path := id.GetPath()
	if path != "" && !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return "spiffe://" + id.GetTrustDomain() + path
}
