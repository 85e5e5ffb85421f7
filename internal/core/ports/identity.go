// Package ports defines interfaces that represent the application's ports in hexagonal architecture.
// These interfaces define contracts for external behaviors and infrastructure dependencies,
// enabling clean separation between the core domain logic and external adapters.
package ports

import (
	"context"

	"github.com/sufield/entryadmin/internal/core/domain"
)

// IdentityFetcher obtains the local workload's identity context from the identity agent.
//
// Implementations must not keep the agent connection open after FetchContext returns.
// Errors are classified as AgentUnreachable when the agent cannot be reached and
// IdentityContextError when it answers without a usable credential.
type IdentityFetcher interface {
	// FetchContext returns one snapshot of the leaf credential and trust bundles.
	FetchContext(ctx context.Context) (*domain.IdentityContext, error)
}

// CredentialProvider gives read access to the most recently stored identity material.
//
// Implementations must be safe for concurrent use: TLS handshakes call into the
// provider from transport goroutines while a refresher may be replacing the snapshot.
type CredentialProvider interface {
	// CurrentLeafCredential returns the latest leaf credential, or
	// NoCredentialAvailable if nothing has been stored yet.
	CurrentLeafCredential() (*domain.LeafCredential, error)

	// BundleForTrustDomain returns the trust bundle for the named trust domain, or
	// UnknownTrustDomain when the snapshot holds no bundle for it.
	BundleForTrustDomain(name string) (*domain.TrustBundle, error)
}

// CredentialStore is a CredentialProvider whose snapshot can be replaced.
type CredentialStore interface {
	CredentialProvider

	// Update replaces the snapshot wholesale. Readers observe either the old or
	// the new context, never a mix of both.
	Update(ic *domain.IdentityContext)
}
