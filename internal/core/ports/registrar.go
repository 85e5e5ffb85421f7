package ports

import (
	"context"

	"github.com/sufield/entryadmin/internal/core/domain"
)

// EntryRegistrar submits entry definitions to the control plane over an
// established mutually authenticated session.
type EntryRegistrar interface {
	// CreateEntry sends exactly one entry and returns the control plane's verdict.
	// A non-OK status is reported in the result, not as an error; errors are
	// reserved for transport, trust and protocol failures. Implementations never retry.
	CreateEntry(ctx context.Context, def *domain.EntryDefinition) (*domain.RegistrationResult, error)

	// Close releases the underlying connection.
	Close() error
}

// RegistrarDialer opens an EntryRegistrar whose session presents the provider's
// current leaf credential and validates the server against the provider's bundles.
type RegistrarDialer interface {
	Dial(ctx context.Context, creds CredentialProvider) (EntryRegistrar, error)
}
