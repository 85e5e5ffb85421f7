package entryadmin

import (
	"errors"

	coreerrors "github.com/sufield/entryadmin/internal/core/errors"
)

// ErrConfigInvalid indicates that the client options are invalid.
var ErrConfigInvalid = errors.New("invalid configuration")

// Error kinds returned by CreateEntry. Match them with errors.Is.
var (
	ErrMalformedIdentity     error = coreerrors.ErrMalformedIdentity
	ErrMalformedSelector     error = coreerrors.ErrMalformedSelector
	ErrMissingSelectors      error = coreerrors.ErrMissingSelectors
	ErrInvalidField          error = coreerrors.ErrInvalidField
	ErrAgentUnreachable      error = coreerrors.ErrAgentUnreachable
	ErrIdentityContext       error = coreerrors.ErrIdentityContext
	ErrNoCredentialAvailable error = coreerrors.ErrNoCredentialAvailable
	ErrUnknownTrustDomain    error = coreerrors.ErrUnknownTrustDomain
	ErrPeerValidationFailed  error = coreerrors.ErrPeerValidationFailed
	ErrProtocolViolation     error = coreerrors.ErrProtocolViolation
	ErrTransportFailure      error = coreerrors.ErrTransportFailure
)

// IsInputError reports whether err was caused by the entry itself. Such
// errors are raised before the agent or the server is contacted.
func IsInputError(err error) bool {
	return coreerrors.CategoryOf(err) == coreerrors.CategoryInput
}

// IsBootstrapError reports whether err happened while establishing the
// local identity or authenticating the server.
func IsBootstrapError(err error) bool {
	return coreerrors.CategoryOf(err) == coreerrors.CategoryBootstrap
}

// IsRemoteError reports whether the server's answer broke the Entry API contract.
func IsRemoteError(err error) bool {
	return coreerrors.CategoryOf(err) == coreerrors.CategoryRemote
}
