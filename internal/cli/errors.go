package cli

import (
	stderrors "errors"

	"github.com/sufield/entryadmin/internal/core/errors"
)

// Process exit codes.
const (
	ExitOK        = 0
	ExitFailure   = 1
	ExitUsage     = 2
	ExitBootstrap = 3
	ExitRemote    = 4
)

var (
	// ErrUsage indicates invalid command usage, flags, or arguments.
	ErrUsage = stderrors.New("usage error")

	// ErrRejected is returned under --strict when the server answered with a non-OK status.
	ErrRejected = stderrors.New("entry rejected by server")
)

// ExitCode maps an error returned by a command to the process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case stderrors.Is(err, ErrUsage):
		return ExitUsage
	case stderrors.Is(err, ErrRejected):
		return ExitRemote
	}

	switch errors.CategoryOf(err) {
	case errors.CategoryInput:
		return ExitUsage
	case errors.CategoryBootstrap:
		return ExitBootstrap
	case errors.CategoryRemote:
		return ExitRemote
	default:
		return ExitFailure
	}
}
