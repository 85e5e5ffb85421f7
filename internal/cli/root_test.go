package cli

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sufield/entryadmin/internal/core/errors"
)

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o600)
}

func TestRootCommand_Help(t *testing.T) {
	for _, args := range [][]string{{}, {"--help"}, {"-h"}} {
		t.Run(fmt.Sprint(args), func(t *testing.T) {
			var out bytes.Buffer
			root := NewRootCommand(Runtime{Stdout: &out, Stderr: &out})
			root.SetArgs(args)

			require.NoError(t, root.Execute())
			assert.Contains(t, out.String(), "create-entry")
		})
	}
}

func TestRootCommand_UnknownCommand(t *testing.T) {
	var out bytes.Buffer
	root := NewRootCommand(Runtime{Stdout: &out, Stderr: &out})
	root.SetArgs([]string{"delete-entry"})

	assert.Error(t, root.Execute())
}

func TestVersionCommand(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		var out bytes.Buffer
		root := NewRootCommand(Runtime{Stdout: &out, Stderr: &out})
		root.SetArgs([]string{"version", "--format", "json"})
		require.NoError(t, root.Execute())

		var info map[string]string
		require.NoError(t, json.Unmarshal(out.Bytes(), &info))
		assert.Equal(t, "dev", info["version"])
		assert.NotEmpty(t, info["go_version"])
	})

	t.Run("unsupported format", func(t *testing.T) {
		var out bytes.Buffer
		root := NewRootCommand(Runtime{Stdout: &out, Stderr: &out})
		root.SetArgs([]string{"version", "--format", "xml"})

		err := root.Execute()
		assert.Equal(t, ExitUsage, ExitCode(err))
	})
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, ExitOK},
		{fmt.Errorf("%w: bad flag", ErrUsage), ExitUsage},
		{fmt.Errorf("%w: AlreadyExists", ErrRejected), ExitRemote},
		{errors.NewDomainError(errors.ErrMalformedIdentity, nil), ExitUsage},
		{errors.NewDomainError(errors.ErrMalformedSelector, nil), ExitUsage},
		{errors.NewDomainError(errors.ErrMissingSelectors, nil), ExitUsage},
		{errors.NewDomainError(errors.ErrInvalidField, nil), ExitUsage},
		{errors.NewConfigValidationError(stderrors.New("bad")), ExitUsage},
		{errors.NewDomainError(errors.ErrAgentUnreachable, nil), ExitBootstrap},
		{errors.NewDomainError(errors.ErrIdentityContext, nil), ExitBootstrap},
		{errors.NewDomainError(errors.ErrNoCredentialAvailable, nil), ExitBootstrap},
		{errors.NewDomainError(errors.ErrUnknownTrustDomain, nil), ExitBootstrap},
		{errors.NewDomainError(errors.ErrPeerValidationFailed, nil), ExitBootstrap},
		{errors.NewDomainError(errors.ErrProtocolViolation, nil), ExitRemote},
		{errors.NewDomainError(errors.ErrTransportFailure, nil), ExitFailure},
		{stderrors.New("boom"), ExitFailure},
	}

	for _, tt := range tests {
		name := "nil"
		if tt.err != nil {
			name = tt.err.Error()
		}
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCode(tt.err))
		})
	}
}

func TestRedactError(t *testing.T) {
	err := fmt.Errorf("open /home/alice/agent.sock: Bearer abc.def.ghi rejected")
	got := RedactError(err)

	assert.NotContains(t, got, "alice")
	assert.NotContains(t, got, "abc.def.ghi")
	assert.Contains(t, got, "/home/[USER]")
	assert.Empty(t, RedactError(nil))
}
