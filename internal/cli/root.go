// Package cli implements the entryadmin command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/sufield/entryadmin/internal/adapters/secondary/entryapi"
	"github.com/sufield/entryadmin/internal/adapters/secondary/spiffe"
	"github.com/sufield/entryadmin/internal/buildinfo"
	"github.com/sufield/entryadmin/internal/config"
	"github.com/sufield/entryadmin/internal/core/ports"
)

// Runtime holds the process-level collaborators of the commands. Tests swap
// the factories to run commands without an agent or a server.
type Runtime struct {
	Stdout io.Writer
	Stderr io.Writer

	NewFetcher func(cfg *config.Config, logger *slog.Logger) ports.IdentityFetcher
	NewDialer  func(cfg *config.Config, policy spiffe.PeerPolicy, logger *slog.Logger) ports.RegistrarDialer
}

// DefaultRuntime wires the Workload API fetcher and the Entry API dialer.
func DefaultRuntime() Runtime {
	return Runtime{
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		NewFetcher: func(cfg *config.Config, logger *slog.Logger) ports.IdentityFetcher {
			return spiffe.NewWorkloadFetcher(spiffe.WorkloadFetcherConfig{
				Address: cfg.AgentAddress,
				Timeout: cfg.Timeout,
				Logger:  logger,
			})
		},
		NewDialer: func(cfg *config.Config, policy spiffe.PeerPolicy, logger *slog.Logger) ports.RegistrarDialer {
			return entryapi.NewDialer(entryapi.DialerConfig{
				Address:     cfg.ServerAddress,
				Policy:      policy,
				Logger:      logger,
				LogPayloads: cfg.LogPayloads,
			})
		},
	}
}

// NewRootCommand builds the command tree.
func NewRootCommand(rt Runtime) *cobra.Command {
	root := &cobra.Command{
		Use:   "entryadmin",
		Short: "Create SPIRE registration entries over a SPIFFE-authenticated channel",
		Long: `entryadmin creates registration entries on a SPIRE Server.

It obtains its own X509-SVID and trust bundles from the local SPIFFE Workload API,
authenticates to the server's Entry API with mutual TLS, and submits one entry.`,
		Version:       buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(rt.Stdout)
	root.SetErr(rt.Stderr)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	})

	root.PersistentFlags().StringP("config", "c", "", "Path to a YAML configuration file")
	root.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	root.PersistentFlags().String("log-format", "text", "Log format (text, json)")
	_ = root.MarkPersistentFlagFilename("config", "yaml", "yml")

	root.AddCommand(
		newCreateEntryCommand(rt),
		newVersionCommand(),
		newManCommand(),
	)
	return root
}

// Execute runs the command line and returns the process exit code.
func Execute(ctx context.Context, args []string) int {
	rt := DefaultRuntime()
	root := NewRootCommand(rt)
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintf(rt.Stderr, "Error: %s\n", RedactError(err))
	}
	return ExitCode(err)
}

// usageArgs marks positional-argument errors as usage errors.
func usageArgs(check cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := check(cmd, args); err != nil {
			return fmt.Errorf("%w: %v", ErrUsage, err)
		}
		return nil
	}
}
