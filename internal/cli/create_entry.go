package cli

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/sufield/entryadmin/internal/adapters/logging"
	"github.com/sufield/entryadmin/internal/adapters/metrics"
	"github.com/sufield/entryadmin/internal/adapters/secondary/entryapi"
	"github.com/sufield/entryadmin/internal/adapters/secondary/spiffe"
	"github.com/sufield/entryadmin/internal/config"
	"github.com/sufield/entryadmin/internal/core/services"
)

const pushTimeout = 5 * time.Second

func newCreateEntryCommand(rt Runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "create-entry",
		Aliases: []string{"create"},
		Short:   "Create one registration entry on the SPIRE Server",
		Long: `Create one registration entry on the SPIRE Server.

The command fetches this workload's X509-SVID from the SPIFFE Workload API,
authenticates the server by its SPIFFE ID and submits the entry in a single
BatchCreateEntry call. Nothing is retried.

Examples:
  entryadmin create-entry --spiffe-id spiffe://example.org/workload --selector unix:uid:1001 --ttl 3600
  entryadmin create-entry --config entry.yaml --output json
  ENTRYADMIN_SERVER_ADDRESS=spire-server:8081 entryadmin create --spiffe-id spiffe://example.org/db \
      --parent-id spiffe://example.org/spire/agent/k8s_psat/prod/node1 \
      --selector k8s:ns:prod --selector k8s:sa:db`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCreateEntry(cmd, rt)
		},
	}

	f := cmd.Flags()
	f.String("spiffe-id", "", "SPIFFE ID of the entry")
	f.String("parent-id", "", "SPIFFE ID of the parent (omit to let the server decide)")
	f.StringArray("selector", nil, "Selector as type:value (repeatable)")
	f.StringArray("dns", nil, "DNS name for issued SVIDs (repeatable)")
	f.StringArray("federates-with", nil, "Trust domain to federate with (repeatable)")
	f.Bool("admin", false, "Grant admin access to the registration API")
	f.Bool("downstream", false, "Mark the entry as a downstream SPIRE server")
	f.Int32("ttl", 0, "X509-SVID TTL in seconds (0 uses the server default)")
	f.Int32("jwt-ttl", 0, "JWT-SVID TTL in seconds (0 uses the server default)")
	f.Int64("entry-expiry", 0, "Entry expiry in seconds since the epoch (0 never expires)")
	f.String("hint", "", "Workload hint")
	f.Bool("store-svid", false, "Store issued SVIDs through an SVIDStore plugin")

	f.String("server-address", entryapi.DefaultServerAddress, "SPIRE Server Entry API address (host:port)")
	f.String("agent-address", spiffe.DefaultAgentAddress, "SPIFFE Workload API address")
	f.StringArray("server-id", nil, "Accepted server SPIFFE ID (repeatable)")
	f.String("server-trust-domain", "", "Accept any server in this trust domain")
	f.Duration("timeout", spiffe.DefaultFetchTimeout, "Deadline for the whole run")
	f.StringP("output", "o", config.OutputText, "Result format (text, json, yaml)")
	f.Bool("strict", false, "Exit non-zero when the server reports a non-OK status")
	f.Bool("log-payloads", false, "Log request and response payloads at debug level")
	f.String("pushgateway", "", "Prometheus Pushgateway URL to push run metrics to")
	f.String("push-job", metrics.DefaultJob, "Pushgateway job name")

	cmd.MarkFlagsMutuallyExclusive("server-id", "server-trust-domain")
	_ = cmd.RegisterFlagCompletionFunc("selector", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return []string{
			"unix:uid:\tUser ID",
			"unix:gid:\tGroup ID",
			"unix:path:\tExecutable path",
			"k8s:ns:\tKubernetes namespace",
			"k8s:sa:\tKubernetes service account",
		}, cobra.ShellCompDirectiveNoFileComp | cobra.ShellCompDirectiveNoSpace
	})
	_ = cmd.RegisterFlagCompletionFunc("output", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return []string{config.OutputText, config.OutputJSON, config.OutputYAML}, cobra.ShellCompDirectiveNoFileComp
	})
	return cmd
}

func runCreateEntry(cmd *cobra.Command, rt Runtime) error {
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}

	loader := config.NewLoader()
	if err := loader.BindFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}
	cfg, err := loader.Load(configPath)
	if err != nil {
		return err
	}

	logger, err := logging.NewLogger(rt.Stderr, cfg.Log.Format, cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}

	policy, err := spiffe.NewPeerPolicy(cfg.ServerIDs, cfg.ServerTrustDomain)
	if err != nil {
		return err
	}

	m := metrics.NewPrometheusMetrics(metrics.WithPushgateway(cfg.Metrics.Pushgateway, cfg.Metrics.Job))
	defer pushMetrics(m, logger)

	svc, err := services.NewRegistrationService(
		rt.NewFetcher(cfg, logger),
		spiffe.NewCredentialProvider(),
		rt.NewDialer(cfg, policy, logger),
		services.WithMetrics(m),
		services.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Timeout)
	defer cancel()

	logger.Debug("creating entry",
		"spiffe_id", cfg.Entry.SPIFFEID,
		"server_address", cfg.ServerAddress,
		"agent_address", cfg.AgentAddress)

	result, err := svc.Register(ctx, cfg.Entry.Input())
	if err != nil {
		return err
	}

	if err := writeResult(cmd.OutOrStdout(), cfg.Output, result); err != nil {
		return err
	}
	if cfg.Strict && !result.Succeeded() {
		return fmt.Errorf("%w: %s (%d): %s", ErrRejected, result.CodeName, result.Code, result.Message)
	}
	return nil
}

// pushMetrics sends the run's metrics when a Pushgateway is configured.
// A failed push is logged and never changes the exit code.
func pushMetrics(m *metrics.PrometheusMetrics, logger *slog.Logger) {
	if !m.PushEnabled() {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), pushTimeout)
	defer cancel()
	if err := m.Push(ctx); err != nil {
		logger.Warn("pushing metrics failed", "error", err)
		return
	}
	logger.Debug("metrics pushed")
}
