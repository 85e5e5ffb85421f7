// Package entryadmin creates SPIRE registration entries from Go programs.
//
// A Client fetches the calling workload's X509-SVID from the SPIFFE Workload
// API, authenticates the SPIRE Server by its SPIFFE ID over mutual TLS and
// submits one entry per CreateEntry call:
//
//	client, err := entryadmin.New(
//		entryadmin.WithServerAddress("spire-server:8081"),
//		entryadmin.WithServerIDs("spiffe://example.org/spire/server"),
//	)
//	if err != nil {
//		return err
//	}
//	result, err := client.CreateEntry(ctx, entryadmin.Entry{
//		SPIFFEID:    "spiffe://example.org/workload",
//		Selectors:   []string{"unix:uid:1001"},
//		X509SVIDTTL: 3600,
//	})
//
// A result whose Succeeded method reports false means the server answered and
// declined the entry; it is not returned as an error.
package entryadmin

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/grpc"

	"github.com/sufield/entryadmin/internal/adapters/secondary/entryapi"
	"github.com/sufield/entryadmin/internal/adapters/secondary/spiffe"
	"github.com/sufield/entryadmin/internal/core/domain"
	"github.com/sufield/entryadmin/internal/core/ports"
	"github.com/sufield/entryadmin/internal/core/services"
)

// Entry is the operator-supplied description of one registration entry.
type Entry = domain.EntryInput

// Result is the server's answer for one entry.
type Result = domain.RegistrationResult

// RegisteredEntry is the server's echo of a created entry.
type RegisteredEntry = domain.RegisteredEntry

// MetricsReporter receives run metrics. The Prometheus reporter in this module implements it.
type MetricsReporter = ports.MetricsReporter

// Client creates registration entries. It holds no connection between calls;
// each CreateEntry fetches a fresh identity and opens its own session.
type Client struct {
	service *services.RegistrationService
	timeout time.Duration
}

// New validates the options and builds a client. Nothing is contacted.
func New(opts ...Option) (*Client, error) {
	o := &clientOpts{
		agentAddress:  spiffe.DefaultAgentAddress,
		serverAddress: entryapi.DefaultServerAddress,
		timeout:       spiffe.DefaultFetchTimeout,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.timeout <= 0 {
		return nil, fmt.Errorf("%w: timeout must be positive", ErrConfigInvalid)
	}

	policy, err := spiffe.NewPeerPolicy(o.serverIDs, o.serverTrustDomain)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigInvalid, err)
	}

	fetcher := spiffe.NewWorkloadFetcher(spiffe.WorkloadFetcherConfig{
		Address: o.agentAddress,
		Timeout: o.timeout,
		Logger:  o.logger,
	})
	dialer := entryapi.NewDialer(entryapi.DialerConfig{
		Address:     o.serverAddress,
		Policy:      policy,
		Logger:      o.logger,
		DialOptions: o.dialOptions,
	})

	serviceOpts := []services.Option{services.WithLogger(o.logger)}
	if o.metrics != nil {
		serviceOpts = append(serviceOpts, services.WithMetrics(o.metrics))
	}
	svc, err := services.NewRegistrationService(fetcher, spiffe.NewCredentialProvider(), dialer, serviceOpts...)
	if err != nil {
		return nil, err
	}
	return &Client{service: svc, timeout: o.timeout}, nil
}

// CreateEntry validates entry, bootstraps the authenticated session and
// submits the entry. The client timeout bounds the whole call unless ctx
// carries an earlier deadline. Nothing is retried.
func (c *Client) CreateEntry(ctx context.Context, entry Entry) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return c.service.Register(ctx, entry)
}

// Option configures a Client.
type Option func(*clientOpts)

type clientOpts struct {
	agentAddress      string
	serverAddress     string
	serverIDs         []string
	serverTrustDomain string
	timeout           time.Duration
	logger            *slog.Logger
	metrics           MetricsReporter
	dialOptions       []grpc.DialOption
}

// WithAgentAddress sets the Workload API address, e.g. "unix:///run/spire/agent.sock".
func WithAgentAddress(addr string) Option {
	return func(o *clientOpts) { o.agentAddress = addr }
}

// WithServerAddress sets the SPIRE Server Entry API address as host:port.
func WithServerAddress(addr string) Option {
	return func(o *clientOpts) { o.serverAddress = addr }
}

// WithServerIDs restricts the server to the given SPIFFE IDs.
func WithServerIDs(ids ...string) Option {
	return func(o *clientOpts) { o.serverIDs = append(o.serverIDs, ids...) }
}

// WithServerTrustDomain accepts any server in the trust domain.
// Without it or WithServerIDs, the client's own trust domain is required.
func WithServerTrustDomain(td string) Option {
	return func(o *clientOpts) { o.serverTrustDomain = td }
}

// WithTimeout bounds each CreateEntry call.
func WithTimeout(d time.Duration) Option {
	return func(o *clientOpts) { o.timeout = d }
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *clientOpts) { o.logger = l }
}

// WithMetrics reports run metrics to m.
func WithMetrics(m MetricsReporter) Option {
	return func(o *clientOpts) { o.metrics = m }
}

// WithDialOptions appends gRPC dial options, for example a custom dialer.
func WithDialOptions(opts ...grpc.DialOption) Option {
	return func(o *clientOpts) { o.dialOptions = append(o.dialOptions, opts...) }
}
