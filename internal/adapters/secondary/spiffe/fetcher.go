// Package spiffe adapts the SPIFFE Workload API and go-spiffe's X.509 primitives
// to the entry registration core.
package spiffe

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/spiffe/go-spiffe/v2/workloadapi"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/sufield/entryadmin/internal/core/domain"
	"github.com/sufield/entryadmin/internal/core/errors"
	"github.com/sufield/entryadmin/internal/core/ports"
)

// DefaultAgentAddress is the Workload API endpoint used when none is configured.
const DefaultAgentAddress = "unix:/tmp/agent.sock"

// DefaultFetchTimeout bounds one identity fetch.
const DefaultFetchTimeout = 10 * time.Second

var _ ports.IdentityFetcher = (*WorkloadFetcher)(nil)

// X509ContextClient is the subset of the Workload API client the fetcher needs.
type X509ContextClient interface {
	FetchX509Context(ctx context.Context) (*workloadapi.X509Context, error)
	Close() error
}

// ClientFactory opens a Workload API client for addr.
type ClientFactory func(ctx context.Context, addr string) (X509ContextClient, error)

// WorkloadFetcher fetches the identity context from a SPIFFE Workload API agent.
// Each FetchContext call opens its own client and closes it before returning.
type WorkloadFetcher struct {
	addr      string
	timeout   time.Duration
	newClient ClientFactory
	logger    *slog.Logger
}

// WorkloadFetcherConfig provides configuration for the fetcher.
type WorkloadFetcherConfig struct {
	Address string
	Timeout time.Duration
	Logger  *slog.Logger
	// Factory replaces the go-spiffe client, mainly for tests.
	Factory ClientFactory
}

// NewWorkloadFetcher creates a fetcher. An empty address selects DefaultAgentAddress.
func NewWorkloadFetcher(config WorkloadFetcherConfig) *WorkloadFetcher {
	f := &WorkloadFetcher{
		addr:      config.Address,
		timeout:   config.Timeout,
		newClient: config.Factory,
		logger:    config.Logger,
	}
	if f.addr == "" {
		f.addr = DefaultAgentAddress
	}
	if f.timeout <= 0 {
		f.timeout = DefaultFetchTimeout
	}
	if f.newClient == nil {
		f.newClient = newWorkloadClient
	}
	if f.logger == nil {
		f.logger = slog.Default()
	}
	return f
}

func newWorkloadClient(ctx context.Context, addr string) (X509ContextClient, error) {
	return workloadapi.New(ctx, workloadapi.WithAddr(addr))
}

// Address returns the agent address the fetcher dials.
func (f *WorkloadFetcher) Address() string { return f.addr }

// FetchContext fetches the default X509-SVID and every trust bundle the agent holds.
func (f *WorkloadFetcher) FetchContext(ctx context.Context) (*domain.IdentityContext, error) {
	if err := workloadapi.ValidateAddress(f.addr); err != nil {
		return nil, errors.NewDomainError(errors.ErrAgentUnreachable,
			fmt.Errorf("invalid agent address %q: %w", f.addr, err))
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	f.logger.Debug("fetching X509 context", "agent_address", f.addr)

	client, err := f.newClient(ctx, f.addr)
	if err != nil {
		return nil, errors.NewDomainError(errors.ErrAgentUnreachable,
			fmt.Errorf("connect to agent at %q: %w", f.addr, err))
	}
	defer func() {
		if cerr := client.Close(); cerr != nil {
			f.logger.Debug("closing workload API client", "error", cerr)
		}
	}()

	x509Ctx, err := client.FetchX509Context(ctx)
	if err != nil {
		return nil, classifyFetchError(f.addr, err)
	}

	ic, err := toIdentityContext(x509Ctx)
	if err != nil {
		return nil, errors.NewDomainError(errors.ErrIdentityContext, err)
	}

	f.logger.Debug("X509 context fetched",
		"spiffe_id", ic.Leaf.ID().String(),
		"svids", len(x509Ctx.SVIDs),
		"bundles", ic.Bundles.Len())
	return ic, nil
}

// classifyFetchError separates "no agent answered" from "the agent answered
// but would not hand out a credential".
func classifyFetchError(addr string, err error) error {
	wrapped := fmt.Errorf("fetch X509 context from %q: %w", addr, err)

	if st, ok := status.FromError(err); ok {
		switch st.Code() {
		case codes.Unavailable, codes.DeadlineExceeded, codes.Canceled:
			return errors.NewDomainError(errors.ErrAgentUnreachable, wrapped)
		default:
			return errors.NewDomainError(errors.ErrIdentityContext, wrapped)
		}
	}

	var opErr *net.OpError
	switch {
	case stderrors.Is(err, context.DeadlineExceeded),
		stderrors.Is(err, context.Canceled),
		stderrors.As(err, &opErr):
		return errors.NewDomainError(errors.ErrAgentUnreachable, wrapped)
	default:
		return errors.NewDomainError(errors.ErrIdentityContext, wrapped)
	}
}

func toIdentityContext(x509Ctx *workloadapi.X509Context) (*domain.IdentityContext, error) {
	if x509Ctx == nil {
		return nil, fmt.Errorf("agent returned an empty X509 context")
	}
	if len(x509Ctx.SVIDs) == 0 || x509Ctx.SVIDs[0] == nil {
		return nil, fmt.Errorf("agent returned no X509-SVIDs")
	}
	svid := x509Ctx.SVIDs[0]

	leaf, err := domain.NewLeafCredential(svid.Certificates, svid.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("convert X509-SVID %q: %w", svid.ID, err)
	}

	var bundles []*domain.TrustBundle
	if x509Ctx.Bundles != nil {
		for _, b := range x509Ctx.Bundles.Bundles() {
			authorities := b.X509Authorities()
			if len(authorities) == 0 {
				continue
			}
			tb, err := domain.NewTrustBundle(domain.FromSpiffeTrustDomain(b.TrustDomain()), authorities)
			if err != nil {
				return nil, fmt.Errorf("convert bundle for %q: %w", b.TrustDomain(), err)
			}
			bundles = append(bundles, tb)
		}
	}

	return &domain.IdentityContext{
		Leaf:    leaf,
		Bundles: domain.NewTrustBundleSet(bundles...),
	}, nil
}
