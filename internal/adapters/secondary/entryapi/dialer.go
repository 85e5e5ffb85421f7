package entryapi

import (
	"context"
	"fmt"
	"log/slog"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"

	"github.com/sufield/entryadmin/internal/adapters/interceptors"
	"github.com/sufield/entryadmin/internal/adapters/secondary/spiffe"
	"github.com/sufield/entryadmin/internal/core/errors"
	"github.com/sufield/entryadmin/internal/core/ports"
)

// DefaultServerAddress is the control plane endpoint used when none is configured.
const DefaultServerAddress = "127.0.0.1:8081"

var _ ports.RegistrarDialer = (*Dialer)(nil)

// DialerConfig configures the Entry API dialer.
type DialerConfig struct {
	Address string
	Policy  spiffe.PeerPolicy
	Logger  *slog.Logger
	// LogPayloads logs request and response bodies at debug level.
	LogPayloads bool
	// DialOptions are appended after the transport options, mainly for tests.
	DialOptions []grpc.DialOption
}

// Dialer opens mutually authenticated Entry API clients.
type Dialer struct {
	config DialerConfig
	logger *slog.Logger
}

// NewDialer creates a dialer. An empty address selects DefaultServerAddress.
func NewDialer(config DialerConfig) *Dialer {
	if config.Address == "" {
		config.Address = DefaultServerAddress
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Dialer{config: config, logger: logger}
}

// Dial builds the TLS session from creds and returns a client. No bytes are
// sent until the first call; the handshake happens then.
func (d *Dialer) Dial(_ context.Context, creds ports.CredentialProvider) (ports.EntryRegistrar, error) {
	session := spiffe.NewSessionBuilder(creds, d.config.Policy, d.logger)
	tlsConfig, err := session.ClientTLSConfig()
	if err != nil {
		return nil, err
	}

	logCfg := interceptors.DefaultLoggingConfig()
	if d.config.LogPayloads {
		logCfg = interceptors.NewDebugLoggingConfig()
	}
	logCfg.Logger = d.logger

	opts := []grpc.DialOption{
		grpc.WithTransportCredentials(credentials.NewTLS(tlsConfig)),
		grpc.WithChainUnaryInterceptor(
			interceptors.NewRequestIDInterceptor(nil).UnaryClientInterceptor(),
			interceptors.NewLoggingInterceptor(logCfg).UnaryClientInterceptor(),
		),
	}
	opts = append(opts, d.config.DialOptions...)

	conn, err := grpc.NewClient(d.config.Address, opts...)
	if err != nil {
		return nil, errors.NewDomainError(errors.ErrTransportFailure,
			fmt.Errorf("create client for %q: %w", d.config.Address, err))
	}

	d.logger.Debug("entry API client created", "server_address", d.config.Address)
	return NewClient(conn, session, d.logger), nil
}
