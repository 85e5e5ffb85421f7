package entryapi

import (
	"context"
	"fmt"
	"log/slog"

	entryv1 "github.com/spiffe/spire-api-sdk/proto/spire/api/server/entry/v1"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/sufield/entryadmin/internal/core/domain"
	"github.com/sufield/entryadmin/internal/core/errors"
	"github.com/sufield/entryadmin/internal/core/ports"
)

var _ ports.EntryRegistrar = (*Client)(nil)

// PeerErrorSource reports why the last TLS handshake rejected the server.
type PeerErrorSource interface {
	PeerError() error
}

// Client submits entries over an established connection. It never retries.
type Client struct {
	conn   grpc.ClientConnInterface
	entry  entryv1.EntryClient
	peer   PeerErrorSource
	closer func() error
	logger *slog.Logger
}

// NewClient wraps conn. peer may be nil when the connection is not built by a SessionBuilder.
func NewClient(conn grpc.ClientConnInterface, peer PeerErrorSource, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{
		conn:   conn,
		entry:  entryv1.NewEntryClient(conn),
		peer:   peer,
		logger: logger,
	}
	if cc, ok := conn.(interface{ Close() error }); ok {
		c.closer = cc.Close
	}
	return c
}

// CreateEntry sends def in a single BatchCreateEntry call.
func (c *Client) CreateEntry(ctx context.Context, def *domain.EntryDefinition) (*domain.RegistrationResult, error) {
	req := BuildBatchCreateRequest(def)
	// Payloads are logged by the interceptor, and only when enabled there.
	c.logger.DebugContext(ctx, "sending BatchCreateEntry",
		"spiffe_id", def.ID().String(),
		"selectors", len(def.Selectors()))

	resp, err := c.entry.BatchCreateEntry(ctx, req)
	if err != nil {
		return nil, c.callError(err)
	}

	results := resp.GetResults()
	if len(results) != 1 {
		return nil, errors.NewDomainError(errors.ErrProtocolViolation,
			fmt.Errorf("expected exactly one result for one entry, got %d", len(results)))
	}
	result := results[0]
	if result.GetStatus() == nil {
		return nil, errors.NewDomainError(errors.ErrProtocolViolation,
			fmt.Errorf("result carries no status"))
	}

	st := result.GetStatus()
	return &domain.RegistrationResult{
		Code:     st.GetCode(),
		CodeName: codes.Code(uint32(st.GetCode())).String(),
		Message:  st.GetMessage(),
		Entry:    fromProtoEntry(result.GetEntry()),
	}, nil
}

// callError prefers the handshake's own diagnosis over the opaque transport error.
func (c *Client) callError(err error) error {
	if c.peer != nil {
		if peerErr := c.peer.PeerError(); peerErr != nil {
			return peerErr
		}
	}
	st := status.Convert(err)
	return errors.NewDomainError(errors.ErrTransportFailure,
		fmt.Errorf("BatchCreateEntry failed with %s: %s", st.Code(), st.Message()))
}

// Close closes the underlying connection when the client owns one.
func (c *Client) Close() error {
	if c.closer == nil {
		return nil
	}
	return c.closer()
}
