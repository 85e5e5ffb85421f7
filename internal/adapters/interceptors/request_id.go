package interceptors

import (
	"context"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

// MetadataKeyRequestID is the metadata key for request ID.
const MetadataKeyRequestID = "x-request-id"

// IDGen produces request IDs.
type IDGen func() string

type requestIDKey struct{}

// WithRequestID stores a request ID in ctx so outgoing calls reuse it.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// GetRequestID returns the request ID stored in ctx.
func GetRequestID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDKey{}).(string)
	return id, ok && id != ""
}

// RequestIDInterceptor attaches a request ID to every outgoing call so the
// control plane's logs can be correlated with ours.
type RequestIDInterceptor struct {
	gen IDGen
}

// NewRequestIDInterceptor creates the interceptor. A nil generator uses random UUIDs.
func NewRequestIDInterceptor(gen IDGen) *RequestIDInterceptor {
	if gen == nil {
		gen = uuid.NewString
	}
	return &RequestIDInterceptor{gen: gen}
}

// UnaryClientInterceptor returns a gRPC unary client interceptor that sets x-request-id.
func (r *RequestIDInterceptor) UnaryClientInterceptor() grpc.UnaryClientInterceptor {
	return func(
		ctx context.Context,
		method string,
		req, reply interface{},
		cc *grpc.ClientConn,
		invoker grpc.UnaryInvoker,
		opts ...grpc.CallOption,
	) error {
		ctx = r.ensure(ctx)
		return invoker(ctx, method, req, reply, cc, opts...)
	}
}

// ensure reuses an ID already in ctx or generates one, and mirrors it into outgoing metadata.
func (r *RequestIDInterceptor) ensure(ctx context.Context) context.Context {
	id, ok := GetRequestID(ctx)
	if !ok {
		id = r.gen()
		ctx = WithRequestID(ctx, id)
	}
	return metadata.AppendToOutgoingContext(ctx, MetadataKeyRequestID, id)
}
