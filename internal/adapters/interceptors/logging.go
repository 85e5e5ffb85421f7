// Package interceptors provides gRPC client interceptors for the registration channel.
package interceptors

import (
	"context"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"

	"github.com/sufield/entryadmin/internal/adapters/logging"
)

const (
	// Default thresholds for logging configuration.
	defaultSlowThreshold = 2 * time.Second
	debugSlowThreshold   = 500 * time.Millisecond
)

// LoggingConfig configures call logging.
type LoggingConfig struct {
	// Logger instance (will use secure logger with redaction)
	Logger *slog.Logger

	// LogPayloads includes request and response payloads at debug level
	LogPayloads bool

	// SlowRequestThreshold logs calls that take longer than this duration at warn level
	SlowRequestThreshold time.Duration
}

// LoggingInterceptor logs outgoing gRPC calls.
type LoggingInterceptor struct {
	config *LoggingConfig
	logger *slog.Logger
}

// NewLoggingInterceptor creates a new logging interceptor with secure redaction.
func NewLoggingInterceptor(config *LoggingConfig) *LoggingInterceptor {
	if config == nil {
		config = DefaultLoggingConfig()
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.New(logging.NewRedactorHandler(slog.Default().Handler()))
	}
	if config.SlowRequestThreshold == 0 {
		config.SlowRequestThreshold = defaultSlowThreshold
	}

	return &LoggingInterceptor{
		config: config,
		logger: logger,
	}
}

// UnaryClientInterceptor returns a gRPC unary client interceptor for logging.
func (l *LoggingInterceptor) UnaryClientInterceptor() grpc.UnaryClientInterceptor {
	return func(
		ctx context.Context,
		method string,
		req, reply interface{},
		cc *grpc.ClientConn,
		invoker grpc.UnaryInvoker,
		opts ...grpc.CallOption,
	) error {
		start := time.Now()
		entry := l.logger.With("method", method, "target", cc.Target())
		if requestID, ok := GetRequestID(ctx); ok {
			entry = entry.With("request_id", requestID)
		}

		if l.config.LogPayloads {
			entry.Debug("gRPC request sent", "request_payload", renderPayload(req))
		}

		err := invoker(ctx, method, req, reply, cc, opts...)
		duration := time.Since(start)

		level := slog.LevelInfo
		if err != nil {
			level = slog.LevelError
		} else if duration > l.config.SlowRequestThreshold {
			level = slog.LevelWarn
		}

		st := status.Convert(err)
		completed := entry.With(
			"duration_ms", duration.Milliseconds(),
			"code", st.Code().String(),
		)
		if err != nil {
			completed = completed.With("error_message", st.Message())
		} else if l.config.LogPayloads {
			completed.Debug("gRPC response received", "response_payload", renderPayload(reply))
		}
		completed.Log(ctx, level, "gRPC call completed")

		return err
	}
}

// renderPayload formats protobuf messages as JSON for logs.
func renderPayload(v interface{}) string {
	msg, ok := v.(proto.Message)
	if !ok {
		return "<non-proto payload>"
	}
	b, err := protojson.MarshalOptions{UseProtoNames: true}.Marshal(msg)
	if err != nil {
		return "<unrenderable payload>"
	}
	return string(b)
}

// DefaultLoggingConfig returns a default logging configuration.
func DefaultLoggingConfig() *LoggingConfig {
	return &LoggingConfig{
		LogPayloads:          false,
		SlowRequestThreshold: defaultSlowThreshold,
	}
}

// NewDebugLoggingConfig creates a logging config suitable for development/debugging.
func NewDebugLoggingConfig() *LoggingConfig {
	config := DefaultLoggingConfig()
	config.LogPayloads = true
	config.SlowRequestThreshold = debugSlowThreshold
	return config
}
