package ports

import (
	"context"
	"time"
)

// MetricsReporter records the outcome of registration runs.
type MetricsReporter interface {
	// RecordFetch records an identity fetch and its latency.
	RecordFetch(success bool, duration time.Duration)
	// RecordLeafExpiry records the expiry time of the leaf credential in use.
	RecordLeafExpiry(notAfter time.Time)
	// RecordRPC records one registration call and its latency.
	RecordRPC(code string, duration time.Duration)
	// RecordOutcome records the final outcome of a run, keyed by error category or status.
	RecordOutcome(outcome string)
	// RecordBootstrapFailure records a failure before the request was sent.
	RecordBootstrapFailure(kind string)
}

// MetricsPusher publishes collected metrics for short-lived processes.
type MetricsPusher interface {
	Push(ctx context.Context) error
}
