package services

import (
	"time"

	"github.com/sufield/entryadmin/internal/core/ports"
)

var _ ports.MetricsReporter = NoOpMetrics{}

// NoOpMetrics implements MetricsReporter with no-op methods for when metrics are disabled
type NoOpMetrics struct{}

// RecordFetch no-op implementation
func (NoOpMetrics) RecordFetch(bool, time.Duration) {}

// RecordLeafExpiry no-op implementation
func (NoOpMetrics) RecordLeafExpiry(time.Time) {}

// RecordRPC no-op implementation
func (NoOpMetrics) RecordRPC(string, time.Duration) {}

// RecordOutcome no-op implementation
func (NoOpMetrics) RecordOutcome(string) {}

// RecordBootstrapFailure no-op implementation
func (NoOpMetrics) RecordBootstrapFailure(string) {}
