// Package config loads entryadmin settings from flags, ENTRYADMIN_* environment
// variables, an optional YAML file and built-in defaults, in that order of precedence.
package config

import (
	"time"

	"github.com/sufield/entryadmin/internal/adapters/logging"
	"github.com/sufield/entryadmin/internal/adapters/metrics"
	"github.com/sufield/entryadmin/internal/adapters/secondary/entryapi"
	"github.com/sufield/entryadmin/internal/adapters/secondary/spiffe"
	"github.com/sufield/entryadmin/internal/core/domain"
)

// Output formats for the registration result.
const (
	OutputText = "text"
	OutputJSON = "json"
	OutputYAML = "yaml"
)

// Config is the complete runtime configuration for one invocation.
type Config struct {
	ServerAddress     string        `mapstructure:"server_address" yaml:"server_address" validate:"required,server_addr"`
	AgentAddress      string        `mapstructure:"agent_address" yaml:"agent_address" validate:"required,agent_addr"`
	ServerIDs         []string      `mapstructure:"server_ids" yaml:"server_ids" validate:"dive,spiffe_id"`
	ServerTrustDomain string        `mapstructure:"server_trust_domain" yaml:"server_trust_domain" validate:"omitempty,trust_domain"`
	Timeout           time.Duration `mapstructure:"timeout" yaml:"timeout" validate:"gt=0"`
	Output            string        `mapstructure:"output" yaml:"output" validate:"oneof=text json yaml"`
	Strict            bool          `mapstructure:"strict" yaml:"strict"`
	LogPayloads       bool          `mapstructure:"log_payloads" yaml:"log_payloads"`

	Log     LogConfig     `mapstructure:"log" yaml:"log"`
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
	Entry   EntryConfig   `mapstructure:"entry" yaml:"entry"`
}

// LogConfig selects the stderr log handler.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" yaml:"format" validate:"oneof=text json"`
}

// MetricsConfig controls the end-of-run Pushgateway push. An empty URL disables it.
type MetricsConfig struct {
	Pushgateway string `mapstructure:"pushgateway" yaml:"pushgateway" validate:"omitempty,url"`
	Job         string `mapstructure:"job" yaml:"job" validate:"required_with=Pushgateway"`
}

// EntryConfig holds the raw entry fields. They are validated by the domain,
// not here, so that entry errors keep their own error kinds.
type EntryConfig struct {
	SPIFFEID      string   `mapstructure:"spiffe_id" yaml:"spiffe_id"`
	ParentID      string   `mapstructure:"parent_id" yaml:"parent_id"`
	Selectors     []string `mapstructure:"selectors" yaml:"selectors"`
	DNSNames      []string `mapstructure:"dns_names" yaml:"dns_names"`
	FederatesWith []string `mapstructure:"federates_with" yaml:"federates_with"`
	Admin         bool     `mapstructure:"admin" yaml:"admin"`
	Downstream    bool     `mapstructure:"downstream" yaml:"downstream"`
	X509SVIDTTL   int32    `mapstructure:"ttl" yaml:"ttl"`
	JWTSVIDTTL    int32    `mapstructure:"jwt_ttl" yaml:"jwt_ttl"`
	ExpiresAt     int64    `mapstructure:"entry_expiry" yaml:"entry_expiry"`
	Hint          string   `mapstructure:"hint" yaml:"hint"`
	StoreSVID     bool     `mapstructure:"store_svid" yaml:"store_svid"`
}

// Input converts the raw entry fields for domain validation.
func (e EntryConfig) Input() domain.EntryInput {
	return domain.EntryInput{
		SPIFFEID:      e.SPIFFEID,
		ParentID:      e.ParentID,
		Selectors:     append([]string(nil), e.Selectors...),
		DNSNames:      append([]string(nil), e.DNSNames...),
		FederatesWith: append([]string(nil), e.FederatesWith...),
		Admin:         e.Admin,
		Downstream:    e.Downstream,
		X509SVIDTTL:   e.X509SVIDTTL,
		JWTSVIDTTL:    e.JWTSVIDTTL,
		ExpiresAt:     e.ExpiresAt,
		Hint:          e.Hint,
		StoreSVID:     e.StoreSVID,
	}
}

// Default returns the configuration used when nothing else is set.
func Default() *Config {
	return &Config{
		ServerAddress: entryapi.DefaultServerAddress,
		AgentAddress:  spiffe.DefaultAgentAddress,
		Timeout:       spiffe.DefaultFetchTimeout,
		Output:        OutputText,
		Log: LogConfig{
			Level:  "info",
			Format: logging.FormatText,
		},
		Metrics: MetricsConfig{
			Job: metrics.DefaultJob,
		},
	}
}
