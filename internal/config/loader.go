package config

import (
	stderrors "errors"
	"fmt"
	"net"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/spiffe/go-spiffe/v2/workloadapi"

	"github.com/sufield/entryadmin/internal/core/domain"
	"github.com/sufield/entryadmin/internal/core/errors"
)

// EnvPrefix prefixes every environment variable, e.g. ENTRYADMIN_SERVER_ADDRESS.
const EnvPrefix = "ENTRYADMIN"

// FlagKeys maps command-line flag names to configuration keys.
var FlagKeys = map[string]string{
	"server-address":      "server_address",
	"agent-address":       "agent_address",
	"server-id":           "server_ids",
	"server-trust-domain": "server_trust_domain",
	"timeout":             "timeout",
	"output":              "output",
	"strict":              "strict",
	"log-payloads":        "log_payloads",
	"log-level":           "log.level",
	"log-format":          "log.format",
	"pushgateway":         "metrics.pushgateway",
	"push-job":            "metrics.job",
	"spiffe-id":           "entry.spiffe_id",
	"parent-id":           "entry.parent_id",
	"selector":            "entry.selectors",
	"dns":                 "entry.dns_names",
	"federates-with":      "entry.federates_with",
	"admin":               "entry.admin",
	"downstream":          "entry.downstream",
	"ttl":                 "entry.ttl",
	"jwt-ttl":             "entry.jwt_ttl",
	"entry-expiry":        "entry.entry_expiry",
	"hint":                "entry.hint",
	"store-svid":          "entry.store_svid",
}

// Loader layers flags, environment, an optional file and defaults with viper.
type Loader struct {
	v         *viper.Viper
	validator *domain.Validator
}

// NewLoader creates a loader with defaults and environment binding in place.
func NewLoader() *Loader {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	setDefaults(v, Default())

	val := domain.NewValidator()
	_ = val.RegisterValidation("agent_addr", validateAgentAddress)
	_ = val.RegisterValidation("server_addr", validateServerAddress)

	return &Loader{v: v, validator: val}
}

// setDefaults registers every key so that AutomaticEnv can see it on Unmarshal.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("server_address", d.ServerAddress)
	v.SetDefault("agent_address", d.AgentAddress)
	v.SetDefault("server_ids", d.ServerIDs)
	v.SetDefault("server_trust_domain", d.ServerTrustDomain)
	v.SetDefault("timeout", d.Timeout)
	v.SetDefault("output", d.Output)
	v.SetDefault("strict", d.Strict)
	v.SetDefault("log_payloads", d.LogPayloads)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("metrics.pushgateway", d.Metrics.Pushgateway)
	v.SetDefault("metrics.job", d.Metrics.Job)

	e := d.Entry
	v.SetDefault("entry.spiffe_id", e.SPIFFEID)
	v.SetDefault("entry.parent_id", e.ParentID)
	v.SetDefault("entry.selectors", e.Selectors)
	v.SetDefault("entry.dns_names", e.DNSNames)
	v.SetDefault("entry.federates_with", e.FederatesWith)
	v.SetDefault("entry.admin", e.Admin)
	v.SetDefault("entry.downstream", e.Downstream)
	v.SetDefault("entry.ttl", e.X509SVIDTTL)
	v.SetDefault("entry.jwt_ttl", e.JWTSVIDTTL)
	v.SetDefault("entry.entry_expiry", e.ExpiresAt)
	v.SetDefault("entry.hint", e.Hint)
	v.SetDefault("entry.store_svid", e.StoreSVID)
}

// BindFlags binds every flag in flags that has a configuration key.
// A flag only overrides lower layers when it was set explicitly.
func (l *Loader) BindFlags(flags *pflag.FlagSet) error {
	var errs []error
	flags.VisitAll(func(f *pflag.Flag) {
		key, ok := FlagKeys[f.Name]
		if !ok {
			return
		}
		if err := l.v.BindPFlag(key, f); err != nil {
			errs = append(errs, fmt.Errorf("bind flag --%s: %w", f.Name, err))
		}
	})
	return stderrors.Join(errs...)
}

// Load reads path when it is non-empty, decodes and validates the result.
func (l *Loader) Load(path string) (*Config, error) {
	if path != "" {
		l.v.SetConfigFile(path)
		l.v.SetConfigType("yaml")
		if err := l.v.ReadInConfig(); err != nil {
			return nil, errors.NewDomainError(errors.ErrInvalidConfig,
				fmt.Errorf("read config file %q: %w", path, err))
		}
	}

	cfg := &Config{}
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
		trimSliceHook(),
	))
	if err := l.v.Unmarshal(cfg, hook); err != nil {
		return nil, errors.NewDomainError(errors.ErrInvalidConfig, fmt.Errorf("decode config: %w", err))
	}

	if err := l.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every field and reports all failures together.
func (l *Loader) Validate(cfg *Config) error {
	err := l.validator.Validate(cfg)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !stderrors.As(err, &fieldErrs) {
		return errors.NewDomainError(errors.ErrInvalidConfig, err)
	}
	errs := make([]error, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		errs = append(errs, &errors.ValidationError{
			Field:   configKey(fe.Namespace()),
			Value:   fe.Value(),
			Message: constraintMessage(fe),
		})
	}
	return errors.NewConfigValidationError(errs...)
}

// configKey turns "Config.log.level" into "log.level".
func configKey(namespace string) string {
	if i := strings.Index(namespace, "."); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}

func constraintMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "agent_addr":
		return "must be a unix:// or tcp:// Workload API address"
	case "server_addr":
		return "must be host:port"
	}
	if fe.Param() != "" {
		return fmt.Sprintf("failed %q constraint (%s)", fe.Tag(), fe.Param())
	}
	return fmt.Sprintf("failed %q constraint", fe.Tag())
}

// trimSliceHook drops blank items left by "a, b," style environment values.
func trimSliceHook() mapstructure.DecodeHookFuncType {
	return func(_ reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf([]string{}) {
			return data, nil
		}
		items, ok := data.([]string)
		if !ok {
			return data, nil
		}
		out := make([]string, 0, len(items))
		for _, item := range items {
			if s := strings.TrimSpace(item); s != "" {
				out = append(out, s)
			}
		}
		return out, nil
	}
}

func validateAgentAddress(fl validator.FieldLevel) bool {
	return workloadapi.ValidateAddress(fl.Field().String()) == nil
}

// validateServerAddress accepts host:port where host is a DNS name or an IP literal.
func validateServerAddress(fl validator.FieldLevel) bool {
	host, port, err := net.SplitHostPort(fl.Field().String())
	if err != nil || host == "" {
		return false
	}
	if p, err := net.LookupPort("tcp", port); err != nil || p == 0 {
		return false
	}
	if net.ParseIP(host) != nil {
		return true
	}
	return hostnames.Var(host, "hostname_rfc1123") == nil
}

var hostnames = validator.New()
