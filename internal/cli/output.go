package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sufield/entryadmin/internal/config"
	"github.com/sufield/entryadmin/internal/core/domain"
)

// resultView is the machine-readable rendering of a registration result.
type resultView struct {
	Created bool                       `json:"created" yaml:"created"`
	Result  *domain.RegistrationResult `json:"result" yaml:"result"`
}

func writeResult(w io.Writer, format string, result *domain.RegistrationResult) error {
	switch format {
	case config.OutputJSON:
		return writeJSON(w, resultView{Created: result.Succeeded(), Result: result})
	case config.OutputYAML:
		return writeYAML(w, resultView{Created: result.Succeeded(), Result: result})
	case "", config.OutputText:
		return writeText(w, result)
	default:
		return fmt.Errorf("%w: unsupported output %q", ErrUsage, format)
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode JSON output: %w", err)
	}
	return nil
}

func writeYAML(w io.Writer, v interface{}) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode YAML output: %w", err)
	}
	return enc.Close()
}

func writeText(w io.Writer, result *domain.RegistrationResult) error {
	var b strings.Builder
	if result.Succeeded() {
		b.WriteString("Entry created\n")
	} else {
		fmt.Fprintf(&b, "Entry not created: %s (%d): %s\n", result.CodeName, result.Code, result.Message)
	}

	// AlreadyExists echoes the existing entry, so it is rendered for every status.
	if e := result.Entry; e != nil {
		field := func(name, value string) {
			if value != "" {
				fmt.Fprintf(&b, "  %-16s %s\n", name+":", value)
			}
		}
		field("Entry ID", e.ID)
		field("SPIFFE ID", e.SPIFFEID)
		field("Parent ID", e.ParentID)
		for _, s := range e.Selectors {
			field("Selector", s)
		}
		for _, d := range e.DNSNames {
			field("DNS name", d)
		}
		for _, td := range e.FederatesWith {
			field("Federates with", td)
		}
		if e.X509SVIDTTL > 0 {
			field("X509-SVID TTL", fmt.Sprintf("%ds", e.X509SVIDTTL))
		}
		if e.JWTSVIDTTL > 0 {
			field("JWT-SVID TTL", fmt.Sprintf("%ds", e.JWTSVIDTTL))
		}
		if e.ExpiresAt > 0 {
			field("Expires at", fmt.Sprintf("%d", e.ExpiresAt))
		}
		field("Hint", e.Hint)
		if e.Admin {
			field("Admin", "true")
		}
		if e.Downstream {
			field("Downstream", "true")
		}
		if e.StoreSVID {
			field("Store SVID", "true")
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}
