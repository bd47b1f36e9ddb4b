package config

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"
)

const defaultRestrictedTimeoutSeconds = 3600

// SecurityConfig groups the request-pipeline security policies.
type SecurityConfig struct {
	// RestrictedBackends are login backends whose sessions expire after RestrictedTimeout
	// counted from the user's last login.
	RestrictedBackends []string `env:"RESTRICTED_AUTHENTICATION_BACKENDS" envSeparator:","`

	// RestrictedTimeoutSeconds is the restricted session lifetime in whole seconds.
	RestrictedTimeoutSeconds int `env:"RESTRICTED_AUTHENTICATION_TIMEOUT" envDefault:"3600"`

	// CSP is the CONTENT_SECURITY_POLICY setting.
	CSP CSPConfig `envPrefix:"CSP_"`
}

// Sanitize trims backend names and clamps the timeout.
func (s *SecurityConfig) Sanitize() {
	backends := make([]string, 0, len(s.RestrictedBackends))
	for _, b := range s.RestrictedBackends {
		if b = strings.TrimSpace(b); b != "" {
			backends = append(backends, b)
		}
	}
	s.RestrictedBackends = backends

	if s.RestrictedTimeoutSeconds < 0 {
		s.RestrictedTimeoutSeconds = defaultRestrictedTimeoutSeconds
	}
	s.CSP.Policy = strings.TrimSpace(s.CSP.Policy)
}

// RestrictedTimeout returns the restricted session lifetime.
func (s *SecurityConfig) RestrictedTimeout() time.Duration {
	return time.Duration(s.RestrictedTimeoutSeconds) * time.Second
}

// IsRestricted reports whether sessions from backend are subject to forced expiry.
func (s *SecurityConfig) IsRestricted(backend string) bool {
	return slices.Contains(s.RestrictedBackends, backend)
}

// CSPConfig describes the Content-Security-Policy headers added to every response.
// An empty Policy means the setting is absent.
type CSPConfig struct {
	Policy       string       `env:"POLICY"`
	ReportOnly   bool         `env:"REPORT_ONLY"   envDefault:"false"`
	ReportGroups ReportGroups `env:"REPORT_GROUPS"`
}

// Present reports whether a policy is configured.
func (c *CSPConfig) Present() bool {
	return c != nil && c.Policy != ""
}

// ReportGroups maps a reporting group name to its Report-To descriptor.
type ReportGroups map[string]any

// UnmarshalText implements encoding.TextUnmarshaler; the value is a JSON object.
func (g *ReportGroups) UnmarshalText(text []byte) error {
	if strings.TrimSpace(string(text)) == "" {
		*g = nil
		return nil
	}
	var groups map[string]any
	if err := json.Unmarshal(text, &groups); err != nil {
		return fmt.Errorf("invalid CSP report groups: %w", err)
	}
	*g = groups
	return nil
}
