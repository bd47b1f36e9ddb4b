package config

import (
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"
)

// HTTPConfig contains HTTP server configuration.
type HTTPConfig struct {
	// Addr is the address to bind the HTTP server to.
	Addr string `env:"HTTP_ADDR" envDefault:":8080"`

	// BaseURL is the public base URL of the identity provider (e.g., "https://id.example.com").
	BaseURL string `env:"APP_BASE_URL" envDefault:"http://localhost:8080"`

	// CookieDomain is the domain for session cookies.
	// Leave empty to use the request domain.
	CookieDomain string `env:"APP_COOKIE_DOMAIN" envDefault:""`

	// SessionCookieName is the name of the session id cookie.
	SessionCookieName string `env:"SESSION_COOKIE_NAME" envDefault:"sessionid"`

	// SessionTTL bounds how long an idle session is kept in the store.
	SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"336h"`
}

// Sanitize applies guardrails to HTTP configuration values.
func (h *HTTPConfig) Sanitize() {
	if strings.TrimSpace(h.SessionCookieName) == "" {
		h.SessionCookieName = "sessionid"
	}
	if h.SessionTTL <= 0 {
		h.SessionTTL = 14 * 24 * time.Hour
	}

	// A cookie scoped to a public suffix would be rejected by browsers; fall back to host-only.
	domain := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(h.CookieDomain)), ".")
	if domain != "" {
		if suffix, _ := publicsuffix.PublicSuffix(domain); suffix == domain {
			domain = ""
		}
	}
	h.CookieDomain = domain
}
