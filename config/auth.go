package config

import (
	"fmt"
	"slices"
	"strings"
)

// Backend names a login backend the service can offer on the selection page.
type Backend string

const (
	// BackendOIDC authenticates against an upstream OpenID Connect provider.
	BackendOIDC Backend = "oidc"
	// BackendDev uses a fixed local identity (for development only).
	BackendDev Backend = "dev"
)

// UnmarshalText implements encoding.TextUnmarshaler for Backend.
func (b *Backend) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch v {
	case "oidc", "dev":
		*b = Backend(v)
		return nil
	default:
		return fmt.Errorf("invalid Backend: %q (valid options: oidc, dev)", v)
	}
}

// OAuthConfig contains upstream OAuth/OIDC configuration for the oidc backend.
type OAuthConfig struct {
	ClientID     string `env:"CLIENT_ID"`
	ClientSecret string `env:"CLIENT_SECRET"`
	RedirectURL  string `env:"REDIRECT_URL"  envDefault:"http://localhost:8080/complete/oidc/"`
	Scope        string `env:"SCOPE"         envDefault:"openid profile email"`
	DiscoveryURL string `env:"DISCOVERY_URL"`
}

// DevAuthConfig controls the identity returned by the dev backend.
type DevAuthConfig struct {
	Subject string `env:"SUBJECT" envDefault:"dev-user"`
	Email   string `env:"EMAIL"   envDefault:"dev@example.com"`
}

// SocialConfig mirrors the social-auth settings read through the request strategy.
type SocialConfig struct {
	// RaiseExceptions lets flow errors propagate instead of redirecting,
	// regardless of DEV mode.
	RaiseExceptions bool `env:"RAISE_EXCEPTIONS" envDefault:"false"`

	// LoginErrorURL is the default redirect for flow errors without a stored next URL.
	LoginErrorURL string `env:"LOGIN_ERROR_URL" envDefault:"/"`

	// LoginURL is the backend-selection page.
	LoginURL string `env:"LOGIN_URL" envDefault:"/login/"`
}

// AuthConfig groups all authentication-related configuration.
type AuthConfig struct {
	// Backends lists the enabled login backends in display order.
	Backends []Backend `env:"AUTH_BACKENDS" envDefault:"oidc" envSeparator:","`

	// OAuth configuration (used by the oidc backend).
	OAuth OAuthConfig `envPrefix:"OAUTH_"`

	// DevAuth configuration (used by the dev backend).
	DevAuth DevAuthConfig `envPrefix:"DEV_AUTH_"`

	// Social-auth behavior.
	Social SocialConfig `envPrefix:"SOCIAL_AUTH_"`
}

// Sanitize drops duplicate backends and fills empty URLs.
func (a *AuthConfig) Sanitize() {
	seen := make([]Backend, 0, len(a.Backends))
	for _, b := range a.Backends {
		if b != "" && !slices.Contains(seen, b) {
			seen = append(seen, b)
		}
	}
	a.Backends = seen

	if strings.TrimSpace(a.Social.LoginErrorURL) == "" {
		a.Social.LoginErrorURL = "/"
	}
	if strings.TrimSpace(a.Social.LoginURL) == "" {
		a.Social.LoginURL = "/login/"
	}
}

// HasBackend reports whether the backend is enabled.
func (a *AuthConfig) HasBackend(b Backend) bool {
	return slices.Contains(a.Backends, b)
}
