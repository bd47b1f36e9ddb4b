package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/target/idpguard/config"
	"github.com/target/idpguard/internal/adapters/devauth"
	"github.com/target/idpguard/internal/adapters/oidc"
	"github.com/target/idpguard/internal/ports"
)

// BackendsConfig contains configuration for building login backends.
type BackendsConfig struct {
	Auth    config.AuthConfig
	BaseURL string
	Logger  *slog.Logger
}

// BuildBackends constructs the enabled login backends in configured order.
// The oidc backend runs discovery against the upstream issuer, so ctx bounds startup.
func BuildBackends(ctx context.Context, cfg BackendsConfig) ([]ports.AuthProvider, error) {
	backends := make([]ports.AuthProvider, 0, len(cfg.Auth.Backends))
	for _, b := range cfg.Auth.Backends {
		var (
			prov ports.AuthProvider
			err  error
		)
		switch b {
		case config.BackendOIDC:
			prov, err = buildOIDCBackend(ctx, cfg.Auth.OAuth)
		case config.BackendDev:
			prov, err = buildDevBackend(cfg)
		default:
			err = fmt.Errorf("unsupported backend %q", b)
		}
		if err != nil {
			return nil, fmt.Errorf("build %s backend: %w", b, err)
		}
		cfg.Logger.InfoContext(ctx, "login backend enabled", "backend", prov.Name())
		backends = append(backends, prov)
	}
	return backends, nil
}

//nolint:ireturn // callers only need the port.
func buildOIDCBackend(ctx context.Context, oauth config.OAuthConfig) (ports.AuthProvider, error) {
	return oidc.NewProvider(ctx, oidc.ProviderConfig{
		Name:         string(config.BackendOIDC),
		ClientID:     oauth.ClientID,
		ClientSecret: oauth.ClientSecret,
		RedirectURL:  oauth.RedirectURL,
		Scope:        oauth.Scope,
		DiscoveryURL: oauth.DiscoveryURL,
	})
}

//nolint:ireturn // callers only need the port.
func buildDevBackend(cfg BackendsConfig) (ports.AuthProvider, error) {
	completeURL := "/complete/dev/"
	if base := strings.TrimSuffix(strings.TrimSpace(cfg.BaseURL), "/"); base != "" {
		completeURL = base + completeURL
	}
	cfg.Logger.Warn("dev login backend enabled; do not use in production")
	return devauth.NewProvider(devauth.Config{
		Subject:     cfg.Auth.DevAuth.Subject,
		Email:       cfg.Auth.DevAuth.Email,
		CompleteURL: completeURL,
	})
}
