// Package devauth provides a simple, config-driven login backend for local development.
package devauth

import (
	"context"
	"errors"
	"net/url"

	domainauth "github.com/target/idpguard/internal/domain/auth"
	"github.com/target/idpguard/internal/ports"
)

var _ ports.AuthProvider = (*Provider)(nil)

// devCode is the only authorization code the dev backend accepts.
const devCode = "dev"

// Config controls the dev backend identity.
type Config struct {
	Subject string
	Email   string
	// CompleteURL is the local completion endpoint, e.g. "/complete/dev/".
	CompleteURL string
}

// Provider implements ports.AuthProvider for local development.
// It short-circuits the upstream round trip by redirecting straight back to
// the completion endpoint; Exchange returns the configured identity.
type Provider struct {
	identity    domainauth.Identity
	completeURL string
}

// NewProvider constructs a dev backend from Config.
func NewProvider(cfg Config) (*Provider, error) {
	if cfg.Subject == "" {
		return nil, errors.New("dev auth: Subject is required")
	}
	if cfg.Email == "" {
		return nil, errors.New("dev auth: Email is required")
	}
	completeURL := cfg.CompleteURL
	if completeURL == "" {
		completeURL = "/complete/dev/"
	}
	return &Provider{
		identity:    domainauth.Identity{Subject: cfg.Subject, Email: cfg.Email},
		completeURL: completeURL,
	}, nil
}

// Name returns "dev".
func (p *Provider) Name() string { return "dev" }

// AuthURL points back at the local completion endpoint with the state echoed.
func (p *Provider) AuthURL(_ context.Context, in ports.BeginInput) (string, error) {
	if in.State == "" {
		return "", errors.New("state is required")
	}
	q := url.Values{}
	q.Set("code", devCode)
	q.Set("state", in.State)
	return p.completeURL + "?" + q.Encode(), nil
}

// Exchange returns the dev identity for the dev code.
func (p *Provider) Exchange(_ context.Context, in ports.ExchangeInput) (domainauth.Identity, error) {
	if in.Code != devCode {
		return domainauth.Identity{}, errors.New("dev auth: unexpected authorization code")
	}
	return p.identity, nil
}
