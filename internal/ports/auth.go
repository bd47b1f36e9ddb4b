// Package ports defines interfaces (hexagonal ports) for auth-related behavior.
// Implementations live in internal/adapters; orchestration in internal/service.
package ports

import (
	"context"
	"errors"
	"time"

	domainauth "github.com/target/idpguard/internal/domain/auth"
)

// ErrNotFound is returned by stores when the requested record does not exist.
var ErrNotFound = errors.New("not found")

// BeginInput carries inputs for initiating an auth flow.
type BeginInput struct {
	State string
	Nonce string
}

// ExchangeInput groups parameters for the code/token exchange.
type ExchangeInput struct {
	Code  string
	Nonce string
}

// AuthProvider is a third-party login backend (social-auth style).
type AuthProvider interface {
	// Name is the backend identifier stored in the session after login.
	Name() string

	// AuthURL returns the URL the browser is sent to in order to authenticate.
	AuthURL(ctx context.Context, in BeginInput) (string, error)

	// Exchange completes the login flow and returns the authenticated identity.
	Exchange(ctx context.Context, in ExchangeInput) (domainauth.Identity, error)
}

// SessionStore persists and retrieves session key-value state.
type SessionStore interface {
	Save(ctx context.Context, id string, values map[string]any, ttl time.Duration) error
	Load(ctx context.Context, id string) (map[string]any, error)
	Delete(ctx context.Context, id string) error
}

// UserDirectory resolves and records local user accounts.
type UserDirectory interface {
	GetByID(ctx context.Context, id string) (domainauth.User, error)
	// RecordLogin finds or creates the user for identity at backend and stamps last_login.
	RecordLogin(ctx context.Context, backend string, identity domainauth.Identity, at time.Time) (domainauth.User, error)
}

// TokenStore looks up access tokens issued by the token endpoint.
type TokenStore interface {
	Get(ctx context.Context, value string) (domainauth.AccessToken, error)
}

// Strategy is the per-request social-auth context: session access plus backend settings.
type Strategy interface {
	SessionGet(key string) (string, bool)
	Setting(name string) any
}

// Clock provides the current time and can be replaced in tests.
type Clock interface {
	Now() time.Time
}
