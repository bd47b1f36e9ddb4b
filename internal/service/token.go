package service

import (
	"context"
	"errors"
	"fmt"

	domainauth "github.com/target/idpguard/internal/domain/auth"
	"github.com/target/idpguard/internal/ports"
)

// ScopeOpenID is the scope every userinfo caller must hold.
const ScopeOpenID = "openid"

// TokenServiceOptions groups dependencies for TokenService.
type TokenServiceOptions struct {
	Tokens ports.TokenStore    // Required
	Users  ports.UserDirectory // Required
	Clock  ports.Clock         // Optional: defaults to wall clock
}

// TokenService validates bearer access tokens for protected endpoints.
// Rejections are returned as *domainauth.BearerError.
type TokenService struct {
	tokens ports.TokenStore
	users  ports.UserDirectory
	clock  ports.Clock
}

// NewTokenService constructs a new TokenService.
func NewTokenService(opts TokenServiceOptions) *TokenService {
	if opts.Tokens == nil {
		panic("TokenStore is required")
	}
	if opts.Users == nil {
		panic("UserDirectory is required")
	}
	clock := opts.Clock
	if clock == nil {
		clock = wallClock{}
	}
	return &TokenService{tokens: opts.Tokens, users: opts.Users, clock: clock}
}

// Verify checks that value names a live token carrying every scope in required.
func (s *TokenService) Verify(ctx context.Context, value string, required ...string) (domainauth.AccessToken, error) {
	if value == "" {
		return domainauth.AccessToken{}, domainauth.NewBearerError(domainauth.BearerInvalidToken)
	}

	tok, err := s.tokens.Get(ctx, value)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return domainauth.AccessToken{}, domainauth.NewBearerError(domainauth.BearerInvalidToken)
		}
		return domainauth.AccessToken{}, fmt.Errorf("get access token: %w", err)
	}

	if tok.Expired(s.clock.Now()) {
		return domainauth.AccessToken{}, domainauth.NewBearerError(domainauth.BearerInvalidToken)
	}
	for _, scope := range required {
		if !tok.HasScope(scope) {
			return domainauth.AccessToken{}, domainauth.NewBearerError(domainauth.BearerInsufficientScope)
		}
	}
	return tok, nil
}

// UserInfo returns the standard claims for the owner of an openid-scoped token.
func (s *TokenService) UserInfo(ctx context.Context, value string) (map[string]any, error) {
	tok, err := s.Verify(ctx, value, ScopeOpenID)
	if err != nil {
		return nil, err
	}

	u, err := s.users.GetByID(ctx, tok.UserID)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return nil, domainauth.NewBearerError(domainauth.BearerInvalidToken)
		}
		return nil, fmt.Errorf("get token user: %w", err)
	}

	claims := map[string]any{"sub": u.ID}
	if tok.HasScope("email") && u.Email != "" {
		claims["email"] = u.Email
	}
	if tok.HasScope("profile") {
		claims["name"] = u.FullName()
		claims["given_name"] = u.FirstName
		claims["family_name"] = u.LastName
	}
	return claims, nil
}
