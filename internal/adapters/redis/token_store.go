package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	domainauth "github.com/target/idpguard/internal/domain/auth"
	"github.com/target/idpguard/internal/ports"
)

var _ ports.TokenStore = (*TokenStore)(nil)

// TokenStore reads access token records written by the token endpoint.
type TokenStore struct {
	client redis.UniversalClient
	prefix string
}

// NewTokenStore creates a token store reading keys under prefix.
func NewTokenStore(client redis.UniversalClient, prefix string) *TokenStore {
	if prefix == "" {
		prefix = "token:"
	}
	return &TokenStore{client: client, prefix: prefix}
}

// Get returns the token record for value or ErrNotFound.
func (s *TokenStore) Get(ctx context.Context, value string) (domainauth.AccessToken, error) {
	if value == "" {
		return domainauth.AccessToken{}, ErrNotFound
	}

	data, err := s.client.Get(ctx, s.prefix+value).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domainauth.AccessToken{}, ErrNotFound
		}
		return domainauth.AccessToken{}, fmt.Errorf("redis get: %w", err)
	}

	var tok domainauth.AccessToken
	if err := json.Unmarshal(data, &tok); err != nil {
		return domainauth.AccessToken{}, fmt.Errorf("unmarshal token: %w", err)
	}
	if tok.Value == "" {
		tok.Value = value
	}
	return tok, nil
}
