package redis

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	domainauth "github.com/target/idpguard/internal/domain/auth"
)

func TestTokenStore_Get(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	ctx := context.Background()
	store := NewTokenStore(client, "")

	tok := domainauth.AccessToken{
		UserID:    "user-1",
		ClientID:  "client-1",
		Scope:     []string{"openid", "email"},
		ExpiresAt: time.Now().Add(time.Hour).UTC().Truncate(time.Second),
	}
	data, err := json.Marshal(tok)
	require.NoError(t, err)
	require.NoError(t, client.Set(ctx, "token:abc123", data, time.Hour).Err())

	got, err := store.Get(ctx, "abc123")
	require.NoError(t, err)
	assert.Equal(t, "abc123", got.Value)
	assert.Equal(t, "user-1", got.UserID)
	assert.True(t, got.HasScope("openid"))
	assert.True(t, tok.ExpiresAt.Equal(got.ExpiresAt))
}

func TestTokenStore_NotFound(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := NewTokenStore(client, "tok:")

	_, err := store.Get(context.Background(), "missing")
	assert.Equal(t, ErrNotFound, err)

	_, err = store.Get(context.Background(), "")
	assert.Equal(t, ErrNotFound, err)
}
