package ports_test

import (
	"testing"

	"github.com/target/idpguard/internal/adapters/devauth"
	"github.com/target/idpguard/internal/adapters/oidc"
	"github.com/target/idpguard/internal/adapters/postgres"
	redisadapter "github.com/target/idpguard/internal/adapters/redis"
	"github.com/target/idpguard/internal/adapters/social"
	"github.com/target/idpguard/internal/mocks"
	mockauth "github.com/target/idpguard/internal/mocks/auth"
	"github.com/target/idpguard/internal/ports"
)

// This test only verifies that adapters and mocks conform to the ports at compile time.
func TestImplementationsSatisfyPorts(t *testing.T) {
	t.Helper()

	var _ ports.AuthProvider = (*oidc.Provider)(nil)
	var _ ports.AuthProvider = (*devauth.Provider)(nil)
	var _ ports.AuthProvider = (*mockauth.MockAuthProvider)(nil)

	var _ ports.SessionStore = (*redisadapter.SessionStore)(nil)
	var _ ports.SessionStore = (*mockauth.MemorySessionStore)(nil)
	var _ ports.SessionStore = (*mocks.MockSessionStore)(nil)

	var _ ports.UserDirectory = (*postgres.UserRepo)(nil)
	var _ ports.UserDirectory = (*mockauth.MemoryUserDirectory)(nil)
	var _ ports.UserDirectory = (*mocks.MockUserDirectory)(nil)

	var _ ports.TokenStore = (*redisadapter.TokenStore)(nil)
	var _ ports.TokenStore = (*mockauth.MemoryTokenStore)(nil)

	var _ ports.Strategy = (*social.Strategy)(nil)
}
