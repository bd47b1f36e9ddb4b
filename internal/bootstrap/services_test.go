package bootstrap

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/idpguard/config"
	"github.com/target/idpguard/internal/adapters/clock"
	mockauth "github.com/target/idpguard/internal/mocks/auth"
	"github.com/target/idpguard/internal/ports"
)

func testAppConfig() *config.AppConfig {
	return &config.AppConfig{
		Auth: config.AuthConfig{
			Social: config.SocialConfig{LoginErrorURL: "/", LoginURL: "/login/"},
		},
		Security: config.SecurityConfig{
			RestrictedBackends:       []string{"oidc"},
			RestrictedTimeoutSeconds: 60,
			CSP:                      config.CSPConfig{Policy: "default-src 'self'", ReportOnly: true},
		},
		HTTP: config.HTTPConfig{SessionCookieName: "idp_session", SessionTTL: time.Hour},
	}
}

func testStores() Stores {
	return Stores{
		Sessions: mockauth.NewMemorySessionStore(),
		Users:    mockauth.NewMemoryUserDirectory(),
		Tokens:   mockauth.NewMemoryTokenStore(),
	}
}

func TestBuildHandler_WiresPipeline(t *testing.T) {
	h, err := BuildHandler(HandlerConfig{
		Config:   testAppConfig(),
		Stores:   testStores(),
		Backends: []ports.AuthProvider{mockauth.NewMockAuthProvider("oidc")},
		Clock:    clock.NewFixed(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
		Logger:   discardLogger(),
	})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "default-src 'self'", rec.Header().Get("Content-Security-Policy-Report-Only"))
	assert.Empty(t, rec.Header().Get("Content-Security-Policy"))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/login/oidc/?next=/after", nil))
	assert.Equal(t, http.StatusFound, rec.Code)
	require.Len(t, rec.Result().Cookies(), 1)
	cookie := rec.Result().Cookies()[0]
	assert.Equal(t, "idp_session", cookie.Name)

	// A forged state is turned into a redirect back to backend selection.
	req := httptest.NewRequest(http.MethodGet, "/complete/oidc/?state=forged&code=y", nil)
	req.AddCookie(cookie)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login/?next=%2Fafter", rec.Header().Get("Location"))
}

func TestBuildHandler_Errors(t *testing.T) {
	_, err := BuildHandler(HandlerConfig{Stores: testStores()})
	require.Error(t, err)

	_, err = BuildHandler(HandlerConfig{Config: testAppConfig(), Stores: testStores(), Logger: discardLogger()})
	require.Error(t, err)
}

func TestNewMetrics_Disabled(t *testing.T) {
	client, err := NewMetrics(config.ObservabilityMetricsConfig{Prefix: "idpguard"}, true, discardLogger())
	require.NoError(t, err)
	assert.False(t, client.Enabled())
	assert.Equal(t, "idpguard.x:1|c|#env:dev", client.Line("x", "1|c", nil))
	require.NoError(t, client.Close())
}
