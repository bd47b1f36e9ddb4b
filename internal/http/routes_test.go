package httpx

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/idpguard/config"
	"github.com/target/idpguard/internal/adapters/clock"
	domainauth "github.com/target/idpguard/internal/domain/auth"
	mockauth "github.com/target/idpguard/internal/mocks/auth"
	"github.com/target/idpguard/internal/ports"
	"github.com/target/idpguard/internal/service"
)

const testCSP = "default-src 'self'"

type routerFixture struct {
	handler http.Handler
	store   *mockauth.MemorySessionStore
	users   *mockauth.MemoryUserDirectory
	clock   *clock.Fixed
}

func newRouterFixture(t *testing.T) routerFixture {
	t.Helper()
	start := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	fixed := clock.NewFixed(start)
	store := mockauth.NewMemorySessionStore()
	users := mockauth.NewMemoryUserDirectory()
	users.Add(domainauth.User{ID: "token-owner", Email: "owner@example.com", FirstName: "Tok", LastName: "En"})
	tokens := mockauth.NewMemoryTokenStore(
		domainauth.AccessToken{Value: "good", UserID: "token-owner", Scope: []string{"openid", "email"}, ExpiresAt: start.Add(24 * time.Hour)},
		domainauth.AccessToken{Value: "stale", UserID: "token-owner", Scope: []string{"openid"}, ExpiresAt: start.Add(-time.Minute)},
	)

	sessions := service.NewSessionService(service.SessionServiceOptions{Store: store, Users: users, TTL: time.Hour})
	authSvc, err := service.NewAuthService(service.AuthServiceOptions{
		Backends: []ports.AuthProvider{mockauth.NewMockAuthProvider("oidc"), mockauth.NewMockAuthProvider("suomifi")},
		Sessions: sessions,
		Users:    users,
		Clock:    fixed,
	})
	require.NoError(t, err)
	tokenSvc := service.NewTokenService(service.TokenServiceOptions{Tokens: tokens, Users: users, Clock: fixed})

	security := config.SecurityConfig{
		RestrictedBackends:       []string{"suomifi"},
		RestrictedTimeoutSeconds: 3600,
		CSP:                      config.CSPConfig{Policy: testCSP},
	}
	pipeline := NewStandardPipeline(nil, InterceptorSet{
		Restricted: NewRestrictedSession(RestrictedSessionOptions{Config: security, Sessions: sessions, Clock: fixed}),
		Social:     NewSocialAuthExceptions(nil, nil),
		Bearer:     NewBearerErrors(nil),
		CSP:        NewContentSecurityPolicy(&security.CSP, nil, nil),
	})
	dispatcher := NewDispatcher(DispatcherOptions{
		Pipeline: pipeline,
		Sessions: sessions,
		Social:   config.SocialConfig{LoginErrorURL: "/", LoginURL: "/login/"},
	})

	return routerFixture{
		handler: NewRouter(RouterServices{Dispatcher: dispatcher, Auth: authSvc, Tokens: tokenSvc}),
		store:   store,
		users:   users,
		clock:   fixed,
	}
}

type call struct {
	method string
	target string
	cookie *http.Cookie
	form   url.Values
	header http.Header
}

func (f routerFixture) do(t *testing.T, c call) *http.Response {
	t.Helper()
	var r *http.Request
	if c.form != nil {
		r = httptest.NewRequest(c.method, c.target, strings.NewReader(c.form.Encode()))
		r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		r = httptest.NewRequest(c.method, c.target, nil)
	}
	for k, vs := range c.header {
		r.Header[k] = vs
	}
	if c.cookie != nil {
		r.AddCookie(c.cookie)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, r)
	return rec.Result()
}

func sessionCookieOf(t *testing.T, resp *http.Response) *http.Cookie {
	t.Helper()
	for _, c := range resp.Cookies() {
		if c.Name == "sessionid" {
			return c
		}
	}
	t.Fatalf("no session cookie in response")
	return nil
}

// login runs begin and complete for backend and returns the logged-in session cookie.
func (f routerFixture) login(t *testing.T, backend, next string) (*http.Cookie, *http.Response) {
	t.Helper()
	begin := f.do(t, call{method: http.MethodGet, target: "/login/" + backend + "/?next=" + url.QueryEscape(next)})
	require.Equal(t, http.StatusFound, begin.StatusCode)
	cookie := sessionCookieOf(t, begin)

	authURL, err := url.Parse(begin.Header.Get("Location"))
	require.NoError(t, err)
	state := authURL.Query().Get("state")
	require.NotEmpty(t, state)

	complete := f.do(t, call{
		method: http.MethodGet,
		target: "/complete/" + backend + "/?code=abc&state=" + url.QueryEscape(state),
		cookie: cookie,
	})
	return sessionCookieOf(t, complete), complete
}

func TestRouter_Healthz(t *testing.T) {
	f := newRouterFixture(t)

	resp := f.do(t, call{method: http.MethodGet, target: "/healthz"})

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, testCSP, resp.Header.Get(HeaderCSP))
	assert.Empty(t, resp.Cookies(), "anonymous untouched sessions set no cookie")
}

func TestRouter_NotFoundStillGetsHeaders(t *testing.T) {
	f := newRouterFixture(t)

	resp := f.do(t, call{method: http.MethodGet, target: "/nope"})

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, testCSP, resp.Header.Get(HeaderCSP))
}

func TestRouter_LoginSelection(t *testing.T) {
	f := newRouterFixture(t)

	resp := f.do(t, call{method: http.MethodGet, target: "/login/?next=%2Fopenid%2Fauthorize"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body loginSelection
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "/openid/authorize", body.Next)
	assert.Equal(t, []backendChoice{
		{Name: "oidc", LoginURL: "/login/oidc/?next=%2Fopenid%2Fauthorize"},
		{Name: "suomifi", LoginURL: "/login/suomifi/?next=%2Fopenid%2Fauthorize"},
	}, body.Backends)
}

func TestRouter_LoginFlow(t *testing.T) {
	f := newRouterFixture(t)

	begin := f.do(t, call{method: http.MethodGet, target: "/login/oidc/?next=" + url.QueryEscape("/openid/authorize?client_id=abc")})
	require.Equal(t, http.StatusFound, begin.StatusCode)
	assert.True(t, strings.HasPrefix(begin.Header.Get("Location"), "https://mock-idp/auth?"))
	preLogin := sessionCookieOf(t, begin)
	assert.True(t, f.store.Has(preLogin.Value))
	assert.True(t, preLogin.HttpOnly)

	cookie, complete := f.login(t, "oidc", "/openid/authorize?client_id=abc")
	require.Equal(t, http.StatusFound, complete.StatusCode)
	assert.Equal(t, "/openid/authorize?client_id=abc", complete.Header.Get("Location"))
	assert.Equal(t, testCSP, complete.Header.Get(HeaderCSP))

	values, err := f.store.Load(t.Context(), cookie.Value)
	require.NoError(t, err)
	assert.Equal(t, "oidc", values[domainauth.SessionKeyAuthUserBackend])
	assert.NotEmpty(t, values[domainauth.SessionKeyAuthUserID])
}

func TestRouter_InterruptedLoginReturnsToSelection(t *testing.T) {
	f := newRouterFixture(t)

	begin := f.do(t, call{method: http.MethodGet, target: "/login/oidc/?next=" + url.QueryEscape("https://a.example/x?y=1")})
	cookie := sessionCookieOf(t, begin)

	resp := f.do(t, call{
		method: http.MethodGet,
		target: "/complete/oidc/?error=access_denied&state=whatever",
		cookie: cookie,
	})

	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/login/?next=https%3A%2F%2Fa.example%2Fx%3Fy%3D1", resp.Header.Get("Location"))
	assert.Equal(t, testCSP, resp.Header.Get(HeaderCSP))
}

func TestRouter_InterruptedLoginWithoutNext(t *testing.T) {
	f := newRouterFixture(t)

	resp := f.do(t, call{method: http.MethodGet, target: "/complete/oidc/?code=abc&state=forged"})

	assert.Equal(t, http.StatusFound, resp.StatusCode)
	loc := resp.Header.Get("Location")
	assert.True(t, strings.HasPrefix(loc, "/?message="), loc)
	assert.Contains(t, loc, "&backend=oidc")
}

func TestRouter_UnknownBackend(t *testing.T) {
	f := newRouterFixture(t)

	resp := f.do(t, call{method: http.MethodGet, target: "/login/saml/?next=%2Fx"})

	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/login/?next=%2Fx", resp.Header.Get("Location"))
}

func TestRouter_UserInfo(t *testing.T) {
	f := newRouterFixture(t)

	resp := f.do(t, call{
		method: http.MethodGet,
		target: "/openid/userinfo",
		header: http.Header{"Authorization": {"Bearer good"}},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "no-store", resp.Header.Get("Cache-Control"))

	var claims map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&claims))
	assert.Equal(t, map[string]any{"sub": "token-owner", "email": "owner@example.com"}, claims)
}

func TestRouter_UserInfoBearerErrors(t *testing.T) {
	f := newRouterFixture(t)
	invalid := "The access token provided is expired, revoked, malformed, or otherwise invalid"

	t.Run("unknown token without scope", func(t *testing.T) {
		resp := f.do(t, call{
			method: http.MethodGet,
			target: "/openid/userinfo",
			header: http.Header{"Authorization": {"Bearer nope"}},
		})
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		assert.Equal(t, `error="invalid_token", error_description="`+invalid+`"`, resp.Header.Get("WWW-Authenticate"))
		assert.Equal(t, testCSP, resp.Header.Get(HeaderCSP))
	})

	t.Run("expired token with scope in post", func(t *testing.T) {
		resp := f.do(t, call{
			method: http.MethodPost,
			target: "/openid/userinfo",
			form:   url.Values{"access_token": {"stale"}, "scope": {"openid"}},
		})
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		assert.Equal(t,
			`Bearer realm="openid", error="invalid_token", error_description="`+invalid+`"`,
			resp.Header.Get("WWW-Authenticate"),
		)
	})
}

func TestRouter_RestrictedSessionExpires(t *testing.T) {
	f := newRouterFixture(t)
	cookie, complete := f.login(t, "suomifi", "/")
	require.Equal(t, http.StatusFound, complete.StatusCode)

	f.clock.Add(3600 * time.Second)
	active := f.do(t, call{method: http.MethodGet, target: "/healthz", cookie: cookie})
	assert.Equal(t, http.StatusOK, active.StatusCode, "exactly at the timeout the session is still active")

	f.clock.Add(time.Second)
	expired := f.do(t, call{method: http.MethodGet, target: "/openid/userinfo?x=1", cookie: cookie})

	assert.Equal(t, http.StatusFound, expired.StatusCode)
	assert.Equal(t, "/openid/userinfo?x=1", expired.Header.Get("Location"))
	assert.Equal(t, testCSP, expired.Header.Get(HeaderCSP))
	cleared := sessionCookieOf(t, expired)
	assert.Empty(t, cleared.Value)
	assert.Negative(t, cleared.MaxAge)
	assert.False(t, f.store.Has(cookie.Value))

	// Replaying the old cookie finds no session, so no redirect loop.
	again := f.do(t, call{method: http.MethodGet, target: "/healthz", cookie: cookie})
	assert.Equal(t, http.StatusOK, again.StatusCode)
}

func TestRouter_UnrestrictedSessionNeverExpires(t *testing.T) {
	f := newRouterFixture(t)
	cookie, _ := f.login(t, "oidc", "/")

	f.clock.Add(90 * 24 * time.Hour)
	resp := f.do(t, call{method: http.MethodGet, target: "/healthz", cookie: cookie})

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, f.store.Has(cookie.Value))
}

func TestRouter_Logout(t *testing.T) {
	f := newRouterFixture(t)
	cookie, _ := f.login(t, "oidc", "/")

	resp := f.do(t, call{method: http.MethodPost, target: "/logout/", cookie: cookie})

	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))
	assert.Negative(t, sessionCookieOf(t, resp).MaxAge)
	assert.False(t, f.store.Has(cookie.Value))
}
