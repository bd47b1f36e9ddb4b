package httpx

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/idpguard/config"
	"github.com/target/idpguard/internal/adapters/social"
	domainauth "github.com/target/idpguard/internal/domain/auth"
)

func socialRequest(t *testing.T, values map[string]any, settings config.SocialConfig) *Request {
	t.Helper()
	req := newTestRequest(t, http.MethodGet, "/complete/oidc/?state=x", nil)
	req.Session = domainauth.NewSession("s1", values)
	req.Strategy = social.NewStrategy(req.Session, settings)
	return req
}

func TestShouldSuppress(t *testing.T) {
	assert.False(t, ShouldSuppress(nil), "no strategy: let the error propagate")
	assert.True(t, ShouldSuppress(social.NewStrategy(nil, config.SocialConfig{RaiseExceptions: false})))
	assert.False(t, ShouldSuppress(social.NewStrategy(nil, config.SocialConfig{RaiseExceptions: true})))
}

func TestDecideRedirect_WithNext(t *testing.T) {
	strategy := social.NewStrategy(
		domainauth.NewSession("s1", map[string]any{"next": "https://a.example/x?y=1"}),
		config.SocialConfig{LoginErrorURL: "/error/"},
	)

	got := DecideRedirect(strategy, domainauth.NewFlowError(domainauth.FlowCanceled, "oidc", "canceled"))

	assert.Equal(t, "/login/?next="+url.QueryEscape("https://a.example/x?y=1"), got)
	assert.Equal(t, "/login/?next=https%3A%2F%2Fa.example%2Fx%3Fy%3D1", got)

	parsed, err := url.Parse(got)
	require.NoError(t, err)
	assert.Equal(t, url.Values{"next": {"https://a.example/x?y=1"}}, parsed.Query())
}

func TestDecideRedirect_EncodesSpacesAsPercent20(t *testing.T) {
	strategy := social.NewStrategy(
		domainauth.NewSession("s1", map[string]any{"next": "/a b?c=d e+f"}),
		config.SocialConfig{},
	)

	got := DecideRedirect(strategy, domainauth.NewFlowError(domainauth.FlowCanceled, "oidc", "canceled"))

	assert.Equal(t, "/login/?next=%2Fa%20b%3Fc%3Dd%20e%2Bf", got)
	parsed, err := url.Parse(got)
	require.NoError(t, err)
	assert.Equal(t, "/a b?c=d e+f", parsed.Query().Get("next"))
}

func TestDecideRedirect_WithoutNextUsesDefault(t *testing.T) {
	tests := []struct {
		name     string
		errorURL string
		backend  string
		want     string
	}{
		{
			name:     "configured error url",
			errorURL: "/error/",
			backend:  "oidc",
			want:     "/error/?message=canceled&backend=oidc",
		},
		{
			name:     "error url with query",
			errorURL: "/error/?lang=fi",
			backend:  "oidc",
			want:     "/error/?lang=fi&message=canceled&backend=oidc",
		},
		{
			name:    "no error url and no backend",
			backend: "",
			want:    "/?message=canceled&backend=unknown-backend",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			strategy := social.NewStrategy(domainauth.NewSession("s1", nil), config.SocialConfig{LoginErrorURL: tt.errorURL})
			got := DecideRedirect(strategy, domainauth.NewFlowError(domainauth.FlowCanceled, tt.backend, "canceled"))

			assert.Equal(t, tt.want, got)
			assert.NotContains(t, got, "/login/?next=")
		})
	}
}

func TestSocialAuthExceptions_RedirectsFlowErrors(t *testing.T) {
	sink := &recordingSink{}
	ic := NewSocialAuthExceptions(sink, nil)
	req := socialRequest(t, map[string]any{"next": "/openid/authorize?client_id=abc"}, config.SocialConfig{})
	flowErr := fmt.Errorf("complete: %w", domainauth.NewFlowError(domainauth.FlowStateForbidden, "oidc", "Wrong state parameter given."))

	res := ic.OnError(req, flowErr)

	require.True(t, res.Handled())
	assert.Equal(t, http.StatusFound, res.Response().Status)
	assert.Equal(t, "/login/?next=%2Fopenid%2Fauthorize%3Fclient_id%3Dabc", res.Response().Header.Get("Location"))
	assert.Equal(t, []countCall{{
		Name: "social.flow_error",
		Tags: map[string]string{"kind": "auth_state_forbidden", "handled": "true"},
	}}, sink.Counts())
}

func TestSocialAuthExceptions_Propagates(t *testing.T) {
	ic := NewSocialAuthExceptions(nil, nil)
	flowErr := domainauth.NewFlowError(domainauth.FlowFailed, "oidc", "Authentication failed")

	t.Run("not a flow error", func(t *testing.T) {
		req := socialRequest(t, map[string]any{"next": "/x"}, config.SocialConfig{})
		assert.False(t, ic.OnError(req, errors.New("db down")).Handled())
	})

	t.Run("bearer error", func(t *testing.T) {
		req := socialRequest(t, nil, config.SocialConfig{})
		assert.False(t, ic.OnError(req, domainauth.NewBearerError(domainauth.BearerInvalidToken)).Handled())
	})

	t.Run("raise exceptions configured", func(t *testing.T) {
		req := socialRequest(t, map[string]any{"next": "/x"}, config.SocialConfig{RaiseExceptions: true})
		assert.False(t, ic.OnError(req, flowErr).Handled())
	})

	t.Run("no strategy attached", func(t *testing.T) {
		req := newTestRequest(t, http.MethodGet, "/openid/userinfo", nil)
		assert.False(t, ic.OnError(req, flowErr).Handled())
	})
}
