package httpx

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/idpguard/config"
	domainauth "github.com/target/idpguard/internal/domain/auth"
	"github.com/target/idpguard/internal/mocks"
	mockauth "github.com/target/idpguard/internal/mocks/auth"
	"github.com/target/idpguard/internal/service"
	"go.uber.org/mock/gomock"
)

func newTestDispatcher(sessions SessionManager) *Dispatcher {
	return NewDispatcher(DispatcherOptions{
		Pipeline: NewPipeline(nil),
		Sessions: sessions,
		Cookie:   CookieConfig{Name: "sid", Domain: "idp.example.com"},
		Social:   config.SocialConfig{LoginErrorURL: "/"},
	})
}

func TestDispatcher_SetsCookieOnlyWhenModified(t *testing.T) {
	store := mockauth.NewMemorySessionStore()
	sessions := service.NewSessionService(service.SessionServiceOptions{
		Store: store, Users: mockauth.NewMemoryUserDirectory(), TTL: time.Hour,
	})
	d := newTestDispatcher(sessions)

	touch := d.View(func(req *Request) (*Response, error) {
		req.Session.Set("k", "v")
		return NewResponse(http.StatusOK), nil
	})
	r := httptest.NewRequest(http.MethodGet, "https://idp.example.com/", nil)
	r.Header.Set("X-Forwarded-Proto", "https")
	rec := httptest.NewRecorder()
	touch.ServeHTTP(rec, r)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	c := cookies[0]
	assert.Equal(t, "sid", c.Name)
	assert.Equal(t, "idp.example.com", c.Domain)
	assert.Equal(t, 3600, c.MaxAge)
	assert.True(t, c.Secure)
	assert.True(t, c.HttpOnly)
	assert.True(t, store.Has(c.Value))

	untouched := d.View(func(*Request) (*Response, error) { return NewResponse(http.StatusOK), nil })
	rec = httptest.NewRecorder()
	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(c)
	untouched.ServeHTTP(rec, r)
	assert.Empty(t, rec.Result().Cookies())
}

func TestDispatcher_StrategyOnlyOnSocialViews(t *testing.T) {
	store := mockauth.NewMemorySessionStore()
	sessions := service.NewSessionService(service.SessionServiceOptions{Store: store, Users: mockauth.NewMemoryUserDirectory()})
	d := newTestDispatcher(sessions)

	var plain, withStrategy bool
	d.View(func(req *Request) (*Response, error) {
		plain = req.Strategy != nil
		return nil, nil
	}).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	d.SocialView(func(req *Request) (*Response, error) {
		withStrategy = req.Strategy != nil
		return nil, nil
	}).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.False(t, plain)
	assert.True(t, withStrategy)
}

func TestDispatcher_StoreFailuresDegradeToAnonymous(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockSessionStore(ctrl)
	users := mocks.NewMockUserDirectory(ctrl)
	store.EXPECT().Load(gomock.Any(), "abc").Return(nil, errors.New("redis down"))
	store.EXPECT().Save(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("redis down"))

	d := newTestDispatcher(service.NewSessionService(service.SessionServiceOptions{Store: store, Users: users}))
	var sawUser *domainauth.User
	h := d.View(func(req *Request) (*Response, error) {
		sawUser = req.User
		req.Session.Set("k", "v")
		return NewResponse(http.StatusOK), nil
	})

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: "sid", Value: "abc"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, sawUser)
	assert.Empty(t, rec.Result().Cookies(), "no cookie when the save failed")
}

func TestRequest_PostValueAndFullPath(t *testing.T) {
	req := newTestRequest(t, http.MethodPost, "/a%20b?x=1", url.Values{"scope": {"openid"}})
	assert.Equal(t, "/a%20b?x=1", req.FullPath())

	v, ok := req.PostValue("scope")
	assert.True(t, ok)
	assert.Equal(t, "openid", v)

	_, ok = req.PostValue("x")
	assert.False(t, ok)
}
