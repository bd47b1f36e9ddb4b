package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	domainauth "github.com/target/idpguard/internal/domain/auth"
	"github.com/target/idpguard/internal/ports"
)

// AuthServiceOptions groups dependencies for AuthService.
type AuthServiceOptions struct {
	Backends []ports.AuthProvider // Required: enabled login backends, in display order
	Sessions *SessionService      // Required
	Users    ports.UserDirectory  // Required
	Clock    ports.Clock          // Optional: defaults to wall clock
}

// AuthService runs the social login flow: backend selection, begin, complete and logout.
type AuthService struct {
	order    []string
	backends map[string]ports.AuthProvider
	sessions *SessionService
	users    ports.UserDirectory
	clock    ports.Clock
}

type wallClock struct{}

func (wallClock) Now() time.Time { return time.Now() }

// NewAuthService constructs a new AuthService.
func NewAuthService(opts AuthServiceOptions) (*AuthService, error) {
	if opts.Sessions == nil {
		return nil, errors.New("SessionService is required")
	}
	if opts.Users == nil {
		return nil, errors.New("UserDirectory is required")
	}
	if len(opts.Backends) == 0 {
		return nil, errors.New("at least one login backend is required")
	}

	s := &AuthService{
		backends: make(map[string]ports.AuthProvider, len(opts.Backends)),
		sessions: opts.Sessions,
		users:    opts.Users,
		clock:    opts.Clock,
	}
	if s.clock == nil {
		s.clock = wallClock{}
	}
	for _, b := range opts.Backends {
		name := b.Name()
		if _, dup := s.backends[name]; dup {
			return nil, fmt.Errorf("duplicate login backend %q", name)
		}
		s.backends[name] = b
		s.order = append(s.order, name)
	}
	return s, nil
}

// Backends returns the enabled backend names in display order.
func (s *AuthService) Backends() []string {
	return append([]string(nil), s.order...)
}

func stateKey(backend string) string { return backend + "_state" }
func nonceKey(backend string) string { return backend + "_nonce" }

// BeginLoginInput groups parameters for starting a login.
type BeginLoginInput struct {
	Backend string
	Next    string
}

// BeginLogin records the deep link and anti-forgery values in sess and returns
// the URL the browser must visit next.
func (s *AuthService) BeginLogin(ctx context.Context, sess *domainauth.Session, in BeginLoginInput) (string, error) {
	// next is kept even for unknown backends so the user can pick another one.
	if in.Next != "" {
		sess.Set(domainauth.SessionKeyNext, in.Next)
	}
	provider, ok := s.backends[in.Backend]
	if !ok {
		return "", domainauth.NewFlowError(domainauth.FlowUnknownBackend, in.Backend, "Unknown authentication backend")
	}

	state := uuid.NewString()
	nonce := uuid.NewString()
	sess.Set(stateKey(in.Backend), state)
	sess.Set(nonceKey(in.Backend), nonce)

	authURL, err := provider.AuthURL(ctx, ports.BeginInput{State: state, Nonce: nonce})
	if err != nil {
		return "", &domainauth.FlowError{
			Kind:    domainauth.FlowFailed,
			Backend: in.Backend,
			Message: "Authentication failed",
			Cause:   err,
		}
	}
	return authURL, nil
}

// CompleteLoginInput carries the callback query parameters.
type CompleteLoginInput struct {
	Backend          string
	Code             string
	State            string
	Error            string
	ErrorDescription string
}

// CompleteLoginResult is the outcome of a successful login.
type CompleteLoginResult struct {
	User     domainauth.User
	Redirect string
}

// CompleteLogin validates the callback against sess, exchanges the code, records
// the login and rotates the session id. Flow failures are *domainauth.FlowError.
func (s *AuthService) CompleteLogin(
	ctx context.Context,
	sess *domainauth.Session,
	in CompleteLoginInput,
) (*CompleteLoginResult, error) {
	provider, ok := s.backends[in.Backend]
	if !ok {
		return nil, domainauth.NewFlowError(domainauth.FlowUnknownBackend, in.Backend, "Unknown authentication backend")
	}
	if err := checkCallback(sess, in); err != nil {
		return nil, err
	}

	nonce, _ := sess.Pop(nonceKey(in.Backend))
	sess.Delete(stateKey(in.Backend))

	identity, err := provider.Exchange(ctx, ports.ExchangeInput{Code: in.Code, Nonce: nonce})
	if err != nil {
		return nil, &domainauth.FlowError{
			Kind:    domainauth.FlowFailed,
			Backend: in.Backend,
			Message: "Authentication failed",
			Cause:   err,
		}
	}

	user, err := s.users.RecordLogin(ctx, in.Backend, identity, s.clock.Now())
	if err != nil {
		return nil, fmt.Errorf("record login: %w", err)
	}

	next, _ := sess.Pop(domainauth.SessionKeyNext)
	if err := s.sessions.Rotate(ctx, sess); err != nil {
		return nil, err
	}
	sess.Set(domainauth.SessionKeyAuthUserID, user.ID)
	sess.Set(domainauth.SessionKeyAuthUserBackend, in.Backend)

	return &CompleteLoginResult{User: user, Redirect: SafeRedirectPath(next)}, nil
}

func checkCallback(sess *domainauth.Session, in CompleteLoginInput) error {
	if in.Error != "" {
		if in.Error == "access_denied" {
			return domainauth.NewFlowError(domainauth.FlowCanceled, in.Backend, "Authentication process canceled")
		}
		msg := "Authentication failed"
		if in.ErrorDescription != "" {
			msg += ": " + in.ErrorDescription
		}
		return domainauth.NewFlowError(domainauth.FlowFailed, in.Backend, msg)
	}

	stored, ok := sess.GetString(stateKey(in.Backend))
	if !ok || stored == "" {
		return domainauth.NewFlowError(domainauth.FlowStateMissing, in.Backend, "Session value state missing.")
	}
	if in.State == "" {
		return domainauth.NewFlowError(domainauth.FlowMissingParameter, in.Backend, "Missing needed parameter state")
	}
	if in.State != stored {
		return domainauth.NewFlowError(domainauth.FlowStateForbidden, in.Backend, "Wrong state parameter given.")
	}
	if in.Code == "" {
		return domainauth.NewFlowError(domainauth.FlowMissingParameter, in.Backend, "Missing needed parameter code")
	}
	return nil
}

// Logout destroys the session.
func (s *AuthService) Logout(ctx context.Context, sess *domainauth.Session) error {
	return s.sessions.Destroy(ctx, sess)
}

// SafeRedirectPath ensures the provided redirect is a same-origin relative path
// starting with "/" and not an absolute URL. Returns "/" when invalid.
// Backslashes are rejected outright since browsers read "/\" as "//".
func SafeRedirectPath(candidate string) string {
	if candidate == "" || strings.Contains(candidate, "\\") {
		return "/"
	}
	if len(candidate) > 1 && candidate[1] == '/' {
		return "/"
	}
	u, err := url.Parse(candidate)
	if err != nil || u.IsAbs() || u.Host != "" || !strings.HasPrefix(u.Path, "/") {
		return "/"
	}
	return candidate
}
