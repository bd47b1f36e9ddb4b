package httpx

import (
	"context"
	"log/slog"
	"time"

	"github.com/target/idpguard/config"
	domainauth "github.com/target/idpguard/internal/domain/auth"
	"github.com/target/idpguard/internal/observability/statsd"
	"github.com/target/idpguard/internal/ports"
)

// SessionState classifies a request for restricted-session expiry.
type SessionState int

const (
	SessionNotApplicable SessionState = iota
	SessionActive
	SessionExpired
)

func (s SessionState) String() string {
	switch s {
	case SessionActive:
		return "active"
	case SessionExpired:
		return "expired"
	default:
		return "not_applicable"
	}
}

type sessionDestroyer interface {
	Destroy(ctx context.Context, sess *domainauth.Session) error
}

// RestrictedSessionOptions groups dependencies for RestrictedSession.
type RestrictedSessionOptions struct {
	Config   config.SecurityConfig
	Sessions sessionDestroyer // Required
	Clock    ports.Clock      // Required
	Metrics  statsd.Sink
	Logger   *slog.Logger
}

// RestrictedSession logs out users who signed in through a restricted backend
// once the configured time since their last login has passed.
type RestrictedSession struct {
	NopInterceptor

	backends map[string]struct{}
	timeout  time.Duration
	sessions sessionDestroyer
	clock    ports.Clock
	metrics  statsd.Sink
	logger   *slog.Logger
}

// NewRestrictedSession constructs the interceptor from an immutable config snapshot.
func NewRestrictedSession(opts RestrictedSessionOptions) *RestrictedSession {
	if opts.Sessions == nil {
		panic("session destroyer is required")
	}
	if opts.Clock == nil {
		panic("clock is required")
	}

	backends := make(map[string]struct{}, len(opts.Config.RestrictedBackends))
	for _, b := range opts.Config.RestrictedBackends {
		backends[b] = struct{}{}
	}
	i := &RestrictedSession{
		backends: backends,
		timeout:  opts.Config.RestrictedTimeout(),
		sessions: opts.Sessions,
		clock:    opts.Clock,
		metrics:  opts.Metrics,
		logger:   opts.Logger,
	}
	if i.metrics == nil {
		i.metrics = statsd.Nop{}
	}
	if i.logger == nil {
		i.logger = slog.Default()
	}
	return i
}

// Evaluate classifies req. Expiry is strict: a session exactly at
// last_login+timeout is still active.
func (i *RestrictedSession) Evaluate(req *Request) SessionState {
	if req.User == nil || !req.User.IsAuthenticated {
		return SessionNotApplicable
	}
	backend, ok := req.Session.AuthUserBackend()
	if !ok {
		return SessionNotApplicable
	}
	if _, restricted := i.backends[backend]; !restricted {
		return SessionNotApplicable
	}

	if i.clock.Now().After(req.User.LastLogin.Add(i.timeout)) {
		return SessionExpired
	}
	return SessionActive
}

// Before destroys expired sessions and redirects to the same URL so the
// browser lands on a fresh login.
func (i *RestrictedSession) Before(req *Request) Result {
	if i.Evaluate(req) != SessionExpired {
		return Continue()
	}

	backend, _ := req.Session.AuthUserBackend()
	i.logger.Info("restricted session has timed out",
		slog.Time("last_login", req.User.LastLogin),
		slog.String("backend", backend),
		slog.String("path", req.HTTP.URL.Path),
	)

	// The in-memory session is cleared even if the store delete fails.
	if err := i.sessions.Destroy(req.Context(), req.Session); err != nil {
		i.logger.Error("destroy restricted session", slog.Any("error", err))
	}
	req.User = nil
	i.metrics.Count("session.restricted.expired", 1, map[string]string{"backend": backend})

	return Respond(Redirect(req.FullPath()))
}
