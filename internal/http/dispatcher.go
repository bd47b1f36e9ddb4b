package httpx

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/target/idpguard/config"
	"github.com/target/idpguard/internal/adapters/social"
	domainauth "github.com/target/idpguard/internal/domain/auth"
)

// SessionManager loads and persists the session around each request.
type SessionManager interface {
	Load(ctx context.Context, id string) (*domainauth.Session, error)
	Save(ctx context.Context, sess *domainauth.Session) error
	Destroy(ctx context.Context, sess *domainauth.Session) error
	ResolveUser(ctx context.Context, sess *domainauth.Session) (*domainauth.User, error)
	TTL() time.Duration
}

// CookieConfig controls the session cookie.
type CookieConfig struct {
	Name   string
	Domain string
}

// DispatcherOptions groups dependencies for Dispatcher.
type DispatcherOptions struct {
	Pipeline *Pipeline      // Required
	Sessions SessionManager // Required
	Cookie   CookieConfig
	Social   config.SocialConfig
	Logger   *slog.Logger
}

// Dispatcher adapts Views to http.Handler: it binds the session and user to the
// request, runs the pipeline and commits session changes before writing.
type Dispatcher struct {
	pipeline *Pipeline
	sessions SessionManager
	cookie   CookieConfig
	social   config.SocialConfig
	logger   *slog.Logger
}

// NewDispatcher constructs a Dispatcher.
func NewDispatcher(opts DispatcherOptions) *Dispatcher {
	if opts.Pipeline == nil {
		panic("pipeline is required")
	}
	if opts.Sessions == nil {
		panic("session manager is required")
	}
	d := &Dispatcher{
		pipeline: opts.Pipeline,
		sessions: opts.Sessions,
		cookie:   opts.Cookie,
		social:   opts.Social,
		logger:   opts.Logger,
	}
	if d.cookie.Name == "" {
		d.cookie.Name = "sessionid"
	}
	if d.logger == nil {
		d.logger = slog.Default()
	}
	return d
}

// View serves v through the pipeline.
func (d *Dispatcher) View(v View) http.Handler {
	return d.handler(v, false)
}

// SocialView serves v with a social strategy attached, so flow errors can be
// turned into login redirects.
func (d *Dispatcher) SocialView(v View) http.Handler {
	return d.handler(v, true)
}

func (d *Dispatcher) handler(v View, withStrategy bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req, hadCookie := d.bind(r)
		if withStrategy {
			req.Strategy = social.NewStrategy(req.Session, d.social)
		}

		resp := d.pipeline.Run(req, v)
		d.commit(req, resp, hadCookie)

		if err := resp.Write(w); err != nil {
			d.logger.Debug("write response", slog.Any("error", err))
		}
	})
}

func (d *Dispatcher) bind(r *http.Request) (*Request, bool) {
	ctx := r.Context()
	id := ""
	if c, err := r.Cookie(d.cookie.Name); err == nil {
		id = c.Value
	}

	sess, err := d.sessions.Load(ctx, id)
	if err != nil {
		d.logger.Warn("load session", slog.Any("error", err))
	}
	req := &Request{HTTP: r, Session: sess}

	user, err := d.sessions.ResolveUser(ctx, sess)
	if err != nil {
		d.logger.Warn("resolve session user", slog.Any("error", err))
	}
	req.User = user
	return req, id != ""
}

func (d *Dispatcher) commit(req *Request, resp *Response, hadCookie bool) {
	sess := req.Session
	switch {
	case sess.Destroyed():
		if hadCookie {
			resp.SetCookie(d.expiredCookie(req.HTTP))
		}
	case sess.Modified():
		if err := d.sessions.Save(req.Context(), sess); err != nil {
			d.logger.Error("save session", slog.Any("error", err))
			return
		}
		resp.SetCookie(d.sessionCookie(req.HTTP, sess.ID))
	}
}

func isSecureRequest(r *http.Request) bool {
	return r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}

func (d *Dispatcher) sessionCookie(r *http.Request, id string) *http.Cookie {
	return &http.Cookie{
		Name:     d.cookie.Name,
		Value:    id,
		Path:     "/",
		Domain:   d.cookie.Domain,
		HttpOnly: true,
		Secure:   isSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(d.sessions.TTL().Seconds()),
	}
}

// expiredCookie mirrors the attributes used when setting the cookie so browsers
// accept the deletion.
func (d *Dispatcher) expiredCookie(r *http.Request) *http.Cookie {
	return &http.Cookie{
		Name:     d.cookie.Name,
		Value:    "",
		Path:     "/",
		Domain:   d.cookie.Domain,
		HttpOnly: true,
		Secure:   isSecureRequest(r),
		MaxAge:   -1,
		Expires:  time.Unix(0, 0).UTC(),
		SameSite: http.SameSiteLaxMode,
	}
}
