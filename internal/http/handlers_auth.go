package httpx

import (
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/target/idpguard/internal/observability/metrics"
	"github.com/target/idpguard/internal/observability/statsd"
	"github.com/target/idpguard/internal/service"
)

// AuthHandlers serves the social login views.
type AuthHandlers struct {
	Svc     *service.AuthService
	Metrics statsd.Sink
	Logger  *slog.Logger
}

func (h *AuthHandlers) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

type backendChoice struct {
	Name     string `json:"name"`
	LoginURL string `json:"login_url"`
}

type loginSelection struct {
	Backends []backendChoice `json:"backends"`
	Next     string          `json:"next,omitempty"`
}

// LoginSelection lists the enabled backends, each with a begin URL carrying next.
func (h *AuthHandlers) LoginSelection(req *Request) (*Response, error) {
	next := req.HTTP.URL.Query().Get("next")
	body := loginSelection{Next: next}
	for _, name := range h.Svc.Backends() {
		loginURL := LoginSelectionPath + url.PathEscape(name) + "/"
		if next != "" {
			loginURL += "?next=" + url.QueryEscape(next)
		}
		body.Backends = append(body.Backends, backendChoice{Name: name, LoginURL: loginURL})
	}
	return JSON(http.StatusOK, body), nil
}

// Begin starts a login at the backend named in the path.
func (h *AuthHandlers) Begin(req *Request) (*Response, error) {
	authURL, err := h.Svc.BeginLogin(req.Context(), req.Session, service.BeginLoginInput{
		Backend: req.HTTP.PathValue("backend"),
		Next:    req.HTTP.URL.Query().Get("next"),
	})
	if err != nil {
		return nil, err
	}
	return Redirect(authURL), nil
}

// Complete handles the backend callback. Both query and form_post callbacks are accepted.
func (h *AuthHandlers) Complete(req *Request) (*Response, error) {
	r := req.HTTP
	backend := r.PathValue("backend")
	start := time.Now()
	res, err := h.Svc.CompleteLogin(req.Context(), req.Session, service.CompleteLoginInput{
		Backend:          backend,
		Code:             r.FormValue("code"),
		State:            r.FormValue("state"),
		Error:            r.FormValue("error"),
		ErrorDescription: r.FormValue("error_description"),
	})
	metrics.EmitLogin(h.Metrics, metrics.LoginMetric{Backend: backend, Duration: time.Since(start), Err: err})
	if err != nil {
		return nil, err
	}

	h.logger().Info("login completed",
		slog.String("backend", backend),
		slog.String("user_id", res.User.ID),
	)
	return Redirect(res.Redirect), nil
}

// Logout destroys the session and returns to the site root.
func (h *AuthHandlers) Logout(req *Request) (*Response, error) {
	if err := h.Svc.Logout(req.Context(), req.Session); err != nil {
		h.logger().Error("logout", slog.Any("error", err))
	}
	req.User = nil
	return Redirect("/"), nil
}
