package httpx

import (
	"log/slog"
	"net/http"

	"github.com/target/idpguard/internal/observability/statsd"
	"github.com/target/idpguard/internal/service"
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Dispatcher *Dispatcher
	Auth       *service.AuthService
	Tokens     *service.TokenService
	Metrics    statsd.Sink
	Logger     *slog.Logger
}

// NewRouter creates the HTTP router. Every route, including unknown paths,
// runs through the interceptor pipeline.
func NewRouter(services RouterServices) http.Handler {
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}
	d := services.Dispatcher
	mux := http.NewServeMux()

	mux.Handle("GET /healthz", d.View(healthView))
	mux.Handle("HEAD /healthz", d.View(healthView))

	if services.Auth != nil {
		registerAuthRoutes(mux, d, &AuthHandlers{Svc: services.Auth, Metrics: services.Metrics, Logger: logger})
	}
	if services.Tokens != nil {
		registerOIDCRoutes(mux, d, &OIDCHandlers{Tokens: services.Tokens})
	}
	mux.Handle("/", d.View(notFoundView))

	var h http.Handler = mux
	h = Metrics(services.Metrics)(h)
	h = Logging(logger)(h)
	return Recover(logger)(h)
}

func registerAuthRoutes(mux *http.ServeMux, d *Dispatcher, h *AuthHandlers) {
	mux.Handle("GET /login/{$}", d.SocialView(h.LoginSelection))
	mux.Handle("GET /login/{backend}/{$}", d.SocialView(h.Begin))
	mux.Handle("GET /complete/{backend}/{$}", d.SocialView(h.Complete))
	mux.Handle("POST /complete/{backend}/{$}", d.SocialView(h.Complete))
	mux.Handle("POST /logout/{$}", d.View(h.Logout))
}

func registerOIDCRoutes(mux *http.ServeMux, d *Dispatcher, h *OIDCHandlers) {
	for _, pattern := range []string{
		"GET /openid/userinfo",
		"POST /openid/userinfo",
		"GET /openid/userinfo/{$}",
		"POST /openid/userinfo/{$}",
	} {
		mux.Handle(pattern, d.View(h.UserInfo))
	}
}
