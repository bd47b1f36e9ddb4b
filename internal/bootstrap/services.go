package bootstrap

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"

	"github.com/redis/go-redis/v9"
	"github.com/target/idpguard/config"
	"github.com/target/idpguard/internal/adapters/clock"
	"github.com/target/idpguard/internal/adapters/postgres"
	redisadapter "github.com/target/idpguard/internal/adapters/redis"
	httpx "github.com/target/idpguard/internal/http"
	"github.com/target/idpguard/internal/observability/statsd"
	"github.com/target/idpguard/internal/ports"
	"github.com/target/idpguard/internal/service"
)

// Stores groups the persistence ports used by the request pipeline.
type Stores struct {
	Sessions ports.SessionStore
	Users    ports.UserDirectory
	Tokens   ports.TokenStore
}

// NewStores builds the Redis session and token stores and the Postgres user directory.
func NewStores(db *sql.DB, rdb redis.UniversalClient, cfg config.RedisConfig) Stores {
	return Stores{
		Sessions: redisadapter.NewSessionStoreWithPrefix(rdb, cfg.SessionPrefix),
		Users:    postgres.NewUserRepo(db),
		Tokens:   redisadapter.NewTokenStore(rdb, cfg.TokenPrefix),
	}
}

// HandlerConfig contains everything needed to build the HTTP handler.
type HandlerConfig struct {
	Config   *config.AppConfig
	Stores   Stores
	Backends []ports.AuthProvider
	Clock    ports.Clock // Optional, defaults to the system clock
	Metrics  statsd.Sink // Optional, defaults to a no-op sink
	Logger   *slog.Logger
}

// BuildHandler assembles services, interceptors, the pipeline and the router.
func BuildHandler(cfg HandlerConfig) (http.Handler, error) {
	if cfg.Config == nil {
		return nil, errors.New("config is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clk := cfg.Clock
	if clk == nil {
		clk = clock.System{}
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = statsd.Nop{}
	}
	app := cfg.Config

	sessions := service.NewSessionService(service.SessionServiceOptions{
		Store: cfg.Stores.Sessions,
		Users: cfg.Stores.Users,
		TTL:   app.HTTP.SessionTTL,
	})
	auth, err := service.NewAuthService(service.AuthServiceOptions{
		Backends: cfg.Backends,
		Sessions: sessions,
		Users:    cfg.Stores.Users,
		Clock:    clk,
	})
	if err != nil {
		return nil, err
	}
	tokens := service.NewTokenService(service.TokenServiceOptions{
		Tokens: cfg.Stores.Tokens,
		Users:  cfg.Stores.Users,
		Clock:  clk,
	})

	pipeline := httpx.NewStandardPipeline(logger, httpx.InterceptorSet{
		Restricted: httpx.NewRestrictedSession(httpx.RestrictedSessionOptions{
			Config:   app.Security,
			Sessions: sessions,
			Clock:    clk,
			Metrics:  metrics,
			Logger:   logger,
		}),
		Social: httpx.NewSocialAuthExceptions(metrics, logger),
		Bearer: httpx.NewBearerErrors(metrics),
		CSP:    httpx.NewContentSecurityPolicy(&app.Security.CSP, metrics, logger),
	})

	dispatcher := httpx.NewDispatcher(httpx.DispatcherOptions{
		Pipeline: pipeline,
		Sessions: sessions,
		Cookie: httpx.CookieConfig{
			Name:   app.HTTP.SessionCookieName,
			Domain: app.HTTP.CookieDomain,
		},
		Social: app.Auth.Social,
		Logger: logger,
	})

	return httpx.NewRouter(httpx.RouterServices{
		Dispatcher: dispatcher,
		Auth:       auth,
		Tokens:     tokens,
		Metrics:    metrics,
		Logger:     logger,
	}), nil
}

// NewMetrics builds the StatsD sink from observability config. A disabled
// config yields a client that drops every metric.
func NewMetrics(cfg config.ObservabilityMetricsConfig, isDev bool, logger *slog.Logger) (*statsd.Client, error) {
	envTag := "prod"
	if isDev {
		envTag = "dev"
	}
	return statsd.NewClient(statsd.Config{
		Enabled:    cfg.IsEnabled(),
		Address:    cfg.StatsdAddress,
		Prefix:     cfg.Prefix,
		Logger:     logger,
		GlobalTags: map[string]string{"env": envTag},
	})
}
