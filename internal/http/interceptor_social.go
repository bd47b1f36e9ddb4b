package httpx

import (
	"errors"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"github.com/target/idpguard/internal/adapters/social"
	domainauth "github.com/target/idpguard/internal/domain/auth"
	"github.com/target/idpguard/internal/observability/statsd"
	"github.com/target/idpguard/internal/ports"
)

// LoginSelectionPath is the backend-selection page interrupted logins return to.
const LoginSelectionPath = "/login/"

const unknownBackend = "unknown-backend"

// SocialAuthExceptions turns social login flow failures into redirects back to
// backend selection, keeping the deep link the user was after.
type SocialAuthExceptions struct {
	NopInterceptor

	metrics statsd.Sink
	logger  *slog.Logger
}

// NewSocialAuthExceptions constructs the interceptor.
func NewSocialAuthExceptions(metrics statsd.Sink, logger *slog.Logger) *SocialAuthExceptions {
	if metrics == nil {
		metrics = statsd.Nop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SocialAuthExceptions{metrics: metrics, logger: logger}
}

// ShouldSuppress reports whether a flow error is turned into a redirect.
// Without a strategy the error propagates. Otherwise RAISE_EXCEPTIONS decides,
// regardless of DEV mode.
func ShouldSuppress(strategy ports.Strategy) bool {
	if strategy == nil {
		return false
	}
	raise, _ := strategy.Setting(social.SettingRaiseExceptions).(bool)
	return !raise
}

// DecideRedirect returns where the browser goes after ferr. With a stored
// next the user is sent back to backend selection carrying it; otherwise to
// the login error URL annotated with the message and backend.
func DecideRedirect(strategy ports.Strategy, ferr *domainauth.FlowError) string {
	if next, ok := strategy.SessionGet(domainauth.SessionKeyNext); ok {
		return LoginSelectionPath + "?next=" + quote(next)
	}
	return defaultRedirect(strategy, ferr)
}

// quote percent-encodes s for a query value, spaces as %20 rather than "+".
func quote(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

func defaultRedirect(strategy ports.Strategy, ferr *domainauth.FlowError) string {
	target, _ := strategy.Setting(social.SettingLoginErrorURL).(string)
	if target == "" {
		target = "/"
	}
	backend := ferr.Backend
	if backend == "" {
		backend = unknownBackend
	}

	sep := "?"
	if strings.Contains(target, "?") {
		sep = "&"
	}
	return target + sep + "message=" + url.QueryEscape(ferr.Error()) + "&backend=" + url.QueryEscape(backend)
}

// OnError handles *domainauth.FlowError only.
func (i *SocialAuthExceptions) OnError(req *Request, err error) Result {
	var ferr *domainauth.FlowError
	if !errors.As(err, &ferr) {
		return Continue()
	}

	suppress := ShouldSuppress(req.Strategy)
	i.metrics.Count("social.flow_error", 1, map[string]string{
		"kind":    string(ferr.Kind),
		"handled": strconv.FormatBool(suppress),
	})
	if !suppress {
		return Continue()
	}

	i.logger.Debug("social login interrupted",
		slog.String("kind", string(ferr.Kind)),
		slog.String("backend", ferr.Backend),
		slog.Any("error", err),
	)
	return Respond(Redirect(DecideRedirect(req.Strategy, ferr)))
}
