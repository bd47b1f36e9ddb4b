package httpx

import (
	"errors"
	"fmt"
	"strings"

	domainauth "github.com/target/idpguard/internal/domain/auth"
	"github.com/target/idpguard/internal/observability/statsd"
)

// BearerErrors answers bearer token rejections with a 403 and an RFC 6750 challenge.
type BearerErrors struct {
	NopInterceptor

	metrics statsd.Sink
}

// NewBearerErrors constructs the interceptor.
func NewBearerErrors(metrics statsd.Sink) *BearerErrors {
	if metrics == nil {
		metrics = statsd.Nop{}
	}
	return &BearerErrors{metrics: metrics}
}

// BearerChallenge renders the WWW-Authenticate value for berr. The realm is
// included only when the POST form carries a scope field.
func BearerChallenge(req *Request, berr *domainauth.BearerError) string {
	fields := make([]string, 0, 3)
	if scope, ok := req.PostValue("scope"); ok {
		fields = append(fields, fmt.Sprintf(`Bearer realm="%s"`, scope))
	}
	fields = append(fields,
		fmt.Sprintf(`error="%s"`, berr.Code),
		fmt.Sprintf(`error_description="%s"`, berr.Description),
	)
	return strings.Join(fields, ", ")
}

// OnError handles *domainauth.BearerError only.
func (i *BearerErrors) OnError(req *Request, err error) Result {
	var berr *domainauth.BearerError
	if !errors.As(err, &berr) {
		return Continue()
	}

	i.metrics.Count("oidc.bearer_error", 1, map[string]string{"code": berr.Code})
	resp := Forbidden()
	resp.Header.Set("WWW-Authenticate", BearerChallenge(req, berr))
	return Respond(resp)
}
