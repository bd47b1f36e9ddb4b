package httpx

import (
	"net/http"
	"strings"

	"github.com/target/idpguard/internal/service"
)

// OIDCHandlers serves bearer-protected OpenID Connect endpoints.
type OIDCHandlers struct {
	Tokens *service.TokenService
}

// UserInfo returns the claims of the access token's owner.
func (h *OIDCHandlers) UserInfo(req *Request) (*Response, error) {
	claims, err := h.Tokens.UserInfo(req.Context(), accessToken(req.HTTP))
	if err != nil {
		return nil, err
	}
	resp := JSON(http.StatusOK, claims)
	resp.Header.Set("Cache-Control", "no-store")
	resp.Header.Set("Pragma", "no-cache")
	return resp, nil
}

// accessToken reads the token from the Authorization header, then the access_token form field.
func accessToken(r *http.Request) string {
	if scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " "); ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(token)
	}
	return r.FormValue("access_token")
}
