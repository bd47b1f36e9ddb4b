// Package social provides the per-request social-auth strategy handed to login views
// and the flow error translator.
package social

import (
	"strings"

	"github.com/target/idpguard/config"
	domainauth "github.com/target/idpguard/internal/domain/auth"
	"github.com/target/idpguard/internal/ports"
)

// Setting names understood by Strategy.Setting.
const (
	SettingRaiseExceptions = "RAISE_EXCEPTIONS"
	SettingLoginErrorURL   = "LOGIN_ERROR_URL"
	SettingLoginURL        = "LOGIN_URL"
)

const settingPrefix = "SOCIAL_AUTH_"

var _ ports.Strategy = (*Strategy)(nil)

// Strategy binds one request's session to the process-wide social-auth settings.
type Strategy struct {
	session  *domainauth.Session
	settings config.SocialConfig
}

// NewStrategy returns a strategy over session. session may be nil.
func NewStrategy(session *domainauth.Session, settings config.SocialConfig) *Strategy {
	return &Strategy{session: session, settings: settings}
}

// SessionGet reads a string session value.
func (s *Strategy) SessionGet(key string) (string, bool) {
	return s.session.GetString(key)
}

// Setting returns the named setting, with or without the SOCIAL_AUTH_ prefix.
// Unknown names return nil.
func (s *Strategy) Setting(name string) any {
	switch strings.TrimPrefix(strings.ToUpper(name), settingPrefix) {
	case SettingRaiseExceptions:
		return s.settings.RaiseExceptions
	case SettingLoginErrorURL:
		return s.settings.LoginErrorURL
	case SettingLoginURL:
		return s.settings.LoginURL
	default:
		return nil
	}
}
