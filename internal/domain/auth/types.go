// Package auth contains domain-level types for authentication and sessions.
// It is pure and free of framework/adapter concerns.
package auth

import "time"

// Identity represents the authenticated principal returned by an upstream login backend.
// Adapters map provider-specific claims into this shape.
type Identity struct {
	Subject   string // stable identifier at the backend (e.g. sub claim)
	FirstName string
	LastName  string
	Email     string
}

// User is the local account record the identity provider keeps for a person.
type User struct {
	ID        string
	Email     string
	FirstName string
	LastName  string
	LastLogin time.Time
	// IsAuthenticated is true for users resolved from a logged-in session.
	IsAuthenticated bool
}

// FullName joins first and last name the way userinfo claims expect it.
func (u User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	default:
		return u.FirstName + " " + u.LastName
	}
}

// AccessToken is a bearer token record issued by the token endpoint.
type AccessToken struct {
	Value     string    `json:"value"`
	UserID    string    `json:"user_id"`
	ClientID  string    `json:"client_id"`
	Scope     []string  `json:"scope"`
	ExpiresAt time.Time `json:"expires_at"`
}

// HasScope reports whether the token was granted the given scope.
func (t AccessToken) HasScope(scope string) bool {
	for _, s := range t.Scope {
		if s == scope {
			return true
		}
	}
	return false
}

// Expired reports whether the token is past its expiry at now.
func (t AccessToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}
