package auth

import (
	"fmt"
	"maps"
)

// Well-known session keys shared with the login flow.
const (
	SessionKeyNext            = "next"
	SessionKeyAuthUserID      = "_auth_user_id"
	SessionKeyAuthUserBackend = "_auth_user_backend"
)

// Session is the server-side key-value state bound to one client cookie.
// A zero ID means the session has never been persisted.
// Getters treat missing or mistyped keys as absent.
type Session struct {
	ID string

	values    map[string]any
	modified  bool
	destroyed bool
}

// NewSession wraps stored values. values may be nil.
func NewSession(id string, values map[string]any) *Session {
	if values == nil {
		values = make(map[string]any)
	}
	return &Session{ID: id, values: values}
}

// GetString returns the string stored under key.
func (s *Session) GetString(key string) (string, bool) {
	if s == nil {
		return "", false
	}
	v, ok := s.values[key]
	if !ok || v == nil {
		return "", false
	}
	str, ok := v.(string)
	return str, ok
}

// Next returns the deep-link target stored by the login flow.
func (s *Session) Next() (string, bool) { return s.GetString(SessionKeyNext) }

// AuthUserID returns the id of the logged-in user.
func (s *Session) AuthUserID() (string, bool) { return s.GetString(SessionKeyAuthUserID) }

// AuthUserBackend returns the name of the backend that authenticated this session.
func (s *Session) AuthUserBackend() (string, bool) { return s.GetString(SessionKeyAuthUserBackend) }

// Set stores a value and marks the session modified.
func (s *Session) Set(key string, value any) {
	if s.values == nil {
		s.values = make(map[string]any)
	}
	s.values[key] = value
	s.modified = true
	s.destroyed = false
}

// Delete removes key if present.
func (s *Session) Delete(key string) {
	if _, ok := s.values[key]; !ok {
		return
	}
	delete(s.values, key)
	s.modified = true
}

// Pop returns and removes a string value.
func (s *Session) Pop(key string) (string, bool) {
	v, ok := s.GetString(key)
	s.Delete(key)
	return v, ok
}

// Flush drops every key and forgets the session id.
// It returns the id the session had so the caller can remove the stored copy.
func (s *Session) Flush() string {
	id := s.ID
	s.values = make(map[string]any)
	s.ID = ""
	s.modified = false
	s.destroyed = true
	return id
}

// CycleKey moves the values under newID and returns the previous id.
func (s *Session) CycleKey(newID string) string {
	old := s.ID
	s.ID = newID
	s.modified = true
	s.destroyed = false
	return old
}

// Values returns a copy of the stored values.
func (s *Session) Values() map[string]any {
	return maps.Clone(s.values)
}

// Len returns the number of stored keys.
func (s *Session) Len() int { return len(s.values) }

// Modified reports whether the session needs to be persisted.
func (s *Session) Modified() bool { return s.modified }

// Destroyed reports whether Flush was called and nothing was written afterwards.
func (s *Session) Destroyed() bool { return s.destroyed }

// MarkSaved clears the modified flag after persistence.
func (s *Session) MarkSaved() { s.modified = false }

func (s *Session) String() string {
	return fmt.Sprintf("Session(id=%q, keys=%d)", s.ID, len(s.values))
}
