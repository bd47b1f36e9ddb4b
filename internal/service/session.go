package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	domainauth "github.com/target/idpguard/internal/domain/auth"
	"github.com/target/idpguard/internal/ports"
)

// SessionServiceOptions groups dependencies for SessionService.
type SessionServiceOptions struct {
	Store ports.SessionStore  // Required: session persistence
	Users ports.UserDirectory // Required: resolves the logged-in user
	TTL   time.Duration       // Lifetime applied on every save
}

// SessionService loads, persists and destroys request sessions.
type SessionService struct {
	store ports.SessionStore
	users ports.UserDirectory
	ttl   time.Duration
}

const defaultSessionTTL = 14 * 24 * time.Hour

// NewSessionService constructs a new SessionService.
func NewSessionService(opts SessionServiceOptions) *SessionService {
	if opts.Store == nil {
		panic("SessionStore is required")
	}
	if opts.Users == nil {
		panic("UserDirectory is required")
	}
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &SessionService{store: opts.Store, users: opts.Users, ttl: ttl}
}

// TTL returns the lifetime applied to saved sessions.
func (s *SessionService) TTL() time.Duration { return s.ttl }

// Load returns the session stored under id. Unknown ids yield a fresh, unsaved session.
// On store failure the fresh session is returned together with the error.
func (s *SessionService) Load(ctx context.Context, id string) (*domainauth.Session, error) {
	if id == "" {
		return domainauth.NewSession("", nil), nil
	}

	values, err := s.store.Load(ctx, id)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return domainauth.NewSession("", nil), nil
		}
		return domainauth.NewSession("", nil), fmt.Errorf("load session: %w", err)
	}
	return domainauth.NewSession(id, values), nil
}

// Save persists a modified session, assigning an id on first write.
// Destroyed and untouched sessions are left alone.
func (s *SessionService) Save(ctx context.Context, sess *domainauth.Session) error {
	if sess == nil || sess.Destroyed() || !sess.Modified() {
		return nil
	}
	if sess.ID == "" {
		sess.ID = uuid.NewString()
	}
	if err := s.store.Save(ctx, sess.ID, sess.Values(), s.ttl); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	sess.MarkSaved()
	return nil
}

// Destroy clears the session in memory first, then removes the stored copy.
// The in-memory session is unusable even when the store delete fails.
func (s *SessionService) Destroy(ctx context.Context, sess *domainauth.Session) error {
	if sess == nil {
		return nil
	}
	id := sess.Flush()
	if id == "" {
		return nil
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// Rotate gives the session a new id and drops the stored copy under the old one.
func (s *SessionService) Rotate(ctx context.Context, sess *domainauth.Session) error {
	old := sess.CycleKey(uuid.NewString())
	if old == "" {
		return nil
	}
	if err := s.store.Delete(ctx, old); err != nil {
		return fmt.Errorf("delete rotated session: %w", err)
	}
	return nil
}

// ResolveUser returns the user logged in on sess, or nil when there is none.
func (s *SessionService) ResolveUser(ctx context.Context, sess *domainauth.Session) (*domainauth.User, error) {
	id, ok := sess.AuthUserID()
	if !ok || id == "" {
		return nil, nil
	}

	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("resolve session user: %w", err)
	}
	u.IsAuthenticated = true
	return &u, nil
}
