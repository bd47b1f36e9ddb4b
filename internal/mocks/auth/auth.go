// Package auth contains simple hand-written test doubles for auth ports.
// These are lightweight and suitable for unit tests without codegen.
package auth

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sync"
	"time"

	"github.com/google/uuid"
	domainauth "github.com/target/idpguard/internal/domain/auth"
	"github.com/target/idpguard/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.AuthProvider  = (*MockAuthProvider)(nil)
	_ ports.SessionStore  = (*MemorySessionStore)(nil)
	_ ports.UserDirectory = (*MemoryUserDirectory)(nil)
	_ ports.TokenStore    = (*MemoryTokenStore)(nil)
)

// ErrNotFound is returned by doubles when an entity is not present.
var ErrNotFound = ports.ErrNotFound

// MockAuthProvider simulates a login backend with deterministic URLs.
type MockAuthProvider struct {
	BackendName  string
	AuthURLFunc  func(ctx context.Context, in ports.BeginInput) (string, error)
	ExchangeFunc func(ctx context.Context, in ports.ExchangeInput) (domainauth.Identity, error)

	// BaseURL is the upstream authorization endpoint used when AuthURLFunc is nil.
	BaseURL     string
	DefaultUser domainauth.Identity

	mu        sync.Mutex
	exchanges []ports.ExchangeInput
}

// NewMockAuthProvider creates a MockAuthProvider with sensible defaults.
func NewMockAuthProvider(name string) *MockAuthProvider {
	return &MockAuthProvider{
		BackendName: name,
		BaseURL:     "https://mock-idp/auth",
		DefaultUser: domainauth.Identity{
			Subject:   "mock-user-1",
			FirstName: "Mock",
			LastName:  "User",
			Email:     "mock.user@example.com",
		},
	}
}

func (m *MockAuthProvider) Name() string { return m.BackendName }

func (m *MockAuthProvider) AuthURL(ctx context.Context, in ports.BeginInput) (string, error) {
	if m.AuthURLFunc != nil {
		return m.AuthURLFunc(ctx, in)
	}
	base := m.BaseURL
	if base == "" {
		base = "https://mock-idp/auth"
	}
	return fmt.Sprintf("%s?state=%s&nonce=%s", base, in.State, in.Nonce), nil
}

func (m *MockAuthProvider) Exchange(ctx context.Context, in ports.ExchangeInput) (domainauth.Identity, error) {
	m.mu.Lock()
	m.exchanges = append(m.exchanges, in)
	m.mu.Unlock()

	if m.ExchangeFunc != nil {
		return m.ExchangeFunc(ctx, in)
	}
	return m.DefaultUser, nil
}

// Exchanges returns every input Exchange was called with.
func (m *MockAuthProvider) Exchanges() []ports.ExchangeInput {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ports.ExchangeInput(nil), m.exchanges...)
}

// MemorySessionStore is an in-memory session store for unit tests.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]map[string]any
	ttls     map[string]time.Duration

	// DeleteErr, when set, is returned by Delete after the entry is removed.
	DeleteErr error
}

// NewMemorySessionStore creates a new in-memory session store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[string]map[string]any),
		ttls:     make(map[string]time.Duration),
	}
}

func (m *MemorySessionStore) Save(_ context.Context, id string, values map[string]any, ttl time.Duration) error {
	if id == "" {
		return errors.New("session ID cannot be empty")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[id] = maps.Clone(values)
	m.ttls[id] = ttl
	return nil
}

func (m *MemorySessionStore) Load(_ context.Context, id string) (map[string]any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	values, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return maps.Clone(values), nil
}

func (m *MemorySessionStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	delete(m.ttls, id)
	return m.DeleteErr
}

// Has reports whether id is stored.
func (m *MemorySessionStore) Has(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.sessions[id]
	return ok
}

// TTL returns the ttl of the last save for id.
func (m *MemorySessionStore) TTL(id string) time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ttls[id]
}

// Put seeds a session directly.
func (m *MemorySessionStore) Put(id string, values map[string]any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[id] = maps.Clone(values)
}

// MemoryUserDirectory keeps users keyed by id and by backend/subject.
type MemoryUserDirectory struct {
	mu        sync.Mutex
	users     map[string]domainauth.User
	bySubject map[string]string
}

// NewMemoryUserDirectory creates an empty directory.
func NewMemoryUserDirectory() *MemoryUserDirectory {
	return &MemoryUserDirectory{
		users:     make(map[string]domainauth.User),
		bySubject: make(map[string]string),
	}
}

// Add stores u as-is.
func (d *MemoryUserDirectory) Add(u domainauth.User) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.users[u.ID] = u
}

func (d *MemoryUserDirectory) GetByID(_ context.Context, id string) (domainauth.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	u, ok := d.users[id]
	if !ok {
		return domainauth.User{}, ErrNotFound
	}
	return u, nil
}

func (d *MemoryUserDirectory) RecordLogin(
	_ context.Context,
	backend string,
	identity domainauth.Identity,
	at time.Time,
) (domainauth.User, error) {
	if backend == "" || identity.Subject == "" {
		return domainauth.User{}, errors.New("backend and subject are required")
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	key := backend + "|" + identity.Subject
	id, ok := d.bySubject[key]
	if !ok {
		id = uuid.NewString()
		d.bySubject[key] = id
	}
	u := domainauth.User{
		ID:        id,
		Email:     identity.Email,
		FirstName: identity.FirstName,
		LastName:  identity.LastName,
		LastLogin: at,
	}
	d.users[id] = u
	return u, nil
}

// MemoryTokenStore serves access tokens from a map.
type MemoryTokenStore struct {
	mu     sync.Mutex
	tokens map[string]domainauth.AccessToken
}

// NewMemoryTokenStore creates a store seeded with tokens.
func NewMemoryTokenStore(tokens ...domainauth.AccessToken) *MemoryTokenStore {
	s := &MemoryTokenStore{tokens: make(map[string]domainauth.AccessToken)}
	for _, t := range tokens {
		s.tokens[t.Value] = t
	}
	return s
}

func (s *MemoryTokenStore) Get(_ context.Context, value string) (domainauth.AccessToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tokens[value]
	if !ok {
		return domainauth.AccessToken{}, ErrNotFound
	}
	return t, nil
}
