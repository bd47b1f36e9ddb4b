// Package clock provides ports.Clock implementations.
package clock

import (
	"sync"
	"time"

	"github.com/target/idpguard/internal/ports"
)

var (
	_ ports.Clock = System{}
	_ ports.Clock = (*Fixed)(nil)
)

// System implements ports.Clock using real system time.
type System struct{}

// Now returns the current system time.
func (System) Now() time.Time {
	return time.Now()
}

// Fixed implements ports.Clock with a settable time for testing.
type Fixed struct {
	mu sync.Mutex
	t  time.Time
}

// NewFixed creates a Fixed clock at t.
func NewFixed(t time.Time) *Fixed {
	return &Fixed{t: t}
}

// Now returns the fixed time.
func (f *Fixed) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.t
}

// Set updates the fixed time.
func (f *Fixed) Set(t time.Time) {
	f.mu.Lock()
	f.t = t
	f.mu.Unlock()
}

// Add advances the fixed time by d (useful for testing time progression).
func (f *Fixed) Add(d time.Duration) {
	f.mu.Lock()
	f.t = f.t.Add(d)
	f.mu.Unlock()
}
