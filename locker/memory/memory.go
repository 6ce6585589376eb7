package memory

import (
	"sync"
	"time"

	"github.com/juju/clock"

	"github.com/mycok/uCheck/locker"
)

// Static and compile-time check to ensure InMemoryLocker implements
// locker.Locker interface.
var _ locker.Locker = (*InMemoryLocker)(nil)

// InMemoryLocker implements a single-process advisory lock table as a
// mutex-guarded map of key to expiry time. Expired entries are
// reclaimed lazily on the next acquisition attempt.
type InMemoryLocker struct {
	mu       sync.Mutex
	clk      clock.Clock
	expiries map[string]time.Time
}

// NewInMemoryLocker creates a new in-memory locker that uses the
// provided clock to evaluate expiries. A nil clock defaults to the
// wall-clock.
func NewInMemoryLocker(clk clock.Clock) *InMemoryLocker {
	if clk == nil {
		clk = clock.WallClock
	}

	return &InMemoryLocker{
		clk:      clk,
		expiries: make(map[string]time.Time),
	}
}

// Acquire attempts to set the named flag for the provided ttl.
func (l *InMemoryLocker) Acquire(key string, ttl time.Duration) bool {
	now := l.clk.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	if expiry, exists := l.expiries[key]; exists && expiry.After(now) {
		return false
	}

	l.expiries[key] = now.Add(ttl)

	return true
}

// Release clears the named flag.
func (l *InMemoryLocker) Release(key string) {
	l.mu.Lock()
	delete(l.expiries, key)
	l.mu.Unlock()
}
