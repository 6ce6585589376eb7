/*
	locker package defines the behavior of advisory, time-expiring lock
	providers. The locks are best-effort de-duplication flags rather
	than strict mutexes: two callers may race between the absence check
	and the set, so lock holders must keep their guarded work
	idempotent. The TTL guarantees that a holder which dies without
	releasing never blocks future acquisitions permanently.
*/

package locker

import "time"

// Locker should be implemented by advisory lock providers.
type Locker interface {
	// Acquire attempts to set the named flag for the provided ttl.
	// It returns true when the flag was set and false when another
	// unexpired holder already owns it. Acquiring an expired flag
	// succeeds and refreshes the expiry.
	Acquire(key string, ttl time.Duration) bool

	// Release clears the named flag regardless of who set it.
	Release(key string)
}
