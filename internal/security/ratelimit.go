package security

import (
	"sync"
	"time"
)

// LoginLimiter caps login attempts per username. The app runs on a
// shared device where many profiles log in from the same address, so
// attempts are keyed by the profile under attack rather than by client
// IP: one student hammering a sibling's password cannot lock out the
// whole class, and moving to another seat does not reset the count.
type LoginLimiter struct {
	mu       sync.Mutex
	buckets  map[string]*attemptBucket
	attempts int
	window   time.Duration
}

type attemptBucket struct {
	remaining int
	resetAt   time.Time
}

// NewLoginLimiter allows attempts tries per username within each window
func NewLoginLimiter(attempts int, window time.Duration) *LoginLimiter {
	return &LoginLimiter{
		buckets:  make(map[string]*attemptBucket),
		attempts: attempts,
		window:   window,
	}
}

// Allow consumes one attempt for the username. The bucket refills all at
// once when its window elapses.
func (l *LoginLimiter) Allow(username string) bool {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[username]
	if !ok || now.After(b.resetAt) {
		if len(l.buckets) >= 1024 {
			l.pruneLocked(now)
		}
		b = &attemptBucket{remaining: l.attempts, resetAt: now.Add(l.window)}
		l.buckets[username] = b
	}

	if b.remaining == 0 {
		return false
	}
	b.remaining--
	return true
}

// pruneLocked drops expired buckets so the map stays bounded under a
// churn of misspelled usernames
func (l *LoginLimiter) pruneLocked(now time.Time) {
	for username, b := range l.buckets {
		if now.After(b.resetAt) {
			delete(l.buckets, username)
		}
	}
}
