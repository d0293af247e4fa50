package auth

import "sync/atomic"

// RedirectGuard deduplicates the login redirect triggered by session expiry.
// Several concurrent requests can all come back with AUTH-002; only the first
// completion may drive the redirect, or a burst of failures would stack
// navigations. Reset on login or logout.
type RedirectGuard struct {
	tripped atomic.Bool
}

// NewRedirectGuard creates an untripped guard.
func NewRedirectGuard() *RedirectGuard {
	return &RedirectGuard{}
}

// Trip returns true exactly once per lifecycle, for the caller that should
// perform the redirect. All later callers get false until Reset.
func (g *RedirectGuard) Trip() bool {
	return g.tripped.CompareAndSwap(false, true)
}

// Tripped reports whether the guard has fired.
func (g *RedirectGuard) Tripped() bool {
	return g.tripped.Load()
}

// Reset re-arms the guard for a fresh session lifecycle.
func (g *RedirectGuard) Reset() {
	g.tripped.Store(false)
}
