package client

import (
	"net/http"
	"sync"
)

// SessionGuard owns the single session slot of a client instance. It attaches
// the bearer credential to outgoing requests and evicts the session when the
// server reports 401, firing the configured hook exactly once per session.
// Requests against the auth endpoints themselves never trigger eviction, so a
// failed login cannot bounce an already-unauthenticated client.
type SessionGuard struct {
	mu             sync.Mutex
	token          string
	onUnauthorized func()
}

// NewSessionGuard constructs a guard with an empty session slot.
// onUnauthorized may be nil.
func NewSessionGuard(onUnauthorized func()) *SessionGuard {
	return &SessionGuard{onUnauthorized: onUnauthorized}
}

// Set replaces the session slot after a successful authentication.
func (g *SessionGuard) Set(token string) {
	g.mu.Lock()
	g.token = token
	g.mu.Unlock()
}

// Token returns the current credential, empty when unauthenticated.
func (g *SessionGuard) Token() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.token
}

// Clear empties the slot on explicit sign-out. The hook is not fired.
func (g *SessionGuard) Clear() {
	g.mu.Lock()
	g.token = ""
	g.mu.Unlock()
}

// Attach adds the Authorization header when a session exists.
func (g *SessionGuard) Attach(req *http.Request) {
	if tok := g.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
}

// HandleUnauthorized processes an intercepted 401. authRequest marks calls to
// the login/register endpoints, which are exempt. Eviction happens at most
// once: a burst of in-flight requests all failing with 401 fires the hook for
// the first one only.
func (g *SessionGuard) HandleUnauthorized(authRequest bool) {
	if authRequest {
		return
	}
	g.mu.Lock()
	evict := g.token != ""
	g.token = ""
	hook := g.onUnauthorized
	g.mu.Unlock()
	if evict && hook != nil {
		hook()
	}
}
