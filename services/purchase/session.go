package purchase

import (
	"sync"
	"time"

	"github.com/siteforge/domainops/internal/utils"
)

type sessionState struct {
	cancelled bool
	createdAt time.Time
}

// SessionRegistry tracks live purchase sessions and their cancellation
// flags. It is an injected collaborator, scoped to the service that owns it;
// entries older than maxAge are evicted by Sweep.
type SessionRegistry struct {
	mu       sync.RWMutex
	sessions map[string]*sessionState
	maxAge   time.Duration
}

func NewSessionRegistry(maxAge time.Duration) *SessionRegistry {
	return &SessionRegistry{
		sessions: make(map[string]*sessionState),
		maxAge:   maxAge,
	}
}

// Register adds the session with a fresh cancellation flag. Re-registering
// an id resets its flag.
func (r *SessionRegistry) Register(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[sessionID] = &sessionState{createdAt: utils.Now()}
}

// Cancel flips the session's flag. Returns false for unknown sessions
// (finished, swept or never started).
func (r *SessionRegistry) Cancel(sessionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	state, ok := r.sessions[sessionID]
	if !ok {
		return false
	}
	state.cancelled = true
	return true
}

func (r *SessionRegistry) IsCancelled(sessionID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	state, ok := r.sessions[sessionID]
	return ok && state.cancelled
}

func (r *SessionRegistry) Remove(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, sessionID)
}

// Sweep evicts sessions older than the registry's max age and returns how
// many were removed. A crashed workflow must not pin its session forever.
func (r *SessionRegistry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	cutoff := utils.Now().Add(-r.maxAge)
	removed := 0
	for id, state := range r.sessions {
		if state.createdAt.Before(cutoff) {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed
}

func (r *SessionRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
