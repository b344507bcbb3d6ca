// Package calls stores in-flight call sessions keyed by call id text.
package calls

import (
	"sync"
	"time"

	"github.com/mossy-p/callrelay/internal/models"
)

// Registry is a mutex-guarded map of call sessions. Sessions are returned by
// value so callers never share mutable state with the registry.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*models.CallSession
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*models.CallSession)}
}

func (r *Registry) Get(id models.CallID) (models.CallSession, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id.Key()]
	if !ok {
		return models.CallSession{}, false
	}
	return *s, true
}

// Put stores s, overwriting any session with the same id. It reports whether
// an existing session was replaced.
func (r *Registry) Put(s models.CallSession) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, replaced := r.sessions[s.ID.Key()]
	r.sessions[s.ID.Key()] = &s
	return replaced
}

// Advance moves the session from one state to another. It returns the updated
// session, or false if the session is gone. A session not in from is left as is.
func (r *Registry) Advance(id models.CallID, from, to models.CallState) (models.CallSession, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id.Key()]
	if !ok {
		return models.CallSession{}, false
	}
	if s.State == from {
		s.State = to
	}
	return *s, true
}

// Remove deletes the session and returns it marked as ended.
func (r *Registry) Remove(id models.CallID) (models.CallSession, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id.Key()]
	if !ok {
		return models.CallSession{}, false
	}
	delete(r.sessions, id.Key())
	s.State = models.CallStateEnded
	return *s, true
}

// RemoveInvolving deletes every session where id is a participant.
func (r *Registry) RemoveInvolving(id models.Identity) []models.CallSession {
	return r.removeWhere(func(s *models.CallSession) bool { return s.Involves(id) })
}

// RemovePendingBefore deletes pending sessions created before cutoff.
func (r *Registry) RemovePendingBefore(cutoff time.Time) []models.CallSession {
	return r.removeWhere(func(s *models.CallSession) bool {
		return s.State == models.CallStatePending && s.CreatedAt.Before(cutoff)
	})
}

// removeWhere is a linear scan; concurrent call volume is expected to be low.
func (r *Registry) removeWhere(match func(*models.CallSession) bool) []models.CallSession {
	r.mu.Lock()
	defer r.mu.Unlock()
	var removed []models.CallSession
	for key, s := range r.sessions {
		if !match(s) {
			continue
		}
		delete(r.sessions, key)
		s.State = models.CallStateEnded
		removed = append(removed, *s)
	}
	return removed
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
