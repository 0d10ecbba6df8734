package tracking

import (
	"sync"
	"time"
)

// Registry keeps at most one active sampler per user.
type Registry struct {
	mu       sync.Mutex
	samplers map[string]*Sampler
}

func NewRegistry() *Registry {
	return &Registry{samplers: make(map[string]*Sampler)}
}

// Register makes s the user's active sampler, stopping any sampler it supersedes.
func (r *Registry) Register(user string, s *Sampler) {
	r.mu.Lock()
	prev := r.samplers[user]
	r.samplers[user] = s
	r.mu.Unlock()

	if prev != nil && prev != s {
		prev.StopTracking()
	}
}

// Get returns the user's active sampler.
func (r *Registry) Get(user string) (*Sampler, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.samplers[user]
	return s, ok
}

// Remove unregisters s if it is still the user's active sampler and reports whether it was.
func (r *Registry) Remove(user string, s *Sampler) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.samplers[user] != s {
		return false
	}
	delete(r.samplers, user)
	return true
}

// Len returns the number of registered samplers.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.samplers)
}

// StopIdle stops and removes samplers with no activity since now-idle, returning the
// affected users.
func (r *Registry) StopIdle(now time.Time, idle time.Duration) []string {
	var stale []*Sampler
	var users []string

	r.mu.Lock()
	for user, s := range r.samplers {
		if now.Sub(s.LastActivity()) > idle {
			stale = append(stale, s)
			users = append(users, user)
			delete(r.samplers, user)
		}
	}
	r.mu.Unlock()

	for _, s := range stale {
		s.StopTracking()
	}
	return users
}

// StopAll stops and removes every registered sampler.
func (r *Registry) StopAll() int {
	r.mu.Lock()
	all := r.samplers
	r.samplers = make(map[string]*Sampler)
	r.mu.Unlock()

	for _, s := range all {
		s.StopTracking()
	}
	return len(all)
}
