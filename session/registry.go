package session

import (
	"sync"

	uuid "github.com/satori/go.uuid"
)

// Registry is the process-wide table of sessions. Lookups take the shared
// lock so traffic against existing sessions never contends with session
// creation.
type Registry struct {
	minGamers int
	mtx       sync.RWMutex
	sessions  map[string]*Session
}

// NewRegistry will initialize an empty registry with required params and
// sane defaults.
func NewRegistry(minGamers int) *Registry {
	if minGamers < 1 {
		minGamers = DefaultMinGamers
	}
	return &Registry{
		minGamers: minGamers,
		sessions:  make(map[string]*Session),
	}
}

// Get returns the session registered under id.
func (r *Registry) Get(id string) (*Session, error) {
	r.mtx.RLock()
	s, ok := r.sessions[id]
	r.mtx.RUnlock()
	if !ok {
		return nil, ErrUnknownSession
	}
	return s, nil
}

// GetOrCreate returns the session registered under id, creating it first
// when missing. An empty id allocates a fresh UUID. The second return value
// reports whether the call created the session.
func (r *Registry) GetOrCreate(id string) (*Session, bool) {
	if id != "" {
		r.mtx.RLock()
		s, ok := r.sessions[id]
		r.mtx.RUnlock()
		if ok {
			return s, false
		}
	}
	r.mtx.Lock()
	defer r.mtx.Unlock()
	if id == "" {
		id = uuid.NewV4().String()
	} else if s, ok := r.sessions[id]; ok {
		return s, false
	}
	s := newSession(id, r.minGamers)
	r.sessions[id] = s
	return s, true
}

// Remove drops a session from the registry. Resetting keeps the slot,
// removal is the explicit administrative action that frees it.
func (r *Registry) Remove(id string) error {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	if _, ok := r.sessions[id]; !ok {
		return ErrUnknownSession
	}
	delete(r.sessions, id)
	return nil
}

// Len returns the number of registered sessions.
func (r *Registry) Len() int {
	r.mtx.RLock()
	defer r.mtx.RUnlock()
	return len(r.sessions)
}
