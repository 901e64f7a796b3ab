package server

import (
	"sync"

	"github.com/lox/gammond/internal/game"
)

// Registry indexes live sessions three ways: by game id, by connection sid
// and by username. All three maps are kept consistent under one mutex.
type Registry struct {
	mu       sync.Mutex
	byID     map[string]*game.Session
	bySocket map[string]*game.Session
	byUser   map[string]*game.Session
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byID:     make(map[string]*game.Session),
		bySocket: make(map[string]*game.Session),
		byUser:   make(map[string]*game.Session),
	}
}

// Add indexes a new session under its game id and every seated sid and
// username. PvP sessions carry two of each, PvE one.
func (r *Registry) Add(s *game.Session, sids, usernames []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[s.ID()] = s
	for _, sid := range sids {
		if sid != "" {
			r.bySocket[sid] = s
		}
	}
	for _, username := range usernames {
		if username != "" {
			r.byUser[username] = s
		}
	}
}

// ByID returns the session registered under a game id.
func (r *Registry) ByID(gameID string) (*game.Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byID[gameID]
	return s, ok
}

// BySocket returns the session a connection is seated in.
func (r *Registry) BySocket(sid string) (*game.Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.bySocket[sid]
	return s, ok
}

// ByUser returns the session a username is seated in. This is the rejoin
// index: it survives the socket entry being dropped on disconnect.
func (r *Registry) ByUser(username string) (*game.Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byUser[username]
	return s, ok
}

// AssociateSocket points a fresh sid at an existing session after a rejoin.
func (r *Registry) AssociateSocket(sid, gameID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byID[gameID]
	if !ok {
		return false
	}
	r.bySocket[sid] = s
	return true
}

// DropSocket removes a single socket entry, leaving the id and username
// indexes intact so the player can rejoin.
func (r *Registry) DropSocket(sid string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.bySocket, sid)
}

// RemoveByID deletes the session and every socket and username entry
// pointing at it.
func (r *Registry) RemoveByID(gameID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byID[gameID]
	if !ok {
		return
	}
	delete(r.byID, gameID)
	for sid, entry := range r.bySocket {
		if entry == s {
			delete(r.bySocket, sid)
		}
	}
	for username, entry := range r.byUser {
		if entry == s {
			delete(r.byUser, username)
		}
	}
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID)
}
