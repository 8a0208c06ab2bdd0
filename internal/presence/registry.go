// Package presence tracks which user identity currently owns which live
// connection. The registry is the single source of truth for "is user X
// reachable now"; it is never persisted and starts empty on every boot.
package presence

import "sync"

// Registry is a bidirectional user<->connection map. One user maps to at
// most one connection; a later Register for the same user supersedes the
// earlier binding.
type Registry struct {
	mu     sync.RWMutex
	byUser map[string]string // userID -> connID
	byConn map[string]string // connID -> userID
}

func NewRegistry() *Registry {
	return &Registry{
		byUser: make(map[string]string),
		byConn: make(map[string]string),
	}
}

// Register binds user to conn, replacing any prior binding for that user.
// It returns the superseded connection ID, or "" if there was none. The
// superseded connection is not closed here; the caller decides.
func (r *Registry) Register(userID, connID string) (prev string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if old, ok := r.byUser[userID]; ok && old != connID {
		delete(r.byConn, old)
		prev = old
	}
	// A connection can only speak for one user at a time.
	if oldUser, ok := r.byConn[connID]; ok && oldUser != userID {
		delete(r.byUser, oldUser)
	}
	r.byUser[userID] = connID
	r.byConn[connID] = userID
	return prev
}

// Unregister removes the binding owned by conn. Unknown connections are a
// no-op, so disconnect cleanup can always call it safely.
func (r *Registry) Unregister(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	userID, ok := r.byConn[connID]
	if !ok {
		return
	}
	delete(r.byConn, connID)
	// Only drop the forward entry if it still points at this connection;
	// a newer Register may have rebound the user already.
	if r.byUser[userID] == connID {
		delete(r.byUser, userID)
	}
}

// Connection returns the live connection ID for a user, if any.
func (r *Registry) Connection(userID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	connID, ok := r.byUser[userID]
	return connID, ok
}

// User returns the user ID bound to a connection, if any.
func (r *Registry) User(connID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	userID, ok := r.byConn[connID]
	return userID, ok
}

// Count reports how many users are currently connected.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser)
}
