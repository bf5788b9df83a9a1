package core

import (
	"sort"
	"strings"
	"sync"
)

// Binding pairs a username with the id of the connection currently bound to it.
type Binding struct {
	Username string
	ConnID   string
}

// Registry maps usernames to at most one live connection.
//
// Readers (router lookups, presence snapshots) may run concurrently.
// Mutations are expected to be serialized by the Hub.
type Registry struct {
	mu     sync.RWMutex
	byUser map[string]*Conn
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byUser: make(map[string]*Conn)}
}

// Bind records that conn now represents username. A closed previous holder
// is purged and replaced; a live one makes the call fail with
// ErrDuplicateBinding.
func (r *Registry) Bind(conn *Conn, username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return ErrInvalidUsername
	}
	if conn.Closed() {
		return ErrConnClosed
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if current, ok := r.byUser[username]; ok {
		if current == conn {
			return ErrAlreadyBound
		}
		if !current.Closed() {
			return ErrDuplicateBinding
		}
		delete(r.byUser, username)
	}

	if err := conn.bind(username); err != nil {
		return err
	}
	r.byUser[username] = conn
	return nil
}

// Unbind removes the binding held by conn. It is a no-op for unbound
// connections or connections that were already replaced.
func (r *Registry) Unbind(conn *Conn) {
	username, ok := conn.Username()
	if !ok {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if current, exists := r.byUser[username]; exists && current == conn {
		delete(r.byUser, username)
	}
}

// FindByUsername returns the live connection bound to username.
func (r *Registry) FindByUsername(username string) (*Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conn, ok := r.byUser[username]
	if !ok || conn.Closed() {
		return nil, false
	}
	return conn, true
}

// AllLive returns a consistent snapshot of live bindings sorted by username.
func (r *Registry) AllLive() []Binding {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Binding, 0, len(r.byUser))
	for username, conn := range r.byUser {
		if conn.Closed() {
			continue
		}
		out = append(out, Binding{Username: username, ConnID: conn.ID})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out
}

// Purge drops bindings whose connection has closed and returns those connections.
func (r *Registry) Purge() []*Conn {
	r.mu.Lock()
	defer r.mu.Unlock()

	var purged []*Conn
	for username, conn := range r.byUser {
		if conn.Closed() {
			delete(r.byUser, username)
			purged = append(purged, conn)
		}
	}
	return purged
}

// Len returns the number of bindings, including ones not yet purged.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser)
}
