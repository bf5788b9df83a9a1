package core

import "sync"

// Room groups connections subscribed to the same broadcast channel.
type Room struct {
	Name string

	mu    sync.RWMutex
	conns map[string]*Conn
}

// NewRoom constructs a room with no connections.
func NewRoom(name string) *Room {
	return &Room{
		Name:  name,
		conns: make(map[string]*Conn),
	}
}

// Add inserts a connection into the room. Returns true if newly added.
func (r *Room) Add(c *Conn) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.conns[c.ID]; exists {
		return false
	}
	r.conns[c.ID] = c
	return true
}

// Remove deletes a connection from the room. Returns true if removed.
func (r *Room) Remove(c *Conn) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.conns[c.ID]; !exists {
		return false
	}
	delete(r.conns, c.ID)
	return true
}

// Members returns a snapshot of the live connections in the room.
func (r *Room) Members() []*Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Conn, 0, len(r.conns))
	for _, c := range r.conns {
		if c.Closed() {
			continue
		}
		out = append(out, c)
	}
	return out
}

// Broadcast sends an event to all members except the connection with the
// given id (empty excludes nobody). Each target gets a non-blocking enqueue
// so one slow consumer cannot hold up the rest. It returns how many targets
// accepted the event and how many dropped it.
func (r *Room) Broadcast(event *Event, exceptID string) (delivered, dropped int) {
	for _, c := range r.Members() {
		if c.ID == exceptID {
			continue
		}
		if c.send(event) {
			delivered++
		} else {
			dropped++
		}
	}
	return delivered, dropped
}

// Len returns the number of connections in the room, closed ones included.
func (r *Room) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
