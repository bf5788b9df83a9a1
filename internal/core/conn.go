package core

import "sync"

// Conn is one live transport session as seen by the core layer. The
// transport owns it: the core keeps references only and checks Closed
// before delivering.
type Conn struct {
	ID string

	mu       sync.RWMutex
	username string

	events    chan *Event
	done      chan struct{}
	closeOnce sync.Once
}

// NewConn constructs an unbound connection with a buffered event queue.
func NewConn(id string, buffer int) *Conn {
	if buffer <= 0 {
		buffer = 16
	}
	return &Conn{
		ID:     id,
		events: make(chan *Event, buffer),
		done:   make(chan struct{}),
	}
}

// Username returns the bound username, if any.
func (c *Conn) Username() (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.username, c.username != ""
}

// Events is the outbound queue the transport drains.
func (c *Conn) Events() <-chan *Event {
	return c.events
}

// Done is closed once the transport has gone away.
func (c *Conn) Done() <-chan struct{} {
	return c.done
}

// Close marks the connection dead. Safe to call more than once.
func (c *Conn) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}

// Closed reports whether Close has been called.
func (c *Conn) Closed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// bind sets the username exactly once.
func (c *Conn) bind(username string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.username != "" {
		return ErrAlreadyBound
	}
	c.username = username
	return nil
}

// send enqueues an event without blocking. It returns false when the
// connection is closed or its buffer is full.
func (c *Conn) send(ev *Event) bool {
	if c.Closed() {
		return false
	}
	select {
	case c.events <- ev:
		return true
	default:
		return false
	}
}
