package core

import (
	"context"
	"sync"
	"testing"
	"time"
)

func mustEvent(t *testing.T, ch <-chan *Event, kind EventKind) *Event {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev == nil {
				continue
			}
			if ev.Kind == kind {
				return ev
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
	t.Fatalf("expected event kind %v not received", kind)
	return nil
}

// noEvent drains ch and fails if an event of kind shows up.
func noEvent(t *testing.T, ch <-chan *Event, kind EventKind) {
	t.Helper()

	for {
		select {
		case ev := <-ch:
			if ev != nil && ev.Kind == kind {
				t.Fatalf("unexpected %v event: %+v", kind, ev)
			}
		case <-time.After(50 * time.Millisecond):
			return
		}
	}
}

// staticUsers is a UserDirectory over a fixed list.
type staticUsers []string

func (u staticUsers) ListUsernames(context.Context) ([]string, error) {
	out := make([]string, len(u))
	copy(out, u)
	return out, nil
}

// memLog is an in-memory MessageLog.
type memLog struct {
	mu   sync.Mutex
	msgs []Message
}

func (l *memLog) Append(_ context.Context, msg *Message) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	msg.ID = int64(len(l.msgs) + 1)
	l.msgs = append(l.msgs, *msg)
	return nil
}

func (l *memLog) Query(_ context.Context, f Filter) ([]Message, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []Message
	for _, m := range l.msgs {
		if f.IsRoom() {
			if m.Recipient == f.Recipient {
				out = append(out, m)
			}
			continue
		}
		a, b := f.Participants[0], f.Participants[1]
		if (m.Sender == a && m.Recipient == b) || (m.Sender == b && m.Recipient == a) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (l *memLog) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.msgs)
}

// fixedClock hands out strictly increasing timestamps.
func fixedClock(start time.Time) func() time.Time {
	var mu sync.Mutex
	next := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now := next
		next = next.Add(time.Second)
		return now
	}
}

func newTestHub(t *testing.T, users []string, log MessageLog) *Hub {
	t.Helper()
	return NewHub(Options{
		Users: staticUsers(users),
		Log:   log,
		Now:   fixedClock(time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)),
	})
}

// connectAs connects and handshakes a new connection for username.
func connectAs(t *testing.T, h *Hub, id, username string) *Conn {
	t.Helper()
	c := NewConn(id, 32)
	h.Connect(c)
	if err := h.Handshake(context.Background(), c, username); err != nil {
		t.Fatalf("handshake %s: %v", username, err)
	}
	return c
}
