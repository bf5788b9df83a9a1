package core

//go:generate mockgen -source=ports.go -destination=mock_ports_test.go -package=core

import "context"

// UserDirectory lists every registered username.
type UserDirectory interface {
	ListUsernames(ctx context.Context) ([]string, error)
}

// MessageLog is the durable, append-only message store.
type MessageLog interface {
	// Append persists msg and sets its ID.
	Append(ctx context.Context, msg *Message) error
	// Query returns the messages matching f in log order.
	Query(ctx context.Context, f Filter) ([]Message, error)
}

// BodyFilter rewrites a message body before it is stored and delivered.
type BodyFilter interface {
	Censor(body string) string
}

// Filter selects messages from the log. Exactly one of Recipient or
// Participants is set.
type Filter struct {
	Recipient    string
	Participants [2]string
}

// RoomFilter selects every message addressed to room.
func RoomFilter(room string) Filter {
	return Filter{Recipient: room}
}

// ConversationFilter selects messages exchanged between a and b in either direction.
func ConversationFilter(a, b string) Filter {
	return Filter{Participants: [2]string{a, b}}
}

// IsRoom reports whether the filter targets a room.
func (f Filter) IsRoom() bool {
	return f.Recipient != ""
}
