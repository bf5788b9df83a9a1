package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a lookup matches nothing.
var ErrNotFound = errors.New("not found")

// User represents a registered user.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// Message represents a persisted chat message. Recipient is either a
// username or the room name.
type Message struct {
	ID        int64
	Sender    string
	Recipient string
	Body      string
	SentAt    time.Time
}

// UserStore handles user persistence.
type UserStore interface {
	// CreateUser creates a new user with hashed password.
	CreateUser(ctx context.Context, username, passwordHash string) (*User, error)

	// GetUserByUsername retrieves a user by username.
	GetUserByUsername(ctx context.Context, username string) (*User, error)

	// ListUsers returns every registered user in registration order.
	ListUsers(ctx context.Context) ([]*User, error)

	// ListUsernames returns every registered username in registration order.
	ListUsernames(ctx context.Context) ([]string, error)
}

// MessageStore handles message persistence.
type MessageStore interface {
	// SaveMessage persists a message and sets its ID.
	SaveMessage(ctx context.Context, msg *Message) error

	// ListRoomMessages returns every message addressed to room, oldest first.
	ListRoomMessages(ctx context.Context, room string) ([]*Message, error)

	// ListConversation returns the messages between a and b in both
	// directions, oldest first.
	ListConversation(ctx context.Context, a, b string) ([]*Message, error)
}

// Store aggregates all storage interfaces.
type Store interface {
	UserStore
	MessageStore

	// Close closes the underlying database connection.
	Close() error
}
