package core

import "time"

// Lobby is the single shared room. It doubles as the recipient sentinel for
// room messages.
const Lobby = "Lobby"

// Message is the domain model for a chat message.
type Message struct {
	ID        int64
	Sender    string
	Recipient string
	Body      string
	SentAt    time.Time
}

// ToLobby reports whether the message was addressed to the room.
func (m Message) ToLobby() bool {
	return m.Recipient == Lobby
}
