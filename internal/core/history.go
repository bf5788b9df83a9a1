package core

import "context"

// Conversations answers history queries against the message log.
type Conversations struct {
	log MessageLog
}

// NewConversations builds a query helper over log.
func NewConversations(log MessageLog) *Conversations {
	return &Conversations{log: log}
}

// History returns the Lobby history when recipientKey is Lobby, otherwise
// every message exchanged between participant and recipientKey in either
// direction. Messages keep the order the log returns them in, which is
// append order; SentAt is not consulted. The result is never nil.
func (c *Conversations) History(ctx context.Context, participant, recipientKey string) ([]Message, error) {
	if participant == "" || recipientKey == "" {
		return nil, ErrBadRequest
	}
	if c.log == nil {
		return []Message{}, nil
	}

	f := ConversationFilter(participant, recipientKey)
	if recipientKey == Lobby {
		f = RoomFilter(Lobby)
	}

	msgs, err := c.log.Query(ctx, f)
	if err != nil {
		return nil, &PersistenceError{Op: "query", Err: err}
	}
	if msgs == nil {
		return []Message{}, nil
	}
	return msgs, nil
}
