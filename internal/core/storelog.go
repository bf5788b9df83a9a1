package core

import (
	"context"

	"github.com/samber/lo"

	"github.com/vovakirdan/lobbychat/internal/store"
)

// StoreLog adapts a store.MessageStore to MessageLog.
type StoreLog struct {
	store store.MessageStore
}

// NewStoreLog wraps st.
func NewStoreLog(st store.MessageStore) *StoreLog {
	return &StoreLog{store: st}
}

// Append implements MessageLog.
func (l *StoreLog) Append(ctx context.Context, msg *Message) error {
	rec := &store.Message{
		Sender:    msg.Sender,
		Recipient: msg.Recipient,
		Body:      msg.Body,
		SentAt:    msg.SentAt,
	}
	if err := l.store.SaveMessage(ctx, rec); err != nil {
		return err
	}
	msg.ID = rec.ID
	return nil
}

// Query implements MessageLog.
func (l *StoreLog) Query(ctx context.Context, f Filter) ([]Message, error) {
	var (
		recs []*store.Message
		err  error
	)
	if f.IsRoom() {
		recs, err = l.store.ListRoomMessages(ctx, f.Recipient)
	} else {
		recs, err = l.store.ListConversation(ctx, f.Participants[0], f.Participants[1])
	}
	if err != nil {
		return nil, err
	}
	return lo.Map(recs, func(rec *store.Message, _ int) Message {
		return Message{
			ID:        rec.ID,
			Sender:    rec.Sender,
			Recipient: rec.Recipient,
			Body:      rec.Body,
			SentAt:    rec.SentAt,
		}
	}), nil
}
