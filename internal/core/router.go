package core

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
)

// RouteStatus describes what the router did with a message.
type RouteStatus int

const (
	// RouteDelivered means the message was dispatched to its target(s).
	RouteDelivered RouteStatus = iota
	// RouteRecipientOffline means the direct recipient has no live
	// connection. Unknown usernames end up here too.
	RouteRecipientOffline
)

func (s RouteStatus) String() string {
	switch s {
	case RouteDelivered:
		return "delivered"
	case RouteRecipientOffline:
		return "recipient_offline"
	default:
		return "unknown"
	}
}

// RouteOutcome is the observable result of one send.
type RouteOutcome struct {
	Status    RouteStatus
	Delivered int
	Dropped   int
	// Message is the message as persisted. ID stays zero when PersistErr is set.
	Message Message
	// PersistErr is a *PersistenceError when the log rejected the message.
	// Delivery happens regardless.
	PersistErr error
}

// Router persists messages and fans them out to live connections.
type Router struct {
	registry       *Registry
	lobby          *Room
	log            MessageLog
	filter         BodyFilter
	now            func() time.Time
	maxBodyRunes   int
	persistTimeout time.Duration
	logger         zerolog.Logger
}

// Route persists the message and dispatches it. Lobby messages go to every
// live Lobby member except the sender's own connection; direct messages go to
// the recipient's connection if there is one.
func (r *Router) Route(ctx context.Context, sender, recipientKey, body string) (RouteOutcome, error) {
	if sender == "" || recipientKey == "" || strings.TrimSpace(body) == "" {
		return RouteOutcome{}, ErrBadRequest
	}
	if r.maxBodyRunes > 0 && utf8.RuneCountInString(body) > r.maxBodyRunes {
		return RouteOutcome{}, fmt.Errorf("%w: limit is %d characters", ErrMessageTooLong, r.maxBodyRunes)
	}
	if r.filter != nil {
		body = r.filter.Censor(body)
	}

	msg := Message{
		Sender:    sender,
		Recipient: recipientKey,
		Body:      body,
		SentAt:    r.now(),
	}

	type persistResult struct {
		msg Message
		err error
	}
	persisted := make(chan persistResult, 1)
	go func(rec Message) {
		err := r.persist(ctx, &rec)
		persisted <- persistResult{msg: rec, err: err}
	}(msg)

	var outcome RouteOutcome
	if msg.ToLobby() {
		outcome = r.deliverToLobby(msg)
	} else {
		outcome = r.deliverDirect(msg)
	}

	res := <-persisted
	outcome.Message = res.msg
	if res.err != nil {
		outcome.PersistErr = res.err
		r.logger.Error().Err(res.err).
			Str("sender", sender).
			Str("recipient", recipientKey).
			Msg("failed to persist message")
	}
	return outcome, nil
}

func (r *Router) persist(ctx context.Context, msg *Message) error {
	if r.log == nil {
		return nil
	}
	// The sender going away must not cancel the write.
	ctx = context.WithoutCancel(ctx)
	if r.persistTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.persistTimeout)
		defer cancel()
	}
	if err := r.log.Append(ctx, msg); err != nil {
		return &PersistenceError{Op: "append", Err: err}
	}
	return nil
}

func (r *Router) deliverToLobby(msg Message) RouteOutcome {
	var exceptID string
	if conn, ok := r.registry.FindByUsername(msg.Sender); ok {
		exceptID = conn.ID
	}
	delivered, dropped := r.lobby.Broadcast(messageReceivedEvent(msg), exceptID)
	if dropped > 0 {
		r.logger.Warn().Int("dropped", dropped).Str("sender", msg.Sender).Msg("lobby message dropped for slow connections")
	}
	return RouteOutcome{Status: RouteDelivered, Delivered: delivered, Dropped: dropped}
}

func (r *Router) deliverDirect(msg Message) RouteOutcome {
	conn, ok := r.registry.FindByUsername(msg.Recipient)
	if !ok {
		r.logger.Debug().Str("sender", msg.Sender).Str("recipient", msg.Recipient).Msg("recipient offline")
		return RouteOutcome{Status: RouteRecipientOffline}
	}
	if !conn.send(messageReceivedEvent(msg)) {
		r.logger.Warn().Str("conn_id", conn.ID).Str("recipient", msg.Recipient).Msg("direct message dropped")
		return RouteOutcome{Status: RouteDelivered, Dropped: 1}
	}
	return RouteOutcome{Status: RouteDelivered, Delivered: 1}
}
