package core

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	defaultSweepInterval = 30 * time.Second
	sweepReason          = "transport closed"
)

// Options configures a Hub.
type Options struct {
	Users      UserDirectory
	Log        MessageLog
	Reconciler Reconciler
	Filter     BodyFilter
	Logger     *zerolog.Logger
	Now        func() time.Time

	MaxBodyRunes   int
	PersistTimeout time.Duration
	SweepInterval  time.Duration
}

// Hub coordinates connection lifecycles, presence and message routing.
// Lifecycle changes are serialized by mu; sends and history lookups only
// read the registry and run concurrently with each other.
type Hub struct {
	mu       sync.Mutex
	conns    map[string]*Conn
	presence []PresenceEntry

	users      UserDirectory
	registry   *Registry
	lobby      *Room
	reconciler Reconciler
	router     *Router
	history    *Conversations

	sweepInterval time.Duration
	log           zerolog.Logger
}

// NewHub creates a hub with its own registry and Lobby.
func NewHub(opts Options) *Hub {
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	if opts.Reconciler == nil {
		opts.Reconciler = FullReconciler{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = defaultSweepInterval
	}

	registry := NewRegistry()
	lobby := NewRoom(Lobby)

	return &Hub{
		conns:      make(map[string]*Conn),
		users:      opts.Users,
		registry:   registry,
		lobby:      lobby,
		reconciler: opts.Reconciler,
		router: &Router{
			registry:       registry,
			lobby:          lobby,
			log:            opts.Log,
			filter:         opts.Filter,
			now:            opts.Now,
			maxBodyRunes:   opts.MaxBodyRunes,
			persistTimeout: opts.PersistTimeout,
			logger:         logger.With().Str("component", "router").Logger(),
		},
		history:       NewConversations(opts.Log),
		sweepInterval: opts.SweepInterval,
		log:           logger.With().Str("component", "hub").Logger(),
	}
}

// Run purges connections whose transport closed without a Disconnect until
// ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	ticker := time.NewTicker(h.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.Sweep()
		}
	}
}

// Sweep disconnects every tracked connection that has closed and drops stale
// registry bindings. It returns the number of connections disconnected.
func (h *Hub) Sweep() int {
	h.mu.Lock()
	var closed []*Conn
	for _, c := range h.conns {
		if c.Closed() {
			closed = append(closed, c)
		}
	}
	h.mu.Unlock()

	for _, c := range closed {
		h.Disconnect(c, sweepReason)
	}
	if stale := h.registry.Purge(); len(stale) > 0 {
		h.log.Debug().Int("count", len(stale)).Msg("purged stale bindings")
	}
	return len(closed)
}

// Connect starts tracking an unbound connection.
func (h *Hub) Connect(conn *Conn) {
	h.mu.Lock()
	h.conns[conn.ID] = conn
	total := len(h.conns)
	h.mu.Unlock()

	h.log.Debug().Str("conn_id", conn.ID).Int("connections", total).Msg("connection registered")
}

// Handshake binds conn to username, joins it to the Lobby, recomputes the
// presence list, sends the snapshot to conn and announces the user to
// everyone else in the Lobby.
func (h *Hub) Handshake(ctx context.Context, conn *Conn, username string) error {
	username = strings.TrimSpace(username)
	registered := h.registeredUsers(ctx)

	h.mu.Lock()
	defer h.mu.Unlock()

	if _, tracked := h.conns[conn.ID]; !tracked || conn.Closed() {
		return ErrConnClosed
	}

	if err := h.registry.Bind(conn, username); err != nil {
		h.log.Warn().Err(err).Str("conn_id", conn.ID).Str("user", username).Msg("handshake rejected")
		conn.send(errorEvent(toCoreError(err)))
		return err
	}
	h.lobby.Add(conn)

	h.presence = h.reconciler.Reconcile(registered, h.registry.AllLive())

	entry := PresenceEntry{Username: username, Online: true, ConnID: conn.ID}
	if idx := findEntry(h.presence, username); idx >= 0 {
		entry = h.presence[idx]
	}
	notice := fmt.Sprintf("%s connected", username)

	h.log.Info().
		Str("conn_id", conn.ID).
		Str("user", username).
		Int("registered", len(registered)).
		Int("online", h.lobby.Len()).
		Msg(notice)

	conn.send(presenceSnapshotEvent(clonePresence(h.presence)))
	h.lobby.Broadcast(userConnectedEvent(&entry, clonePresence(h.presence), notice), conn.ID)
	return nil
}

// Disconnect tears conn down and tells the Lobby. Connections that never
// completed the handshake produce a notice without a user entry. Calling it
// again for the same connection does nothing.
func (h *Hub) Disconnect(conn *Conn, reason string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, tracked := h.conns[conn.ID]; !tracked {
		return
	}
	delete(h.conns, conn.ID)
	conn.Close()
	h.registry.Unbind(conn)
	h.lobby.Remove(conn)

	username, bound := conn.Username()
	if !bound {
		notice := fmt.Sprintf("someone disconnected due to %q", reason)
		h.log.Info().Str("conn_id", conn.ID).Str("reason", reason).Msg(notice)
		h.lobby.Broadcast(userDisconnectedEvent(nil, clonePresence(h.presence), notice), conn.ID)
		return
	}

	list := clonePresence(h.presence)
	entry := PresenceEntry{Username: username}
	if idx := findEntry(list, username); idx >= 0 {
		// A newer connection may already hold the name.
		if other, ok := h.registry.FindByUsername(username); ok {
			list[idx].Online = true
			list[idx].ConnID = other.ID
		} else {
			list[idx].Online = false
			list[idx].ConnID = ""
		}
		entry = list[idx]
	}
	h.presence = list

	notice := fmt.Sprintf("%s disconnected due to %q", username, reason)
	h.log.Info().Str("conn_id", conn.ID).Str("user", username).Str("reason", reason).Msg(notice)
	h.lobby.Broadcast(userDisconnectedEvent(&entry, clonePresence(list), notice), conn.ID)
}

// Send routes body from the user bound to conn to recipientKey. Domain
// errors are returned and also reported to conn as an error event.
func (h *Hub) Send(ctx context.Context, conn *Conn, recipientKey, body string) (RouteOutcome, error) {
	sender, err := h.boundUser(conn)
	if err != nil {
		conn.send(errorEvent(toCoreError(err)))
		return RouteOutcome{}, err
	}

	outcome, err := h.router.Route(ctx, sender, recipientKey, body)
	if err != nil {
		h.log.Debug().Err(err).Str("conn_id", conn.ID).Str("user", sender).Msg("send rejected")
		conn.send(errorEvent(toCoreError(err)))
		return RouteOutcome{}, err
	}

	h.log.Debug().
		Str("user", sender).
		Str("recipient", recipientKey).
		Stringer("status", outcome.Status).
		Int("delivered", outcome.Delivered).
		Msg("message routed")
	return outcome, nil
}

// RequestHistory sends the conversation between the user bound to conn and
// recipientKey back to conn. Nothing is sent when the conversation is empty.
func (h *Hub) RequestHistory(ctx context.Context, conn *Conn, recipientKey string, fill bool) error {
	user, err := h.boundUser(conn)
	if err != nil {
		conn.send(errorEvent(toCoreError(err)))
		return err
	}

	msgs, err := h.History(ctx, user, recipientKey)
	if err != nil {
		conn.send(errorEvent(toCoreError(err)))
		return err
	}
	if len(msgs) == 0 {
		h.log.Debug().Str("user", user).Str("recipient", recipientKey).Msg("no messages yet")
		return nil
	}

	conn.send(historyResultEvent(msgs, fill))
	h.log.Debug().Str("user", user).Str("recipient", recipientKey).Int("count", len(msgs)).Msg("history sent")
	return nil
}

// History returns the conversation between participant and recipientKey.
func (h *Hub) History(ctx context.Context, participant, recipientKey string) ([]Message, error) {
	msgs, err := h.history.History(ctx, participant, recipientKey)
	if err != nil {
		h.log.Error().Err(err).Str("user", participant).Str("recipient", recipientKey).Msg("history query failed")
	}
	return msgs, err
}

// Presence reconciles the registered users against the current live
// bindings without touching the cached list.
func (h *Hub) Presence(ctx context.Context) []PresenceEntry {
	return h.reconciler.Reconcile(h.registeredUsers(ctx), h.registry.AllLive())
}

// IsOnline reports whether username has a live connection.
func (h *Hub) IsOnline(username string) bool {
	_, ok := h.registry.FindByUsername(username)
	return ok
}

// Connections returns the number of tracked connections, bound or not.
func (h *Hub) Connections() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

func (h *Hub) boundUser(conn *Conn) (string, error) {
	username, ok := conn.Username()
	if !ok {
		return "", ErrNotBound
	}
	current, live := h.registry.FindByUsername(username)
	if !live || current != conn {
		return "", ErrNotBound
	}
	return username, nil
}

func (h *Hub) registeredUsers(ctx context.Context) []string {
	if h.users == nil {
		return nil
	}
	users, err := h.users.ListUsernames(ctx)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list registered users")
		return nil
	}
	return users
}
