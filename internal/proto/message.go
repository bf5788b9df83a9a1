package proto

import "encoding/json"

// Inbound is the envelope for messages coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

const (
	ProtocolVersion = 1

	InboundTypeHello   = "hello"
	InboundTypeMsg     = "msg"
	InboundTypeHistory = "history"

	OutboundTypeEvent = "event"
	OutboundTypeError = "error"

	EventPresence         = "presence"
	EventUserConnected    = "user_connected"
	EventUserDisconnected = "user_disconnected"
	EventMessage          = "message"
	EventHistory          = "history"

	ErrCodeUnsupportedVersion = "unsupported_version"
	ErrCodeUnauthorized       = "unauthorized"
	ErrCodeBadRequest         = "bad_request"
	ErrCodeRateLimited        = "rate_limited"
	ErrCodeUnknownType        = "unknown_type"
)

// HelloData is the first frame a client sends. The token decides which
// user the connection is bound to.
type HelloData struct {
	Token    string `json:"token"`
	Protocol int    `json:"protocol,omitempty"`
}

// MsgData is a chat message from the client. To is a username or "Lobby".
type MsgData struct {
	To   string `json:"to"`
	Text string `json:"text"`
}

// HistoryData requests the conversation with a user or the Lobby.
// Fill is echoed back so clients can tell a backfill from a refresh.
type HistoryData struct {
	With string `json:"with"`
	Fill bool   `json:"fill,omitempty"`
}

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Type  string `json:"type"`
	Event string `json:"event,omitempty"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// PresenceEntry is one registered user and their connection state.
type PresenceEntry struct {
	User   string `json:"user"`
	Online bool   `json:"online"`
	ConnID string `json:"conn_id,omitempty"`
}

// EventPresenceData carries the full presence list.
type EventPresenceData struct {
	Users []PresenceEntry `json:"users"`
}

// EventUserChange notifies that a user connected or disconnected. User is
// nil when the connection never identified itself.
type EventUserChange struct {
	User   *PresenceEntry  `json:"user,omitempty"`
	Users  []PresenceEntry `json:"users"`
	Notice string          `json:"notice"`
}

// EventMessage is a chat message. ID is only set in history results; live
// message events omit it because they are sent before the write completes.
type EventMessage struct {
	ID   int64  `json:"id,omitempty"`
	From string `json:"from"`
	To   string `json:"to"`
	Text string `json:"text"`
	TS   int64  `json:"ts"`
	Room bool   `json:"room"`
}

// EventHistoryData is the answer to a history request.
type EventHistoryData struct {
	Messages []EventMessage `json:"messages"`
	Fill     bool           `json:"fill"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}
