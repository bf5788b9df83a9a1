package core

// EventKind is a notification the core emits to connections.
type EventKind int

const (
	// EventPresenceSnapshot delivers the full presence list to a freshly bound connection.
	EventPresenceSnapshot EventKind = iota
	// EventUserConnected notifies the Lobby that a user came online.
	EventUserConnected
	// EventUserDisconnected notifies the Lobby that a connection went away.
	EventUserDisconnected
	// EventMessageReceived delivers a room or direct message.
	EventMessageReceived
	// EventHistoryResult answers a history request.
	EventHistoryResult
	// EventError notifies a connection about a domain error.
	EventError
)

func (k EventKind) String() string {
	switch k {
	case EventPresenceSnapshot:
		return "presence_snapshot"
	case EventUserConnected:
		return "user_connected"
	case EventUserDisconnected:
		return "user_disconnected"
	case EventMessageReceived:
		return "message_received"
	case EventHistoryResult:
		return "history_result"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// Event is sent to connections to describe what happened in the system.
type Event struct {
	Kind EventKind

	// Entry is the affected user for connect/disconnect events. It is nil
	// when a connection closed before completing its handshake.
	Entry    *PresenceEntry
	Presence []PresenceEntry
	Notice   string

	Message Message
	IsRoom  bool

	Messages []Message // For EventHistoryResult
	Fill     bool

	Error *CoreError
}

func presenceSnapshotEvent(list []PresenceEntry) *Event {
	return &Event{Kind: EventPresenceSnapshot, Presence: list}
}

func userConnectedEvent(entry *PresenceEntry, list []PresenceEntry, notice string) *Event {
	return &Event{Kind: EventUserConnected, Entry: entry, Presence: list, Notice: notice}
}

func userDisconnectedEvent(entry *PresenceEntry, list []PresenceEntry, notice string) *Event {
	return &Event{Kind: EventUserDisconnected, Entry: entry, Presence: list, Notice: notice}
}

// messageReceivedEvent carries msg as delivered. Its ID is zero: delivery
// does not wait for the log.
func messageReceivedEvent(msg Message) *Event {
	return &Event{Kind: EventMessageReceived, Message: msg, IsRoom: msg.ToLobby()}
}

func historyResultEvent(messages []Message, fill bool) *Event {
	return &Event{Kind: EventHistoryResult, Messages: messages, Fill: fill}
}

func errorEvent(err *CoreError) *Event {
	return &Event{Kind: EventError, Error: err}
}
