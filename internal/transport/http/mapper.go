package http

import (
	"github.com/samber/lo"

	"github.com/vovakirdan/lobbychat/internal/core"
	"github.com/vovakirdan/lobbychat/internal/proto"
)

func presenceToProto(list []core.PresenceEntry) []proto.PresenceEntry {
	return lo.Map(list, func(e core.PresenceEntry, _ int) proto.PresenceEntry {
		return entryToProto(e)
	})
}

func entryToProto(e core.PresenceEntry) proto.PresenceEntry {
	return proto.PresenceEntry{User: e.Username, Online: e.Online, ConnID: e.ConnID}
}

// liveMessageToProto maps a just-delivered message. Delivery runs alongside
// the write to the log, so the stored ID is not known yet and is left out.
func liveMessageToProto(msg core.Message) proto.EventMessage {
	out := messageToProto(msg)
	out.ID = 0
	return out
}

func messageToProto(msg core.Message) proto.EventMessage {
	return proto.EventMessage{
		ID:   msg.ID,
		From: msg.Sender,
		To:   msg.Recipient,
		Text: msg.Body,
		TS:   msg.SentAt.Unix(),
		Room: msg.ToLobby(),
	}
}

func messagesToProto(msgs []core.Message) []proto.EventMessage {
	return lo.Map(msgs, func(m core.Message, _ int) proto.EventMessage {
		return messageToProto(m)
	})
}

func userChange(event *core.Event) proto.EventUserChange {
	change := proto.EventUserChange{
		Users:  presenceToProto(event.Presence),
		Notice: event.Notice,
	}
	if event.Entry != nil {
		entry := entryToProto(*event.Entry)
		change.User = &entry
	}
	return change
}

func outboundFromEvent(event *core.Event) proto.Outbound {
	switch event.Kind {
	case core.EventPresenceSnapshot:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventPresence,
			Data:  proto.EventPresenceData{Users: presenceToProto(event.Presence)},
		}
	case core.EventUserConnected:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventUserConnected,
			Data:  userChange(event),
		}
	case core.EventUserDisconnected:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventUserDisconnected,
			Data:  userChange(event),
		}
	case core.EventMessageReceived:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventMessage,
			Data:  liveMessageToProto(event.Message),
		}
	case core.EventHistoryResult:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventHistory,
			Data: proto.EventHistoryData{
				Messages: messagesToProto(event.Messages),
				Fill:     event.Fill,
			},
		}
	case core.EventError:
		if event.Error == nil {
			return protoError(core.ErrCodeInternal, "unknown error")
		}
		return protoError(event.Error.Code, event.Error.Message)
	default:
		return proto.Outbound{Type: proto.OutboundTypeEvent}
	}
}

func protoError(code, msg string) proto.Outbound {
	return proto.Outbound{
		Type:  proto.OutboundTypeError,
		Error: &proto.Error{Code: code, Msg: msg},
	}
}
