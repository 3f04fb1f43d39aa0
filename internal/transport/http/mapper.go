package http

import (
	"github.com/gigachat/gigachat-server/internal/core"
	"github.com/gigachat/gigachat-server/internal/proto"
	"github.com/gigachat/gigachat-server/internal/store"
)

// messageToProto converts a persisted+enriched message to its wire
// shape. Both the live broadcast and the history endpoints use it, so a
// client sees the same object either way.
func messageToProto(m *store.MessageWithSender) proto.ReceivedMessage {
	return proto.ReceivedMessage{
		ID: m.ID,
		Sender: proto.Sender{
			ID:         m.Sender.ID,
			Username:   m.Sender.Username,
			Name:       m.Sender.Name,
			ProfilePic: m.Sender.ProfilePic,
		},
		Content:   m.Content,
		Recipient: m.RecipientID,
		GroupID:   m.GroupID,
		Timestamp: m.CreatedAt.Unix(),
	}
}

// messagesToProto converts a history slice, never returning nil so the
// JSON encoding is always an array.
func messagesToProto(msgs []*store.MessageWithSender) []proto.ReceivedMessage {
	out := make([]proto.ReceivedMessage, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, messageToProto(m))
	}
	return out
}

// outboundFromEvent maps a core event to its outbound envelope.
func outboundFromEvent(ev core.Event) proto.Outbound {
	switch {
	case ev.Message != nil:
		return proto.Outbound{
			Type: proto.OutboundTypeReceiveMessage,
			Data: messageToProto(ev.Message),
		}
	case ev.Err != nil:
		return proto.Outbound{
			Type:  proto.OutboundTypeError,
			Error: &proto.Error{Code: ev.Err.Code, Msg: ev.Err.Message},
		}
	default:
		return proto.Outbound{
			Type:  proto.OutboundTypeError,
			Error: &proto.Error{Code: "unknown", Msg: "unknown event"},
		}
	}
}
