package proto

import "encoding/json"

// Inbound is the envelope for messages coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

const (
	InboundTypeJoinRoom    = "join_room"
	InboundTypeSendMessage = "send_message"

	OutboundTypeReceiveMessage = "receive_message"
	OutboundTypeError          = "error"
)

// JoinRoomData subscribes the connection to a room id. Room ids are
// opaque strings: a user id for private chats, a group id for groups.
type JoinRoomData struct {
	Room string `json:"room"`
}

// SendMessageData is a chat message from the client. Exactly one of
// Recipient and GroupID must be set.
type SendMessageData struct {
	Sender    int64  `json:"sender"`
	Content   string `json:"content"`
	Recipient *int64 `json:"recipient,omitempty"`
	GroupID   *int64 `json:"group_id,omitempty"`
}

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Type  string `json:"type"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// Sender is the display identity attached to delivered messages.
type Sender struct {
	ID         int64  `json:"id"`
	Username   string `json:"username"`
	Name       string `json:"name"`
	ProfilePic string `json:"profile_pic"`
}

// ReceivedMessage is the enriched message pushed to room members.
type ReceivedMessage struct {
	ID        int64  `json:"id"`
	Sender    Sender `json:"sender"`
	Content   string `json:"content"`
	Recipient *int64 `json:"recipient,omitempty"`
	GroupID   *int64 `json:"group_id,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}
