package core

import (
	"github.com/google/uuid"

	"github.com/gigachat/gigachat-server/internal/store"
)

// sessionEventBuffer bounds the per-connection outbound queue.
const sessionEventBuffer = 32

// Event is pushed to a session's connection. Exactly one field is set:
// Message for a delivered chat message, Err for a protocol error.
type Event struct {
	Message *store.MessageWithSender
	Err     *Error
}

// Session is one live client connection and its delivery queue. Room
// membership lives in the Registry; a session only carries identity and
// the channel its writer goroutine drains.
type Session struct {
	ID     string
	Events chan Event
}

// NewSession constructs a session with a fresh id and buffered queue.
func NewSession() *Session {
	return &Session{
		ID:     uuid.NewString(),
		Events: make(chan Event, sessionEventBuffer),
	}
}

// Deliver enqueues an event without blocking. Returns false if the
// session's queue is full and the event was dropped.
func (s *Session) Deliver(ev Event) bool {
	select {
	case s.Events <- ev:
		return true
	default:
		// Drop if slow consumer.
		return false
	}
}
