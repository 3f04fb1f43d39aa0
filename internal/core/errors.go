package core

import "errors"

// Error codes carried on the wire in error envelopes.
const (
	ErrCodeBadRequest    = "bad_request"
	ErrCodeInvalidTarget = "invalid_target"
	ErrCodeEmptyContent  = "empty_content"
)

var (
	// ErrInvalidTarget is returned when a send names both or neither of
	// recipient and group.
	ErrInvalidTarget = errors.New("message must target exactly one of recipient or group")
	// ErrEmptyContent is returned when a send carries no content.
	ErrEmptyContent = errors.New("message content is required")
)

// Error wraps a code and human-readable message for the wire protocol.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}
