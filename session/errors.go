package session

import "errors"

var (
	ErrEmptyMessage   = errors.New("message is empty")
	ErrMessageTooLong = errors.New("message exceeds maximum length")
	ErrReplyFailed    = errors.New("reply failed")
	ErrClosed         = errors.New("session closed")
	ErrNoPersonas     = errors.New("session requires a persona source")
)
