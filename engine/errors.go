package engine

import "errors"

var (
	ErrMessageNotFound = errors.New("message not found")
	ErrNotReadable     = errors.New("only assistant messages can be read aloud")
	ErrNoClipboard     = errors.New("clipboard unavailable")
)
