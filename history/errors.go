package history

import "errors"

var (
	ErrKeyNotFound     = errors.New("key not found")
	ErrLoadFailed      = errors.New("load failed")
	ErrSaveFailed      = errors.New("save failed")
	ErrDeleteFailed    = errors.New("delete failed")
	ErrEntryNotFound   = errors.New("history entry not found")
	ErrUnknownBackend  = errors.New("unknown history backend")
	ErrMissingLocation = errors.New("history backend location not configured")
)
