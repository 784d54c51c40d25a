package speech

import "errors"

// Sentinel errors for speech channel operations.
var (
	ErrCapabilityUnavailable = errors.New("speech capability unavailable")
	ErrBusy                  = errors.New("speech channel busy")
	ErrNothingToSpeak        = errors.New("nothing to speak")
)
