package attachment

import "errors"

// Sentinel errors for staging operations.
var (
	ErrNilSource       = errors.New("attachment source is nil")
	ErrTooLarge        = errors.New("attachment too large")
	ErrTooManyStaged   = errors.New("too many staged attachments")
	ErrIndexOutOfRange = errors.New("staged attachment index out of range")
	ErrNotRegularFile  = errors.New("not a regular file")
	ErrImageTooLarge   = errors.New("image dimensions too large for preview")
)
