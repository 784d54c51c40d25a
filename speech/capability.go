package speech

import "context"

// CaptureHandler receives the signals of one capture activation.
type CaptureHandler interface {
	OnTranscript(text string)
	OnError(err error)
	OnEnded()
}

// PlaybackHandler receives the signals of one playback activation.
type PlaybackHandler interface {
	OnStarted()
	OnEnded()
	OnError(err error)
}

// Capture is a voice input capability. StartCapture begins a single
// recognition pass and reports through h; it may call h synchronously.
type Capture interface {
	StartCapture(ctx context.Context, h CaptureHandler) error
	StopCapture() error
}

// Playback is a voice output capability. StartPlayback speaks text and
// reports through h; it may call h synchronously.
type Playback interface {
	StartPlayback(ctx context.Context, text string, h PlaybackHandler) error
	StopPlayback() error
}
