package speech

import (
	"context"
	"strings"
	"sync"
	"time"
)

const (
	defaultSimulatedTranscript = "Hello, I'm speaking to you..."
	defaultCaptureDelay        = 2 * time.Second
	defaultWordDuration        = 300 * time.Millisecond
)

// Simulated is a Capture and Playback pair for environments without audio.
// Capture yields a fixed transcript after a delay; playback lasts a fixed
// duration per word.
type Simulated struct {
	transcript   string
	captureDelay time.Duration
	wordDuration time.Duration

	mu             sync.Mutex
	cancelCapture  context.CancelFunc
	cancelPlayback context.CancelFunc
}

// SimulatedOption configures a Simulated capability.
type SimulatedOption func(*Simulated)

// WithTranscript sets the transcript produced by every capture pass.
func WithTranscript(text string) SimulatedOption {
	return func(s *Simulated) { s.transcript = text }
}

// WithCaptureDelay sets how long a capture pass takes to produce its transcript.
func WithCaptureDelay(d time.Duration) SimulatedOption {
	return func(s *Simulated) { s.captureDelay = d }
}

// WithWordDuration sets the simulated speaking time per word.
func WithWordDuration(d time.Duration) SimulatedOption {
	return func(s *Simulated) { s.wordDuration = d }
}

// NewSimulated creates a Simulated capability.
func NewSimulated(opts ...SimulatedOption) *Simulated {
	s := &Simulated{
		transcript:   defaultSimulatedTranscript,
		captureDelay: defaultCaptureDelay,
		wordDuration: defaultWordDuration,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Simulated) StartCapture(ctx context.Context, h CaptureHandler) error {
	ctx, cancel := context.WithCancel(context.WithoutCancel(ctx))

	s.mu.Lock()
	if s.cancelCapture != nil {
		s.cancelCapture()
	}
	s.cancelCapture = cancel
	s.mu.Unlock()

	go func() {
		timer := time.NewTimer(s.captureDelay)
		defer timer.Stop()

		select {
		case <-timer.C:
			h.OnTranscript(s.transcript)
			h.OnEnded()
		case <-ctx.Done():
			h.OnEnded()
		}
	}()
	return nil
}

func (s *Simulated) StopCapture() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancelCapture != nil {
		s.cancelCapture()
		s.cancelCapture = nil
	}
	return nil
}

func (s *Simulated) StartPlayback(ctx context.Context, text string, h PlaybackHandler) error {
	ctx, cancel := context.WithCancel(context.WithoutCancel(ctx))

	s.mu.Lock()
	if s.cancelPlayback != nil {
		s.cancelPlayback()
	}
	s.cancelPlayback = cancel
	s.mu.Unlock()

	duration := time.Duration(len(strings.Fields(text))) * s.wordDuration

	go func() {
		h.OnStarted()

		timer := time.NewTimer(duration)
		defer timer.Stop()

		select {
		case <-timer.C:
			h.OnEnded()
		case <-ctx.Done():
		}
	}()
	return nil
}

func (s *Simulated) StopPlayback() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancelPlayback != nil {
		s.cancelPlayback()
		s.cancelPlayback = nil
	}
	return nil
}
