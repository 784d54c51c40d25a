// Package speech implements the voice channel of a session: capture
// (listening) and playback (speaking) over injected capabilities, with
// mutual exclusion between the two. Listening takes priority: starting
// capture pre-empts playback, while starting playback during capture is
// refused with ErrBusy.
package speech

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/tailored-agentic-units/mentify/observability"
)

// TranscriptFunc receives recognized text. It is how transcripts reach the
// composer; the controller never submits on its own.
type TranscriptFunc func(text string)

// Option configures a Controller.
type Option func(*Controller)

// WithObserver sets the event observer.
func WithObserver(o observability.Observer) Option {
	return func(c *Controller) { c.observer = observability.OrNoOp(o) }
}

// WithTranscriptFunc sets the transcript receiver.
func WithTranscriptFunc(fn TranscriptFunc) Option {
	return func(c *Controller) { c.onTranscript = fn }
}

// Controller is the speech channel state machine. Each activation carries a
// generation number; signals from superseded activations are ignored, so a
// late "ended" from a cancelled utterance cannot end a newer one.
type Controller struct {
	capture      Capture
	playback     Playback
	observer     observability.Observer
	onTranscript TranscriptFunc

	mu          sync.Mutex
	state       State
	captureGen  uint64
	playbackGen uint64
}

type transition struct {
	from, to State
	reason   string
}

// NewController creates a Controller. A nil capture or playback marks that
// direction as unavailable.
func NewController(capture Capture, playback Playback, opts ...Option) *Controller {
	c := &Controller{
		capture:  capture,
		playback: playback,
		observer: observability.NoOpObserver{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the current channel state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// CanListen reports whether a capture capability is present.
func (c *Controller) CanListen() bool { return c.capture != nil }

// CanSpeak reports whether a playback capability is present.
func (c *Controller) CanSpeak() bool { return c.playback != nil }

// StartListening begins a capture pass. Active playback is stopped first.
// Starting while already listening is a no-op.
func (c *Controller) StartListening(ctx context.Context) error {
	if c.capture == nil {
		return fmt.Errorf("%w: no capture", ErrCapabilityUnavailable)
	}

	var moves []transition
	preempt := false

	c.mu.Lock()
	switch c.state {
	case Listening:
		c.mu.Unlock()
		return nil
	case Speaking:
		c.playbackGen++
		c.state = Idle
		preempt = true
		moves = append(moves, transition{Speaking, Idle, "preempted"})
	}
	c.captureGen++
	gen := c.captureGen
	c.state = Listening
	moves = append(moves, transition{Idle, Listening, "start"})
	c.mu.Unlock()

	c.emitTransitions(ctx, moves)

	if preempt {
		if err := c.playback.StopPlayback(); err != nil {
			c.emitError(ctx, "stop_playback", err)
		}
	}

	if err := c.capture.StartCapture(ctx, &captureHandle{c: c, gen: gen}); err != nil {
		c.endCapture(ctx, gen, "start_failed")
		c.emitError(ctx, "start_capture", err)
		return fmt.Errorf("%w: %v", ErrCapabilityUnavailable, err)
	}
	return nil
}

// StopListening ends the current capture pass. A transcript that arrives
// for this pass after the stop is still forwarded.
func (c *Controller) StopListening(ctx context.Context) error {
	c.mu.Lock()
	if c.state != Listening {
		c.mu.Unlock()
		return nil
	}
	c.state = Idle
	c.mu.Unlock()

	c.emitTransitions(ctx, []transition{{Listening, Idle, "stop"}})

	if err := c.capture.StopCapture(); err != nil {
		c.emitError(ctx, "stop_capture", err)
		return fmt.Errorf("stop capture: %w", err)
	}
	return nil
}

// ToggleListening stops an active capture or starts a new one.
func (c *Controller) ToggleListening(ctx context.Context) error {
	if c.State() == Listening {
		return c.StopListening(ctx)
	}
	return c.StartListening(ctx)
}

// StartSpeaking plays text. It returns ErrBusy while listening. Starting
// while already speaking replaces the current utterance.
func (c *Controller) StartSpeaking(ctx context.Context, text string) error {
	if c.playback == nil {
		return fmt.Errorf("%w: no playback", ErrCapabilityUnavailable)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrNothingToSpeak
	}

	var moves []transition
	replace := false

	c.mu.Lock()
	switch c.state {
	case Listening:
		c.mu.Unlock()
		return ErrBusy
	case Speaking:
		c.playbackGen++
		c.state = Idle
		replace = true
		moves = append(moves, transition{Speaking, Idle, "replaced"})
	}
	c.playbackGen++
	gen := c.playbackGen
	c.state = Speaking
	moves = append(moves, transition{Idle, Speaking, "start"})
	c.mu.Unlock()

	c.emitTransitions(ctx, moves)

	if replace {
		if err := c.playback.StopPlayback(); err != nil {
			c.emitError(ctx, "stop_playback", err)
		}
	}

	if err := c.playback.StartPlayback(ctx, text, &playbackHandle{c: c, gen: gen}); err != nil {
		c.endPlayback(ctx, gen, "start_failed")
		c.emitError(ctx, "start_playback", err)
		return fmt.Errorf("%w: %v", ErrCapabilityUnavailable, err)
	}
	return nil
}

// StopSpeaking cancels playback and returns to Idle immediately.
func (c *Controller) StopSpeaking(ctx context.Context) error {
	c.mu.Lock()
	if c.state != Speaking {
		c.mu.Unlock()
		return nil
	}
	c.playbackGen++
	c.state = Idle
	c.mu.Unlock()

	c.emitTransitions(ctx, []transition{{Speaking, Idle, "stop"}})

	if err := c.playback.StopPlayback(); err != nil {
		c.emitError(ctx, "stop_playback", err)
		return fmt.Errorf("stop playback: %w", err)
	}
	return nil
}

// ToggleSpeaking cancels active playback, or starts speaking text.
func (c *Controller) ToggleSpeaking(ctx context.Context, text string) error {
	if c.State() == Speaking {
		return c.StopSpeaking(ctx)
	}
	return c.StartSpeaking(ctx, text)
}

// Stop halts whichever direction is active.
func (c *Controller) Stop(ctx context.Context) error {
	switch c.State() {
	case Listening:
		return c.StopListening(ctx)
	case Speaking:
		return c.StopSpeaking(ctx)
	}
	return nil
}

func (c *Controller) endCapture(ctx context.Context, gen uint64, reason string) {
	c.mu.Lock()
	if gen != c.captureGen || c.state != Listening {
		c.mu.Unlock()
		return
	}
	c.state = Idle
	c.mu.Unlock()

	c.emitTransitions(ctx, []transition{{Listening, Idle, reason}})
}

func (c *Controller) endPlayback(ctx context.Context, gen uint64, reason string) {
	c.mu.Lock()
	if gen != c.playbackGen || c.state != Speaking {
		c.mu.Unlock()
		return
	}
	c.state = Idle
	c.mu.Unlock()

	c.emitTransitions(ctx, []transition{{Speaking, Idle, reason}})
}

func (c *Controller) deliverTranscript(gen uint64, text string) {
	ctx := context.Background()

	c.mu.Lock()
	if gen != c.captureGen {
		c.mu.Unlock()
		return
	}
	wasListening := c.state == Listening
	if wasListening {
		c.state = Idle
	}
	c.mu.Unlock()

	if wasListening {
		c.emitTransitions(ctx, []transition{{Listening, Idle, "transcript"}})
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return
	}

	c.observer.OnEvent(ctx, observability.Event{
		Type:      EventTranscript,
		Level:     observability.LevelVerbose,
		Timestamp: time.Now(),
		Source:    "speech.Controller",
		Data:      map[string]any{"length": len(text)},
	})

	if c.onTranscript != nil {
		c.onTranscript(text)
	}
}

func (c *Controller) emitTransitions(ctx context.Context, moves []transition) {
	for _, m := range moves {
		c.observer.OnEvent(ctx, observability.Event{
			Type:      EventTransition,
			Level:     observability.LevelVerbose,
			Timestamp: time.Now(),
			Source:    "speech.Controller",
			Data: map[string]any{
				"from":   m.from.String(),
				"to":     m.to.String(),
				"reason": m.reason,
			},
		})
	}
}

func (c *Controller) emitError(ctx context.Context, op string, err error) {
	c.observer.OnEvent(ctx, observability.Event{
		Type:      EventError,
		Level:     observability.LevelWarning,
		Timestamp: time.Now(),
		Source:    "speech.Controller",
		Data: map[string]any{
			"op":    op,
			"error": err.Error(),
		},
	})
}

type captureHandle struct {
	c   *Controller
	gen uint64
}

func (h *captureHandle) OnTranscript(text string) {
	h.c.deliverTranscript(h.gen, text)
}

func (h *captureHandle) OnError(err error) {
	ctx := context.Background()
	if err != nil {
		h.c.emitError(ctx, "capture", err)
	}
	h.c.endCapture(ctx, h.gen, "error")
}

func (h *captureHandle) OnEnded() {
	h.c.endCapture(context.Background(), h.gen, "ended")
}

type playbackHandle struct {
	c   *Controller
	gen uint64
}

func (h *playbackHandle) OnStarted() {
	h.c.mu.Lock()
	current := h.gen == h.c.playbackGen
	h.c.mu.Unlock()

	if current {
		h.c.observer.OnEvent(context.Background(), observability.Event{
			Type:      EventTransition,
			Level:     observability.LevelVerbose,
			Timestamp: time.Now(),
			Source:    "speech.Controller",
			Data:      map[string]any{"from": Speaking.String(), "to": Speaking.String(), "reason": "started"},
		})
	}
}

func (h *playbackHandle) OnEnded() {
	h.c.endPlayback(context.Background(), h.gen, "ended")
}

func (h *playbackHandle) OnError(err error) {
	ctx := context.Background()
	if err != nil {
		h.c.emitError(ctx, "playback", err)
	}
	h.c.endPlayback(ctx, h.gen, "error")
}
