// Package attachment stages files for the next outgoing message. It
// validates and classifies each file, decodes image previews in the
// background, and hands the staged set to the session timeline on submit.
package attachment

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/tailored-agentic-units/mentify/core/protocol"
	"github.com/tailored-agentic-units/mentify/observability"
)

// Option configures a Stager.
type Option func(*Stager)

// WithObserver sets the event observer.
func WithObserver(o observability.Observer) Option {
	return func(s *Stager) { s.observer = observability.OrNoOp(o) }
}

// Stager owns attachments until they are handed to a message. All methods
// are safe for concurrent use.
type Stager struct {
	cfg      Config
	observer observability.Observer

	mu     sync.Mutex
	staged []protocol.Attachment
	wg     sync.WaitGroup
}

// NewStager creates a Stager with the given limits. Zero fields fall back
// to DefaultConfig.
func NewStager(cfg Config, opts ...Option) *Stager {
	c := DefaultConfig()
	c.Merge(&cfg)

	s := &Stager{
		cfg:      c,
		observer: observability.NoOpObserver{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Stage validates src and appends it to the staged list. Image attachments
// start in PreviewPending and are updated in place once decoding settles.
// A preview that settles after the attachment left the stage is dropped.
func (s *Stager) Stage(src protocol.Source) (protocol.Attachment, error) {
	if src == nil {
		return protocol.Attachment{}, ErrNilSource
	}

	size := src.Size()
	if s.cfg.MaxBytes > 0 && size > s.cfg.MaxBytes {
		return protocol.Attachment{}, fmt.Errorf("%w: %s is %d bytes, limit %d", ErrTooLarge, src.Name(), size, s.cfg.MaxBytes)
	}

	mediaType := mediaTypeFor(src.MediaType(), src.Name())
	a := protocol.Attachment{
		ID:        protocol.NewID(),
		Name:      src.Name(),
		MediaType: mediaType,
		Kind:      Classify(mediaType),
		SizeBytes: size,
		Source:    src,
	}

	decode := a.Kind == protocol.KindImage && !s.cfg.DisablePreviews
	if decode {
		a.PreviewState = protocol.PreviewPending
	}

	s.mu.Lock()
	if s.cfg.MaxStaged > 0 && len(s.staged) >= s.cfg.MaxStaged {
		s.mu.Unlock()
		return protocol.Attachment{}, fmt.Errorf("%w: limit %d", ErrTooManyStaged, s.cfg.MaxStaged)
	}
	s.staged = append(s.staged, a)
	count := len(s.staged)
	if decode {
		s.wg.Add(1)
	}
	s.mu.Unlock()

	s.emit(EventStage, observability.LevelVerbose, map[string]any{
		"id":         a.ID,
		"kind":       string(a.Kind),
		"media_type": a.MediaType,
		"size":       a.SizeBytes,
		"staged":     count,
	})

	if decode {
		go s.decode(a.ID, src)
	}

	return a.Clone(), nil
}

func (s *Stager) decode(id string, src protocol.Source) {
	defer s.wg.Done()

	r, err := src.Open()
	if err != nil {
		s.settle(id, nil, err)
		return
	}
	defer r.Close()

	preview, err := DecodePreview(r, s.cfg.PreviewEdge, s.cfg.MaxPreviewPixels)
	s.settle(id, preview, err)
}

func (s *Stager) settle(id string, preview *protocol.Preview, err error) {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		s.emit(EventPreviewDropped, observability.LevelVerbose, map[string]any{"id": id})
		return
	}
	if err != nil {
		s.staged[i].PreviewState = protocol.PreviewFailed
	} else {
		s.staged[i].PreviewState = protocol.PreviewReady
		s.staged[i].Preview = preview
	}
	s.mu.Unlock()

	if err != nil {
		s.emit(EventPreviewFailed, observability.LevelWarning, map[string]any{"id": id, "error": err.Error()})
	} else {
		s.emit(EventPreviewReady, observability.LevelVerbose, map[string]any{
			"id":     id,
			"width":  preview.Width,
			"height": preview.Height,
		})
	}
}

func (s *Stager) indexOf(id string) int {
	return slices.IndexFunc(s.staged, func(a protocol.Attachment) bool { return a.ID == id })
}

// Unstage removes the attachment at index without touching the others.
func (s *Stager) Unstage(index int) (protocol.Attachment, error) {
	s.mu.Lock()
	if index < 0 || index >= len(s.staged) {
		n := len(s.staged)
		s.mu.Unlock()
		return protocol.Attachment{}, fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, index, n)
	}
	removed := s.staged[index]
	s.staged = slices.Delete(s.staged, index, index+1)
	s.mu.Unlock()

	s.emit(EventUnstage, observability.LevelVerbose, map[string]any{"id": removed.ID, "index": index})
	return removed.Clone(), nil
}

// Clear empties the staged list.
func (s *Stager) Clear() {
	s.mu.Lock()
	n := len(s.staged)
	s.staged = nil
	s.mu.Unlock()

	if n > 0 {
		s.emit(EventClear, observability.LevelVerbose, map[string]any{"cleared": n})
	}
}

// Take atomically returns the staged attachments, in staging order, and
// empties the stage. The returned values are snapshots: previews that
// settle afterwards do not reach them.
func (s *Stager) Take() []protocol.Attachment {
	s.mu.Lock()
	defer s.mu.Unlock()

	taken := protocol.CloneAttachments(s.staged)
	s.staged = nil
	return taken
}

// Staged returns a copy of the staged attachments in staging order.
func (s *Stager) Staged() []protocol.Attachment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return protocol.CloneAttachments(s.staged)
}

// Len reports the number of staged attachments.
func (s *Stager) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.staged)
}

// Wait blocks until every preview decode started so far has settled.
func (s *Stager) Wait() {
	s.wg.Wait()
}

func (s *Stager) emit(t observability.EventType, level observability.Level, data map[string]any) {
	s.observer.OnEvent(context.Background(), observability.Event{
		Type:      t,
		Level:     level,
		Timestamp: time.Now(),
		Source:    "attachment.Stager",
		Data:      data,
	})
}
