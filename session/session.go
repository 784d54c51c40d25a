// Package session owns the conversation timeline: the ordered, append-only
// sequence of messages for one chat. Submissions take the staged
// attachments, notify the history sink, and start an asynchronous reply.
// Each reply carries a ticket from the epoch it was requested in; Reset
// advances the epoch so replies from before it are discarded on arrival.
package session

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"slices"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/tailored-agentic-units/mentify/attachment"
	"github.com/tailored-agentic-units/mentify/core/protocol"
	"github.com/tailored-agentic-units/mentify/history"
	"github.com/tailored-agentic-units/mentify/observability"
	"github.com/tailored-agentic-units/mentify/persona"
	"github.com/tailored-agentic-units/mentify/responder"
	"github.com/tailored-agentic-units/mentify/suggest"
)

// PersonaSource reports the persona replies and history entries are
// attributed to. *persona.Catalog satisfies it.
type PersonaSource interface {
	Selected() persona.Persona
}

// Ticket identifies one outstanding reply.
type Ticket struct {
	Epoch uint64
	Seq   uint64
}

// Option configures a Session.
type Option func(*Session)

// WithResponder replaces the default simulated responder.
func WithResponder(r responder.Responder) Option {
	return func(s *Session) { s.responder = r }
}

// WithStager supplies the attachment stager the session drains on submit.
func WithStager(st *attachment.Stager) Option {
	return func(s *Session) { s.stager = st }
}

// WithSink sets the history sink notified once per submission.
func WithSink(sink history.Sink) Option {
	return func(s *Session) { s.sink = history.OrNoOp(sink) }
}

// WithObserver sets the event observer.
func WithObserver(o observability.Observer) Option {
	return func(s *Session) { s.observer = observability.OrNoOp(o) }
}

// WithClock overrides the message timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// Session is a single chat timeline. All methods are safe for concurrent
// use; observers and the sink are called without the session lock held.
type Session struct {
	id        string
	cfg       Config
	personas  PersonaSource
	responder responder.Responder
	stager    *attachment.Stager
	sink      history.Sink
	observer  observability.Observer
	now       func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu          sync.RWMutex
	messages    []protocol.Message
	epoch       uint64
	seq         uint64
	pending     map[Ticket]string
	suggestions []string
	closed      bool
}

// New creates a Session attributed to the personas source.
func New(cfg Config, personas PersonaSource, opts ...Option) (*Session, error) {
	if personas == nil {
		return nil, ErrNoPersonas
	}

	merged := DefaultConfig()
	merged.Merge(&cfg)

	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		id:       protocol.NewID(),
		cfg:      merged,
		personas: personas,
		sink:     history.NoOp(),
		observer: observability.NoOpObserver{},
		now:      time.Now,
		ctx:      ctx,
		cancel:   cancel,
		pending:  make(map[Ticket]string),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.responder == nil {
		s.responder = responder.NewSimulator(responder.DefaultConfig())
	}
	if s.stager == nil {
		s.stager = attachment.NewStager(attachment.DefaultConfig(), attachment.WithObserver(s.observer))
	}
	return s, nil
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Stager returns the stager whose contents the next Submit carries.
func (s *Session) Stager() *attachment.Stager {
	return s.stager
}

// Submit appends a user message carrying the staged attachments and starts
// a reply. It returns the new message id. Blank text yields ErrEmptyMessage
// and text beyond the configured length yields ErrMessageTooLong; neither
// appends a message nor touches the stage.
func (s *Session) Submit(ctx context.Context, text string, viaVoice bool) (string, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		s.emit(ctx, EventReject, observability.LevelVerbose, map[string]any{"reason": "empty"})
		return "", ErrEmptyMessage
	}
	if n := utf8.RuneCountInString(trimmed); n > s.cfg.MaxMessageLength {
		s.emit(ctx, EventReject, observability.LevelVerbose, map[string]any{
			"reason": "too_long",
			"length": n,
		})
		return "", fmt.Errorf("%w: %d > %d", ErrMessageTooLong, n, s.cfg.MaxMessageLength)
	}

	name := s.personas.Selected().DisplayName

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return "", ErrClosed
	}
	msg := protocol.NewMessage(protocol.RoleUser, trimmed, s.now())
	msg.ViaVoice = viaVoice
	msg.Attachments = s.stager.Take()
	s.messages = append(s.messages, msg)

	s.seq++
	ticket := Ticket{Epoch: s.epoch, Seq: s.seq}
	s.pending[ticket] = msg.ID
	s.wg.Add(1)
	s.mu.Unlock()

	s.emit(ctx, EventSubmit, observability.LevelInfo, map[string]any{
		"message_id":  msg.ID,
		"persona":     name,
		"via_voice":   viaVoice,
		"attachments": len(msg.Attachments),
		"epoch":       ticket.Epoch,
		"seq":         ticket.Seq,
	})

	summary := history.Summarize(name, trimmed, s.cfg.TitleLength)
	if err := s.sink.Notify(ctx, summary); err != nil {
		s.emit(ctx, EventSinkFailed, observability.LevelWarning, map[string]any{
			"message_id": msg.ID,
			"error":      err.Error(),
		})
	}

	go s.await(ticket, responder.Request{
		Persona:   name,
		Text:      trimmed,
		MessageID: msg.ID,
	})

	return msg.ID, nil
}

func (s *Session) await(ticket Ticket, req responder.Request) {
	defer s.wg.Done()

	ctx := s.ctx
	if timeout := s.cfg.ReplyTimeout(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	text, err := s.responder.Respond(ctx, req)
	if err != nil {
		s.fail(ticket, req, err)
		return
	}
	s.deliver(ticket, req, text)
}

// live reports whether ticket still owns a slot in the timeline. Callers
// hold s.mu.
func (s *Session) live(ticket Ticket) bool {
	if s.closed || ticket.Epoch != s.epoch {
		return false
	}
	_, ok := s.pending[ticket]
	return ok
}

func (s *Session) deliver(ticket Ticket, req responder.Request, text string) {
	s.mu.Lock()
	if !s.live(ticket) {
		s.mu.Unlock()
		s.emitStale(ticket, req)
		return
	}
	delete(s.pending, ticket)
	msg := protocol.NewMessage(protocol.RoleAssistant, text, s.now())
	s.messages = append(s.messages, msg)
	s.suggestions = suggest.DeriveFollowUps(text)
	awaiting := len(s.pending) > 0
	s.mu.Unlock()

	s.emit(s.ctx, EventReply, observability.LevelInfo, map[string]any{
		"message_id": msg.ID,
		"reply_to":   req.MessageID,
		"persona":    req.Persona,
		"awaiting":   awaiting,
	})
}

func (s *Session) fail(ticket Ticket, req responder.Request, cause error) {
	s.mu.Lock()
	if !s.live(ticket) {
		s.mu.Unlock()
		s.emitStale(ticket, req)
		return
	}
	delete(s.pending, ticket)
	msg := protocol.NewMessage(protocol.RoleSystem, failureText(req.Persona, cause), s.now())
	s.messages = append(s.messages, msg)
	awaiting := len(s.pending) > 0
	s.mu.Unlock()

	err := fmt.Errorf("%w: %v", ErrReplyFailed, cause)
	s.emit(context.Background(), EventReplyFailed, observability.LevelError, map[string]any{
		"message_id": msg.ID,
		"reply_to":   req.MessageID,
		"persona":    req.Persona,
		"awaiting":   awaiting,
		"error":      err,
	})
}

func failureText(name string, cause error) string {
	if errors.Is(cause, context.DeadlineExceeded) {
		return fmt.Sprintf("%s did not reply in time. Please try again.", name)
	}
	return fmt.Sprintf("%s could not reply: %v", name, cause)
}

func (s *Session) emitStale(ticket Ticket, req responder.Request) {
	s.emit(context.Background(), EventReplyStale, observability.LevelVerbose, map[string]any{
		"reply_to": req.MessageID,
		"epoch":    ticket.Epoch,
		"seq":      ticket.Seq,
	})
}

// Reset clears the timeline, the staged attachments, and the suggestions.
// Replies still in flight are not cancelled; they are discarded when they
// arrive.
func (s *Session) Reset(ctx context.Context) {
	s.mu.Lock()
	cleared := len(s.messages)
	dropped := len(s.pending)
	s.messages = nil
	s.epoch++
	s.pending = make(map[Ticket]string)
	s.suggestions = nil
	epoch := s.epoch
	s.mu.Unlock()

	s.stager.Clear()

	s.emit(ctx, EventReset, observability.LevelInfo, map[string]any{
		"epoch":    epoch,
		"cleared":  cleared,
		"orphaned": dropped,
	})
}

// Messages returns the timeline in append order. Each iteration reads a
// fresh snapshot, so the sequence can be ranged over repeatedly.
func (s *Session) Messages() iter.Seq[protocol.Message] {
	return func(yield func(protocol.Message) bool) {
		s.mu.RLock()
		snapshot := slices.Clone(s.messages)
		s.mu.RUnlock()

		for _, msg := range snapshot {
			if !yield(msg.Clone()) {
				return
			}
		}
	}
}

// Len returns the number of messages in the timeline.
func (s *Session) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages)
}

// Message returns the message with the given id.
func (s *Session) Message(id string) (protocol.Message, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := slices.IndexFunc(s.messages, func(m protocol.Message) bool { return m.ID == id })
	if i < 0 {
		return protocol.Message{}, false
	}
	return s.messages[i].Clone(), true
}

// LastReply returns the most recent assistant message.
func (s *Session) LastReply() (protocol.Message, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := len(s.messages) - 1; i >= 0; i-- {
		if s.messages[i].Role == protocol.RoleAssistant {
			return s.messages[i].Clone(), true
		}
	}
	return protocol.Message{}, false
}

// AwaitingReply reports whether any submission of the current epoch is
// still waiting for its reply.
func (s *Session) AwaitingReply() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.pending) > 0
}

// Pending returns the number of outstanding replies in the current epoch.
func (s *Session) Pending() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.pending)
}

// Epoch returns the current reset generation.
func (s *Session) Epoch() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.epoch
}

// Suggestions returns follow-up prompts derived from the latest reply.
func (s *Session) Suggestions() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.suggestions)
}

// Close cancels outstanding replies and waits for their goroutines to
// return. Further submissions fail with ErrClosed. Close is idempotent.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	inflight := len(s.pending)
	s.pending = make(map[Ticket]string)
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
	s.stager.Wait()

	s.emit(context.Background(), EventClose, observability.LevelInfo, map[string]any{
		"session_id": s.id,
		"cancelled":  inflight,
	})
	return nil
}

func (s *Session) emit(ctx context.Context, t observability.EventType, level observability.Level, data map[string]any) {
	s.observer.OnEvent(ctx, observability.Event{
		Type:      t,
		Level:     level,
		Timestamp: time.Now(),
		Source:    "session.Session",
		Data:      data,
	})
}
