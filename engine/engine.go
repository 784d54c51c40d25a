// Package engine composes the conversational subsystems into one chat
// engine: the persona catalog, attachment stager, speech channel, session
// timeline, responder, and history ledger. It also owns the composer draft
// that speech transcripts are written into.
//
// The engine initializes from configuration via New. Functional options
// replace config-created collaborators, which is how hosts plug in real
// speech, clipboard, or inference backends and how tests insert doubles.
//
//	e, err := engine.New(&cfg, engine.WithCapture(sim), engine.WithPlayback(sim))
//	e.SetDraft("Hello")
//	id, err := e.Send(ctx)
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/tailored-agentic-units/mentify/attachment"
	"github.com/tailored-agentic-units/mentify/core/protocol"
	"github.com/tailored-agentic-units/mentify/history"
	"github.com/tailored-agentic-units/mentify/observability"
	"github.com/tailored-agentic-units/mentify/persona"
	"github.com/tailored-agentic-units/mentify/responder"
	"github.com/tailored-agentic-units/mentify/session"
	"github.com/tailored-agentic-units/mentify/speech"
	"github.com/tailored-agentic-units/mentify/suggest"
)

// Clipboard receives copied message text.
type Clipboard interface {
	WriteText(ctx context.Context, text string) error
}

// Option configures an Engine before its subsystems are built.
type Option func(*Engine)

// WithResponder overrides the config-created simulator.
func WithResponder(r responder.Responder) Option {
	return func(e *Engine) { e.responder = r }
}

// WithSink replaces the history ledger as the session's sink. Ledger
// returns nil when a custom sink is installed.
func WithSink(s history.Sink) Option {
	return func(e *Engine) { e.sink = s }
}

// WithHistoryStore overrides the config-created history store.
func WithHistoryStore(s history.Store) Option {
	return func(e *Engine) { e.store = s }
}

// WithObserver overrides the default SlogObserver.
func WithObserver(o observability.Observer) Option {
	return func(e *Engine) { e.observer = o }
}

// WithCapture installs a speech capture capability.
func WithCapture(c speech.Capture) Option {
	return func(e *Engine) { e.capture = c }
}

// WithPlayback installs a speech playback capability.
func WithPlayback(p speech.Playback) Option {
	return func(e *Engine) { e.playback = p }
}

// WithClipboard installs the clipboard used by Copy.
func WithClipboard(c Clipboard) Option {
	return func(e *Engine) { e.clipboard = c }
}

// Engine is a single-chat conversational engine.
type Engine struct {
	catalog   *persona.Catalog
	stager    *attachment.Stager
	session   *session.Session
	speech    *speech.Controller
	ledger    *history.Ledger
	sink      history.Sink
	store     history.Store
	responder responder.Responder
	capture   speech.Capture
	playback  speech.Playback
	clipboard Clipboard
	observer  observability.Observer

	mu         sync.Mutex
	draft      string
	draftVoice bool
	speakingID string
}

// New creates an Engine from configuration. Persisted history is loaded
// before New returns.
func New(cfg *Config, opts ...Option) (*Engine, error) {
	personas := cfg.Personas
	if len(personas) == 0 {
		personas = persona.Defaults()
	}
	catalog, err := persona.NewCatalog(personas, cfg.SelectedPersona)
	if err != nil {
		return nil, fmt.Errorf("failed to create persona catalog: %w", err)
	}

	e := &Engine{
		catalog:  catalog,
		observer: observability.NewSlogObserver(slog.Default()),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.observer = observability.OrNoOp(e.observer)

	if e.sink == nil {
		if e.store == nil {
			e.store, err = history.NewStore(&cfg.History)
			if err != nil {
				return nil, fmt.Errorf("failed to create history store: %w", err)
			}
		}
		e.ledger = history.NewLedger(e.store,
			history.WithObserver(e.observer),
			history.WithPersona(catalog.Selected().DisplayName),
		)
		if err := e.ledger.Bootstrap(context.Background()); err != nil {
			return nil, fmt.Errorf("failed to load history: %w", err)
		}
		e.sink = e.ledger
	}

	if e.responder == nil {
		e.responder = responder.NewSimulator(cfg.Responder)
	}

	e.stager = attachment.NewStager(cfg.Attachments, attachment.WithObserver(e.observer))

	e.session, err = session.New(cfg.Session, catalog,
		session.WithResponder(e.responder),
		session.WithStager(e.stager),
		session.WithSink(e.sink),
		session.WithObserver(e.observer),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	e.speech = speech.NewController(e.capture, e.playback,
		speech.WithObserver(e.observer),
		speech.WithTranscriptFunc(e.onTranscript),
	)

	return e, nil
}

// Session returns the chat timeline.
func (e *Engine) Session() *session.Session { return e.session }

// Speech returns the speech channel controller.
func (e *Engine) Speech() *speech.Controller { return e.speech }

// Catalog returns the persona catalog.
func (e *Engine) Catalog() *persona.Catalog { return e.catalog }

// Ledger returns the history ledger, or nil when WithSink replaced it.
func (e *Engine) Ledger() *history.Ledger { return e.ledger }

// Persona returns the selected persona.
func (e *Engine) Persona() persona.Persona { return e.catalog.Selected() }

// Draft returns the composer text and whether it came from speech capture.
func (e *Engine) Draft() (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.draft, e.draftVoice
}

// SetDraft replaces the composer text with typed input.
func (e *Engine) SetDraft(text string) {
	e.mu.Lock()
	e.draft = text
	e.draftVoice = false
	e.mu.Unlock()
}

func (e *Engine) onTranscript(text string) {
	e.mu.Lock()
	e.draft = text
	e.draftVoice = true
	e.mu.Unlock()

	e.emit(context.Background(), EventDraft, observability.LevelVerbose, map[string]any{
		"source": "speech",
		"length": len([]rune(text)),
	})
}

// Send submits the composer draft with the staged attachments. The draft
// is cleared only when the session accepts it.
func (e *Engine) Send(ctx context.Context) (string, error) {
	e.mu.Lock()
	text, voice := e.draft, e.draftVoice
	e.mu.Unlock()

	id, err := e.session.Submit(ctx, text, voice)
	if err != nil {
		return "", err
	}

	e.mu.Lock()
	if e.draft == text {
		e.draft = ""
		e.draftVoice = false
	}
	e.mu.Unlock()
	return id, nil
}

// Attach stages the file at path for the next message.
func (e *Engine) Attach(path string) (protocol.Attachment, error) {
	src, err := attachment.FromPath(path)
	if err != nil {
		return protocol.Attachment{}, err
	}
	return e.stager.Stage(src)
}

// Stage stages an arbitrary source for the next message.
func (e *Engine) Stage(src protocol.Source) (protocol.Attachment, error) {
	return e.stager.Stage(src)
}

// Unstage removes the staged attachment at index.
func (e *Engine) Unstage(index int) (protocol.Attachment, error) {
	return e.stager.Unstage(index)
}

// Staged returns the attachments waiting for the next message.
func (e *Engine) Staged() []protocol.Attachment {
	return e.stager.Staged()
}

// SelectPersona switches to the persona with the given id or display name.
// Locked personas yield *persona.LockedPersonaError and change nothing. The
// history sink hears about the switch only when the selection changes.
func (e *Engine) SelectPersona(ctx context.Context, key string) error {
	id, ok := e.catalog.Find(key)
	if !ok {
		return fmt.Errorf("%w: %s", persona.ErrPersonaNotFound, key)
	}

	previous := e.catalog.Selected()
	changed, err := e.catalog.Select(id)
	if err != nil {
		e.emit(ctx, EventPersonaDenied, observability.LevelInfo, map[string]any{
			"persona": key,
			"error":   err.Error(),
		})
		return err
	}
	if !changed {
		return nil
	}

	current := e.catalog.Selected()
	e.emit(ctx, EventPersonaSwitch, observability.LevelInfo, map[string]any{
		"from": previous.DisplayName,
		"to":   current.DisplayName,
	})
	return e.sink.NotifyPersonaSwitch(ctx, current.DisplayName)
}

// ToggleListening starts or stops speech capture. Transcripts land in the
// composer draft; they are never submitted automatically.
func (e *Engine) ToggleListening(ctx context.Context) error {
	return e.speech.ToggleListening(ctx)
}

// ReadAloud toggles playback of an assistant message. Reading the message
// already playing stops it; reading another replaces the utterance.
func (e *Engine) ReadAloud(ctx context.Context, messageID string) error {
	msg, ok := e.session.Message(messageID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrMessageNotFound, messageID)
	}
	if msg.Role != protocol.RoleAssistant {
		return fmt.Errorf("%w: %s", ErrNotReadable, msg.Role)
	}

	e.mu.Lock()
	playing := e.speakingID == messageID && e.speech.State() == speech.Speaking
	e.mu.Unlock()

	if playing {
		return e.speech.StopSpeaking(ctx)
	}

	if err := e.speech.StartSpeaking(ctx, msg.Text); err != nil {
		return err
	}

	e.mu.Lock()
	e.speakingID = messageID
	e.mu.Unlock()

	e.emit(ctx, EventReadAloud, observability.LevelVerbose, map[string]any{"message_id": messageID})
	return nil
}

// Copy writes a message's text to the clipboard.
func (e *Engine) Copy(ctx context.Context, messageID string) error {
	if e.clipboard == nil {
		return ErrNoClipboard
	}
	msg, ok := e.session.Message(messageID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrMessageNotFound, messageID)
	}
	if err := e.clipboard.WriteText(ctx, msg.Text); err != nil {
		return fmt.Errorf("copy message: %w", err)
	}

	e.emit(ctx, EventCopy, observability.LevelVerbose, map[string]any{"message_id": messageID})
	return nil
}

// Suggestions returns follow-up prompts for the latest reply, or the
// starter prompts while the timeline is empty.
func (e *Engine) Suggestions() []string {
	if e.session.Len() == 0 {
		starters := suggest.Starters()
		out := make([]string, len(starters))
		for i, s := range starters {
			out[i] = s.Prompt
		}
		return out
	}
	return e.session.Suggestions()
}

// Clear empties the timeline and the staged attachments. The draft is kept.
func (e *Engine) Clear(ctx context.Context) {
	e.session.Reset(ctx)
}

// NewChat starts over: the timeline, stage, and draft are cleared and any
// speech activity stops.
func (e *Engine) NewChat(ctx context.Context) {
	if err := e.speech.Stop(ctx); err != nil {
		e.emit(ctx, EventNewChat, observability.LevelWarning, map[string]any{"error": err.Error()})
	}
	e.session.Reset(ctx)

	e.mu.Lock()
	e.draft = ""
	e.draftVoice = false
	e.speakingID = ""
	e.mu.Unlock()

	e.emit(ctx, EventNewChat, observability.LevelInfo, map[string]any{"session_id": e.session.ID()})
}

// Close stops speech and shuts the session down, waiting for outstanding
// replies to unwind. The session is closed even when stopping speech fails.
func (e *Engine) Close() error {
	var speechErr error
	if err := e.speech.Stop(context.Background()); err != nil {
		speechErr = fmt.Errorf("failed to stop speech: %w", err)
	}
	return errors.Join(speechErr, e.session.Close())
}

func (e *Engine) emit(ctx context.Context, t observability.EventType, level observability.Level, data map[string]any) {
	e.observer.OnEvent(ctx, observability.Event{
		Type:      t,
		Level:     level,
		Timestamp: time.Now(),
		Source:    "engine.Engine",
		Data:      data,
	})
}
