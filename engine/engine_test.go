package engine_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/tailored-agentic-units/mentify/attachment"
	"github.com/tailored-agentic-units/mentify/core/protocol"
	"github.com/tailored-agentic-units/mentify/engine"
	"github.com/tailored-agentic-units/mentify/history"
	"github.com/tailored-agentic-units/mentify/observability"
	"github.com/tailored-agentic-units/mentify/persona"
	"github.com/tailored-agentic-units/mentify/responder"
	"github.com/tailored-agentic-units/mentify/session"
	"github.com/tailored-agentic-units/mentify/speech"
)

// --- Test helpers ---

type recordingSink struct {
	mu       sync.Mutex
	notified []history.InteractionSummary
	switches []string
}

func (r *recordingSink) Notify(_ context.Context, s history.InteractionSummary) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notified = append(r.notified, s)
	return nil
}

func (r *recordingSink) NotifyPersonaSwitch(_ context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.switches = append(r.switches, name)
	return nil
}

func (r *recordingSink) switchCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.switches)
}

type memClipboard struct {
	mu   sync.Mutex
	text string
}

func (c *memClipboard) WriteText(_ context.Context, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.text = text
	return nil
}

func instantResponder() engine.Option {
	return engine.WithResponder(responder.NewSimulator(responder.DefaultConfig(),
		responder.WithSeed(7),
		responder.WithSleep(func(context.Context, time.Duration) error { return nil }),
	))
}

func newEngine(t *testing.T, cfg engine.Config, opts ...engine.Option) *engine.Engine {
	t.Helper()
	opts = append([]engine.Option{
		instantResponder(),
		engine.WithObserver(observability.NoOpObserver{}),
	}, opts...)

	e, err := engine.New(&cfg, opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { e.Close() })
	return e
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

func lastReply(t *testing.T, e *engine.Engine) protocol.Message {
	t.Helper()
	var reply protocol.Message
	waitFor(t, "reply", func() bool {
		var ok bool
		reply, ok = e.Session().LastReply()
		return ok
	})
	return reply
}

// --- Tests ---

func TestNew_Defaults(t *testing.T) {
	e := newEngine(t, engine.DefaultConfig())

	if got := e.Persona().DisplayName; got != "Mentify 1" {
		t.Errorf("Persona() = %q, want Mentify 1", got)
	}
	if e.Ledger() == nil {
		t.Fatal("Ledger() = nil with default config")
	}
	if got := e.Ledger().Persona(); got != "Mentify 1" {
		t.Errorf("Ledger().Persona() = %q, want Mentify 1", got)
	}
	if e.Speech().CanListen() || e.Speech().CanSpeak() {
		t.Error("speech should be unavailable without capabilities")
	}
}

func TestNew_LockedSelectedPersona(t *testing.T) {
	cfg := engine.DefaultConfig()
	cfg.SelectedPersona = "mentify-4"

	_, err := engine.New(&cfg, engine.WithObserver(observability.NoOpObserver{}))
	var locked *persona.LockedPersonaError
	if !errors.As(err, &locked) {
		t.Fatalf("New() error = %v, want LockedPersonaError", err)
	}
}

func TestNew_WithSink_ReplacesLedger(t *testing.T) {
	sink := &recordingSink{}
	e := newEngine(t, engine.DefaultConfig(), engine.WithSink(sink))

	if e.Ledger() != nil {
		t.Error("Ledger() should be nil when a sink is supplied")
	}

	e.SetDraft("Hello")
	if _, err := e.Send(context.Background()); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if len(sink.notified) != 1 || sink.notified[0].Detail != "Mentify 1: Hello" {
		t.Errorf("sink notified %+v", sink.notified)
	}
}

func TestSend_ClearsDraftAndRecordsHistory(t *testing.T) {
	e := newEngine(t, engine.DefaultConfig())
	ctx := context.Background()

	e.SetDraft("Hello")
	id, err := e.Send(ctx)
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if draft, _ := e.Draft(); draft != "" {
		t.Errorf("Draft() after Send = %q, want empty", draft)
	}

	reply := lastReply(t, e)
	if !strings.Contains(reply.Text, "Hello") || !strings.Contains(reply.Text, "Mentify 1") {
		t.Errorf("reply = %q", reply.Text)
	}

	entries := e.Ledger().Entries()
	if len(entries) != 1 {
		t.Fatalf("ledger entries = %d, want 1", len(entries))
	}
	if entries[0].Title != "Hello" || entries[0].Summary != "Mentify 1: Hello" {
		t.Errorf("entry = %+v", entries[0])
	}

	if msg, _ := e.Session().Message(id); msg.ViaVoice {
		t.Error("typed draft marked as voice")
	}
}

func TestSend_EmptyDraftKept(t *testing.T) {
	e := newEngine(t, engine.DefaultConfig())

	e.SetDraft("   ")
	if _, err := e.Send(context.Background()); !errors.Is(err, session.ErrEmptyMessage) {
		t.Fatalf("Send() error = %v, want ErrEmptyMessage", err)
	}
	if draft, _ := e.Draft(); draft != "   " {
		t.Errorf("Draft() = %q, want untouched", draft)
	}
	if e.Session().Len() != 0 {
		t.Error("empty draft appended a message")
	}
}

func TestSelectPersona(t *testing.T) {
	sink := &recordingSink{}
	e := newEngine(t, engine.DefaultConfig(), engine.WithSink(sink))
	ctx := context.Background()

	if err := e.SelectPersona(ctx, "Mentify 2"); err != nil {
		t.Fatalf("SelectPersona(Mentify 2) error = %v", err)
	}
	if e.Persona().ID != "mentify-2" {
		t.Errorf("Persona() = %q, want mentify-2", e.Persona().ID)
	}
	if sink.switchCount() != 1 || sink.switches[0] != "Mentify 2" {
		t.Errorf("switches = %v, want [Mentify 2]", sink.switches)
	}

	if err := e.SelectPersona(ctx, "mentify-2"); err != nil {
		t.Fatalf("reselect error = %v", err)
	}
	if sink.switchCount() != 1 {
		t.Error("reselecting the current persona notified the sink")
	}

	err := e.SelectPersona(ctx, "mentify-3")
	var locked *persona.LockedPersonaError
	if !errors.As(err, &locked) {
		t.Fatalf("SelectPersona(locked) error = %v, want LockedPersonaError", err)
	}
	if locked.Persona.ID != "mentify-3" {
		t.Errorf("locked persona = %q", locked.Persona.ID)
	}
	if e.Persona().ID != "mentify-2" || sink.switchCount() != 1 {
		t.Error("locked selection mutated state")
	}

	if err := e.SelectPersona(ctx, "nobody"); !errors.Is(err, persona.ErrPersonaNotFound) {
		t.Errorf("SelectPersona(unknown) error = %v, want ErrPersonaNotFound", err)
	}
}

func TestSelectPersona_StampsReplies(t *testing.T) {
	e := newEngine(t, engine.DefaultConfig())
	ctx := context.Background()

	e.SelectPersona(ctx, "mentify-2")
	e.SetDraft("hi there")
	e.Send(ctx)

	if reply := lastReply(t, e); !strings.Contains(reply.Text, "Mentify 2") {
		t.Errorf("reply %q should name Mentify 2", reply.Text)
	}
	if entries := e.Ledger().Entries(); entries[0].Persona != "Mentify 2" {
		t.Errorf("entry persona = %q, want Mentify 2", entries[0].Persona)
	}
}

func TestToggleListening_TranscriptFillsDraft(t *testing.T) {
	sim := speech.NewSimulated(
		speech.WithTranscript("spoken words"),
		speech.WithCaptureDelay(5*time.Millisecond),
	)
	e := newEngine(t, engine.DefaultConfig(), engine.WithCapture(sim), engine.WithPlayback(sim))
	ctx := context.Background()

	if err := e.ToggleListening(ctx); err != nil {
		t.Fatalf("ToggleListening() error = %v", err)
	}
	waitFor(t, "transcript", func() bool {
		d, voice := e.Draft()
		return d == "spoken words" && voice
	})
	waitFor(t, "idle", func() bool { return e.Speech().State() == speech.Idle })

	if e.Session().Len() != 0 {
		t.Error("transcript was submitted automatically")
	}

	id, err := e.Send(ctx)
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if msg, _ := e.Session().Message(id); !msg.ViaVoice {
		t.Error("voice draft not marked ViaVoice")
	}
}

func TestToggleListening_Unavailable(t *testing.T) {
	e := newEngine(t, engine.DefaultConfig())

	if err := e.ToggleListening(context.Background()); !errors.Is(err, speech.ErrCapabilityUnavailable) {
		t.Errorf("ToggleListening() error = %v, want ErrCapabilityUnavailable", err)
	}
	if e.Speech().State() != speech.Idle {
		t.Errorf("State() = %v, want Idle", e.Speech().State())
	}
}

func TestReadAloud(t *testing.T) {
	sim := speech.NewSimulated(speech.WithWordDuration(time.Hour))
	e := newEngine(t, engine.DefaultConfig(), engine.WithCapture(sim), engine.WithPlayback(sim))
	ctx := context.Background()

	e.SetDraft("Hello")
	userID, _ := e.Send(ctx)
	reply := lastReply(t, e)

	if err := e.ReadAloud(ctx, reply.ID); err != nil {
		t.Fatalf("ReadAloud() error = %v", err)
	}
	if e.Speech().State() != speech.Speaking {
		t.Fatalf("State() = %v, want Speaking", e.Speech().State())
	}

	if err := e.ReadAloud(ctx, reply.ID); err != nil {
		t.Fatalf("second ReadAloud() error = %v", err)
	}
	if e.Speech().State() != speech.Idle {
		t.Errorf("State() after toggle = %v, want Idle", e.Speech().State())
	}

	if err := e.ReadAloud(ctx, userID); !errors.Is(err, engine.ErrNotReadable) {
		t.Errorf("ReadAloud(user) error = %v, want ErrNotReadable", err)
	}
	if err := e.ReadAloud(ctx, "missing"); !errors.Is(err, engine.ErrMessageNotFound) {
		t.Errorf("ReadAloud(missing) error = %v, want ErrMessageNotFound", err)
	}
}

func TestReadAloud_ListeningTakesPriority(t *testing.T) {
	sim := speech.NewSimulated(speech.WithCaptureDelay(time.Hour))
	e := newEngine(t, engine.DefaultConfig(), engine.WithCapture(sim), engine.WithPlayback(sim))
	ctx := context.Background()

	e.SetDraft("Hello")
	e.Send(ctx)
	reply := lastReply(t, e)

	e.ToggleListening(ctx)
	if err := e.ReadAloud(ctx, reply.ID); !errors.Is(err, speech.ErrBusy) {
		t.Errorf("ReadAloud() while listening error = %v, want ErrBusy", err)
	}
	if e.Speech().State() != speech.Listening {
		t.Errorf("State() = %v, want Listening", e.Speech().State())
	}
}

func TestCopy(t *testing.T) {
	ctx := context.Background()

	bare := newEngine(t, engine.DefaultConfig())
	if err := bare.Copy(ctx, "any"); !errors.Is(err, engine.ErrNoClipboard) {
		t.Errorf("Copy() without clipboard error = %v, want ErrNoClipboard", err)
	}

	clip := &memClipboard{}
	e := newEngine(t, engine.DefaultConfig(), engine.WithClipboard(clip))
	e.SetDraft("copy me")
	id, _ := e.Send(ctx)

	if err := e.Copy(ctx, id); err != nil {
		t.Fatalf("Copy() error = %v", err)
	}
	if clip.text != "copy me" {
		t.Errorf("clipboard = %q, want %q", clip.text, "copy me")
	}
	if err := e.Copy(ctx, "missing"); !errors.Is(err, engine.ErrMessageNotFound) {
		t.Errorf("Copy(missing) error = %v, want ErrMessageNotFound", err)
	}
}

func TestSuggestions(t *testing.T) {
	e := newEngine(t, engine.DefaultConfig())

	if got := e.Suggestions(); len(got) != 4 {
		t.Errorf("Suggestions() on empty chat = %d, want 4 starters", len(got))
	}

	e.SetDraft("Hello")
	e.Send(context.Background())
	lastReply(t, e)

	got := e.Suggestions()
	if len(got) == 0 || len(got) > 3 {
		t.Fatalf("Suggestions() after reply = %v", got)
	}
}

func TestClear_KeepsDraft_NewChat_ClearsIt(t *testing.T) {
	e := newEngine(t, engine.DefaultConfig())
	ctx := context.Background()

	e.SetDraft("Hello")
	e.Send(ctx)
	lastReply(t, e)

	e.SetDraft("unsent")
	e.Clear(ctx)
	if e.Session().Len() != 0 {
		t.Error("Clear() left messages")
	}
	if d, _ := e.Draft(); d != "unsent" {
		t.Errorf("Draft() after Clear = %q, want kept", d)
	}

	e.NewChat(ctx)
	if d, _ := e.Draft(); d != "" {
		t.Errorf("Draft() after NewChat = %q, want empty", d)
	}
	if e.Ledger().Len() != 1 {
		t.Error("history should survive a new chat")
	}
}

func TestHistory_FileBackendPersists(t *testing.T) {
	cfg := engine.DefaultConfig()
	cfg.History = history.Config{Backend: history.BackendFile, Path: t.TempDir()}

	first := newEngine(t, cfg)
	first.SetDraft("remember me")
	if _, err := first.Send(context.Background()); err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	second := newEngine(t, cfg)
	entries := second.Ledger().Entries()
	if len(entries) != 1 || entries[0].Title != "remember me" {
		t.Errorf("reloaded entries = %+v", entries)
	}
}

func TestNew_ZeroConfigAppliesDefaults(t *testing.T) {
	e, err := engine.New(&engine.Config{}, engine.WithObserver(observability.NoOpObserver{}))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { e.Close() })

	e.SetDraft("Hello")
	if _, err := e.Send(context.Background()); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	time.Sleep(100 * time.Millisecond)
	if !e.Session().AwaitingReply() {
		t.Error("reply arrived before the default minimum delay")
	}

	limit := attachment.DefaultConfig().MaxStaged
	for i := range limit {
		if _, err := e.Stage(attachment.FromBytes("a.txt", "text/plain", []byte("a"))); err != nil {
			t.Fatalf("Stage() #%d error = %v", i+1, err)
		}
	}
	if _, err := e.Stage(attachment.FromBytes("b.txt", "text/plain", []byte("b"))); !errors.Is(err, attachment.ErrTooManyStaged) {
		t.Errorf("Stage() past default limit error = %v, want ErrTooManyStaged", err)
	}
}

var errStopPlayback = errors.New("device busy")

// stuckPlayback never finishes on its own and fails to stop.
type stuckPlayback struct{}

func (stuckPlayback) StartPlayback(context.Context, string, speech.PlaybackHandler) error {
	return nil
}

func (stuckPlayback) StopPlayback() error { return errStopPlayback }

func TestClose_ReportsSpeechStopError(t *testing.T) {
	e := newEngine(t, engine.DefaultConfig(), engine.WithPlayback(stuckPlayback{}))
	ctx := context.Background()

	e.SetDraft("Hello")
	e.Send(ctx)
	reply := lastReply(t, e)
	if err := e.ReadAloud(ctx, reply.ID); err != nil {
		t.Fatalf("ReadAloud() error = %v", err)
	}

	if err := e.Close(); !errors.Is(err, errStopPlayback) {
		t.Errorf("Close() error = %v, want %v", err, errStopPlayback)
	}
	if _, err := e.Session().Submit(ctx, "after close", false); !errors.Is(err, session.ErrClosed) {
		t.Errorf("Submit() after Close error = %v, want ErrClosed", err)
	}
	if err := e.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}
