package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/tailored-agentic-units/mentify/core/protocol"
	"github.com/tailored-agentic-units/mentify/observability"
)

// Ledger event types.
const (
	EventRecord        observability.EventType = "history.record"
	EventDelete        observability.EventType = "history.delete"
	EventClear         observability.EventType = "history.clear"
	EventPersonaSwitch observability.EventType = "history.persona_switch"
	EventPersistFailed observability.EventType = "history.persist_failed"
)

// Entry is one recorded interaction.
type Entry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Persona   string    `json:"persona,omitempty"`
	Title     string    `json:"title"`
	Summary   string    `json:"summary"`
}

// LedgerOption configures a Ledger.
type LedgerOption func(*Ledger)

// WithObserver sets the Ledger's event observer.
func WithObserver(o observability.Observer) LedgerOption {
	return func(l *Ledger) { l.observer = observability.OrNoOp(o) }
}

// WithPersona sets the persona stamped on entries before any switch.
func WithPersona(name string) LedgerOption {
	return func(l *Ledger) { l.persona = name }
}

// WithClock overrides the entry timestamp source.
func WithClock(now func() time.Time) LedgerOption {
	return func(l *Ledger) { l.now = now }
}

// Ledger is the history Sink. It keeps entries in memory, newest first, and
// writes through to store when one is configured.
type Ledger struct {
	store    Store
	observer observability.Observer
	now      func() time.Time

	mu      sync.RWMutex
	entries []Entry
	persona string
}

// NewLedger creates a Ledger. A nil store keeps history in process only.
func NewLedger(store Store, opts ...LedgerOption) *Ledger {
	l := &Ledger{
		store:    store,
		observer: observability.NoOpObserver{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Bootstrap loads persisted entries from the store, replacing any held in
// memory. Records that fail to decode, and indexed keys whose record is
// missing, are skipped with a warning event.
func (l *Ledger) Bootstrap(ctx context.Context) error {
	if l.store == nil {
		return nil
	}

	keys, err := l.store.List(ctx)
	if err != nil {
		return err
	}
	records := make([]Record, 0, len(keys))
	for _, key := range keys {
		loaded, err := l.store.Load(ctx, key)
		if errors.Is(err, ErrKeyNotFound) {
			l.emit(ctx, EventPersistFailed, observability.LevelWarning, map[string]any{
				"key":   key,
				"error": err.Error(),
			})
			continue
		}
		if err != nil {
			return err
		}
		records = append(records, loaded...)
	}

	entries := make([]Entry, 0, len(records))
	for _, r := range records {
		var e Entry
		if err := json.Unmarshal(r.Value, &e); err != nil {
			l.emit(ctx, EventPersistFailed, observability.LevelWarning, map[string]any{
				"key":   r.Key,
				"error": err.Error(),
			})
			continue
		}
		entries = append(entries, e)
	}
	slices.SortStableFunc(entries, func(a, b Entry) int {
		if c := b.Timestamp.Compare(a.Timestamp); c != 0 {
			return c
		}
		return strings.Compare(b.ID, a.ID)
	})

	l.mu.Lock()
	l.entries = entries
	l.mu.Unlock()
	return nil
}

// Notify records summary as the newest entry.
func (l *Ledger) Notify(ctx context.Context, summary InteractionSummary) error {
	l.mu.Lock()
	e := Entry{
		ID:        protocol.NewID(),
		Timestamp: l.now(),
		Persona:   l.persona,
		Title:     summary.Title,
		Summary:   summary.Detail,
	}
	l.entries = slices.Insert(l.entries, 0, e)
	l.mu.Unlock()

	l.emit(ctx, EventRecord, observability.LevelVerbose, map[string]any{
		"id":      e.ID,
		"persona": e.Persona,
		"title":   e.Title,
	})

	if l.store == nil {
		return nil
	}
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSaveFailed, err)
	}
	if err := l.store.Save(ctx, Record{Key: recordKey(e.ID), Value: data}); err != nil {
		l.emit(ctx, EventPersistFailed, observability.LevelWarning, map[string]any{
			"id":    e.ID,
			"error": err.Error(),
		})
		return err
	}
	return nil
}

// NotifyPersonaSwitch changes the persona stamped on later entries.
func (l *Ledger) NotifyPersonaSwitch(ctx context.Context, persona string) error {
	l.mu.Lock()
	prev := l.persona
	l.persona = persona
	l.mu.Unlock()

	l.emit(ctx, EventPersonaSwitch, observability.LevelVerbose, map[string]any{
		"from": prev,
		"to":   persona,
	})
	return nil
}

// Persona returns the persona currently stamped on new entries.
func (l *Ledger) Persona() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.persona
}

// Entries returns a copy of the recorded entries, newest first.
func (l *Ledger) Entries() []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.entries)
}

// Len returns the number of recorded entries.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Delete removes the entry with the given id.
func (l *Ledger) Delete(ctx context.Context, id string) error {
	l.mu.Lock()
	i := slices.IndexFunc(l.entries, func(e Entry) bool { return e.ID == id })
	if i < 0 {
		l.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrEntryNotFound, id)
	}
	l.entries = slices.Delete(l.entries, i, i+1)
	l.mu.Unlock()

	l.emit(ctx, EventDelete, observability.LevelVerbose, map[string]any{"id": id})

	if l.store == nil {
		return nil
	}
	return l.store.Delete(ctx, recordKey(id))
}

// Clear removes every entry.
func (l *Ledger) Clear(ctx context.Context) error {
	l.mu.Lock()
	removed := l.entries
	l.entries = nil
	l.mu.Unlock()

	l.emit(ctx, EventClear, observability.LevelVerbose, map[string]any{"cleared": len(removed)})

	if l.store == nil || len(removed) == 0 {
		return nil
	}
	keys := make([]string, len(removed))
	for i, e := range removed {
		keys[i] = recordKey(e.ID)
	}
	return l.store.Delete(ctx, keys...)
}

// Export writes the entries, newest first, to w as an indented JSON array.
func (l *Ledger) Export(w io.Writer) error {
	entries := l.Entries()
	if entries == nil {
		entries = []Entry{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(entries)
}

func recordKey(id string) string {
	return id + ".json"
}

func (l *Ledger) emit(ctx context.Context, t observability.EventType, level observability.Level, data map[string]any) {
	l.observer.OnEvent(ctx, observability.Event{
		Type:      t,
		Level:     level,
		Timestamp: time.Now(),
		Source:    "history.Ledger",
		Data:      data,
	})
}
