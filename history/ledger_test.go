package history_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/tailored-agentic-units/mentify/history"
	"github.com/tailored-agentic-units/mentify/observability"
)

func stepClock() func() time.Time {
	var mu sync.Mutex
	t := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Second)
		return t
	}
}

func TestLedger_Notify_NewestFirst(t *testing.T) {
	l := history.NewLedger(nil, history.WithPersona("Mentify 1"), history.WithClock(stepClock()))
	ctx := context.Background()

	l.Notify(ctx, history.Summarize("Mentify 1", "first", 50))
	l.Notify(ctx, history.Summarize("Mentify 1", "second", 50))

	entries := l.Entries()
	if len(entries) != 2 {
		t.Fatalf("len(Entries()) = %d, want 2", len(entries))
	}
	if entries[0].Title != "second" || entries[1].Title != "first" {
		t.Errorf("Entries() titles = [%q %q], want [second first]", entries[0].Title, entries[1].Title)
	}
	if entries[0].Summary != "Mentify 1: second" {
		t.Errorf("Summary = %q, want %q", entries[0].Summary, "Mentify 1: second")
	}
	if entries[0].Persona != "Mentify 1" {
		t.Errorf("Persona = %q, want Mentify 1", entries[0].Persona)
	}
	if entries[0].ID == "" || entries[0].ID == entries[1].ID {
		t.Error("entries should carry distinct ids")
	}
}

func TestLedger_PersonaSwitch_StampsLaterEntries(t *testing.T) {
	l := history.NewLedger(nil, history.WithPersona("Mentify 1"))
	ctx := context.Background()

	l.Notify(ctx, history.InteractionSummary{Title: "a"})
	l.NotifyPersonaSwitch(ctx, "Mentify 2")
	l.Notify(ctx, history.InteractionSummary{Title: "b"})

	if got := l.Persona(); got != "Mentify 2" {
		t.Errorf("Persona() = %q, want Mentify 2", got)
	}
	entries := l.Entries()
	if entries[0].Persona != "Mentify 2" || entries[1].Persona != "Mentify 1" {
		t.Errorf("personas = [%q %q], want [Mentify 2 Mentify 1]", entries[0].Persona, entries[1].Persona)
	}
}

func TestLedger_Delete(t *testing.T) {
	l := history.NewLedger(nil)
	ctx := context.Background()

	l.Notify(ctx, history.InteractionSummary{Title: "a"})
	l.Notify(ctx, history.InteractionSummary{Title: "b"})
	target := l.Entries()[1].ID

	if err := l.Delete(ctx, target); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if l.Len() != 1 || l.Entries()[0].Title != "b" {
		t.Errorf("Entries() after Delete = %+v", l.Entries())
	}
	if err := l.Delete(ctx, target); !errors.Is(err, history.ErrEntryNotFound) {
		t.Errorf("Delete() twice error = %v, want ErrEntryNotFound", err)
	}
}

func TestLedger_Entries_IsCopy(t *testing.T) {
	l := history.NewLedger(nil)
	l.Notify(context.Background(), history.InteractionSummary{Title: "a"})

	entries := l.Entries()
	entries[0].Title = "mutated"

	if l.Entries()[0].Title != "a" {
		t.Error("mutating Entries() result changed the ledger")
	}
}

func TestLedger_Export(t *testing.T) {
	l := history.NewLedger(nil, history.WithClock(stepClock()))
	ctx := context.Background()

	var empty bytes.Buffer
	if err := l.Export(&empty); err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if got := bytes.TrimSpace(empty.Bytes()); string(got) != "[]" {
		t.Errorf("Export() empty = %s, want []", got)
	}

	l.Notify(ctx, history.InteractionSummary{Title: "a", Detail: "M: a"})
	l.Notify(ctx, history.InteractionSummary{Title: "b", Detail: "M: b"})

	var buf bytes.Buffer
	if err := l.Export(&buf); err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	var decoded []history.Entry
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("Export() produced invalid JSON: %v", err)
	}
	if len(decoded) != 2 || decoded[0].Title != "b" {
		t.Errorf("Export() = %+v, want newest first", decoded)
	}
}

func TestLedger_FileStore_PersistsAndBootstraps(t *testing.T) {
	root := t.TempDir()
	ctx := context.Background()

	first := history.NewLedger(history.NewFileStore(root),
		history.WithPersona("Mentify 1"), history.WithClock(stepClock()))
	for _, title := range []string{"a", "b", "c"} {
		if err := first.Notify(ctx, history.InteractionSummary{Title: title}); err != nil {
			t.Fatalf("Notify() error = %v", err)
		}
	}
	if err := first.Delete(ctx, first.Entries()[1].ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	second := history.NewLedger(history.NewFileStore(root))
	if err := second.Bootstrap(ctx); err != nil {
		t.Fatalf("Bootstrap() error = %v", err)
	}
	entries := second.Entries()
	if len(entries) != 2 {
		t.Fatalf("len(Entries()) = %d, want 2", len(entries))
	}
	if entries[0].Title != "c" || entries[1].Title != "a" {
		t.Errorf("titles = [%q %q], want [c a]", entries[0].Title, entries[1].Title)
	}
	if entries[0].Persona != "Mentify 1" {
		t.Errorf("Persona = %q, want Mentify 1", entries[0].Persona)
	}

	if err := second.Clear(ctx); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	third := history.NewLedger(history.NewFileStore(root))
	if err := third.Bootstrap(ctx); err != nil {
		t.Fatalf("Bootstrap() error = %v", err)
	}
	if third.Len() != 0 {
		t.Errorf("Len() after Clear = %d, want 0", third.Len())
	}
}

func TestLedger_Bootstrap_SkipsCorruptRecords(t *testing.T) {
	store := history.NewFileStore(t.TempDir())
	ctx := context.Background()

	store.Save(ctx, history.Record{Key: "bad.json", Value: []byte("not json")})
	good, _ := json.Marshal(history.Entry{ID: "x", Title: "good"})
	store.Save(ctx, history.Record{Key: "x.json", Value: good})

	var mu sync.Mutex
	var warnings int
	obs := observability.FuncObserver(func(_ context.Context, e observability.Event) {
		if e.Type == history.EventPersistFailed {
			mu.Lock()
			warnings++
			mu.Unlock()
		}
	})

	l := history.NewLedger(store, history.WithObserver(obs))
	if err := l.Bootstrap(ctx); err != nil {
		t.Fatalf("Bootstrap() error = %v", err)
	}
	if l.Len() != 1 || l.Entries()[0].Title != "good" {
		t.Errorf("Entries() = %+v, want only the good record", l.Entries())
	}
	if warnings != 1 {
		t.Errorf("persist_failed events = %d, want 1", warnings)
	}
}

func TestLedger_Concurrent_Notify(t *testing.T) {
	l := history.NewLedger(nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.Notify(ctx, history.InteractionSummary{Title: "x"})
		}()
	}
	wg.Wait()

	if l.Len() != 50 {
		t.Errorf("Len() = %d, want 50", l.Len())
	}
}
