package main

import (
	"context"
	"testing"

	"github.com/tailored-agentic-units/mentify/observability"
)

func TestEventBridge_CoalescesOverflow(t *testing.T) {
	b := newEventBridge(1)
	ctx := context.Background()

	b.OnEvent(ctx, observability.Event{Type: "first"})
	b.OnEvent(ctx, observability.Event{Type: "second"})
	b.OnEvent(ctx, observability.Event{Type: "third"})

	if len(b.refresh) != 1 {
		t.Fatalf("pending refresh signals = %d, want 1", len(b.refresh))
	}

	msg := b.wait()()
	ev, ok := msg.(eventMsg)
	if !ok {
		// select picks randomly when both channels are ready
		if _, ok := msg.(refreshMsg); !ok {
			t.Fatalf("wait() = %T, want eventMsg or refreshMsg", msg)
		}
		ev, ok = b.wait()().(eventMsg)
		if !ok {
			t.Fatal("buffered event lost")
		}
	}
	if ev.Type != "first" {
		t.Errorf("event = %q, want first", ev.Type)
	}

	if len(b.events) != 0 {
		t.Errorf("events left = %d, want 0", len(b.events))
	}
}

func TestEventBridge_RefreshAfterDrain(t *testing.T) {
	b := newEventBridge(1)
	ctx := context.Background()

	b.OnEvent(ctx, observability.Event{Type: "session.submit"})
	b.OnEvent(ctx, observability.Event{Type: "session.reply"})

	got := map[string]bool{}
	for range 2 {
		switch msg := b.wait()().(type) {
		case eventMsg:
			got[string(msg.Type)] = true
		case refreshMsg:
			got["refresh"] = true
		}
	}
	if !got["session.submit"] || !got["refresh"] {
		t.Errorf("delivered = %v, want the buffered event and one refresh", got)
	}
}
