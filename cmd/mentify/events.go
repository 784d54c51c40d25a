package main

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tailored-agentic-units/mentify/observability"
)

type eventMsg observability.Event

// refreshMsg asks the model to redraw from engine state after events were
// coalesced.
type refreshMsg struct{}

// eventBridge hands engine events to the TUI without blocking the emitter.
// When the buffer is full the event is folded into a single pending refresh
// signal, so the UI still redraws once it catches up.
type eventBridge struct {
	events  chan observability.Event
	refresh chan struct{}
}

func newEventBridge(size int) *eventBridge {
	return &eventBridge{
		events:  make(chan observability.Event, size),
		refresh: make(chan struct{}, 1),
	}
}

func (b *eventBridge) OnEvent(_ context.Context, event observability.Event) {
	select {
	case b.events <- event:
	default:
		select {
		case b.refresh <- struct{}{}:
		default:
		}
	}
}

// wait returns a command that delivers the next event or refresh signal.
func (b *eventBridge) wait() tea.Cmd {
	return func() tea.Msg {
		select {
		case ev := <-b.events:
			return eventMsg(ev)
		case <-b.refresh:
			return refreshMsg{}
		}
	}
}
