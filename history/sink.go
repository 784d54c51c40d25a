// Package history records a summary of every submitted interaction. The
// session reports to a Sink; Ledger is the Sink the application ships with,
// keeping entries newest first over an optional persistent Store.
package history

import (
	"context"
	"strings"
)

// DefaultTitleLength is the number of runes kept in a summary title.
const DefaultTitleLength = 50

// InteractionSummary describes one submitted user message.
type InteractionSummary struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

// Summarize builds the summary for text sent to persona. The title is the
// first titleLen runes of the trimmed text, with "..." appended when cut.
// The detail is "<persona>: <text>".
func Summarize(persona, text string, titleLen int) InteractionSummary {
	if titleLen <= 0 {
		titleLen = DefaultTitleLength
	}

	trimmed := strings.TrimSpace(text)
	title := trimmed
	if runes := []rune(trimmed); len(runes) > titleLen {
		title = string(runes[:titleLen]) + "..."
	}

	return InteractionSummary{
		Title:  title,
		Detail: persona + ": " + trimmed,
	}
}

// Sink receives interaction summaries and persona switches.
type Sink interface {
	Notify(ctx context.Context, summary InteractionSummary) error
	NotifyPersonaSwitch(ctx context.Context, persona string) error
}

type noopSink struct{}

func (noopSink) Notify(context.Context, InteractionSummary) error  { return nil }
func (noopSink) NotifyPersonaSwitch(context.Context, string) error { return nil }

// NoOp returns a Sink that discards everything.
func NoOp() Sink { return noopSink{} }

// OrNoOp returns s, or a discarding Sink when s is nil.
func OrNoOp(s Sink) Sink {
	if s == nil {
		return noopSink{}
	}
	return s
}
