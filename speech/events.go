package speech

import "github.com/tailored-agentic-units/mentify/observability"

// Speech controller event types.
const (
	EventTransition observability.EventType = "speech.transition"
	EventTranscript observability.EventType = "speech.transcript"
	EventError      observability.EventType = "speech.error"
)
