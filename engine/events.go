package engine

import "github.com/tailored-agentic-units/mentify/observability"

// Engine event types.
const (
	EventDraft         observability.EventType = "engine.draft"
	EventPersonaSwitch observability.EventType = "engine.persona.switch"
	EventPersonaDenied observability.EventType = "engine.persona.denied"
	EventCopy          observability.EventType = "engine.copy"
	EventReadAloud     observability.EventType = "engine.read_aloud"
	EventNewChat       observability.EventType = "engine.new_chat"
)
