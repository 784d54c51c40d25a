package attachment

import "github.com/tailored-agentic-units/mentify/observability"

// Stager event types.
const (
	EventStage          observability.EventType = "attachment.stage"
	EventUnstage        observability.EventType = "attachment.unstage"
	EventClear          observability.EventType = "attachment.clear"
	EventPreviewReady   observability.EventType = "attachment.preview.ready"
	EventPreviewFailed  observability.EventType = "attachment.preview.failed"
	EventPreviewDropped observability.EventType = "attachment.preview.dropped"
)
