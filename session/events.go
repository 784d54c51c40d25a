package session

import "github.com/tailored-agentic-units/mentify/observability"

// Session event types.
const (
	EventSubmit      observability.EventType = "session.submit"
	EventReject      observability.EventType = "session.reject"
	EventReply       observability.EventType = "session.reply"
	EventReplyStale  observability.EventType = "session.reply.stale"
	EventReplyFailed observability.EventType = "session.reply.failed"
	EventReset       observability.EventType = "session.reset"
	EventSinkFailed  observability.EventType = "session.sink_failed"
	EventClose       observability.EventType = "session.close"
)
