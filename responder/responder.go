// Package responder produces assistant replies. The session treats a
// Responder as an opaque strategy that blocks until a reply is ready; the
// Simulator stands in for a real inference backend.
package responder

import "context"

// Request is the input to a Responder.
type Request struct {
	Persona   string // display name of the selected persona
	Text      string // trimmed user text
	MessageID string // id of the user message being answered
}

// Responder produces the reply text for a request. Implementations must
// honour ctx cancellation; returned errors surface as failed replies.
type Responder interface {
	Respond(ctx context.Context, req Request) (string, error)
}

// Func adapts a function to the Responder interface.
type Func func(ctx context.Context, req Request) (string, error)

func (f Func) Respond(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}
