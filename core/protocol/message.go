// Package protocol defines the conversation values shared by every engine
// subsystem: messages, their roles, and the attachments they carry.
package protocol

import (
	"slices"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Role identifies the sender of a conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	// RoleSystem marks engine-authored notices such as a failed reply.
	RoleSystem Role = "system"
)

// Message is a single entry in a session timeline. Messages are values:
// once appended to a timeline they are never rewritten.
type Message struct {
	ID          string       `json:"id"`
	Role        Role         `json:"role"`
	Text        string       `json:"text"`
	CreatedAt   time.Time    `json:"created_at"`
	ViaVoice    bool         `json:"via_voice,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// NewMessage creates a Message with a fresh UUIDv7 identifier.
//
// Example:
//
//	msg := protocol.NewMessage(protocol.RoleUser, "Hello", time.Now())
func NewMessage(role Role, text string, createdAt time.Time) Message {
	return Message{
		ID:        NewID(),
		Role:      role,
		Text:      text,
		CreatedAt: createdAt,
	}
}

// Clone returns a copy of the message that shares no mutable state with m.
func (m Message) Clone() Message {
	clone := m
	if m.Attachments != nil {
		clone.Attachments = make([]Attachment, len(m.Attachments))
		for i, a := range m.Attachments {
			clone.Attachments[i] = a.Clone()
		}
	}
	return clone
}

// Length reports the message text length in code points.
func (m Message) Length() int {
	return utf8.RuneCountInString(m.Text)
}

// NewID returns a time-ordered unique identifier.
func NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// CloneAttachments deep-copies a slice of attachments.
func CloneAttachments(in []Attachment) []Attachment {
	if in == nil {
		return nil
	}
	out := slices.Clone(in)
	for i := range out {
		out[i] = in[i].Clone()
	}
	return out
}
