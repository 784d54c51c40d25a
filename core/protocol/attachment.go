package protocol

import (
	"io"
	"slices"
)

// AttachmentKind is the coarse classification of a staged file.
type AttachmentKind string

const (
	KindImage    AttachmentKind = "image"
	KindDocument AttachmentKind = "document"
	KindOther    AttachmentKind = "other"
)

// PreviewState tracks the asynchronous preview decode of an image attachment.
type PreviewState string

const (
	PreviewNone    PreviewState = ""
	PreviewPending PreviewState = "pending"
	PreviewReady   PreviewState = "ready"
	PreviewFailed  PreviewState = "failed"
)

// Source is a handle to the file-like resource behind an attachment.
// Open may be called more than once; each call returns an independent reader.
type Source interface {
	Name() string
	MediaType() string
	Size() int64
	Open() (io.ReadCloser, error)
}

// Preview is a decoded, downscaled rendition of an image attachment.
type Preview struct {
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	MediaType string `json:"media_type"`
	Data      []byte `json:"data"`
}

// Attachment is a file prepared for, or carried by, a message.
type Attachment struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	MediaType    string         `json:"media_type"`
	Kind         AttachmentKind `json:"kind"`
	SizeBytes    int64          `json:"size_bytes"`
	PreviewState PreviewState   `json:"preview_state,omitempty"`
	Preview      *Preview       `json:"preview,omitempty"`
	Source       Source         `json:"-"`
}

// Clone returns a copy whose preview bytes are not shared with a.
func (a Attachment) Clone() Attachment {
	clone := a
	if a.Preview != nil {
		p := *a.Preview
		p.Data = slices.Clone(a.Preview.Data)
		clone.Preview = &p
	}
	return clone
}

// HasPreview reports whether a decoded preview is available.
func (a Attachment) HasPreview() bool {
	return a.PreviewState == PreviewReady && a.Preview != nil
}
