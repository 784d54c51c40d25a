package attachment

import (
	"mime"
	"path/filepath"
	"strings"

	"github.com/tailored-agentic-units/mentify/core/protocol"
)

const fallbackMediaType = "application/octet-stream"

var documentTypes = map[string]bool{
	"application/pdf":      true,
	"application/msword":   true,
	"application/rtf":      true,
	"application/epub+zip": true,
	"application/x-latex":  true,
}

var documentPrefixes = []string{
	"text/",
	"application/vnd.openxmlformats-officedocument.",
	"application/vnd.oasis.opendocument.",
	"application/vnd.ms-",
}

// Classify maps a declared media type to an attachment kind.
func Classify(mediaType string) protocol.AttachmentKind {
	mt := NormalizeMediaType(mediaType)

	if strings.HasPrefix(mt, "image/") {
		return protocol.KindImage
	}
	if documentTypes[mt] {
		return protocol.KindDocument
	}
	for _, prefix := range documentPrefixes {
		if strings.HasPrefix(mt, prefix) {
			return protocol.KindDocument
		}
	}
	return protocol.KindOther
}

// NormalizeMediaType lowercases a media type and strips its parameters.
// Unparseable input yields an empty string.
func NormalizeMediaType(mediaType string) string {
	mediaType = strings.TrimSpace(mediaType)
	if mediaType == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(mediaType)
	if err != nil {
		return ""
	}
	return mt
}

// mediaTypeFor resolves the declared type, falling back to the file
// extension and then to application/octet-stream.
func mediaTypeFor(declared, name string) string {
	if mt := NormalizeMediaType(declared); mt != "" {
		return mt
	}
	if ext := filepath.Ext(name); ext != "" {
		if mt := NormalizeMediaType(mime.TypeByExtension(ext)); mt != "" {
			return mt
		}
	}
	return fallbackMediaType
}
