package attachment

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"

	"github.com/tailored-agentic-units/mentify/core/protocol"
)

type fileSource struct {
	path      string
	mediaType string
	size      int64
}

// FromPath creates a Source for a file on disk. The media type comes from the
// file extension, or from content sniffing when the extension is unknown.
func FromPath(path string) (protocol.Source, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat attachment: %w", err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s", ErrNotRegularFile, path)
	}

	mediaType := NormalizeMediaType(mime.TypeByExtension(filepath.Ext(path)))
	if mediaType == "" {
		mediaType, err = sniff(path)
		if err != nil {
			return nil, err
		}
	}

	return &fileSource{path: path, mediaType: mediaType, size: info.Size()}, nil
}

func sniff(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open attachment: %w", err)
	}
	defer f.Close()

	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", fmt.Errorf("read attachment: %w", err)
	}
	return NormalizeMediaType(http.DetectContentType(head[:n])), nil
}

func (s *fileSource) Name() string      { return filepath.Base(s.path) }
func (s *fileSource) MediaType() string { return s.mediaType }
func (s *fileSource) Size() int64       { return s.size }

func (s *fileSource) Open() (io.ReadCloser, error) {
	return os.Open(s.path)
}

type bytesSource struct {
	name      string
	mediaType string
	data      []byte
}

// FromBytes creates a Source over an in-memory payload, as produced by a
// drag-and-drop or paste in the host UI.
func FromBytes(name, mediaType string, data []byte) protocol.Source {
	return &bytesSource{name: name, mediaType: mediaType, data: data}
}

func (s *bytesSource) Name() string      { return s.name }
func (s *bytesSource) MediaType() string { return s.mediaType }
func (s *bytesSource) Size() int64       { return int64(len(s.data)) }

func (s *bytesSource) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(s.data)), nil
}
