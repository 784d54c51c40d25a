package attachment

const (
	defaultMaxStaged   = 10
	defaultMaxBytes    = 25 << 20
	defaultPreviewEdge = 256

	defaultMaxPreviewPixels = 40_000_000
)

// Config holds attachment staging limits.
type Config struct {
	MaxStaged       int   `json:"max_staged,omitempty"`
	MaxBytes        int64 `json:"max_bytes,omitempty"`
	PreviewEdge     int   `json:"preview_edge,omitempty"` // longest preview side in pixels
	DisablePreviews bool  `json:"disable_previews,omitempty"`

	// MaxPreviewPixels bounds width*height of images decoded for previews.
	// Larger images settle as PreviewFailed without being decoded.
	MaxPreviewPixels int64 `json:"max_preview_pixels,omitempty"`
}

// DefaultConfig returns the default staging limits.
func DefaultConfig() Config {
	return Config{
		MaxStaged:   defaultMaxStaged,
		MaxBytes:    defaultMaxBytes,
		PreviewEdge: defaultPreviewEdge,

		MaxPreviewPixels: defaultMaxPreviewPixels,
	}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.MaxStaged > 0 {
		c.MaxStaged = source.MaxStaged
	}
	if source.MaxBytes > 0 {
		c.MaxBytes = source.MaxBytes
	}
	if source.PreviewEdge > 0 {
		c.PreviewEdge = source.PreviewEdge
	}
	if source.MaxPreviewPixels > 0 {
		c.MaxPreviewPixels = source.MaxPreviewPixels
	}
	if source.DisablePreviews {
		c.DisablePreviews = true
	}
}
