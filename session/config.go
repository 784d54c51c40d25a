package session

import "time"

// Config holds session timeline parameters.
type Config struct {
	MaxMessageLength int `json:"max_message_length,omitempty"` // code points
	TitleLength      int `json:"title_length,omitempty"`       // code points kept in a history title
	ReplyTimeoutMS   int `json:"reply_timeout_ms,omitempty"`   // 0 disables the timeout
}

// DefaultConfig returns the default session configuration.
func DefaultConfig() Config {
	return Config{
		MaxMessageLength: 2000,
		TitleLength:      50,
	}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.MaxMessageLength > 0 {
		c.MaxMessageLength = source.MaxMessageLength
	}
	if source.TitleLength > 0 {
		c.TitleLength = source.TitleLength
	}
	if source.ReplyTimeoutMS > 0 {
		c.ReplyTimeoutMS = source.ReplyTimeoutMS
	}
}

// ReplyTimeout returns the per-reply deadline, or zero when disabled.
func (c *Config) ReplyTimeout() time.Duration {
	return time.Duration(c.ReplyTimeoutMS) * time.Millisecond
}
