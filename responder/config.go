package responder

import "time"

const (
	defaultMinDelay = 1000 * time.Millisecond
	defaultMaxDelay = 3000 * time.Millisecond
)

// Config holds simulator latency bounds in milliseconds.
type Config struct {
	MinDelayMS int `json:"min_delay_ms,omitempty"`
	MaxDelayMS int `json:"max_delay_ms,omitempty"`
}

// DefaultConfig returns the default latency window of one to three seconds.
func DefaultConfig() Config {
	return Config{
		MinDelayMS: int(defaultMinDelay / time.Millisecond),
		MaxDelayMS: int(defaultMaxDelay / time.Millisecond),
	}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.MinDelayMS > 0 {
		c.MinDelayMS = source.MinDelayMS
	}
	if source.MaxDelayMS > 0 {
		c.MaxDelayMS = source.MaxDelayMS
	}
}

// Bounds returns the delay window, swapping inverted bounds.
func (c Config) Bounds() (time.Duration, time.Duration) {
	lo := time.Duration(c.MinDelayMS) * time.Millisecond
	hi := time.Duration(c.MaxDelayMS) * time.Millisecond
	if hi < lo {
		lo, hi = hi, lo
	}
	return lo, hi
}
