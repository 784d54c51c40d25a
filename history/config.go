package history

import (
	"fmt"

	"github.com/go-redis/redis/v8"
)

// Backend names a history storage backend.
type Backend string

const (
	BackendMemory Backend = "memory"
	BackendFile   Backend = "file"
	BackendRedis  Backend = "redis"
)

// Config holds history ledger parameters.
type Config struct {
	Backend     Backend `json:"backend,omitempty"`
	Path        string  `json:"path,omitempty"`       // file backend root directory
	RedisAddr   string  `json:"redis_addr,omitempty"` // host:port
	RedisDB     int     `json:"redis_db,omitempty"`
	RedisPrefix string  `json:"redis_prefix,omitempty"`
}

// DefaultConfig returns an in-memory ledger configuration.
func DefaultConfig() Config {
	return Config{
		Backend:     BackendMemory,
		RedisPrefix: "mentify:history:",
	}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.Backend != "" {
		c.Backend = source.Backend
	}
	if source.Path != "" {
		c.Path = source.Path
	}
	if source.RedisAddr != "" {
		c.RedisAddr = source.RedisAddr
	}
	if source.RedisDB != 0 {
		c.RedisDB = source.RedisDB
	}
	if source.RedisPrefix != "" {
		c.RedisPrefix = source.RedisPrefix
	}
}

// NewStore creates a Store from configuration. The memory backend returns a
// nil Store, which keeps the ledger in process only.
func NewStore(cfg *Config) (Store, error) {
	switch cfg.Backend {
	case "", BackendMemory:
		return nil, nil
	case BackendFile:
		if cfg.Path == "" {
			return nil, fmt.Errorf("%w: file backend requires path", ErrMissingLocation)
		}
		return NewFileStore(cfg.Path), nil
	case BackendRedis:
		if cfg.RedisAddr == "" {
			return nil, fmt.Errorf("%w: redis backend requires redis_addr", ErrMissingLocation)
		}
		client := redis.NewClient(&redis.Options{
			Addr: cfg.RedisAddr,
			DB:   cfg.RedisDB,
		})
		return NewRedisStore(client, cfg.RedisPrefix), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownBackend, cfg.Backend)
	}
}
