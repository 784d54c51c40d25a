package history_test

import (
	"errors"
	"testing"

	"github.com/tailored-agentic-units/mentify/history"
)

func TestDefaultConfig(t *testing.T) {
	cfg := history.DefaultConfig()
	if cfg.Backend != history.BackendMemory {
		t.Errorf("Backend = %q, want %q", cfg.Backend, history.BackendMemory)
	}
}

func TestConfig_Merge(t *testing.T) {
	cfg := history.DefaultConfig()
	cfg.Merge(&history.Config{Backend: history.BackendFile, Path: "/tmp/h"})

	if cfg.Backend != history.BackendFile {
		t.Errorf("Backend = %q, want %q", cfg.Backend, history.BackendFile)
	}
	if cfg.Path != "/tmp/h" {
		t.Errorf("Path = %q, want /tmp/h", cfg.Path)
	}
	if cfg.RedisPrefix != "mentify:history:" {
		t.Errorf("RedisPrefix = %q, want default preserved", cfg.RedisPrefix)
	}
}

func TestNewStore(t *testing.T) {
	tests := []struct {
		name      string
		cfg       history.Config
		wantNil   bool
		wantError error
	}{
		{"memory", history.Config{Backend: history.BackendMemory}, true, nil},
		{"empty backend", history.Config{}, true, nil},
		{"file", history.Config{Backend: history.BackendFile, Path: "/tmp/h"}, false, nil},
		{"file without path", history.Config{Backend: history.BackendFile}, true, history.ErrMissingLocation},
		{"redis", history.Config{Backend: history.BackendRedis, RedisAddr: "localhost:6379"}, false, nil},
		{"redis without addr", history.Config{Backend: history.BackendRedis}, true, history.ErrMissingLocation},
		{"unknown", history.Config{Backend: "sqlite"}, true, history.ErrUnknownBackend},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := history.NewStore(&tt.cfg)
			if tt.wantError != nil {
				if !errors.Is(err, tt.wantError) {
					t.Fatalf("NewStore() error = %v, want %v", err, tt.wantError)
				}
			} else if err != nil {
				t.Fatalf("NewStore() error = %v", err)
			}
			if (store == nil) != tt.wantNil {
				t.Errorf("NewStore() store nil = %v, want %v", store == nil, tt.wantNil)
			}
		})
	}
}
