package engine

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/tailored-agentic-units/mentify/attachment"
	"github.com/tailored-agentic-units/mentify/history"
	"github.com/tailored-agentic-units/mentify/persona"
	"github.com/tailored-agentic-units/mentify/responder"
	"github.com/tailored-agentic-units/mentify/session"
)

// Config holds initialization parameters for every engine subsystem. Each
// section delegates to that subsystem's config-driven constructor.
type Config struct {
	Session         session.Config    `json:"session"`
	Attachments     attachment.Config `json:"attachments"`
	Responder       responder.Config  `json:"responder"`
	History         history.Config    `json:"history"`
	Personas        []persona.Persona `json:"personas,omitempty"`
	SelectedPersona string            `json:"selected_persona,omitempty"`
}

// DefaultConfig returns a Config with defaults for all subsystems and the
// built-in persona catalog.
func DefaultConfig() Config {
	return Config{
		Session:     session.DefaultConfig(),
		Attachments: attachment.DefaultConfig(),
		Responder:   responder.DefaultConfig(),
		History:     history.DefaultConfig(),
		Personas:    persona.Defaults(),
	}
}

// Merge applies non-zero values from source into c, delegating to each
// subsystem's Merge method. A non-empty persona list replaces the catalog.
func (c *Config) Merge(source *Config) {
	c.Session.Merge(&source.Session)
	c.Attachments.Merge(&source.Attachments)
	c.Responder.Merge(&source.Responder)
	c.History.Merge(&source.History)

	if len(source.Personas) > 0 {
		c.Personas = source.Personas
	}
	if source.SelectedPersona != "" {
		c.SelectedPersona = source.SelectedPersona
	}
}

// LoadConfig reads a JSON config file, merges it with defaults, and returns
// the resulting Config.
func LoadConfig(filename string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var loaded Config
	if err := json.Unmarshal(data, &loaded); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.Merge(&loaded)
	return &cfg, nil
}
