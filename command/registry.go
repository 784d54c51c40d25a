// Package command dispatches slash commands typed into the chat composer.
// Hosts register a Handler per command name and route any composer line that
// starts with "/" through Run instead of submitting it as a message.
package command

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
)

// Prefix marks a composer line as a command.
const Prefix = "/"

// Spec describes a command for help output.
type Spec struct {
	Name        string
	Usage       string
	Description string
}

// Handler runs a command. args is the remainder of the line after the
// command name, trimmed.
type Handler func(ctx context.Context, args string) (Result, error)

// Result is the command output shown to the user. IsError marks output that
// reports a failed command rather than a handler fault.
type Result struct {
	Content string
	IsError bool
}

type entry struct {
	spec    Spec
	handler Handler
}

// Registry maps command names to handlers. Thread-safe for concurrent use.
type Registry struct {
	entries map[string]entry
	mu      sync.RWMutex
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]entry)}
}

// Register adds a command. Returns ErrAlreadyExists if the name is taken;
// use Replace to update an existing handler.
func (r *Registry) Register(spec Spec, handler Handler) error {
	if spec.Name == "" {
		return ErrEmptyName
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[spec.Name]; exists {
		return fmt.Errorf("%w: %s", ErrAlreadyExists, spec.Name)
	}

	r.entries[spec.Name] = entry{spec: spec, handler: handler}
	return nil
}

// Get retrieves a handler by command name.
func (r *Registry) Get(name string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, exists := r.entries[name]
	if !exists {
		return nil, false
	}
	return e.handler, true
}

// List returns the registered specs sorted by name.
func (r *Registry) List() []Spec {
	r.mu.RLock()
	defer r.mu.RUnlock()

	specs := make([]Spec, 0, len(r.entries))
	for _, e := range r.entries {
		specs = append(specs, e.spec)
	}
	slices.SortFunc(specs, func(a, b Spec) int { return strings.Compare(a.Name, b.Name) })
	return specs
}

// Execute dispatches to the named command.
func (r *Registry) Execute(ctx context.Context, name, args string) (Result, error) {
	r.mu.RLock()
	e, exists := r.entries[name]
	r.mu.RUnlock()

	if !exists {
		return Result{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	result, err := e.handler(ctx, args)
	if err != nil {
		return Result{}, fmt.Errorf("command %s failed: %w", name, err)
	}
	return result, nil
}

// Run parses a composer line and executes the command it names.
func (r *Registry) Run(ctx context.Context, line string) (Result, error) {
	name, args, ok := Parse(line)
	if !ok {
		return Result{}, ErrNotCommand
	}
	return r.Execute(ctx, name, args)
}

// IsCommand reports whether line should be routed to the registry.
func IsCommand(line string) bool {
	_, _, ok := Parse(line)
	return ok
}

// Parse splits "/name rest of line" into its name and trimmed arguments.
func Parse(line string) (name, args string, ok bool) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, Prefix) {
		return "", "", false
	}
	line = strings.TrimPrefix(line, Prefix)

	name, args, _ = strings.Cut(line, " ")
	if name == "" {
		return "", "", false
	}
	return strings.ToLower(name), strings.TrimSpace(args), true
}
