package responder

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"
)

var templates = []string{
	"I understand you're asking about \"%s\". Let me help you with that.",
	"That's an interesting question about \"%s\". Here's what I think...",
	"Based on your message about \"%s\", I can provide some insights.",
	"Thank you for sharing that. Regarding \"%s\", here's my response...",
	"I see you mentioned \"%s\". Let me elaborate on that topic.",
}

const disclaimer = " This is a simulated response from %s. In a real implementation, this would connect to an actual AI model to provide meaningful responses based on your input."

// Templates returns the number of canned reply templates.
func Templates() int {
	return len(templates)
}

// Render produces the reply for a template index. The output depends only
// on its arguments; index wraps modulo the template count.
func Render(persona, text string, index int) string {
	n := len(templates)
	index = ((index % n) + n) % n
	return fmt.Sprintf(templates[index], text) + fmt.Sprintf(disclaimer, persona)
}

// SimulatorOption configures a Simulator.
type SimulatorOption func(*Simulator)

// WithSeed makes template and delay choices reproducible.
func WithSeed(seed uint64) SimulatorOption {
	return func(s *Simulator) { s.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)) }
}

// WithSleep replaces the delay wait, for tests that must not block.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) SimulatorOption {
	return func(s *Simulator) { s.sleep = fn }
}

// Simulator answers every request with a canned template after a uniform
// random delay within the configured bounds.
type Simulator struct {
	minDelay time.Duration
	maxDelay time.Duration
	sleep    func(ctx context.Context, d time.Duration) error

	mu  sync.Mutex
	rng *rand.Rand
}

// NewSimulator creates a Simulator from configuration. Zero fields fall
// back to DefaultConfig.
func NewSimulator(cfg Config, opts ...SimulatorOption) *Simulator {
	c := DefaultConfig()
	c.Merge(&cfg)
	lo, hi := c.Bounds()
	s := &Simulator{
		minDelay: lo,
		maxDelay: hi,
		sleep:    sleepContext,
		rng:      rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Respond waits a random delay and renders a random template. It returns
// ctx.Err() if the context ends first.
func (s *Simulator) Respond(ctx context.Context, req Request) (string, error) {
	index, delay := s.draw()

	if err := s.sleep(ctx, delay); err != nil {
		return "", err
	}
	return Render(req.Persona, req.Text, index), nil
}

func (s *Simulator) draw() (int, time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	index := s.rng.IntN(len(templates))
	delay := s.minDelay
	if span := s.maxDelay - s.minDelay; span > 0 {
		delay += time.Duration(s.rng.Int64N(int64(span) + 1))
	}
	return index, delay
}


func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
