package persona

import (
	"fmt"
	"slices"
	"sync"
)

// Catalog is a read-only list of personas plus the current selection.
// Thread-safe for concurrent access.
type Catalog struct {
	mu       sync.RWMutex
	order    []string
	personas map[string]Persona
	selected string
}

// NewCatalog builds a catalog. An empty selectedID picks the first unlocked
// persona; a locked or unknown selectedID is an error.
func NewCatalog(personas []Persona, selectedID string) (*Catalog, error) {
	if len(personas) == 0 {
		return nil, ErrEmptyCatalog
	}

	c := &Catalog{
		order:    make([]string, 0, len(personas)),
		personas: make(map[string]Persona, len(personas)),
	}
	for _, p := range personas {
		if p.ID == "" {
			return nil, ErrEmptyPersonaID
		}
		if _, exists := c.personas[p.ID]; exists {
			return nil, fmt.Errorf("%w: %s", ErrPersonaExists, p.ID)
		}
		if p.DisplayName == "" {
			p.DisplayName = p.ID
		}
		c.order = append(c.order, p.ID)
		c.personas[p.ID] = p
	}

	if selectedID == "" {
		for _, id := range c.order {
			if !c.personas[id].Locked {
				selectedID = id
				break
			}
		}
		if selectedID == "" {
			return nil, ErrNoSelectablePick
		}
	}

	if _, err := c.Select(selectedID); err != nil {
		return nil, err
	}
	return c, nil
}

// List returns the personas in catalog order.
func (c *Catalog) List() []Persona {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Persona, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.personas[id])
	}
	return out
}

// Get returns a persona by id.
func (c *Catalog) Get(id string) (Persona, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.personas[id]
	return p, ok
}

// Selected returns the currently selected persona.
func (c *Catalog) Selected() Persona {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.personas[c.selected]
}

// Select makes id the current persona and reports whether the selection
// changed. Locked personas yield *LockedPersonaError without mutation.
func (c *Catalog) Select(id string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, ok := c.personas[id]
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrPersonaNotFound, id)
	}
	if p.Locked {
		return false, &LockedPersonaError{Persona: p}
	}

	changed := c.selected != id
	c.selected = id
	return changed, nil
}

// Find resolves an id or display name to a persona id.
func (c *Catalog) Find(key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if _, ok := c.personas[key]; ok {
		return key, true
	}
	i := slices.IndexFunc(c.order, func(id string) bool {
		return c.personas[id].DisplayName == key
	})
	if i < 0 {
		return "", false
	}
	return c.order[i], true
}
