package persona

import (
	"errors"
	"fmt"
)

// Sentinel errors for catalog operations.
var (
	ErrPersonaNotFound  = errors.New("persona not found")
	ErrPersonaExists    = errors.New("persona already in catalog")
	ErrEmptyPersonaID   = errors.New("persona id is empty")
	ErrEmptyCatalog     = errors.New("persona catalog is empty")
	ErrNoSelectablePick = errors.New("no unlocked persona to select")
)

// LockedPersonaError is returned when selecting a locked persona. The
// selection is left unchanged.
type LockedPersonaError struct {
	Persona Persona
}

func (e *LockedPersonaError) Error() string {
	if e.Persona.UnlockPrice != "" {
		return fmt.Sprintf("persona %s is locked (unlock for %s)", e.Persona.DisplayName, e.Persona.UnlockPrice)
	}
	return fmt.Sprintf("persona %s is locked", e.Persona.DisplayName)
}
