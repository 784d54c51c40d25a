// Package persona holds the catalog of selectable responder personas and
// the current selection. The catalog is fed from configuration; unlocking is
// left to the host UI.
package persona

// Persona is a selectable responder profile.
type Persona struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Locked      bool   `json:"locked,omitempty"`
	UnlockPrice string `json:"unlock_price,omitempty"`
	Description string `json:"description,omitempty"`
}

// Defaults returns the built-in catalog.
func Defaults() []Persona {
	return []Persona{
		{ID: "mentify-1", DisplayName: "Mentify 1", Description: "General assistant for everyday questions."},
		{ID: "mentify-2", DisplayName: "Mentify 2", Description: "Coding and technical help."},
		{ID: "mentify-3", DisplayName: "Mentify 3", Locked: true, UnlockPrice: "$4.99", Description: "Language practice and tutoring."},
		{ID: "mentify-4", DisplayName: "Mentify 4", Locked: true, UnlockPrice: "$9.99", Description: "Long-form creative writing."},
	}
}
