package suggest

// Starter is a prompt offered on an empty timeline.
type Starter struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Prompt      string `json:"prompt"`
}

var starters = []Starter{
	{Title: "Help me write an essay", Description: "About AI chat applications", Prompt: "Help me write an essay about AI chat applications"},
	{Title: "Explain a concept", Description: "Make complex topics simple", Prompt: "Explain quantum computing in simple terms"},
	{Title: "Code assistance", Description: "Debug or write code", Prompt: "Help me create a React component"},
	{Title: "Creative writing", Description: "Stories, poems, or scripts", Prompt: "Write a short story about time travel"},
}

// Starters returns the conversation starters.
func Starters() []Starter {
	out := make([]Starter, len(starters))
	copy(out, starters)
	return out
}
