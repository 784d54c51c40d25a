package speech

// State is the speech channel state. Listening and Speaking are mutually
// exclusive; switching between them passes through Idle.
type State int

const (
	Idle State = iota
	Listening
	Speaking
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Listening:
		return "listening"
	case Speaking:
		return "speaking"
	default:
		return "unknown"
	}
}
