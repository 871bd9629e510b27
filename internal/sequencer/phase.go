package sequencer

// Phase is one step of the display cycle. Phases run strictly in order and
// wrap from Thinking back to Typing when the next message arrives.
type Phase int

const (
	PhaseTyping Phase = iota
	PhaseIdle
	PhaseReceiving
	PhaseTransitioning
	PhaseThinking
)

var phaseNames = [...]string{
	PhaseTyping:        "typing",
	PhaseIdle:          "idle",
	PhaseReceiving:     "receiving",
	PhaseTransitioning: "transitioning",
	PhaseThinking:      "thinking",
}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return "unknown"
	}
	return phaseNames[p]
}

// Next returns the phase that follows p.
func (p Phase) Next() Phase {
	if p >= PhaseThinking {
		return PhaseTyping
	}
	return p + 1
}

// Cycle lists the phases of one message in order.
func Cycle() []Phase {
	return []Phase{PhaseTyping, PhaseIdle, PhaseReceiving, PhaseTransitioning, PhaseThinking}
}
