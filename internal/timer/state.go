package timer

// Phase is the current activity of the timer.
type Phase string

const (
	PhaseReady    Phase = "ready"
	PhaseWork     Phase = "work"
	PhaseRest     Phase = "rest"
	PhaseComplete Phase = "complete"
)

func (p Phase) String() string {
	return string(p)
}

// IsActive reports whether the phase counts down.
func (p Phase) IsActive() bool {
	return p == PhaseWork || p == PhaseRest
}

func (p Phase) IsValid() bool {
	switch p {
	case PhaseReady, PhaseWork, PhaseRest, PhaseComplete:
		return true
	default:
		return false
	}
}

// State is a read-only snapshot of an engine. Mutating a snapshot has no effect on the engine.
type State struct {
	Phase            Phase `json:"phase"`
	CurrentRound     int   `json:"currentRound"`
	CurrentSet       int   `json:"currentSet"`
	RemainingSeconds int   `json:"remainingSeconds"`
	// BetweenSets is true only during the rest that separates two sets.
	BetweenSets bool   `json:"betweenSets"`
	Running     bool   `json:"running"`
	Generation  uint64 `json:"generation"`
}

// Paused reports whether an active phase is frozen.
func (s State) Paused() bool {
	return s.Phase.IsActive() && !s.Running
}

func readyState(generation uint64) State {
	return State{
		Phase:            PhaseReady,
		CurrentRound:     1,
		CurrentSet:       1,
		RemainingSeconds: 0,
		Running:          false,
		Generation:       generation,
	}
}
