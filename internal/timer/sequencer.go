package timer

// Begin moves a READY state into round 1 of set 1. Any other phase is returned unchanged.
func Begin(cfg Config, s State) State {
	if s.Phase != PhaseReady {
		return s
	}
	s.Phase = PhaseWork
	s.CurrentRound = 1
	s.CurrentSet = 1
	s.RemainingSeconds = cfg.WorkSeconds
	s.BetweenSets = false
	return s
}

// Next returns the state that follows an exhausted WORK or REST phase.
// READY and COMPLETE are returned unchanged.
func Next(cfg Config, s State) State {
	switch s.Phase {
	case PhaseWork:
		switch {
		case s.CurrentRound < cfg.Rounds:
			s.Phase = PhaseRest
			s.RemainingSeconds = cfg.RestSeconds
		case s.CurrentSet < cfg.Sets:
			// a rest period separates sets
			s.CurrentSet++
			s.CurrentRound = 1
			s.Phase = PhaseRest
			s.RemainingSeconds = cfg.RestSeconds
			s.BetweenSets = true
		default:
			// no rest follows the final round of the final set
			s.Phase = PhaseComplete
			s.RemainingSeconds = 0
			s.Running = false
		}
	case PhaseRest:
		if s.BetweenSets {
			s.BetweenSets = false
		} else {
			s.CurrentRound++
		}
		s.Phase = PhaseWork
		s.RemainingSeconds = cfg.WorkSeconds
	}
	return s
}

// Segment is one phase of a workout plan.
type Segment struct {
	Phase       Phase `json:"phase"`
	Round       int   `json:"round"`
	Set         int   `json:"set"`
	Seconds     int   `json:"seconds"`
	BetweenSets bool  `json:"betweenSets,omitempty"`
}

// Plan walks the sequencer from READY to COMPLETE and lists every active phase.
func Plan(cfg Config) []Segment {
	var segments []Segment
	s := Begin(cfg, readyState(0))
	for s.Phase.IsActive() {
		segments = append(segments, Segment{
			Phase:       s.Phase,
			Round:       s.CurrentRound,
			Set:         s.CurrentSet,
			Seconds:     s.RemainingSeconds,
			BetweenSets: s.BetweenSets,
		})
		s = Next(cfg, s)
	}
	return segments
}
