package timer

// Report is the display-oriented progress of a workout.
type Report struct {
	ElapsedSeconds int     `json:"elapsedSeconds"`
	TotalSeconds   int     `json:"totalSeconds"`
	Percent        float64 `json:"percent"`
}

// TotalSeconds counts a rest after every round, including the final one that the
// engine never runs, so a finished workout reports slightly less than 100%.
func TotalSeconds(cfg Config) int {
	return (cfg.WorkSeconds + cfg.RestSeconds) * cfg.Rounds * cfg.Sets
}

// Progress maps a state snapshot onto elapsed/total seconds. It is pure and safe to call
// with any snapshot, including one taken from an unconfigured engine.
func Progress(s State, cfg Config) Report {
	total := TotalSeconds(cfg)
	elapsed := elapsedSeconds(s, cfg)
	if elapsed < 0 {
		elapsed = 0
	}
	if elapsed > total {
		elapsed = total
	}

	percent := 0.0
	if total > 0 {
		percent = float64(elapsed) / float64(total) * 100
	}

	return Report{
		ElapsedSeconds: elapsed,
		TotalSeconds:   total,
		Percent:        clamp(percent, 0, 100),
	}
}

func elapsedSeconds(s State, cfg Config) int {
	roundCycle := cfg.WorkSeconds + cfg.RestSeconds
	setCycle := roundCycle * cfg.Rounds
	completedSets := (s.CurrentSet - 1) * setCycle

	switch s.Phase {
	case PhaseWork:
		return completedSets + (s.CurrentRound-1)*roundCycle + cfg.WorkSeconds - s.RemainingSeconds
	case PhaseRest:
		if s.BetweenSets {
			// the previous set's trailing rest is running, the set counter already moved on
			return completedSets - s.RemainingSeconds
		}
		return completedSets + (s.CurrentRound-1)*roundCycle + cfg.WorkSeconds + cfg.RestSeconds - s.RemainingSeconds
	case PhaseComplete:
		return TotalSeconds(cfg) - cfg.RestSeconds
	default:
		return 0
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
