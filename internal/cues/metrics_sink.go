package cues

import (
	"github.com/2beens/intervaltimer/internal/telemetry/metrics"
	"github.com/2beens/intervaltimer/internal/timer"
)

func MetricsSink(m *metrics.Manager) SinkFactory {
	return func(src Source) timer.Subscriber {
		return func(cue timer.Cue) {
			phase := cue.Phase.String()
			if cue.Type == timer.CueWorkoutComplete {
				phase = timer.PhaseComplete.String()
			}
			m.CounterCues.WithLabelValues(cue.Type.String(), phase).Inc()

			if cue.Type != timer.CueWorkoutComplete {
				return
			}
			m.CounterWorkoutsCompleted.Inc()
			if cfg, ok := src.Config(); ok {
				m.HistWorkoutDuration.Observe(float64(timer.TotalSeconds(cfg)))
			}
		}
	}
}
