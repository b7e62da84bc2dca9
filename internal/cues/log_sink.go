package cues

import (
	"github.com/2beens/intervaltimer/internal/timer"

	log "github.com/sirupsen/logrus"
)

// LogSink writes every cue to the logger. Phase changes go out at info, the rest at debug.
func LogSink(logger log.FieldLogger) SinkFactory {
	return func(src Source) timer.Subscriber {
		sessionLog := logger.WithField("session", src.ID())
		return func(cue timer.Cue) {
			entry := sessionLog.WithFields(log.Fields{
				"cue":   cue.Type,
				"phase": cue.Phase,
				"round": cue.Round,
				"set":   cue.Set,
			})
			switch cue.Type {
			case timer.CueCountdownWarning:
				entry.WithField("remaining", cue.SecondsRemaining).Debug("countdown")
			case timer.CueWorkoutComplete:
				entry.Info("workout complete")
			default:
				entry.Info("phase started")
			}
		}
	}
}
