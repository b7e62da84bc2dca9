// Package cues holds the sinks that forward timer cues out of the process.
package cues

import (
	"time"

	"github.com/2beens/intervaltimer/internal/timer"
)

// Source describes the timer session a sink reports on.
type Source interface {
	ID() string
	Preset() string
	Config() (timer.Config, bool)
}

// SinkFactory builds a subscriber for one session. It is called once per session.
type SinkFactory func(src Source) timer.Subscriber

// Message is the envelope published for every cue.
type Message struct {
	SessionID string    `json:"sessionId"`
	Preset    string    `json:"preset,omitempty"`
	Cue       timer.Cue `json:"cue"`
	SentAt    time.Time `json:"sentAt"`
}

func newMessage(src Source, cue timer.Cue) Message {
	return Message{
		SessionID: src.ID(),
		Preset:    src.Preset(),
		Cue:       cue,
		SentAt:    cue.At,
	}
}
