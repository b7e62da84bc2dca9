package history

import (
	"strconv"
	"time"

	"github.com/2beens/intervaltimer/internal/timer"
)

// EventType is one of workout_started or workout_finished.
type EventType string

const (
	EventTypeWorkoutStarted  EventType = "workout_started"
	EventTypeWorkoutFinished EventType = "workout_finished"
)

func (et EventType) String() string {
	return string(et)
}

func (et EventType) IsValid() bool {
	switch et {
	case EventTypeWorkoutStarted, EventTypeWorkoutFinished:
		return true
	default:
		return false
	}
}

// Event (DB level type) records a timer session reaching a workout milestone.
type Event struct {
	ID        int               `json:"id"`
	SessionID string            `json:"sessionId"`
	Type      EventType         `json:"type"`
	Timestamp time.Time         `json:"timestamp"`
	Data      map[string]string `json:"data"`
}

func configData(cfg timer.Config, preset string) map[string]string {
	data := map[string]string{
		"workSeconds": strconv.Itoa(cfg.WorkSeconds),
		"restSeconds": strconv.Itoa(cfg.RestSeconds),
		"rounds":      strconv.Itoa(cfg.Rounds),
		"sets":        strconv.Itoa(cfg.Sets),
	}
	if preset != "" {
		data["preset"] = preset
	}
	return data
}

func NewWorkoutStartedEvent(sessionID, preset string, cfg timer.Config, at time.Time) Event {
	return Event{
		SessionID: sessionID,
		Type:      EventTypeWorkoutStarted,
		Timestamp: at,
		Data:      configData(cfg, preset),
	}
}

func NewWorkoutFinishedEvent(sessionID, preset string, cfg timer.Config, at time.Time) Event {
	data := configData(cfg, preset)
	data["totalSeconds"] = strconv.Itoa(timer.TotalSeconds(cfg))
	return Event{
		SessionID: sessionID,
		Type:      EventTypeWorkoutFinished,
		Timestamp: at,
		Data:      data,
	}
}
