package history

import (
	"context"
	"sync"
	"time"

	"github.com/2beens/intervaltimer/internal/cues"
	"github.com/2beens/intervaltimer/internal/telemetry/metrics"
	"github.com/2beens/intervaltimer/internal/timer"

	log "github.com/sirupsen/logrus"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=history_test

const writeTimeout = 5 * time.Second

type eventsRepo interface {
	Add(ctx context.Context, event Event) (*Event, error)
}

// Recorder persists workout events off the cue delivery path. Events are queued
// and written by a single worker; when the queue is full they are dropped.
type Recorder struct {
	repo    eventsRepo
	metrics *metrics.Manager
	queue   chan Event

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

func NewRecorder(repo eventsRepo, queueSize int, metricsManager *metrics.Manager) *Recorder {
	if queueSize <= 0 {
		queueSize = 1
	}
	r := &Recorder{
		repo:    repo,
		metrics: metricsManager,
		queue:   make(chan Event, queueSize),
		done:    make(chan struct{}),
	}
	go r.run()
	return r
}

func (r *Recorder) run() {
	defer close(r.done)
	for event := range r.queue {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		if _, err := r.repo.Add(ctx, event); err != nil {
			log.Errorf("record %s event for session %s: %s", event.Type, event.SessionID, err)
		}
		cancel()
	}
}

// Record queues event and reports whether it was accepted.
func (r *Recorder) Record(event Event) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return false
	}

	select {
	case r.queue <- event:
		return true
	default:
		log.Warnf("history queue full, dropping %s event for session %s", event.Type, event.SessionID)
		if r.metrics != nil {
			r.metrics.CounterHistoryDropped.Inc()
		}
		return false
	}
}

// Close stops accepting events and waits until the queued ones are written.
func (r *Recorder) Close() {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.queue)
	}
	r.mu.Unlock()
	<-r.done
}

// Sink turns cues into workout events: the first work phase of a run and its completion.
func (r *Recorder) Sink() cues.SinkFactory {
	return func(src cues.Source) timer.Subscriber {
		return func(cue timer.Cue) {
			cfg, ok := src.Config()
			if !ok {
				return
			}
			switch {
			case isWorkoutStart(cue):
				r.Record(NewWorkoutStartedEvent(src.ID(), src.Preset(), cfg, cue.At))
			case cue.Type == timer.CueWorkoutComplete:
				r.Record(NewWorkoutFinishedEvent(src.ID(), src.Preset(), cfg, cue.At))
			}
		}
	}
}

func isWorkoutStart(cue timer.Cue) bool {
	return cue.Type == timer.CuePhaseStarted &&
		cue.Phase == timer.PhaseWork &&
		cue.Round == 1 &&
		cue.Set == 1
}
