package timer

import (
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// CueType can be one of:
//   - phase_started
//   - countdown_warning
//   - workout_complete
type CueType string

const (
	CuePhaseStarted     CueType = "phase_started"
	CueCountdownWarning CueType = "countdown_warning"
	CueWorkoutComplete  CueType = "workout_complete"
)

func (ct CueType) String() string {
	return string(ct)
}

// Cue is a discrete notification emitted at a phase boundary or in the final seconds of a phase.
type Cue struct {
	Type CueType `json:"type"`
	// Phase, Round and Set are set for phase_started cues.
	Phase Phase `json:"phase,omitempty"`
	Round int   `json:"round,omitempty"`
	Set   int   `json:"set,omitempty"`
	// SecondsRemaining is set for countdown_warning cues.
	SecondsRemaining int       `json:"secondsRemaining,omitempty"`
	Generation       uint64    `json:"generation"`
	At               time.Time `json:"at"`
}

func (c Cue) String() string {
	switch c.Type {
	case CuePhaseStarted:
		return fmt.Sprintf("%s %s round=%d set=%d", c.Type, c.Phase, c.Round, c.Set)
	case CueCountdownWarning:
		return fmt.Sprintf("%s %ds", c.Type, c.SecondsRemaining)
	default:
		return c.Type.String()
	}
}

func NewPhaseStartedCue(s State, at time.Time) Cue {
	return Cue{
		Type:       CuePhaseStarted,
		Phase:      s.Phase,
		Round:      s.CurrentRound,
		Set:        s.CurrentSet,
		Generation: s.Generation,
		At:         at,
	}
}

func NewCountdownWarningCue(s State, at time.Time) Cue {
	return Cue{
		Type:             CueCountdownWarning,
		SecondsRemaining: s.RemainingSeconds,
		Generation:       s.Generation,
		At:               at,
	}
}

func NewWorkoutCompleteCue(s State, at time.Time) Cue {
	return Cue{
		Type:       CueWorkoutComplete,
		Generation: s.Generation,
		At:         at,
	}
}

// Subscriber receives cues synchronously, in the order the engine committed them.
type Subscriber func(cue Cue)

// SubscriberError wraps a panic recovered from a subscriber callback.
type SubscriberError struct {
	SubscriberID uint64
	Cue          Cue
	Recovered    any
	Stack        []byte
}

func (e *SubscriberError) Error() string {
	return fmt.Sprintf("cue subscriber %d panicked on %s: %v", e.SubscriberID, e.Cue.Type, e.Recovered)
}

type subscription struct {
	id uint64
	fn Subscriber
}

// Dispatcher fans cues out to subscribers. A failing subscriber never prevents
// delivery to the others.
type Dispatcher struct {
	mu          sync.RWMutex
	lastID      uint64
	subscribers []subscription
	onError     func(err *SubscriberError)
}

// NewDispatcher creates a dispatcher; onError (optional) is told about every recovered subscriber panic.
func NewDispatcher(onError func(err *SubscriberError)) *Dispatcher {
	return &Dispatcher{
		onError: onError,
	}
}

// Subscribe registers fn and returns an idempotent unsubscribe func.
func (d *Dispatcher) Subscribe(fn Subscriber) func() {
	d.mu.Lock()
	d.lastID++
	id := d.lastID
	d.subscribers = append(d.subscribers, subscription{id: id, fn: fn})
	d.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			d.unsubscribe(id)
		})
	}
}

func (d *Dispatcher) unsubscribe(id uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, sub := range d.subscribers {
		if sub.id == id {
			d.subscribers = append(d.subscribers[:i:i], d.subscribers[i+1:]...)
			return
		}
	}
}

// Len returns the number of active subscribers.
func (d *Dispatcher) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.subscribers)
}

// Dispatch delivers cue to every subscriber registered at the time of the call.
func (d *Dispatcher) Dispatch(cue Cue) {
	d.mu.RLock()
	subscribers := append([]subscription(nil), d.subscribers...)
	d.mu.RUnlock()

	for _, sub := range subscribers {
		if err := d.deliver(sub, cue); err != nil {
			log.Errorf("%s\n%s", err, err.Stack)
			if d.onError != nil {
				d.onError(err)
			}
		}
	}
}

func (d *Dispatcher) deliver(sub subscription, cue Cue) (subErr *SubscriberError) {
	defer func() {
		if r := recover(); r != nil {
			subErr = &SubscriberError{
				SubscriberID: sub.id,
				Cue:          cue,
				Recovered:    r,
				Stack:        debug.Stack(),
			}
		}
	}()
	sub.fn(cue)
	return nil
}
