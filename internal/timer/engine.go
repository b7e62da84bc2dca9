package timer

import (
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

const DefaultTickInterval = time.Second

// Options contains runtime options for an Engine.
type Options struct {
	// Clock defaults to SystemClock.
	Clock Clock
	// TickInterval is the real duration of one logical second. Defaults to DefaultTickInterval.
	TickInterval time.Duration
	// OnSubscriberError is told about every recovered subscriber panic.
	OnSubscriberError func(err *SubscriberError)
}

// tick is the token captured by an armed timer. It is applied only while it is still the
// pending tick of the current generation.
type tick struct {
	generation uint64
	id         uint64
}

type armedTick struct {
	tick
	stop func() bool
}

// Engine is an interval workout timer: a phase state machine driven by a one-shot tick chain.
// All methods are safe for concurrent use and never block on the clock.
type Engine struct {
	mu           sync.Mutex
	config       Config
	configured   bool
	state        State
	clock        Clock
	tickInterval time.Duration
	pending      *armedTick
	lastTickID   uint64

	dispatcher *Dispatcher
	outbox     []Cue
	flushing   bool
}

// New creates an unconfigured engine in READY.
func New(options Options) *Engine {
	if options.Clock == nil {
		options.Clock = SystemClock{}
	}
	if options.TickInterval <= 0 {
		options.TickInterval = DefaultTickInterval
	}

	return &Engine{
		state:        readyState(0),
		clock:        options.Clock,
		tickInterval: options.TickInterval,
		dispatcher:   NewDispatcher(options.OnSubscriberError),
	}
}

// NewWithConfig creates an engine and configures it in one go.
func NewWithConfig(cfg Config, options Options) (*Engine, error) {
	engine := New(options)
	if err := engine.Configure(cfg); err != nil {
		return nil, err
	}
	return engine, nil
}

// Configure validates cfg and, when it is accepted, cancels any pending tick and
// re-initializes the engine to READY. A rejected config leaves the engine untouched.
func (engine *Engine) Configure(cfg Config) error {
	validated, err := Validate(cfg)
	if err != nil {
		return err
	}

	engine.mu.Lock()
	engine.config = validated
	engine.configured = true
	engine.resetLocked()
	engine.mu.Unlock()

	log.Debugf("timer configured: %s", validated)
	return nil
}

// Config returns the accepted configuration, if any.
func (engine *Engine) Config() (Config, bool) {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	return engine.config, engine.configured
}

// Start begins the workout from READY, or resumes a paused phase.
// It is a no-op while running, after COMPLETE, or before a config was accepted.
func (engine *Engine) Start() {
	engine.mu.Lock()
	if !engine.configured || engine.state.Running || engine.state.Phase == PhaseComplete {
		log.Tracef("timer start ignored: configured=%t phase=%s running=%t",
			engine.configured, engine.state.Phase, engine.state.Running)
		engine.mu.Unlock()
		return
	}

	if engine.state.Phase == PhaseReady {
		engine.state = Begin(engine.config, engine.state)
		engine.enterPhaseLocked()
	}
	engine.state.Running = true
	engine.armLocked()
	engine.mu.Unlock()

	engine.flush()
}

// Pause stops tick delivery. Phase and remaining seconds are preserved exactly.
func (engine *Engine) Pause() {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	if !engine.state.Running {
		return
	}
	engine.state.Running = false
	engine.disarmLocked()
}

// Resume re-arms tick delivery for a paused WORK or REST phase.
func (engine *Engine) Resume() {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	if engine.state.Running || !engine.state.Phase.IsActive() {
		return
	}
	engine.state.Running = true
	engine.armLocked()
}

// Reset cancels any pending tick, bumps the generation and returns to READY.
// The accepted config is kept.
func (engine *Engine) Reset() {
	engine.mu.Lock()
	engine.resetLocked()
	engine.mu.Unlock()
}

// State returns a snapshot of the current state.
func (engine *Engine) State() State {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	return engine.state
}

// Snapshot returns the config and state as of one instant. The config is the
// zero Config before one was accepted.
func (engine *Engine) Snapshot() (Config, State) {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	return engine.config, engine.state
}

// Progress returns the progress report for the current state.
func (engine *Engine) Progress() Report {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	return Progress(engine.state, engine.config)
}

// Subscribe registers a cue callback and returns its unsubscribe func.
func (engine *Engine) Subscribe(fn Subscriber) func() {
	return engine.dispatcher.Subscribe(fn)
}

// SubscribeChan registers a buffered channel observer. Cues are dropped when the
// buffer is full; the channel is closed by the returned unsubscribe func.
func (engine *Engine) SubscribeChan(buffer int) (<-chan Cue, func()) {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan Cue, buffer)

	var mu sync.Mutex
	closed := false
	unsubscribe := engine.dispatcher.Subscribe(func(cue Cue) {
		mu.Lock()
		defer mu.Unlock()
		if closed {
			return
		}
		select {
		case ch <- cue:
		default:
			log.Debugf("cue channel full, dropping %s", cue)
		}
	})

	return ch, func() {
		unsubscribe()
		mu.Lock()
		defer mu.Unlock()
		if !closed {
			closed = true
			close(ch)
		}
	}
}

// Subscribers returns the number of active cue subscribers.
func (engine *Engine) Subscribers() int {
	return engine.dispatcher.Len()
}

func (engine *Engine) resetLocked() {
	engine.disarmLocked()
	engine.state = readyState(engine.state.Generation + 1)
}

func (engine *Engine) armLocked() {
	engine.lastTickID++
	t := tick{
		generation: engine.state.Generation,
		id:         engine.lastTickID,
	}
	armed := &armedTick{tick: t}
	engine.pending = armed
	armed.stop = engine.clock.AfterFunc(engine.tickInterval, func() {
		engine.handleTick(t)
	})
}

func (engine *Engine) disarmLocked() {
	if engine.pending == nil {
		return
	}
	// a tick that already fired is rejected by isCurrentLocked
	engine.pending.stop()
	engine.pending = nil
}

func (engine *Engine) isCurrentLocked(t tick) bool {
	return engine.state.Running &&
		t.generation == engine.state.Generation &&
		engine.pending != nil &&
		engine.pending.tick == t
}

func (engine *Engine) handleTick(t tick) {
	engine.mu.Lock()
	if !engine.isCurrentLocked(t) {
		engine.mu.Unlock()
		return
	}
	engine.pending = nil
	engine.applyTickLocked()
	if engine.state.Running {
		engine.armLocked()
	}
	engine.mu.Unlock()

	engine.flush()
}

func (engine *Engine) applyTickLocked() {
	engine.state.RemainingSeconds--
	if engine.state.RemainingSeconds > 0 {
		engine.warnLocked()
		return
	}

	engine.state = Next(engine.config, engine.state)
	if engine.state.Phase == PhaseComplete {
		engine.enqueueLocked(NewWorkoutCompleteCue(engine.state, engine.clock.Now()))
		log.Debugf("timer workout complete, generation %d", engine.state.Generation)
		return
	}
	engine.enterPhaseLocked()
}

func (engine *Engine) enterPhaseLocked() {
	engine.enqueueLocked(NewPhaseStartedCue(engine.state, engine.clock.Now()))
	engine.warnLocked()
}

func (engine *Engine) warnLocked() {
	if !engine.state.Phase.IsActive() {
		return
	}
	if remaining := engine.state.RemainingSeconds; remaining >= 1 && remaining <= 3 {
		engine.enqueueLocked(NewCountdownWarningCue(engine.state, engine.clock.Now()))
	}
}

func (engine *Engine) enqueueLocked(cue Cue) {
	engine.outbox = append(engine.outbox, cue)
}

// flush delivers queued cues in commit order. Only one goroutine flushes at a time;
// cues committed meanwhile (also from inside a subscriber) are picked up by that flusher.
func (engine *Engine) flush() {
	engine.mu.Lock()
	if engine.flushing {
		engine.mu.Unlock()
		return
	}
	engine.flushing = true
	for len(engine.outbox) > 0 {
		batch := engine.outbox
		engine.outbox = nil
		engine.mu.Unlock()

		for _, cue := range batch {
			engine.dispatcher.Dispatch(cue)
		}

		engine.mu.Lock()
	}
	engine.flushing = false
	engine.mu.Unlock()
}
