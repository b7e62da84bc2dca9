package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/2beens/intervaltimer/internal/cues"
	"github.com/2beens/intervaltimer/internal/presets"
	"github.com/2beens/intervaltimer/internal/telemetry/metrics"
	"github.com/2beens/intervaltimer/internal/timer"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

var (
	ErrSessionNotFound = errors.New("timer session not found")
	ErrTooManySessions = errors.New("too many timer sessions")
	ErrManagerClosed   = errors.New("session manager closed")
)

const DefaultMaxSessions = 1000

type presetSource interface {
	Get(ctx context.Context, name string) (*presets.Preset, error)
}

type Params struct {
	MaxSessions  int
	TickInterval time.Duration
	Clock        timer.Clock
	Presets      presetSource
	Sinks        []cues.SinkFactory
	Metrics      *metrics.Manager
}

// Manager owns the in-memory timer sessions of the service.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	closed   bool

	maxSessions  int
	tickInterval time.Duration
	clock        timer.Clock
	presets      presetSource
	sinks        []cues.SinkFactory
	metrics      *metrics.Manager
}

func NewManager(params Params) *Manager {
	if params.MaxSessions <= 0 {
		params.MaxSessions = DefaultMaxSessions
	}
	if params.Clock == nil {
		params.Clock = timer.SystemClock{}
	}
	return &Manager{
		sessions:     make(map[string]*Session),
		maxSessions:  params.MaxSessions,
		tickInterval: params.TickInterval,
		clock:        params.Clock,
		presets:      params.Presets,
		sinks:        params.Sinks,
		metrics:      params.Metrics,
	}
}

// Create validates cfg and registers a new session in READY.
func (m *Manager) Create(cfg timer.Config) (View, error) {
	return m.create(cfg, "")
}

// CreateFromPreset resolves the named preset and creates a session from its config.
func (m *Manager) CreateFromPreset(ctx context.Context, name string) (View, error) {
	if m.presets == nil {
		return View{}, presets.ErrPresetNotFound
	}
	p, err := m.presets.Get(ctx, name)
	if err != nil {
		return View{}, err
	}
	return m.create(p.Config, p.Name)
}

func (m *Manager) create(cfg timer.Config, preset string) (View, error) {
	sess := &Session{
		id:        uuid.NewString(),
		createdAt: m.clock.Now().UTC(),
		preset:    preset,
	}

	engine, err := timer.NewWithConfig(cfg, timer.Options{
		Clock:        m.clock,
		TickInterval: m.tickInterval,
		OnSubscriberError: func(subErr *timer.SubscriberError) {
			log.Errorf("session %s: %s\n%s", sess.id, subErr, subErr.Stack)
			if m.metrics != nil {
				m.metrics.CounterSubscriberPanics.Inc()
			}
		},
	})
	if err != nil {
		return View{}, err
	}
	sess.engine = engine
	for _, sink := range m.sinks {
		sess.attach(engine.Subscribe(sink(sess)))
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		sess.detach()
		return View{}, ErrManagerClosed
	}
	if len(m.sessions) >= m.maxSessions {
		m.mu.Unlock()
		sess.detach()
		return View{}, ErrTooManySessions
	}
	m.sessions[sess.id] = sess
	count := len(m.sessions)
	m.mu.Unlock()
	m.setActiveGauge(count)

	log.Debugf("timer session %s created: %s", sess.id, cfg)
	return sess.View(), nil
}

func (m *Manager) get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

func (m *Manager) Get(id string) (View, error) {
	sess, err := m.get(id)
	if err != nil {
		return View{}, err
	}
	return sess.View(), nil
}

// List returns all sessions, oldest first.
func (m *Manager) List() []View {
	m.mu.RLock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, sess := range m.sessions {
		sessions = append(sessions, sess)
	}
	m.mu.RUnlock()

	sort.Slice(sessions, func(i, j int) bool {
		if sessions[i].createdAt.Equal(sessions[j].createdAt) {
			return sessions[i].id < sessions[j].id
		}
		return sessions[i].createdAt.Before(sessions[j].createdAt)
	})

	views := make([]View, 0, len(sessions))
	for _, sess := range sessions {
		views = append(views, sess.View())
	}
	return views
}

func (m *Manager) control(id string, op func(engine *timer.Engine)) (View, error) {
	sess, err := m.get(id)
	if err != nil {
		return View{}, err
	}
	op(sess.engine)
	return sess.View(), nil
}

func (m *Manager) Start(id string) (View, error) {
	return m.control(id, (*timer.Engine).Start)
}

func (m *Manager) Pause(id string) (View, error) {
	return m.control(id, (*timer.Engine).Pause)
}

func (m *Manager) Resume(id string) (View, error) {
	return m.control(id, (*timer.Engine).Resume)
}

func (m *Manager) Reset(id string) (View, error) {
	return m.control(id, (*timer.Engine).Reset)
}

// Reconfigure replaces the session config and returns it to READY. A rejected
// config leaves the session untouched.
func (m *Manager) Reconfigure(id string, cfg timer.Config) (View, error) {
	sess, err := m.get(id)
	if err != nil {
		return View{}, err
	}
	if err := sess.engine.Configure(cfg); err != nil {
		return View{}, err
	}
	sess.setPreset("")
	return sess.View(), nil
}

// ReconfigureFromPreset is Reconfigure with the config of the named preset.
func (m *Manager) ReconfigureFromPreset(ctx context.Context, id, name string) (View, error) {
	sess, err := m.get(id)
	if err != nil {
		return View{}, err
	}
	if m.presets == nil {
		return View{}, presets.ErrPresetNotFound
	}
	p, err := m.presets.Get(ctx, name)
	if err != nil {
		return View{}, err
	}
	if err := sess.engine.Configure(p.Config); err != nil {
		return View{}, err
	}
	sess.setPreset(p.Name)
	return sess.View(), nil
}

// Subscribe attaches a buffered cue channel to the session. The channel is
// closed by the returned func or when the session goes away.
func (m *Manager) Subscribe(id string, buffer int) (<-chan timer.Cue, func(), error) {
	sess, err := m.get(id)
	if err != nil {
		return nil, nil, err
	}
	return m.subscribe(sess, buffer)
}

func (m *Manager) subscribe(sess *Session, buffer int) (<-chan timer.Cue, func(), error) {
	ch, unsubscribe := sess.engine.SubscribeChan(buffer)
	// deleting the session closes the channel, a session deleted in the meantime closes it now
	if !sess.attach(unsubscribe) {
		return nil, nil, ErrSessionNotFound
	}
	return ch, unsubscribe, nil
}

// Delete stops the session timer and forgets it.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	sess, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	count := len(m.sessions)
	m.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}

	sess.engine.Reset()
	sess.detach()
	m.setActiveGauge(count)
	log.Debugf("timer session %s deleted", id)
	return nil
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Close stops every session. The manager rejects new sessions afterwards.
func (m *Manager) Close() {
	m.mu.Lock()
	m.closed = true
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, sess := range sessions {
		sess.engine.Reset()
		sess.detach()
	}
	m.setActiveGauge(0)
	log.Debugf("session manager closed, %d sessions stopped", len(sessions))
}

func (m *Manager) setActiveGauge(count int) {
	if m.metrics != nil {
		m.metrics.GaugeActiveSessions.Set(float64(count))
	}
}

func (v View) String() string {
	return fmt.Sprintf("%s [%s] %s r%d s%d", v.ID, v.Config, v.State.Phase, v.State.CurrentRound, v.State.CurrentSet)
}
