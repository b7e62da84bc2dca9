package session

import (
	"sync"
	"time"

	"github.com/2beens/intervaltimer/internal/timer"
)

// Session is one timer engine owned by the Manager.
type Session struct {
	id        string
	createdAt time.Time
	engine    *timer.Engine

	mu       sync.Mutex
	preset   string
	unsubs   []func()
	detached bool
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) Preset() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.preset
}

func (s *Session) Config() (timer.Config, bool) {
	return s.engine.Config()
}

func (s *Session) setPreset(preset string) {
	s.mu.Lock()
	s.preset = preset
	s.mu.Unlock()
}

// attach registers unsubscribe to run when the session goes away. On an already
// detached session it runs unsubscribe right away and returns false.
func (s *Session) attach(unsubscribe func()) bool {
	s.mu.Lock()
	if s.detached {
		s.mu.Unlock()
		unsubscribe()
		return false
	}
	s.unsubs = append(s.unsubs, unsubscribe)
	s.mu.Unlock()
	return true
}

func (s *Session) detach() {
	s.mu.Lock()
	unsubs := s.unsubs
	s.unsubs = nil
	s.detached = true
	s.mu.Unlock()
	for _, unsubscribe := range unsubs {
		unsubscribe()
	}
}

// View is the read model returned for a session.
type View struct {
	ID        string       `json:"id"`
	Preset    string       `json:"preset,omitempty"`
	Config    timer.Config `json:"config"`
	State     timer.State  `json:"state"`
	Progress  timer.Report `json:"progress"`
	CreatedAt time.Time    `json:"createdAt"`
}

// View reads config and state from one engine snapshot, so progress always
// matches the returned state.
func (s *Session) View() View {
	cfg, state := s.engine.Snapshot()
	return View{
		ID:        s.id,
		Preset:    s.Preset(),
		Config:    cfg,
		State:     state,
		Progress:  timer.Progress(state, cfg),
		CreatedAt: s.createdAt,
	}
}
