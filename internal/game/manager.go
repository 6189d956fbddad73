package game

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/exp/rand"
)

var ErrSessionNotFound = errors.New("session not found")

// Manager keeps all live sessions and runs their frame loops.
type Manager struct {
	sessions  map[string]*Session
	tuning    Tuning
	frameRate int
	ctx       context.Context
	cancel    context.CancelFunc
	mu        sync.RWMutex
}

// NewManager creates a manager. Sessions it creates run until End or
// Shutdown.
func NewManager(t Tuning, frameRate int) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		sessions:  make(map[string]*Session),
		tuning:    t,
		frameRate: frameRate,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Tuning returns the parameters new sessions are created with.
func (m *Manager) Tuning() Tuning { return m.tuning }

// FrameRate returns the loop rate of managed sessions.
func (m *Manager) FrameRate() int { return m.frameRate }

// NewRand returns the level random source for a seed.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// Create registers a new ready session and starts its frame loop. A nil
// seed picks one from the clock.
func (m *Manager) Create(vp Viewport, seed *uint64) (*Session, error) {
	sd := uint64(time.Now().UnixNano())
	if seed != nil {
		sd = *seed
	}

	s, err := NewSession(uuid.NewString(), vp, m.tuning, NewRand(sd))
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	go s.Run(m.ctx, m.frameRate)
	log.Printf("[SESSION] created %s (seed=%d)", s.ID, sd)
	return s, nil
}

func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// End closes and forgets a session.
func (m *Manager) End(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	s.Close()
	log.Printf("[SESSION] ended %s", id)
	return nil
}

func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// ExpireIdle ends every session without activity for maxIdle and returns
// their ids.
func (m *Manager) ExpireIdle(maxIdle time.Duration, now time.Time) []string {
	m.mu.RLock()
	var stale []string
	for id, s := range m.sessions {
		if now.Sub(s.LastActivity()) >= maxIdle {
			stale = append(stale, id)
		}
	}
	m.mu.RUnlock()

	expired := make([]string, 0, len(stale))
	for _, id := range stale {
		if err := m.End(id); err == nil {
			expired = append(expired, id)
		}
	}
	return expired
}

// Shutdown stops all frame loops and closes every session.
func (m *Manager) Shutdown() {
	m.cancel()

	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}
