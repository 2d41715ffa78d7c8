package combat

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Engine manages all active sessions, keyed by session ID.
// All methods are safe for concurrent use.
type Engine struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
	order    []uuid.UUID
}

// NewEngine creates an empty Engine.
//
// Postcondition: Returns a non-nil Engine ready for use.
func NewEngine() *Engine {
	return &Engine{sessions: make(map[uuid.UUID]*Session)}
}

// Start creates a session and registers it.
//
// Postcondition: Returns the new Session or an error if the ID is already active.
func (e *Engine) Start(cfg SessionConfig, sim *Simulation, combatants []*Combatant) (*Session, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if cfg.ID != uuid.Nil {
		if _, exists := e.sessions[cfg.ID]; exists {
			return nil, fmt.Errorf("session %s already active", cfg.ID)
		}
	}
	sess, err := NewSession(cfg, sim, combatants)
	if err != nil {
		return nil, err
	}
	e.sessions[sess.ID] = sess
	e.order = append(e.order, sess.ID)
	return sess, nil
}

// Get returns the session with id.
func (e *Engine) Get(id uuid.UUID) (*Session, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	s, ok := e.sessions[id]
	return s, ok
}

// End removes the session with id.
func (e *Engine) End(id uuid.UUID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.sessions, id)
	for i, oid := range e.order {
		if oid == id {
			e.order = append(e.order[:i], e.order[i+1:]...)
			break
		}
	}
}

// Sessions returns every active session in start order.
func (e *Engine) Sessions() []*Session {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]*Session, 0, len(e.order))
	for _, id := range e.order {
		out = append(out, e.sessions[id])
	}
	return out
}

// Len returns the number of active sessions.
func (e *Engine) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.sessions)
}

// TickAll advances every undecided session by dt and returns the sessions
// decided during this call.
func (e *Engine) TickAll(dt time.Duration) []*Session {
	var finished []*Session
	for _, s := range e.Sessions() {
		if s.Ended() {
			continue
		}
		if _, done := s.Tick(dt); done {
			finished = append(finished, s)
		}
	}
	return finished
}
