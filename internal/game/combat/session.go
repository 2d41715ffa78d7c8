package combat

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/warchief/internal/game/geom"
)

// MaxPerSide is the largest number of combatants a side may field.
const MaxPerSide = 5

// ErrSessionEnded is returned by actions attempted after the session has an outcome.
var ErrSessionEnded = errors.New("session ended")

// EndCondition declares when a session is decided.
type EndCondition int

const (
	// FirstDeath ends the session the instant any combatant dies.
	FirstDeath EndCondition = iota
	// PartyWipe ends the session when every combatant on one side is dead.
	PartyWipe
)

func (e EndCondition) String() string {
	if e == PartyWipe {
		return "party_wipe"
	}
	return "first_death"
}

// ParseEndCondition maps "first_death" or "party_wipe" to an EndCondition.
func ParseEndCondition(s string) (EndCondition, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "first_death", "first_kill":
		return FirstDeath, nil
	case "party_wipe":
		return PartyWipe, nil
	default:
		return 0, fmt.Errorf("combat: unknown end condition %q", s)
	}
}

// OutcomeReason explains how a session ended.
type OutcomeReason string

const (
	ReasonFirstDeath OutcomeReason = "first_death"
	ReasonPartyWipe  OutcomeReason = "party_wipe"
	ReasonTimeout    OutcomeReason = "timeout"
)

// Outcome is a decided session. Winner is empty for a draw.
type Outcome struct {
	Winner Side
	Loser  Side
	Reason OutcomeReason
	At     time.Duration
}

// Draw reports whether no side won.
func (o Outcome) Draw() bool { return o.Winner == "" }

// SessionConfig declares the shape of a duel or party fight.
type SessionConfig struct {
	ID           uuid.UUID
	Sides        [2]Side
	EndCondition EndCondition
	// MaxDuration bounds the session; zero means unbounded. Reaching it is a draw.
	MaxDuration time.Duration
}

// Session is a bounded fight between two sides of 1 to MaxPerSide combatants.
// All methods are safe for concurrent use.
type Session struct {
	ID  uuid.UUID
	cfg SessionConfig

	mu        sync.Mutex
	sim       *Simulation
	outcome   *Outcome
	seenEvent int
}

// NewSession adds combatants to sim and wraps it as a session.
//
// Precondition: sim is freshly constructed and owned by the session from now on.
// Postcondition: each side has between 1 and MaxPerSide combatants, or an error is returned.
func NewSession(cfg SessionConfig, sim *Simulation, combatants []*Combatant) (*Session, error) {
	if sim == nil {
		return nil, fmt.Errorf("combat: session requires a simulation")
	}
	if cfg.Sides[0] == "" || cfg.Sides[1] == "" || cfg.Sides[0] == cfg.Sides[1] {
		return nil, fmt.Errorf("combat: session needs two distinct non-empty sides, got %q and %q", cfg.Sides[0], cfg.Sides[1])
	}
	if cfg.MaxDuration < 0 {
		return nil, fmt.Errorf("combat: max duration must be >= 0")
	}
	counts := map[Side]int{}
	for _, c := range combatants {
		if c == nil {
			return nil, fmt.Errorf("combat: nil combatant")
		}
		if c.Side != cfg.Sides[0] && c.Side != cfg.Sides[1] {
			return nil, fmt.Errorf("combat: combatant %q on side %q not in session", c.ID, c.Side)
		}
		counts[c.Side]++
	}
	for _, side := range cfg.Sides {
		if n := counts[side]; n < 1 || n > MaxPerSide {
			return nil, fmt.Errorf("combat: side %q has %d combatants, want 1..%d", side, n, MaxPerSide)
		}
	}
	for _, c := range combatants {
		if c.EnemySide == "" {
			c.EnemySide = opposite(cfg.Sides, c.Side)
		}
		if err := sim.Add(c); err != nil {
			return nil, err
		}
	}
	if cfg.ID == uuid.Nil {
		cfg.ID = uuid.New()
	}
	sess := &Session{ID: cfg.ID, cfg: cfg, sim: sim}
	// Deaths only happen inside sim calls made with sess.mu held.
	sim.onDeath = func(*Combatant) {
		if _, done := sess.evaluate(); done {
			sim.Halt()
		}
	}
	return sess, nil
}

// Config returns the session configuration.
func (s *Session) Config() SessionConfig { return s.cfg }

// Tick advances the session by dt and returns the outcome once decided.
// The end condition is checked at every death, so nothing resolves after the
// deciding one. Ticking a decided session is a no-op.
func (s *Session) Tick(dt time.Duration) (Outcome, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.outcome != nil {
		return *s.outcome, true
	}
	s.sim.Tick(dt)
	return s.evaluate()
}

// UseAbility starts an ability immediately and re-evaluates the end condition.
func (s *Session) UseAbility(actorID string, slot int, targetID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.outcome != nil {
		return ErrSessionEnded
	}
	err := s.sim.UseAbility(actorID, slot, targetID)
	s.evaluate()
	return err
}

// Move displaces a combatant immediately.
func (s *Session) Move(actorID string, delta geom.Vec3) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.outcome != nil {
		return ErrSessionEnded
	}
	return s.sim.Move(actorID, delta)
}

// Request queues an ability use for the next tick.
//
// Postcondition: returns ErrSessionEnded once the session is decided.
func (s *Session) Request(actorID string, slot int, targetID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.outcome != nil {
		return ErrSessionEnded
	}
	s.sim.Request(actorID, slot, targetID)
	return nil
}

// Outcome returns the outcome if the session is decided.
func (s *Session) Outcome() (Outcome, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.outcome == nil {
		return Outcome{}, false
	}
	return *s.outcome, true
}

// Ended reports whether the session is decided.
func (s *Session) Ended() bool {
	_, ok := s.Outcome()
	return ok
}

// Snapshots returns every combatant's public state.
func (s *Session) Snapshots() []Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sim.Snapshots()
}

// Events returns the shared event log.
func (s *Session) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sim.Events()
}

// Audit returns the audit log.
func (s *Session) Audit() []AuditEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sim.Audit()
}

// Now returns the simulated time of the session.
func (s *Session) Now() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sim.Now()
}

// evaluate checks the end condition against deaths recorded since the last
// check, in the order they happened. Caller holds s.mu.
func (s *Session) evaluate() (Outcome, bool) {
	if s.outcome != nil {
		return *s.outcome, true
	}
	events := s.sim.events
	for ; s.seenEvent < len(events); s.seenEvent++ {
		ev := events[s.seenEvent]
		if ev.Kind != EventDeath {
			continue
		}
		dead, ok := s.sim.Combatant(ev.Target)
		if !ok {
			continue
		}
		switch s.cfg.EndCondition {
		case FirstDeath:
			s.decide(opposite(s.cfg.Sides, dead.Side), dead.Side, ReasonFirstDeath, ev.At)
		case PartyWipe:
			if s.wiped(dead.Side) {
				s.decide(opposite(s.cfg.Sides, dead.Side), dead.Side, ReasonPartyWipe, ev.At)
			}
		}
		if s.outcome != nil {
			s.seenEvent = len(events)
			return *s.outcome, true
		}
	}
	if s.cfg.MaxDuration > 0 && s.sim.Now() >= s.cfg.MaxDuration {
		s.decide("", "", ReasonTimeout, s.sim.Now())
		return *s.outcome, true
	}
	return Outcome{}, false
}

func (s *Session) decide(winner, loser Side, reason OutcomeReason, at time.Duration) {
	s.outcome = &Outcome{Winner: winner, Loser: loser, Reason: reason, At: at}
	s.sim.logger.Info("session ended",
		zap.String("session", s.ID.String()),
		zap.String("winner", string(winner)),
		zap.String("reason", string(reason)),
		zap.Duration("at", at),
	)
}

func (s *Session) wiped(side Side) bool {
	for _, c := range s.sim.combatants {
		if c.Side == side && !c.Dead {
			return false
		}
	}
	return true
}

func opposite(sides [2]Side, side Side) Side {
	if side == sides[0] {
		return sides[1]
	}
	return sides[0]
}
