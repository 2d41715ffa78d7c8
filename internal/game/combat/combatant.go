// Package combat implements the real-time combat core: combatants, the ability
// execution state machine, the damage and heal pipeline, the audit log, the
// tick-driven simulation, and duel or party sessions built on top of it.
package combat

import (
	"fmt"
	"time"

	"github.com/cory-johannsen/warchief/internal/game/condition"
	"github.com/cory-johannsen/warchief/internal/game/geom"
	"github.com/cory-johannsen/warchief/internal/game/resource"
	"github.com/cory-johannsen/warchief/internal/game/timers"
)

// Side names a team. Combatants on different sides may target each other with harmful abilities.
type Side string

// Controller distinguishes player-driven combatants from AI-driven ones.
type Controller int

const (
	ControllerPlayer Controller = iota
	ControllerAI
)

func (c Controller) String() string {
	if c == ControllerAI {
		return "ai"
	}
	return "player"
}

// Spec is everything needed to create a combatant.
type Spec struct {
	ID         string
	Name       string
	Template   string
	Side       Side
	EnemySide  Side
	Controller Controller
	Position   geom.Vec3
	MoveSpeed  float64
	MaxHealth  float64
	PoolMax    [resource.PoolCount]float64
	Regen      [resource.PoolCount]resource.Regenerator
	Slots      []string
	Stance     string
	// GearMultiplier is the product of equipped gear damage multipliers; 0 means 1.
	GearMultiplier float64
	Strategy       string
}

// Combatant is one participant in combat. The simulation owns every combatant
// exclusively; callers outside the package should read state through Snapshot.
type Combatant struct {
	ID         string
	Name       string
	Template   string
	Side       Side
	EnemySide  Side
	Controller Controller
	Position   geom.Vec3
	MoveSpeed  float64
	Health     float64
	MaxHealth  float64
	Resources  *resource.Ledger
	Slots      [timers.SlotCount]string
	Timers     *timers.Registry
	Stance     string
	// GearMultiplier is applied to every outgoing hit.
	GearMultiplier float64
	Effects        *condition.Ledger
	Strategy       string
	Exec           Execution
	Dead           bool

	engaged   bool
	engagedAt time.Duration
}

// NewCombatant creates a combatant with full health and resources and zero cooldowns.
//
// Precondition: s.ID non-empty, s.MaxHealth > 0, len(s.Slots) <= timers.SlotCount.
// Postcondition: Health == MaxHealth, every pool full, every timer zero, Exec idle.
func NewCombatant(s Spec) (*Combatant, error) {
	if s.ID == "" {
		return nil, fmt.Errorf("combatant: id must not be empty")
	}
	if s.MaxHealth <= 0 {
		return nil, fmt.Errorf("combatant %q: max health must be > 0", s.ID)
	}
	if len(s.Slots) > timers.SlotCount {
		return nil, fmt.Errorf("combatant %q: %d slots exceeds %d", s.ID, len(s.Slots), timers.SlotCount)
	}
	if s.Side == "" {
		return nil, fmt.Errorf("combatant %q: side must not be empty", s.ID)
	}
	if s.EnemySide == s.Side {
		return nil, fmt.Errorf("combatant %q: enemy side must differ from own side", s.ID)
	}
	name := s.Name
	if name == "" {
		name = s.ID
	}
	gear := s.GearMultiplier
	if gear == 0 {
		gear = 1
	}
	if gear < 0 {
		return nil, fmt.Errorf("combatant %q: gear multiplier must be >= 0", s.ID)
	}
	c := &Combatant{
		ID:             s.ID,
		Name:           name,
		Template:       s.Template,
		Side:           s.Side,
		EnemySide:      s.EnemySide,
		Controller:     s.Controller,
		Position:       s.Position,
		MoveSpeed:      s.MoveSpeed,
		Health:         s.MaxHealth,
		MaxHealth:      s.MaxHealth,
		Resources:      resource.NewLedger(s.PoolMax),
		Timers:         timers.NewRegistry(),
		Stance:         s.Stance,
		GearMultiplier: gear,
		Effects:        condition.NewLedger(),
		Strategy:       s.Strategy,
	}
	copy(c.Slots[:], s.Slots)
	for i, r := range s.Regen {
		if r != nil {
			_ = c.Resources.SetRegenerator(resource.Pool(i), r)
		}
	}
	return c, nil
}

// IsDead reports whether the combatant has been removed from active simulation.
func (c *Combatant) IsDead() bool { return c.Dead }

// HealthFraction returns Health / MaxHealth.
func (c *Combatant) HealthFraction() float64 {
	if c.MaxHealth <= 0 {
		return 0
	}
	return c.Health / c.MaxHealth
}

// IsEnemyOf reports whether o may be targeted by c's harmful abilities.
func (c *Combatant) IsEnemyOf(o *Combatant) bool {
	if o == nil || o.ID == c.ID {
		return false
	}
	if c.EnemySide != "" {
		return o.Side == c.EnemySide
	}
	return o.Side != c.Side
}

// IsAllyOf reports whether o is on c's side (including c itself).
func (c *Combatant) IsAllyOf(o *Combatant) bool {
	return o != nil && o.Side == c.Side
}

// InCombat reports whether c dealt or took damage within timeout of now.
// A zero timeout never expires.
func (c *Combatant) InCombat(now, timeout time.Duration) bool {
	if !c.engaged {
		return false
	}
	return timeout <= 0 || now-c.engagedAt < timeout
}

func (c *Combatant) engage(now time.Duration) {
	c.engaged = true
	c.engagedAt = now
}

// Busy reports whether an ability is currently executing.
func (c *Combatant) Busy() bool { return c.Exec.State != Idle }

// EffectSnapshot is the public view of one active effect.
type EffectSnapshot struct {
	Kind          condition.Kind
	Remaining     time.Duration
	Magnitude     float64
	SourceAbility string
}

// ExecutionSnapshot is the public view of the execution state.
type ExecutionSnapshot struct {
	State    ExecState
	Ability  string
	Target   string
	Elapsed  time.Duration
	Duration time.Duration
}

// Snapshot is the read-only per-combatant state polled by presentation layers.
type Snapshot struct {
	ID          string
	Name        string
	Side        Side
	Position    geom.Vec3
	Health      float64
	MaxHealth   float64
	Resources   [resource.PoolCount]float64
	ResourceMax [resource.PoolCount]float64
	Cooldowns   [timers.SlotCount]time.Duration
	Gate        time.Duration
	Combo       time.Duration
	Stance      string
	Effects     []EffectSnapshot
	Execution   ExecutionSnapshot
	Dead        bool
}

// Snapshot copies the combatant's public state.
func (c *Combatant) Snapshot() Snapshot {
	s := Snapshot{
		ID:          c.ID,
		Name:        c.Name,
		Side:        c.Side,
		Position:    c.Position,
		Health:      c.Health,
		MaxHealth:   c.MaxHealth,
		Resources:   c.Resources.Values(),
		ResourceMax: c.Resources.Maxes(),
		Cooldowns:   c.Timers.Cooldowns(),
		Gate:        c.Timers.Gate(),
		Combo:       c.Timers.Combo(),
		Stance:      c.Stance,
		Dead:        c.Dead,
		Execution: ExecutionSnapshot{
			State:    c.Exec.State,
			Ability:  c.Exec.Ability.Name,
			Target:   c.Exec.TargetID,
			Elapsed:  c.Exec.Elapsed,
			Duration: c.Exec.Ability.Timing.Duration,
		},
	}
	for _, e := range c.Effects.All() {
		s.Effects = append(s.Effects, EffectSnapshot{
			Kind:          e.Kind,
			Remaining:     e.Remaining,
			Magnitude:     e.Magnitude,
			SourceAbility: e.SourceAbility,
		})
	}
	return s
}
