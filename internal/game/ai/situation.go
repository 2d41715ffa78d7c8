package ai

import (
	"github.com/cory-johannsen/warchief/internal/game/combat"
	"github.com/cory-johannsen/warchief/internal/game/geom"
)

// Situation is the snapshot the engine decides against for one combatant.
//
// Invariant: Self is non-nil and living; Enemies and Allies contain no dead combatants.
type Situation struct {
	Self    *combat.Combatant
	Enemies []*combat.Combatant
	// Allies includes Self.
	Allies []*combat.Combatant
	// Target is the living enemy with the lowest current health, or nil.
	Target *combat.Combatant
}

// NewSituation partitions the view's combatants in a single pass and picks the
// target along the way. Ties keep the first enemy seen.
//
// Precondition: self must be non-nil.
func NewSituation(v combat.View, self *combat.Combatant) Situation {
	s := Situation{Self: self}
	for _, c := range v.Combatants() {
		if c.Dead {
			continue
		}
		switch {
		case self.IsEnemyOf(c):
			s.Enemies = append(s.Enemies, c)
			if s.Target == nil || c.Health < s.Target.Health {
				s.Target = c
			}
		case self.IsAllyOf(c):
			s.Allies = append(s.Allies, c)
		}
	}
	return s
}

// NeediestAlly returns the living ally (self included) with the lowest health
// fraction. Ties keep the first ally seen.
func (s Situation) NeediestAlly() *combat.Combatant {
	var best *combat.Combatant
	for _, a := range s.Allies {
		if best == nil || a.HealthFraction() < best.HealthFraction() {
			best = a
		}
	}
	if best == nil {
		return s.Self
	}
	return best
}

// EnemiesWithin counts living enemies whose XZ distance to center is at most radius.
func (s Situation) EnemiesWithin(center geom.Vec3, radius float64) int {
	n := 0
	for _, e := range s.Enemies {
		if geom.DistanceXZ(center, e.Position) <= radius {
			n++
		}
	}
	return n
}
