package resource

import (
	"time"

	"github.com/cory-johannsen/warchief/internal/game/geom"
)

// RegenContext carries the per-tick facts a Regenerator may consult.
type RegenContext struct {
	Position geom.Vec3
	InCombat bool
}

// Regenerator computes how much a pool changes over one tick.
// Negative results drain the pool (decay).
type Regenerator interface {
	Amount(p Pool, ctx RegenContext, dt time.Duration) float64
}

// PassiveRegen changes a pool at a constant rate. A negative rate decays.
type PassiveRegen struct {
	RatePerSecond float64
	// OutOfCombatOnly suppresses regeneration while the owner is in combat.
	OutOfCombatOnly bool
}

// Amount returns RatePerSecond * dt.
func (r PassiveRegen) Amount(_ Pool, ctx RegenContext, dt time.Duration) float64 {
	if r.OutOfCombatOnly && ctx.InCombat {
		return 0
	}
	return r.RatePerSecond * dt.Seconds()
}

// ProximityRegen refills a pool while the owner stands within Radius of any source.
type ProximityRegen struct {
	Sources       []geom.Vec3
	Radius        float64
	RatePerSecond float64
}

// Amount returns RatePerSecond * dt when within Radius of a source, else 0.
func (r ProximityRegen) Amount(_ Pool, ctx RegenContext, dt time.Duration) float64 {
	for _, s := range r.Sources {
		if geom.DistanceXZ(ctx.Position, s) <= r.Radius {
			return r.RatePerSecond * dt.Seconds()
		}
	}
	return 0
}

// Chain sums the results of several regenerators.
type Chain []Regenerator

// Amount returns the sum of every member's amount.
func (c Chain) Amount(p Pool, ctx RegenContext, dt time.Duration) float64 {
	total := 0.0
	for _, r := range c {
		if r != nil {
			total += r.Amount(p, ctx, dt)
		}
	}
	return total
}
