// Package ability holds the ability catalog, the sparse override layer, and the
// resolver that merges the two into effective definitions.
package ability

import (
	"errors"
	"fmt"
	"time"

	"github.com/cory-johannsen/warchief/internal/game/condition"
	"github.com/cory-johannsen/warchief/internal/game/resource"
)

// Timing configures how long execution takes once started.
type Timing struct {
	Mode     TimingMode    `yaml:"mode" json:"mode"`
	Duration time.Duration `yaml:"duration" json:"duration"`
	// TickInterval is the channel tick period; only meaningful for channel timing.
	TickInterval time.Duration `yaml:"tick_interval" json:"tick_interval"`
}

// TotalTicks returns the number of periodic applications a channel makes over its duration.
func (t Timing) TotalTicks() int {
	if t.Mode != Channeled || t.TickInterval <= 0 {
		return 0
	}
	return int(t.Duration / t.TickInterval)
}

// EffectSpec is the status effect applied when the ability lands.
type EffectSpec struct {
	Kind         condition.Kind `yaml:"kind" json:"kind"`
	Duration     time.Duration  `yaml:"duration" json:"duration"`
	TickInterval time.Duration  `yaml:"tick_interval" json:"tick_interval"`
	Magnitude    float64        `yaml:"magnitude" json:"magnitude"`
}

// Definition is an immutable catalog entry identified by its unique Name.
type Definition struct {
	Name        string    `yaml:"name" json:"name"`
	Category    string    `yaml:"category" json:"category"`
	Description string    `yaml:"description" json:"description,omitempty"`
	Archetype   Archetype `yaml:"archetype" json:"archetype"`
	// Magnitude is base damage, or base healing for Heal abilities.
	Magnitude     float64        `yaml:"magnitude" json:"magnitude"`
	Cost          resource.Cost  `yaml:"cost" json:"cost"`
	SecondaryCost *resource.Cost `yaml:"secondary_cost" json:"secondary_cost,omitempty"`
	Cooldown      time.Duration  `yaml:"cooldown" json:"cooldown"`
	Timing        Timing         `yaml:"timing" json:"timing"`
	Range         float64        `yaml:"range" json:"range"`
	Radius        float64        `yaml:"radius" json:"radius"`
	Effect        *EffectSpec    `yaml:"effect" json:"effect,omitempty"`
	EnablesCombo  bool           `yaml:"enables_combo" json:"enables_combo"`
	Piercing      bool           `yaml:"piercing" json:"piercing"`
}

// Validate checks that d carries every field its archetype requires.
//
// Postcondition: Returns nil iff d can be dispatched without missing data; all
// violations are joined into the returned error.
func (d Definition) Validate() error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("ability %q: "+format, append([]any{d.Name}, args...)...))
	}
	if d.Name == "" {
		fail("name must not be empty")
	}
	if d.Magnitude < 0 {
		fail("magnitude must be >= 0")
	}
	if d.Cooldown < 0 {
		fail("cooldown must be >= 0")
	}
	if d.Range < 0 || d.Radius < 0 {
		fail("range and radius must be >= 0")
	}
	if d.Cost.Amount < 0 || !d.Cost.Pool.Valid() {
		fail("cost must name a valid pool with amount >= 0")
	}
	if d.SecondaryCost != nil && (d.SecondaryCost.Amount < 0 || !d.SecondaryCost.Pool.Valid()) {
		fail("secondary_cost must name a valid pool with amount >= 0")
	}
	if d.Timing.Duration < 0 || d.Timing.TickInterval < 0 {
		fail("timing durations must be >= 0")
	}
	switch d.Timing.Mode {
	case Instant:
	case Windup, Cast:
		if d.Timing.Duration <= 0 {
			fail("%s timing needs duration > 0", d.Timing.Mode)
		}
	case Channeled:
		if d.Archetype != Channel {
			fail("channel timing requires the channel archetype")
		}
	default:
		fail("unknown timing mode %d", int(d.Timing.Mode))
	}
	if d.Effect != nil {
		if d.Effect.Duration <= 0 {
			fail("effect duration must be > 0")
		}
		if d.Effect.Kind.Periodic() && d.Effect.TickInterval <= 0 {
			fail("periodic effect %s needs tick_interval > 0", d.Effect.Kind)
		}
	}

	switch d.Archetype {
	case Melee, RangedProjectile:
		if d.Range <= 0 {
			fail("%s needs range > 0", d.Archetype)
		}
	case Area:
		if d.Radius <= 0 {
			fail("area needs radius > 0")
		}
	case Heal:
		if d.Magnitude <= 0 {
			fail("heal needs magnitude > 0")
		}
	case DamageOverTime:
		if d.Effect == nil || d.Effect.Kind != condition.DamageOverTime {
			fail("damage_over_time needs a damage_over_time effect")
		}
		if d.Range <= 0 {
			fail("damage_over_time needs range > 0")
		}
	case Channel:
		if d.Timing.Mode != Channeled {
			fail("channel archetype needs channel timing")
		}
		if d.Timing.TickInterval <= 0 || d.Timing.Duration < d.Timing.TickInterval {
			fail("channel needs tick_interval > 0 and duration >= tick_interval")
		}
		if d.Range <= 0 {
			fail("channel needs range > 0")
		}
	default:
		fail("unknown archetype %d", int(d.Archetype))
	}
	return errors.Join(errs...)
}

// SelfTargeted reports whether the ability may target the caster.
func (d Definition) SelfTargeted() bool { return d.Archetype == Heal }

// Clone returns a deep copy of d so callers can never alias catalog data.
func (d Definition) Clone() Definition {
	out := d
	if d.SecondaryCost != nil {
		sc := *d.SecondaryCost
		out.SecondaryCost = &sc
	}
	if d.Effect != nil {
		e := *d.Effect
		out.Effect = &e
	}
	return out
}
