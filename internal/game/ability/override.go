package ability

import (
	"fmt"
	"time"
)

// Override is a sparse, user-supplied patch keyed by ability name. Only numeric
// and flag fields can be patched; archetype and timing mode are deliberately
// absent so an override can retune an ability but never change how it dispatches.
type Override struct {
	Name                string         `yaml:"name" json:"name"`
	Magnitude           *float64       `yaml:"magnitude,omitempty" json:"magnitude,omitempty"`
	CostAmount          *float64       `yaml:"cost_amount,omitempty" json:"cost_amount,omitempty"`
	SecondaryCostAmount *float64       `yaml:"secondary_cost_amount,omitempty" json:"secondary_cost_amount,omitempty"`
	Cooldown            *time.Duration `yaml:"cooldown,omitempty" json:"cooldown,omitempty"`
	TimingDuration      *time.Duration `yaml:"timing_duration,omitempty" json:"timing_duration,omitempty"`
	TickInterval        *time.Duration `yaml:"tick_interval,omitempty" json:"tick_interval,omitempty"`
	Range               *float64       `yaml:"range,omitempty" json:"range,omitempty"`
	Radius              *float64       `yaml:"radius,omitempty" json:"radius,omitempty"`
	EffectDuration      *time.Duration `yaml:"effect_duration,omitempty" json:"effect_duration,omitempty"`
	EffectTickInterval  *time.Duration `yaml:"effect_tick_interval,omitempty" json:"effect_tick_interval,omitempty"`
	EffectMagnitude     *float64       `yaml:"effect_magnitude,omitempty" json:"effect_magnitude,omitempty"`
	EnablesCombo        *bool          `yaml:"enables_combo,omitempty" json:"enables_combo,omitempty"`
	Piercing            *bool          `yaml:"piercing,omitempty" json:"piercing,omitempty"`
}

// IsEmpty reports whether the override patches nothing.
func (o Override) IsEmpty() bool {
	return o.Magnitude == nil && o.CostAmount == nil && o.SecondaryCostAmount == nil &&
		o.Cooldown == nil && o.TimingDuration == nil && o.TickInterval == nil &&
		o.Range == nil && o.Radius == nil && o.EffectDuration == nil &&
		o.EffectTickInterval == nil && o.EffectMagnitude == nil &&
		o.EnablesCombo == nil && o.Piercing == nil
}

// Apply merges o onto base field by field and returns the effective definition.
//
// Precondition: o.Name == base.Name.
// Postcondition: on success the result has base's archetype and timing mode and
// passes Validate; base is never modified.
func (o Override) Apply(base Definition) (Definition, error) {
	if o.Name != base.Name {
		return Definition{}, fmt.Errorf("ability: override %q cannot apply to %q", o.Name, base.Name)
	}
	out := base.Clone()
	if o.Magnitude != nil {
		out.Magnitude = *o.Magnitude
	}
	if o.CostAmount != nil {
		out.Cost.Amount = *o.CostAmount
	}
	if o.SecondaryCostAmount != nil {
		if out.SecondaryCost == nil {
			return Definition{}, fmt.Errorf("ability: override %q patches a secondary cost the base does not declare", o.Name)
		}
		out.SecondaryCost.Amount = *o.SecondaryCostAmount
	}
	if o.Cooldown != nil {
		out.Cooldown = *o.Cooldown
	}
	if o.TimingDuration != nil {
		out.Timing.Duration = *o.TimingDuration
	}
	if o.TickInterval != nil {
		out.Timing.TickInterval = *o.TickInterval
	}
	if o.Range != nil {
		out.Range = *o.Range
	}
	if o.Radius != nil {
		out.Radius = *o.Radius
	}
	if o.EffectDuration != nil || o.EffectTickInterval != nil || o.EffectMagnitude != nil {
		if out.Effect == nil {
			return Definition{}, fmt.Errorf("ability: override %q patches an effect the base does not declare", o.Name)
		}
		if o.EffectDuration != nil {
			out.Effect.Duration = *o.EffectDuration
		}
		if o.EffectTickInterval != nil {
			out.Effect.TickInterval = *o.EffectTickInterval
		}
		if o.EffectMagnitude != nil {
			out.Effect.Magnitude = *o.EffectMagnitude
		}
	}
	if o.EnablesCombo != nil {
		out.EnablesCombo = *o.EnablesCombo
	}
	if o.Piercing != nil {
		out.Piercing = *o.Piercing
	}
	if out.Archetype != base.Archetype || out.Timing.Mode != base.Timing.Mode {
		return Definition{}, fmt.Errorf("ability: override %q changed dispatch path", o.Name)
	}
	if err := out.Validate(); err != nil {
		return Definition{}, fmt.Errorf("ability: override %q produces invalid definition: %w", o.Name, err)
	}
	return out, nil
}
