// Package condition implements the Status Effect Ledger: time-boxed buffs, debuffs,
// periodic damage and healing, and crowd control attached to a single combatant.
package condition

import (
	"fmt"
	"time"
)

// ActiveEffect is one status effect attached to exactly one combatant.
type ActiveEffect struct {
	Kind         Kind
	Remaining    time.Duration
	TickInterval time.Duration
	Magnitude    float64
	// SourceAbility is the ability name the effect is attributed to in the audit log.
	SourceAbility string
	// SourceID is the combatant that applied the effect.
	SourceID string

	accumulated time.Duration
}

// Accumulated returns the time elapsed since the effect's last periodic application.
func (e ActiveEffect) Accumulated() time.Duration { return e.accumulated }

// Validate checks the effect's structural invariants.
func (e ActiveEffect) Validate() error {
	if e.Remaining <= 0 {
		return fmt.Errorf("condition: %s from %q: remaining duration must be > 0", e.Kind, e.SourceAbility)
	}
	if e.Kind.Periodic() && e.TickInterval <= 0 {
		return fmt.Errorf("condition: %s from %q: periodic effect needs tick_interval > 0", e.Kind, e.SourceAbility)
	}
	if e.SourceAbility == "" {
		return fmt.Errorf("condition: %s: source ability must not be empty", e.Kind)
	}
	return nil
}

// Application is one batch of periodic applications produced by a single Tick.
// Count is the number of whole tick intervals that elapsed; the caller applies
// Magnitude once per count.
type Application struct {
	Effect ActiveEffect
	Count  int
}

// TickResult is everything a Tick produced, in effect order.
type TickResult struct {
	Periodic []Application
	Expired  []ActiveEffect
}

// Ledger holds every effect currently attached to one combatant.
// It is not safe for concurrent use; the caller must serialise access.
type Ledger struct {
	effects []*ActiveEffect
}

// NewLedger creates an empty Ledger.
func NewLedger() *Ledger {
	return &Ledger{}
}

// Apply attaches e to the owner. An effect of the same kind from the same source
// ability and source combatant is refreshed instead of stacked: its remaining
// duration becomes the larger of the two and its magnitude is replaced.
//
// Precondition: e.Validate() returns nil.
// Postcondition: Has(e.Kind) is true.
func (l *Ledger) Apply(e ActiveEffect) error {
	if err := e.Validate(); err != nil {
		return err
	}
	for _, existing := range l.effects {
		if existing.Kind == e.Kind && existing.SourceAbility == e.SourceAbility && existing.SourceID == e.SourceID {
			if e.Remaining > existing.Remaining {
				existing.Remaining = e.Remaining
			}
			existing.Magnitude = e.Magnitude
			existing.TickInterval = e.TickInterval
			return nil
		}
	}
	e.accumulated = 0
	l.effects = append(l.effects, &e)
	return nil
}

// Tick advances every effect by dt. Each effect's remaining duration is reduced by
// min(dt, remaining) and periodic effects accumulate that same step, emitting
// floor(accumulated / interval) applications. Effects that reach zero are removed
// after their final applications are reported.
//
// Postcondition: every effect in the returned Expired list is no longer attached.
func (l *Ledger) Tick(dt time.Duration) TickResult {
	var res TickResult
	if dt <= 0 {
		return res
	}
	kept := l.effects[:0]
	for _, e := range l.effects {
		step := dt
		if e.Remaining < step {
			step = e.Remaining
		}
		e.Remaining -= step
		if e.Kind.Periodic() && e.TickInterval > 0 {
			e.accumulated += step
			n := int(e.accumulated / e.TickInterval)
			if n > 0 {
				e.accumulated -= time.Duration(n) * e.TickInterval
				res.Periodic = append(res.Periodic, Application{Effect: *e, Count: n})
			}
		}
		if e.Remaining <= 0 {
			res.Expired = append(res.Expired, *e)
			continue
		}
		kept = append(kept, e)
	}
	for i := len(kept); i < len(l.effects); i++ {
		l.effects[i] = nil
	}
	l.effects = kept
	return res
}

// Has reports whether any effect of kind k is attached.
func (l *Ledger) Has(k Kind) bool {
	for _, e := range l.effects {
		if e.Kind == k {
			return true
		}
	}
	return false
}

// Len returns the number of attached effects.
func (l *Ledger) Len() int { return len(l.effects) }

// RemoveFromSource detaches every effect applied by sourceID and returns how many were removed.
func (l *Ledger) RemoveFromSource(sourceID string) int {
	kept := l.effects[:0]
	removed := 0
	for _, e := range l.effects {
		if e.SourceID == sourceID {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	for i := len(kept); i < len(l.effects); i++ {
		l.effects[i] = nil
	}
	l.effects = kept
	return removed
}

// Clear detaches every effect.
func (l *Ledger) Clear() {
	l.effects = nil
}

// All returns a copy of every attached effect in application order.
func (l *Ledger) All() []ActiveEffect {
	out := make([]ActiveEffect, 0, len(l.effects))
	for _, e := range l.effects {
		out = append(out, *e)
	}
	return out
}
