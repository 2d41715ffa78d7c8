// Package timers holds the per-combatant cooldown, action-gate and combo-window timers.
package timers

import (
	"fmt"
	"time"
)

// SlotCount is the number of action slots every combatant has.
const SlotCount = 10

// Branch reports which gate rule fired when an ability completed.
type Branch int

const (
	// BranchNormalGate set the shared action gate.
	BranchNormalGate Branch = iota
	// BranchComboOpener opened the combo window instead of setting the gate.
	BranchComboOpener
	// BranchComboContinuation consumed an open combo window and bypassed the gate.
	BranchComboContinuation
)

// String returns a lower-case name for the branch.
func (b Branch) String() string {
	switch b {
	case BranchNormalGate:
		return "gate"
	case BranchComboOpener:
		return "combo_opener"
	case BranchComboContinuation:
		return "combo_continuation"
	default:
		return fmt.Sprintf("branch(%d)", int(b))
	}
}

// Registry tracks one combatant's slot cooldowns, shared action gate, and combo window.
//
// Invariant: no timer is ever negative.
type Registry struct {
	cooldowns [SlotCount]time.Duration
	gate      time.Duration
	combo     time.Duration
}

// NewRegistry returns a Registry with every timer at zero.
func NewRegistry() *Registry { return &Registry{} }

// Advance decrements every timer by dt, flooring at zero.
//
// Precondition: dt >= 0; non-positive dt is a no-op.
func (r *Registry) Advance(dt time.Duration) {
	if dt <= 0 {
		return
	}
	for i := range r.cooldowns {
		r.cooldowns[i] = decrement(r.cooldowns[i], dt)
	}
	r.gate = decrement(r.gate, dt)
	r.combo = decrement(r.combo, dt)
}

// SetCooldown sets the remaining cooldown for slot.
//
// Precondition: 0 <= slot < SlotCount.
func (r *Registry) SetCooldown(slot int, d time.Duration) error {
	if slot < 0 || slot >= SlotCount {
		return fmt.Errorf("timers: slot %d out of range [0,%d)", slot, SlotCount)
	}
	if d < 0 {
		d = 0
	}
	r.cooldowns[slot] = d
	return nil
}

// Cooldown returns the remaining cooldown for slot; out-of-range slots report zero.
func (r *Registry) Cooldown(slot int) time.Duration {
	if slot < 0 || slot >= SlotCount {
		return 0
	}
	return r.cooldowns[slot]
}

// Cooldowns returns a copy of every slot's remaining cooldown.
func (r *Registry) Cooldowns() [SlotCount]time.Duration { return r.cooldowns }

// Ready reports whether slot is off cooldown.
func (r *Registry) Ready(slot int) bool {
	return slot >= 0 && slot < SlotCount && r.cooldowns[slot] == 0
}

// SetGate sets the shared action gate.
func (r *Registry) SetGate(d time.Duration) {
	if d < 0 {
		d = 0
	}
	r.gate = d
}

// Gate returns the remaining shared action gate.
func (r *Registry) Gate() time.Duration { return r.gate }

// GateActive reports whether the shared action gate is still running.
func (r *Registry) GateActive() bool { return r.gate > 0 }

// OpenCombo opens the combo window for d.
func (r *Registry) OpenCombo(d time.Duration) {
	if d < 0 {
		d = 0
	}
	r.combo = d
}

// Combo returns the remaining combo window.
func (r *Registry) Combo() time.Duration { return r.combo }

// ComboOpen reports whether a combo window is open.
func (r *Registry) ComboOpen() bool { return r.combo > 0 }

// CloseCombo closes the combo window immediately.
func (r *Registry) CloseCombo() { r.combo = 0 }

// CanBypassGate reports whether an ability may start right now with respect to the gate:
// either the gate is idle or a combo window is open.
func (r *Registry) CanBypassGate() bool {
	return !r.GateActive() || r.ComboOpen()
}

// ApplyCompletion applies the gate rule for a completed ability.
// The branches are evaluated in order: combo opener, then combo continuation,
// then the normal gate.
//
// continuation must be true when the ability was committed while a combo window was open.
// Postcondition: the gate is set only on BranchNormalGate.
func (r *Registry) ApplyCompletion(opensCombo, continuation bool, gate, window time.Duration) Branch {
	switch {
	case opensCombo:
		r.OpenCombo(window)
		return BranchComboOpener
	case continuation:
		r.CloseCombo()
		return BranchComboContinuation
	default:
		r.SetGate(gate)
		return BranchNormalGate
	}
}

// Reset zeroes every timer.
func (r *Registry) Reset() {
	*r = Registry{}
}

func decrement(v, dt time.Duration) time.Duration {
	if v <= dt {
		return 0
	}
	return v - dt
}
