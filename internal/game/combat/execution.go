package combat

import (
	"fmt"
	"time"

	"github.com/cory-johannsen/warchief/internal/game/ability"
	"github.com/cory-johannsen/warchief/internal/game/geom"
)

// ExecState is the per-combatant execution state.
type ExecState int

const (
	Idle ExecState = iota
	Winding
	Casting
	Channeling
)

func (s ExecState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Winding:
		return "winding"
	case Casting:
		return "casting"
	case Channeling:
		return "channeling"
	default:
		return fmt.Sprintf("exec(%d)", int(s))
	}
}

// Execution is the ability a combatant is currently executing. A combatant
// executes at most one ability at a time; the zero value is Idle.
type Execution struct {
	State    ExecState
	Ability  ability.Definition
	Slot     int
	TargetID string
	// Center is where an area ability lands, captured when execution starts.
	Center       geom.Vec3
	Elapsed      time.Duration
	TotalTicks   int
	TicksApplied int
	// Continuation is set when the ability was committed inside an open combo window.
	Continuation bool

	acc time.Duration
}

// Remaining returns the time left before the execution resolves or ends.
func (e Execution) Remaining() time.Duration {
	if e.State == Idle {
		return 0
	}
	r := e.Ability.Timing.Duration - e.Elapsed
	if r < 0 {
		return 0
	}
	return r
}

// cancellableByMovement reports whether movement input cancels this execution.
// Windups are committed swings and channels end only on their own conditions.
func (e Execution) cancellableByMovement() bool { return e.State == Casting }

// singleTarget reports whether the execution depends on one target staying alive.
func (e Execution) singleTarget() bool {
	return e.State != Idle && e.TargetID != "" && e.Ability.Archetype != ability.Area
}
