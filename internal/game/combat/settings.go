package combat

import (
	"time"

	"github.com/cory-johannsen/warchief/internal/game/ability"
	"github.com/cory-johannsen/warchief/internal/game/geom"
	"github.com/cory-johannsen/warchief/internal/game/stance"
)

// Settings are the simulation-wide tuning values.
type Settings struct {
	// GlobalCooldown is the action gate set when an ability completes normally.
	GlobalCooldown time.Duration
	// ComboWindow is how long a combo opener keeps the window open.
	ComboWindow time.Duration
	// PiercingWidth is the half-width of the corridor a piercing projectile sweeps.
	PiercingWidth float64
	// CombatTimeout is how long a combatant counts as in combat after it last
	// dealt or took damage. Zero keeps it in combat once engaged.
	CombatTimeout time.Duration
}

// DefaultSettings returns the stock tuning.
func DefaultSettings() Settings {
	return Settings{
		GlobalCooldown: time.Second,
		ComboWindow:    2 * time.Second,
		PiercingWidth:  1.0,
		CombatTimeout:  5 * time.Second,
	}
}

// NoAbility is the Decision slot meaning "use nothing this tick".
const NoAbility = -1

// Decision is an AI controller's choice for the next tick.
type Decision struct {
	Slot     int
	TargetID string
	// Move is the displacement to apply before any ability is attempted.
	Move geom.Vec3
}

// IdleDecision returns a decision that does nothing.
func IdleDecision() Decision { return Decision{Slot: NoAbility} }

// HasAbility reports whether the decision uses an ability.
func (d Decision) HasAbility() bool { return d.Slot != NoAbility }

// HasMove reports whether the decision moves.
func (d Decision) HasMove() bool { return d.Move != (geom.Vec3{}) }

// View is the read access an AI controller has to the simulation.
// Implementations must not be mutated through the returned combatants.
type View interface {
	Combatants() []*Combatant
	Combatant(id string) (*Combatant, bool)
	Resolver() *ability.Resolver
	StanceOf(c *Combatant) stance.Definition
	Settings() Settings
	Now() time.Duration
}

// Decider chooses actions for AI-controlled combatants.
type Decider interface {
	Decide(v View, self *Combatant, dt time.Duration) Decision
}

// DeciderFunc adapts a function to Decider.
type DeciderFunc func(v View, self *Combatant, dt time.Duration) Decision

// Decide calls f.
func (f DeciderFunc) Decide(v View, self *Combatant, dt time.Duration) Decision { return f(v, self, dt) }
