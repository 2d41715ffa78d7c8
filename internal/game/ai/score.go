package ai

import (
	"math"

	"github.com/cory-johannsen/warchief/internal/game/ability"
	"github.com/cory-johannsen/warchief/internal/game/combat"
)

// healUrgent is added to heal scores when a heal is the priority.
const healUrgent = 1000

// potency estimates the total raw output of def: its direct magnitude plus the
// sum of its periodic effect's applications.
func potency(def ability.Definition) float64 {
	total := def.Magnitude
	if e := def.Effect; e != nil && e.TickInterval > 0 && e.Kind.Periodic() {
		total += e.Magnitude * float64(e.Duration/e.TickInterval)
	}
	return total
}

// profileScore is the built-in integer score for using def on target.
func profileScore(st Strategy, self, target *combat.Combatant, def ability.Definition, enemiesHit int) int {
	raw := potency(def)
	if def.Archetype == ability.Area && enemiesHit > 1 {
		raw *= float64(enemiesHit)
	}
	if def.Archetype != ability.Heal {
		if st.Profile == Support {
			return int(math.Round(raw / 2))
		}
		return int(math.Round(raw))
	}

	missing := int(math.Round((1 - target.HealthFraction()) * 100))
	switch st.Profile {
	case Support:
		if target.HealthFraction() < st.AllyFullThreshold {
			return healUrgent + missing
		}
		return 1
	case Aggressive:
		if self.HealthFraction() < st.CriticalHealth {
			return healUrgent + missing
		}
		return 0
	default:
		if target.HealthFraction() < 0.5 {
			return healUrgent/2 + missing
		}
		return int(math.Round(raw / 2))
	}
}
