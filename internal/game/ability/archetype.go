package ability

import (
	"fmt"
	"strings"
)

// Archetype is the closed set of action behaviours. Execution is dispatched by
// matching on the archetype; the ability's data always travels with it.
type Archetype int

const (
	Melee Archetype = iota
	RangedProjectile
	Area
	Heal
	DamageOverTime
	Channel
)

var archetypeNames = [...]string{"melee", "ranged_projectile", "area", "heal", "damage_over_time", "channel"}

func (a Archetype) String() string {
	if a < 0 || int(a) >= len(archetypeNames) {
		return fmt.Sprintf("archetype(%d)", int(a))
	}
	return archetypeNames[a]
}

// Harmful reports whether the archetype targets enemies.
func (a Archetype) Harmful() bool { return a != Heal }

// ParseArchetype maps a content-file name to an Archetype.
func ParseArchetype(s string) (Archetype, error) {
	n := strings.ToLower(strings.TrimSpace(s))
	for i, name := range archetypeNames {
		if name == n {
			return Archetype(i), nil
		}
	}
	return 0, fmt.Errorf("ability: unknown archetype %q", s)
}

func (a *Archetype) UnmarshalText(text []byte) error {
	parsed, err := ParseArchetype(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

func (a Archetype) MarshalText() ([]byte, error) {
	if a < 0 || int(a) >= len(archetypeNames) {
		return nil, fmt.Errorf("ability: invalid archetype %d", int(a))
	}
	return []byte(a.String()), nil
}

// TimingMode is how an ability's effect is scheduled once execution starts.
type TimingMode int

const (
	Instant TimingMode = iota
	Windup
	Cast
	Channeled
)

var timingNames = [...]string{"instant", "windup", "cast", "channel"}

func (m TimingMode) String() string {
	if m < 0 || int(m) >= len(timingNames) {
		return fmt.Sprintf("timing(%d)", int(m))
	}
	return timingNames[m]
}

// ParseTimingMode maps a content-file name to a TimingMode.
func ParseTimingMode(s string) (TimingMode, error) {
	n := strings.ToLower(strings.TrimSpace(s))
	for i, name := range timingNames {
		if name == n {
			return TimingMode(i), nil
		}
	}
	return 0, fmt.Errorf("ability: unknown timing mode %q", s)
}

func (m *TimingMode) UnmarshalText(text []byte) error {
	parsed, err := ParseTimingMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

func (m TimingMode) MarshalText() ([]byte, error) {
	if m < 0 || int(m) >= len(timingNames) {
		return nil, fmt.Errorf("ability: invalid timing mode %d", int(m))
	}
	return []byte(m.String()), nil
}
