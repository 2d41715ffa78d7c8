package condition

import (
	"fmt"
	"strings"
)

// Kind is the closed set of status effect variants.
type Kind int

const (
	// Buff multiplies the owner's outgoing damage by (1 + Magnitude).
	Buff Kind = iota
	// Debuff multiplies damage the owner takes by (1 + Magnitude).
	Debuff
	// DamageOverTime deals Magnitude damage per tick interval.
	DamageOverTime
	// HealOverTime heals Magnitude per tick interval.
	HealOverTime
	// Stun prevents starting abilities and cancels casts and channels.
	Stun
	// Root prevents movement.
	Root
	// Silence prevents starting any non-melee ability.
	Silence
)

var kindNames = map[Kind]string{
	Buff:           "buff",
	Debuff:         "debuff",
	DamageOverTime: "damage_over_time",
	HealOverTime:   "heal_over_time",
	Stun:           "stun",
	Root:           "root",
	Silence:        "silence",
}

// String returns the snake_case name used in content files.
func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Periodic reports whether effects of this kind apply on a tick interval.
func (k Kind) Periodic() bool {
	return k == DamageOverTime || k == HealOverTime
}

// CrowdControl reports whether the kind restricts the owner's actions.
func (k Kind) CrowdControl() bool {
	return k == Stun || k == Root || k == Silence
}

// ParseKind maps a content-file name to a Kind.
func ParseKind(s string) (Kind, error) {
	n := strings.ToLower(strings.TrimSpace(s))
	for k, name := range kindNames {
		if name == n {
			return k, nil
		}
	}
	return 0, fmt.Errorf("condition: unknown effect kind %q", s)
}

// UnmarshalText decodes a Kind by name.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// MarshalText encodes a Kind by name.
func (k Kind) MarshalText() ([]byte, error) {
	if _, ok := kindNames[k]; !ok {
		return nil, fmt.Errorf("condition: invalid kind %d", int(k))
	}
	return []byte(k.String()), nil
}
