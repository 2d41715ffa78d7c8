package combat

import (
	"fmt"
	"strings"
	"time"
)

// EventKind classifies a session event-log entry.
type EventKind int

const (
	EventAbilityUsed EventKind = iota
	EventDamage
	EventHeal
	EventDeath
)

func (k EventKind) String() string {
	switch k {
	case EventAbilityUsed:
		return "ability_used"
	case EventDamage:
		return "damage"
	case EventHeal:
		return "heal"
	case EventDeath:
		return "death"
	default:
		return fmt.Sprintf("event(%d)", int(k))
	}
}

// Event is one entry of the shared event log kept for post-hoc analysis.
type Event struct {
	At      time.Duration
	Kind    EventKind
	Actor   string
	Target  string
	Ability string
	Amount  float64
}

// GoalKind classifies an event emitted to the progression tracker.
type GoalKind int

const (
	GoalEnemyKilled GoalKind = iota
	GoalAbilityUsed
)

func (k GoalKind) String() string {
	if k == GoalEnemyKilled {
		return "enemy_killed"
	}
	return "ability_used"
}

// ParseGoalKind maps "enemy_killed" or "ability_used" to a GoalKind.
func ParseGoalKind(s string) (GoalKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "enemy_killed":
		return GoalEnemyKilled, nil
	case "ability_used":
		return GoalAbilityUsed, nil
	default:
		return 0, fmt.Errorf("combat: unknown goal kind %q", s)
	}
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *GoalKind) UnmarshalText(b []byte) error {
	parsed, err := ParseGoalKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (k GoalKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// GoalEvent is emitted on kills and ability use.
// Subject is the killed combatant's template (or name) or the ability name.
// Count is the actor's running total for that subject.
type GoalEvent struct {
	Kind    GoalKind
	Actor   string
	Subject string
	Count   int
}

// GoalSink consumes goal events.
type GoalSink interface {
	Emit(GoalEvent)
}

// GoalSinkFunc adapts a function to GoalSink.
type GoalSinkFunc func(GoalEvent)

// Emit calls f(e).
func (f GoalSinkFunc) Emit(e GoalEvent) { f(e) }
