package combat

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cory-johannsen/warchief/internal/game/resource"
)

var (
	// ErrInsufficientResource marks an action blocked because a pool cannot cover its cost.
	ErrInsufficientResource = errors.New("insufficient resource")
	// ErrUnavailable marks an action blocked for a reason other than cost.
	ErrUnavailable = errors.New("action unavailable")
	// ErrTargetLost marks an execution that ended because its target died or vanished.
	ErrTargetLost = errors.New("target lost")
	// ErrUnknownCombatant marks a request naming a combatant not in the simulation.
	ErrUnknownCombatant = errors.New("unknown combatant")
	// ErrHalted marks an action attempted after the simulation was halted.
	ErrHalted = errors.New("simulation halted")
)

// UnknownAbilityError reports a slot whose ability identity does not resolve.
// It unwraps to the resolver's error, so errors.Is(err, ability.ErrUnknownAbility) holds.
type UnknownAbilityError struct {
	Actor    string
	Slot     int
	Identity string
	Err      error
}

func (e *UnknownAbilityError) Error() string {
	return fmt.Sprintf("combatant %q slot %d: unknown ability %q", e.Actor, e.Slot, e.Identity)
}

func (e *UnknownAbilityError) Unwrap() error { return e.Err }

// InsufficientResourceError lists every pool that could not cover the cost.
type InsufficientResourceError struct {
	Actor      string
	Ability    string
	Shortfalls []resource.Shortfall
}

func (e *InsufficientResourceError) Error() string {
	parts := make([]string, 0, len(e.Shortfalls))
	for _, s := range e.Shortfalls {
		parts = append(parts, s.String())
	}
	return fmt.Sprintf("combatant %q cannot afford %q: %s", e.Actor, e.Ability, strings.Join(parts, ", "))
}

func (e *InsufficientResourceError) Is(target error) bool { return target == ErrInsufficientResource }

// Reason is why an action was unavailable.
type Reason int

const (
	OnCooldown Reason = iota
	GateActive
	Busy
	InvalidTarget
	OutOfRange
	TargetDead
	ActorDead
	Stunned
	Silenced
	EmptySlot
	Rooted
)

var reasonNames = [...]string{
	"on cooldown", "action gate active", "already executing", "invalid target", "target out of range",
	"target dead", "actor dead", "stunned", "silenced", "empty slot", "rooted",
}

func (r Reason) String() string {
	if r < 0 || int(r) >= len(reasonNames) {
		return fmt.Sprintf("reason(%d)", int(r))
	}
	return reasonNames[r]
}

// UnavailableError reports a blocked action and why.
type UnavailableError struct {
	Actor   string
	Ability string
	Reason  Reason
}

func (e *UnavailableError) Error() string {
	if e.Ability == "" {
		return fmt.Sprintf("combatant %q: %s", e.Actor, e.Reason)
	}
	return fmt.Sprintf("combatant %q cannot use %q: %s", e.Actor, e.Ability, e.Reason)
}

func (e *UnavailableError) Is(target error) bool { return target == ErrUnavailable }

func unavailable(actor, ability string, r Reason) error {
	return &UnavailableError{Actor: actor, Ability: ability, Reason: r}
}
