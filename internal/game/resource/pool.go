// Package resource implements the per-combatant Resource Ledger: five independent
// coloured pools with caps, pluggable regeneration, and affordability checks.
package resource

import (
	"fmt"
	"strings"
)

// Pool identifies one of the five coloured resource pools.
type Pool int

const (
	Red Pool = iota
	Green
	Blue
	Yellow
	Purple
)

// PoolCount is the number of independent pools every ledger carries.
const PoolCount = 5

var poolNames = [PoolCount]string{"red", "green", "blue", "yellow", "purple"}

// String returns the lower-case colour name.
func (p Pool) String() string {
	if !p.Valid() {
		return "unknown"
	}
	return poolNames[p]
}

// Valid reports whether p is one of the five pools.
func (p Pool) Valid() bool { return p >= 0 && int(p) < PoolCount }

// ParsePool maps a colour name to its Pool.
//
// Postcondition: returns an error for any name that is not one of the five colours.
func ParsePool(name string) (Pool, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for i, pn := range poolNames {
		if pn == n {
			return Pool(i), nil
		}
	}
	return 0, fmt.Errorf("resource: unknown pool %q", name)
}

// AllPools returns the pools in declaration order.
func AllPools() []Pool {
	return []Pool{Red, Green, Blue, Yellow, Purple}
}

// UnmarshalText lets pools be decoded from YAML and config by name.
func (p *Pool) UnmarshalText(text []byte) error {
	parsed, err := ParsePool(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// MarshalText encodes the pool by name.
func (p Pool) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("resource: invalid pool %d", int(p))
	}
	return []byte(p.String()), nil
}

// Cost is an amount drawn from one pool. The zero Cost is free.
type Cost struct {
	Pool   Pool    `yaml:"pool" json:"pool"`
	Amount float64 `yaml:"amount" json:"amount"`
}

// IsFree reports whether c requires nothing.
func (c Cost) IsFree() bool { return c.Amount <= 0 }

// Scaled returns c with its amount multiplied by m.
func (c Cost) Scaled(m float64) Cost {
	return Cost{Pool: c.Pool, Amount: c.Amount * m}
}

// Shortfall describes one pool that cannot cover a requested cost.
type Shortfall struct {
	Pool Pool
	Have float64
	Need float64
}

// String renders the shortfall as "red 3.0/10.0".
func (s Shortfall) String() string {
	return fmt.Sprintf("%s %.1f/%.1f", s.Pool, s.Have, s.Need)
}
