package resource

import (
	"fmt"
	"time"
)

// Ledger holds a combatant's five pools and their caps.
//
// Invariant: 0 <= value[p] <= max[p] for every pool p.
// A Ledger is owned by exactly one combatant and is not safe for concurrent use.
type Ledger struct {
	values [PoolCount]float64
	maxes  [PoolCount]float64
	regen  [PoolCount]Regenerator
}

// NewLedger creates a ledger with the given caps, every pool full.
//
// Precondition: every max must be >= 0.
// Postcondition: Value(p) == Max(p) for all pools.
func NewLedger(maxes [PoolCount]float64) *Ledger {
	l := &Ledger{}
	for i, m := range maxes {
		if m < 0 {
			m = 0
		}
		l.maxes[i] = m
		l.values[i] = m
	}
	return l
}

// Value returns the current amount in p.
func (l *Ledger) Value(p Pool) float64 {
	if !p.Valid() {
		return 0
	}
	return l.values[p]
}

// Max returns the cap for p.
func (l *Ledger) Max(p Pool) float64 {
	if !p.Valid() {
		return 0
	}
	return l.maxes[p]
}

// Values returns a copy of every pool's current amount.
func (l *Ledger) Values() [PoolCount]float64 { return l.values }

// Maxes returns a copy of every pool's cap.
func (l *Ledger) Maxes() [PoolCount]float64 { return l.maxes }

// Credit adds amount to p, clamping the result to [0, Max(p)]. A negative amount drains.
//
// Postcondition: 0 <= Value(p) <= Max(p).
func (l *Ledger) Credit(p Pool, amount float64) {
	if !p.Valid() {
		return
	}
	l.values[p] = clamp(l.values[p]+amount, 0, l.maxes[p])
}

// CanAfford reports whether every required pool holds at least the requested amount.
// A free primary with no secondary always succeeds.
func (l *Ledger) CanAfford(primary Cost, secondary *Cost) bool {
	return len(l.Shortfalls(primary, secondary)) == 0
}

// Shortfalls lists each required pool that cannot cover its cost.
// When primary and secondary draw from the same pool their amounts are summed.
//
// Postcondition: returns nil iff CanAfford(primary, secondary).
func (l *Ledger) Shortfalls(primary Cost, secondary *Cost) []Shortfall {
	var need [PoolCount]float64
	var touched [PoolCount]bool
	add := func(c Cost) {
		if c.IsFree() || !c.Pool.Valid() {
			return
		}
		need[c.Pool] += c.Amount
		touched[c.Pool] = true
	}
	add(primary)
	if secondary != nil {
		add(*secondary)
	}
	var out []Shortfall
	for i := range need {
		if touched[i] && l.values[i] < need[i] {
			out = append(out, Shortfall{Pool: Pool(i), Have: l.values[i], Need: need[i]})
		}
	}
	return out
}

// TrySpend checks affordability and debits in one step so the check and the
// debit can never be separated.
//
// Postcondition: on success every required pool is reduced by its cost;
// on failure no pool changes and the shortfalls are returned.
func (l *Ledger) TrySpend(primary Cost, secondary *Cost) ([]Shortfall, bool) {
	if short := l.Shortfalls(primary, secondary); len(short) > 0 {
		return short, false
	}
	l.debit(primary)
	if secondary != nil {
		l.debit(*secondary)
	}
	return nil, true
}

func (l *Ledger) debit(c Cost) {
	if c.IsFree() || !c.Pool.Valid() {
		return
	}
	l.values[c.Pool] = clamp(l.values[c.Pool]-c.Amount, 0, l.maxes[c.Pool])
}

// SetRegenerator installs r as the regeneration rule for p; nil disables regen for p.
func (l *Ledger) SetRegenerator(p Pool, r Regenerator) error {
	if !p.Valid() {
		return fmt.Errorf("resource: SetRegenerator: invalid pool %d", int(p))
	}
	l.regen[p] = r
	return nil
}

// Advance applies each pool's regenerator once for a tick of length dt.
//
// Precondition: dt >= 0.
// Postcondition: every pool stays within [0, Max].
func (l *Ledger) Advance(dt time.Duration, ctx RegenContext) {
	if dt <= 0 {
		return
	}
	for i, r := range l.regen {
		if r == nil {
			continue
		}
		l.Credit(Pool(i), r.Amount(Pool(i), ctx, dt))
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
