package condition

// OutgoingMultiplier returns the product of (1 + Magnitude) over every Buff.
//
// Postcondition: Returns 1 when no buffs are attached; never negative.
func (l *Ledger) OutgoingMultiplier() float64 {
	return l.product(Buff)
}

// IncomingMultiplier returns the product of (1 + Magnitude) over every Debuff.
//
// Postcondition: Returns 1 when no debuffs are attached; never negative.
func (l *Ledger) IncomingMultiplier() float64 {
	return l.product(Debuff)
}

func (l *Ledger) product(k Kind) float64 {
	m := 1.0
	for _, e := range l.effects {
		if e.Kind == k {
			m *= 1 + e.Magnitude
		}
	}
	if m < 0 {
		return 0
	}
	return m
}

// IsStunned reports whether a Stun is attached.
func (l *Ledger) IsStunned() bool { return l.Has(Stun) }

// IsRooted reports whether a Root or Stun is attached.
func (l *Ledger) IsRooted() bool { return l.Has(Root) || l.Has(Stun) }

// IsSilenced reports whether a Silence is attached.
func (l *Ledger) IsSilenced() bool { return l.Has(Silence) }
