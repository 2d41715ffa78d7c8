package combat

import (
	"fmt"
	"time"
)

// AuditKind classifies an audit-log entry.
type AuditKind int

const (
	AuditDamage AuditKind = iota
	AuditHeal
	AuditPeriodicDamage
	AuditPeriodicHeal
	AuditLifesteal
)

var auditKindNames = [...]string{"damage", "heal", "periodic_damage", "periodic_heal", "lifesteal"}

func (k AuditKind) String() string {
	if k < 0 || int(k) >= len(auditKindNames) {
		return fmt.Sprintf("audit(%d)", int(k))
	}
	return auditKindNames[k]
}

// MarshalText encodes the kind by name.
func (k AuditKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// UnmarshalText decodes a kind by name.
func (k *AuditKind) UnmarshalText(text []byte) error {
	for i, n := range auditKindNames {
		if n == string(text) {
			*k = AuditKind(i)
			return nil
		}
	}
	return fmt.Errorf("combat: unknown audit kind %q", text)
}

// AuditEntry records one hit, periodic tick, heal, or lifesteal.
// Amount is the computed magnitude; Applied is the health actually changed after clamping.
type AuditEntry struct {
	Seq     uint64        `json:"seq"`
	At      time.Duration `json:"at"`
	Actor   string        `json:"actor"`
	Ability string        `json:"ability"`
	Target  string        `json:"target"`
	Kind    AuditKind     `json:"kind"`
	Amount  float64       `json:"amount"`
	Applied float64       `json:"applied"`
}

// AuditLog is an append-only record of every health mutation.
type AuditLog struct {
	entries []AuditEntry
	next    uint64
}

// Append stamps e with the next sequence number and records it.
func (l *AuditLog) Append(e AuditEntry) AuditEntry {
	l.next++
	e.Seq = l.next
	l.entries = append(l.entries, e)
	return e
}

// Len returns the number of entries.
func (l *AuditLog) Len() int { return len(l.entries) }

// Entries returns a copy of every entry in order.
func (l *AuditLog) Entries() []AuditEntry {
	return append([]AuditEntry(nil), l.entries...)
}

// Since returns a copy of every entry with Seq > seq, for incremental consumers.
func (l *AuditLog) Since(seq uint64) []AuditEntry {
	if seq >= l.next {
		return nil
	}
	// Seq values are dense and start at 1.
	return append([]AuditEntry(nil), l.entries[seq:]...)
}
