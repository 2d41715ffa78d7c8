package inventory

import (
	"fmt"
	"sort"
)

// Registry holds all loaded gear definitions indexed by ID.
type Registry struct {
	gear map[string]*GearDef
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{gear: make(map[string]*GearDef)}
}

// Register adds g to the registry.
//
// Precondition:  g must not be nil.
// Postcondition: Gear(g.ID) returns g; returns error if g.ID already registered.
func (r *Registry) Register(g *GearDef) error {
	if _, exists := r.gear[g.ID]; exists {
		return fmt.Errorf("inventory: Registry.Register: gear ID %q already registered", g.ID)
	}
	r.gear[g.ID] = g
	return nil
}

// Gear returns the definition for id and whether it was found.
func (r *Registry) Gear(id string) (*GearDef, bool) {
	g, ok := r.gear[id]
	return g, ok
}

// IDs returns every registered ID sorted.
func (r *Registry) IDs() []string {
	out := make([]string, 0, len(r.gear))
	for id := range r.gear {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// DamageMultiplier returns the product of the damage multipliers of the given gear.
// An empty loadout yields 1.
//
// Postcondition: returns an error naming the first unknown ID, or two pieces sharing a slot.
func (r *Registry) DamageMultiplier(ids ...string) (float64, error) {
	m := 1.0
	used := make(map[Slot]string, len(ids))
	for _, id := range ids {
		g, ok := r.gear[id]
		if !ok {
			return 0, fmt.Errorf("inventory: unknown gear %q", id)
		}
		if g.Slot != SlotRing {
			if prev, taken := used[g.Slot]; taken {
				return 0, fmt.Errorf("inventory: %q and %q both occupy slot %s", prev, id, g.Slot)
			}
			used[g.Slot] = id
		}
		m *= g.DamageMultiplier
	}
	return m, nil
}
