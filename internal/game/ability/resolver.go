package ability

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrUnknownAbility is returned when an identity is not registered in the catalog.
var ErrUnknownAbility = errors.New("unknown ability")

// UnknownAbilityError names the identity that failed to resolve.
type UnknownAbilityError struct {
	Name string
}

func (e *UnknownAbilityError) Error() string {
	return fmt.Sprintf("unknown ability %q", e.Name)
}

// Is reports ErrUnknownAbility.
func (e *UnknownAbilityError) Is(target error) bool { return target == ErrUnknownAbility }

// Resolver merges registered overrides onto catalog definitions.
// Resolver is safe for concurrent use; overrides may be replaced while the
// simulation reads.
type Resolver struct {
	catalog *Catalog

	mu        sync.RWMutex
	overrides map[string]Override
	effective map[string]Definition
}

// NewResolver creates a Resolver over catalog with no overrides.
//
// Precondition: catalog must not be nil.
func NewResolver(catalog *Catalog) *Resolver {
	return &Resolver{
		catalog:   catalog,
		overrides: make(map[string]Override),
		effective: make(map[string]Definition),
	}
}

// Catalog returns the underlying catalog.
func (r *Resolver) Catalog() *Catalog { return r.catalog }

// Resolve returns the effective definition for name: the base definition with
// any registered override merged on top. It never substitutes another ability.
//
// Postcondition: on success the result's Name equals name; otherwise the error
// is an *UnknownAbilityError.
func (r *Resolver) Resolve(name string) (Definition, error) {
	r.mu.RLock()
	eff, ok := r.effective[name]
	r.mu.RUnlock()
	if ok {
		return eff.Clone(), nil
	}
	base, ok := r.catalog.Lookup(name)
	if !ok {
		return Definition{}, &UnknownAbilityError{Name: name}
	}
	return base, nil
}

// SetOverride registers o, replacing any earlier override for the same name.
// The merge is computed and validated here so Resolve can never fail for a
// registered name.
func (r *Resolver) SetOverride(o Override) error {
	base, ok := r.catalog.Lookup(o.Name)
	if !ok {
		return fmt.Errorf("ability: set override: %w", &UnknownAbilityError{Name: o.Name})
	}
	merged, err := o.Apply(base)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.overrides[o.Name] = o
	r.effective[o.Name] = merged
	return nil
}

// ClearOverride removes any override for name and reports whether one existed.
func (r *Resolver) ClearOverride(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.overrides[name]
	delete(r.overrides, name)
	delete(r.effective, name)
	return ok
}

// Overrides returns a snapshot of registered overrides sorted by name.
func (r *Resolver) Overrides() []Override {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Override, 0, len(r.overrides))
	for _, o := range r.overrides {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
