package ai

import (
	"fmt"
	"sort"
)

// Registry indexes Strategies by ID.
//
// Invariant: each strategy ID is registered at most once.
type Registry struct {
	strategies map[string]Strategy
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{strategies: make(map[string]Strategy)}
}

// Register validates and stores s.
//
// Postcondition: returns error on validation failure or ID collision.
func (r *Registry) Register(s Strategy) error {
	if err := s.Validate(); err != nil {
		return err
	}
	if _, exists := r.strategies[s.ID]; exists {
		return fmt.Errorf("ai.Registry: strategy %q already registered", s.ID)
	}
	r.strategies[s.ID] = s
	return nil
}

// Strategy returns the strategy with id, or false if not registered.
func (r *Registry) Strategy(id string) (Strategy, bool) {
	s, ok := r.strategies[id]
	return s, ok
}

// IDs returns every registered strategy ID in sorted order.
func (r *Registry) IDs() []string {
	out := make([]string, 0, len(r.strategies))
	for id := range r.strategies {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
