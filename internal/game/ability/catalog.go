package ability

import (
	"fmt"
	"sort"
	"sync"
)

// Catalog is the authoritative, append-only set of base ability definitions.
// Every name lives in a single flat index regardless of category, so categories
// added after construction resolve exactly like the initial ones.
// Catalog is safe for concurrent use.
type Catalog struct {
	mu         sync.RWMutex
	byName     map[string]Definition
	categories map[string][]string
	order      []string
}

// NewCatalog creates an empty Catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		byName:     make(map[string]Definition),
		categories: make(map[string][]string),
	}
}

// Register adds def under its own Category.
//
// Precondition: def.Category is non-empty and def.Validate() returns nil.
// Postcondition: Lookup(def.Name) returns def; duplicate names are rejected.
func (c *Catalog) Register(def Definition) error {
	if def.Category == "" {
		return fmt.Errorf("ability: %q has no category", def.Name)
	}
	return c.AddCategory(def.Category, []Definition{def})
}

// AddCategory registers every definition in defs under category, creating the
// category if needed. The whole batch is validated first; on error nothing is registered.
func (c *Catalog) AddCategory(category string, defs []Definition) error {
	if category == "" {
		return fmt.Errorf("ability: category name must not be empty")
	}
	seen := make(map[string]bool, len(defs))
	staged := make([]Definition, 0, len(defs))
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, d := range defs {
		d = d.Clone()
		d.Category = category
		if err := d.Validate(); err != nil {
			return fmt.Errorf("ability: category %q: %w", category, err)
		}
		if _, dup := c.byName[d.Name]; dup || seen[d.Name] {
			return fmt.Errorf("ability: duplicate ability name %q", d.Name)
		}
		seen[d.Name] = true
		staged = append(staged, d)
	}
	if _, ok := c.categories[category]; !ok {
		c.order = append(c.order, category)
	}
	for _, d := range staged {
		c.byName[d.Name] = d
		c.categories[category] = append(c.categories[category], d.Name)
	}
	return nil
}

// Lookup returns a copy of the base definition for name.
func (c *Catalog) Lookup(name string) (Definition, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d, ok := c.byName[name]
	if !ok {
		return Definition{}, false
	}
	return d.Clone(), true
}

// Categories returns category names in the order they were first added.
func (c *Catalog) Categories() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.order...)
}

// InCategory returns the names registered in category, in registration order.
func (c *Catalog) InCategory(category string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.categories[category]...)
}

// Names returns every registered name sorted.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.byName))
	for n := range c.byName {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of registered abilities.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.byName)
}
