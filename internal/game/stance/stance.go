// Package stance provides named multiplier bundles applied to a combatant's actions,
// with the same sparse override layer abilities use.
package stance

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// ErrUnknownStance is returned when a stance name is not registered.
var ErrUnknownStance = errors.New("unknown stance")

// NeutralName is the stance every combatant falls back to when none is declared.
const NeutralName = "neutral"

// Definition is a named bundle of multiplicative modifiers.
type Definition struct {
	Name                  string  `yaml:"name" json:"name"`
	DamageMultiplier      float64 `yaml:"damage_multiplier" json:"damage_multiplier"`
	DamageTakenMultiplier float64 `yaml:"damage_taken_multiplier" json:"damage_taken_multiplier"`
	HealingMultiplier     float64 `yaml:"healing_multiplier" json:"healing_multiplier"`
	CooldownMultiplier    float64 `yaml:"cooldown_multiplier" json:"cooldown_multiplier"`
	CostMultiplier        float64 `yaml:"cost_multiplier" json:"cost_multiplier"`
	MovementMultiplier    float64 `yaml:"movement_multiplier" json:"movement_multiplier"`
	// Lifesteal is the fraction of dealt damage returned to the caster as health.
	Lifesteal float64 `yaml:"lifesteal" json:"lifesteal"`
}

// Neutral returns the identity stance: every multiplier 1, no lifesteal.
func Neutral() Definition {
	return Definition{
		Name:                  NeutralName,
		DamageMultiplier:      1,
		DamageTakenMultiplier: 1,
		HealingMultiplier:     1,
		CooldownMultiplier:    1,
		CostMultiplier:        1,
		MovementMultiplier:    1,
	}
}

// Validate checks that no multiplier is negative and lifesteal lies in [0, 1].
func (d Definition) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("stance: name must not be empty")
	}
	for field, v := range map[string]float64{
		"damage_multiplier":       d.DamageMultiplier,
		"damage_taken_multiplier": d.DamageTakenMultiplier,
		"healing_multiplier":      d.HealingMultiplier,
		"cooldown_multiplier":     d.CooldownMultiplier,
		"cost_multiplier":         d.CostMultiplier,
		"movement_multiplier":     d.MovementMultiplier,
	} {
		if v < 0 {
			return fmt.Errorf("stance %q: %s must be >= 0", d.Name, field)
		}
	}
	if d.Lifesteal < 0 || d.Lifesteal > 1 {
		return fmt.Errorf("stance %q: lifesteal must be within [0,1]", d.Name)
	}
	return nil
}

// Override is a sparse patch keyed by stance name.
type Override struct {
	Name                  string   `yaml:"name" json:"name"`
	DamageMultiplier      *float64 `yaml:"damage_multiplier,omitempty" json:"damage_multiplier,omitempty"`
	DamageTakenMultiplier *float64 `yaml:"damage_taken_multiplier,omitempty" json:"damage_taken_multiplier,omitempty"`
	HealingMultiplier     *float64 `yaml:"healing_multiplier,omitempty" json:"healing_multiplier,omitempty"`
	CooldownMultiplier    *float64 `yaml:"cooldown_multiplier,omitempty" json:"cooldown_multiplier,omitempty"`
	CostMultiplier        *float64 `yaml:"cost_multiplier,omitempty" json:"cost_multiplier,omitempty"`
	MovementMultiplier    *float64 `yaml:"movement_multiplier,omitempty" json:"movement_multiplier,omitempty"`
	Lifesteal             *float64 `yaml:"lifesteal,omitempty" json:"lifesteal,omitempty"`
}

// Apply merges o onto base and validates the result.
func (o Override) Apply(base Definition) (Definition, error) {
	out := base
	set := func(dst *float64, src *float64) {
		if src != nil {
			*dst = *src
		}
	}
	set(&out.DamageMultiplier, o.DamageMultiplier)
	set(&out.DamageTakenMultiplier, o.DamageTakenMultiplier)
	set(&out.HealingMultiplier, o.HealingMultiplier)
	set(&out.CooldownMultiplier, o.CooldownMultiplier)
	set(&out.CostMultiplier, o.CostMultiplier)
	set(&out.MovementMultiplier, o.MovementMultiplier)
	set(&out.Lifesteal, o.Lifesteal)
	if err := out.Validate(); err != nil {
		return Definition{}, fmt.Errorf("stance override %q: %w", o.Name, err)
	}
	return out, nil
}

// Registry resolves stance names to effective definitions.
// The neutral stance is always registered. Registry is safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	base      map[string]Definition
	overrides map[string]Override
	effective map[string]Definition
}

// NewRegistry creates a Registry containing only the neutral stance.
func NewRegistry() *Registry {
	r := &Registry{
		base:      make(map[string]Definition),
		overrides: make(map[string]Override),
		effective: make(map[string]Definition),
	}
	r.base[NeutralName] = Neutral()
	return r
}

// Register adds def, rejecting duplicates and invalid definitions.
func (r *Registry) Register(def Definition) error {
	if err := def.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.base[def.Name]; dup {
		return fmt.Errorf("stance: duplicate stance %q", def.Name)
	}
	r.base[def.Name] = def
	return nil
}

// Resolve returns the effective definition for name. An empty name resolves to neutral.
//
// Postcondition: an unregistered name yields an error wrapping ErrUnknownStance.
func (r *Registry) Resolve(name string) (Definition, error) {
	if name == "" {
		name = NeutralName
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if d, ok := r.effective[name]; ok {
		return d, nil
	}
	if d, ok := r.base[name]; ok {
		return d, nil
	}
	return Definition{}, fmt.Errorf("stance %q: %w", name, ErrUnknownStance)
}

// SetOverride registers o for an existing stance.
func (r *Registry) SetOverride(o Override) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	base, ok := r.base[o.Name]
	if !ok {
		return fmt.Errorf("stance %q: %w", o.Name, ErrUnknownStance)
	}
	merged, err := o.Apply(base)
	if err != nil {
		return err
	}
	r.overrides[o.Name] = o
	r.effective[o.Name] = merged
	return nil
}

// ClearOverride removes any override for name.
func (r *Registry) ClearOverride(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.overrides, name)
	delete(r.effective, name)
}

// Names returns every registered stance name sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.base))
	for n := range r.base {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// LoadStanceFromBytes parses one stance; omitted multipliers default to neutral.
func LoadStanceFromBytes(data []byte) (Definition, error) {
	def := Neutral()
	def.Name = ""
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&def); err != nil {
		return Definition{}, fmt.Errorf("parsing stance: %w", err)
	}
	if err := def.Validate(); err != nil {
		return Definition{}, err
	}
	return def, nil
}

// LoadDirectory reads every *.yaml file in dir as one stance and returns a populated Registry.
//
// Precondition: dir must be a readable directory.
func LoadDirectory(dir string) (*Registry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading stance dir %q: %w", dir, err)
	}
	reg := NewRegistry()
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}
		def, err := LoadStanceFromBytes(data)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", path, err)
		}
		if err := reg.Register(def); err != nil {
			return nil, fmt.Errorf("%q: %w", path, err)
		}
	}
	return reg, nil
}
