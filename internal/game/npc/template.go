// Package npc provides combatant template definitions and spawning.
package npc

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/warchief/internal/game/geom"
	"github.com/cory-johannsen/warchief/internal/game/resource"
	"github.com/cory-johannsen/warchief/internal/game/timers"
)

// ProximitySpec refills a pool while the combatant stands near any source.
type ProximitySpec struct {
	Sources []geom.Vec3 `yaml:"sources"`
	Radius  float64     `yaml:"radius"`
	Rate    float64     `yaml:"rate"`
}

// RegenSpec is the regeneration configured for one pool: a passive rate,
// optionally paused in combat, plus an optional proximity refill.
type RegenSpec struct {
	Rate            float64        `yaml:"rate"`
	OutOfCombatOnly bool           `yaml:"out_of_combat_only"`
	Proximity       *ProximitySpec `yaml:"proximity"`
}

// Template defines a reusable combatant archetype loaded from YAML.
type Template struct {
	ID          string  `yaml:"id"`
	Name        string  `yaml:"name"`
	Description string  `yaml:"description"`
	MaxHealth   float64 `yaml:"max_health"`
	MoveSpeed   float64 `yaml:"move_speed"`
	// Pools maps a pool colour ("red", "blue", ...) to its maximum.
	Pools map[string]float64   `yaml:"pools"`
	Regen map[string]RegenSpec `yaml:"regen"`
	// Abilities fill slots 0..9 in order.
	Abilities []string `yaml:"abilities"`
	Stance    string   `yaml:"stance"`
	Strategy  string   `yaml:"strategy"`
	Gear      []string `yaml:"gear"`
}

// Validate checks the template's own fields. References to abilities, stances,
// gear and strategies are checked by Spawner.Register.
//
// Precondition: t must not be nil.
// Postcondition: Returns nil iff ID and Name are non-empty, MaxHealth > 0,
// at most timers.SlotCount abilities are declared, and every pool name is valid.
func (t *Template) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("npc template: id must not be empty")
	}
	if t.Name == "" {
		return fmt.Errorf("npc template %q: name must not be empty", t.ID)
	}
	if t.MaxHealth <= 0 {
		return fmt.Errorf("npc template %q: max_health must be > 0", t.ID)
	}
	if t.MoveSpeed < 0 {
		return fmt.Errorf("npc template %q: move_speed must be >= 0", t.ID)
	}
	if len(t.Abilities) > timers.SlotCount {
		return fmt.Errorf("npc template %q: %d abilities exceeds %d slots", t.ID, len(t.Abilities), timers.SlotCount)
	}
	for name, v := range t.Pools {
		if _, err := resource.ParsePool(name); err != nil {
			return fmt.Errorf("npc template %q: %w", t.ID, err)
		}
		if v < 0 {
			return fmt.Errorf("npc template %q: pool %s max must be >= 0", t.ID, name)
		}
	}
	for name, r := range t.Regen {
		if _, err := resource.ParsePool(name); err != nil {
			return fmt.Errorf("npc template %q: regen: %w", t.ID, err)
		}
		if r.Rate < 0 {
			return fmt.Errorf("npc template %q: regen %s rate must be >= 0", t.ID, name)
		}
		if px := r.Proximity; px != nil {
			if len(px.Sources) == 0 {
				return fmt.Errorf("npc template %q: regen %s proximity needs at least one source", t.ID, name)
			}
			if px.Radius <= 0 {
				return fmt.Errorf("npc template %q: regen %s proximity radius must be > 0", t.ID, name)
			}
			if px.Rate < 0 {
				return fmt.Errorf("npc template %q: regen %s proximity rate must be >= 0", t.ID, name)
			}
		}
	}
	return nil
}

// PoolMaxes returns the pool maxima indexed by pool.
//
// Precondition: t.Validate() returned nil.
func (t *Template) PoolMaxes() [resource.PoolCount]float64 {
	var out [resource.PoolCount]float64
	for name, v := range t.Pools {
		p, _ := resource.ParsePool(name)
		out[p] = v
	}
	return out
}

// Regenerators returns the configured regenerators indexed by pool; nil entries do not regenerate.
//
// Precondition: t.Validate() returned nil.
func (t *Template) Regenerators() [resource.PoolCount]resource.Regenerator {
	var out [resource.PoolCount]resource.Regenerator
	for name, r := range t.Regen {
		p, _ := resource.ParsePool(name)
		passive := resource.PassiveRegen{RatePerSecond: r.Rate, OutOfCombatOnly: r.OutOfCombatOnly}
		if r.Proximity == nil {
			out[p] = passive
			continue
		}
		near := resource.ProximityRegen{Sources: r.Proximity.Sources, Radius: r.Proximity.Radius, RatePerSecond: r.Proximity.Rate}
		if r.Rate == 0 {
			out[p] = near
		} else {
			out[p] = resource.Chain{passive, near}
		}
	}
	return out
}

// LoadTemplateFromBytes parses a single template from raw YAML bytes.
//
// Precondition: data must be valid YAML for a single Template.
// Postcondition: Returns a validated *Template, or an error.
func LoadTemplateFromBytes(data []byte) (*Template, error) {
	var tmpl Template
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&tmpl); err != nil {
		return nil, fmt.Errorf("parsing template YAML: %w", err)
	}
	if err := tmpl.Validate(); err != nil {
		return nil, err
	}
	return &tmpl, nil
}

// LoadTemplates reads all *.yaml files in dir in lexical order.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns all templates or an error on the first parse or validate
// failure; on error, the partial result is discarded.
func LoadTemplates(dir string) ([]*Template, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading npc dir %q: %w", dir, err)
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	var templates []*Template
	for _, name := range names {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}
		tmpl, err := LoadTemplateFromBytes(data)
		if err != nil {
			return nil, fmt.Errorf("loading %q: %w", path, err)
		}
		templates = append(templates, tmpl)
	}
	return templates, nil
}
