// Package arena stages configured matches as combat sessions and drives them
// at a fixed tick rate.
package arena

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/warchief/internal/game/combat"
	"github.com/cory-johannsen/warchief/internal/game/geom"
)

// Entry places one templated combatant in a match.
type Entry struct {
	Template string      `yaml:"template"`
	Side     combat.Side `yaml:"side"`
	Position geom.Vec3   `yaml:"position"`
}

// Match describes a fight between two sides built from NPC templates.
type Match struct {
	Name         string         `yaml:"name"`
	Sides        [2]combat.Side `yaml:"sides"`
	EndCondition string         `yaml:"end_condition"`
	MaxDuration  time.Duration  `yaml:"max_duration"`
	// Rounds caps how often the match is restaged; 0 means once, or without
	// limit when the runner rematches.
	Rounds     int     `yaml:"rounds"`
	Combatants []Entry `yaml:"combatants"`
}

// Validate checks the match shape without resolving templates.
func (m Match) Validate() error {
	var errs []error
	if m.Name == "" {
		errs = append(errs, fmt.Errorf("name must not be empty"))
	}
	if m.Sides[0] == "" || m.Sides[1] == "" || m.Sides[0] == m.Sides[1] {
		errs = append(errs, fmt.Errorf("sides must be two distinct names, got %q and %q", m.Sides[0], m.Sides[1]))
	}
	if m.EndCondition != "" {
		if _, err := combat.ParseEndCondition(m.EndCondition); err != nil {
			errs = append(errs, err)
		}
	}
	if m.MaxDuration < 0 {
		errs = append(errs, fmt.Errorf("max_duration must be >= 0"))
	}
	if m.Rounds < 0 {
		errs = append(errs, fmt.Errorf("rounds must be >= 0"))
	}
	counts := map[combat.Side]int{}
	for i, e := range m.Combatants {
		if e.Template == "" {
			errs = append(errs, fmt.Errorf("combatant %d: template must not be empty", i))
		}
		if e.Side != m.Sides[0] && e.Side != m.Sides[1] {
			errs = append(errs, fmt.Errorf("combatant %d: side %q is not in the match", i, e.Side))
		}
		counts[e.Side]++
	}
	for _, side := range m.Sides {
		if n := counts[side]; n < 1 || n > combat.MaxPerSide {
			errs = append(errs, fmt.Errorf("side %q has %d combatants, want 1..%d", side, n, combat.MaxPerSide))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("match %q: %w", m.Name, err)
	}
	return nil
}

// End returns the parsed end condition, falling back to def when unset.
func (m Match) End(def combat.EndCondition) combat.EndCondition {
	if m.EndCondition == "" {
		return def
	}
	ec, err := combat.ParseEndCondition(m.EndCondition)
	if err != nil {
		return def
	}
	return ec
}

type matchFile struct {
	Matches []Match `yaml:"matches"`
}

// LoadMatchesFromBytes parses a matches document and validates every match.
//
// Postcondition: match names are unique.
func LoadMatchesFromBytes(data []byte) ([]Match, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var f matchFile
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("parsing matches: %w", err)
	}
	seen := make(map[string]bool, len(f.Matches))
	for _, m := range f.Matches {
		if err := m.Validate(); err != nil {
			return nil, err
		}
		if seen[m.Name] {
			return nil, fmt.Errorf("match %q defined twice", m.Name)
		}
		seen[m.Name] = true
	}
	return f.Matches, nil
}

// LoadMatches reads and validates the matches file at path.
func LoadMatches(path string) ([]Match, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading matches %s: %w", path, err)
	}
	return LoadMatchesFromBytes(data)
}
