// Package ai implements the decision engine that drives AI-controlled combatants.
//
// Each tick the engine picks the weakest living enemy, steers toward the
// strategy's engagement distance, and selects an ability either greedily in
// slot order or by integer score. Scores may be adjusted by Lua hooks.
package ai

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Mode selects how an ability is chosen among the usable ones.
type Mode int

const (
	// Greedy uses the first usable ability in slot order.
	Greedy Mode = iota
	// Priority uses the highest scoring usable ability, ties to the earlier slot.
	Priority
)

func (m Mode) String() string {
	if m == Priority {
		return "priority"
	}
	return "greedy"
}

// UnmarshalText accepts "greedy" or "priority".
func (m *Mode) UnmarshalText(b []byte) error {
	switch strings.ToLower(string(b)) {
	case "greedy", "":
		*m = Greedy
	case "priority":
		*m = Priority
	default:
		return fmt.Errorf("ai: unknown mode %q", b)
	}
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

// Profile is the scoring personality of a strategy.
type Profile int

const (
	Balanced Profile = iota
	Aggressive
	Support
)

func (p Profile) String() string {
	switch p {
	case Aggressive:
		return "aggressive"
	case Support:
		return "support"
	default:
		return "balanced"
	}
}

// UnmarshalText accepts "aggressive", "support" or "balanced".
func (p *Profile) UnmarshalText(b []byte) error {
	switch strings.ToLower(string(b)) {
	case "balanced", "":
		*p = Balanced
	case "aggressive":
		*p = Aggressive
	case "support":
		*p = Support
	default:
		return fmt.Errorf("ai: unknown profile %q", b)
	}
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (p Profile) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

const (
	defaultCriticalHealth    = 0.3
	defaultAllyFullThreshold = 0.95
)

// Strategy is a named AI behavior loaded from YAML.
//
// Precondition: ID must be non-empty.
type Strategy struct {
	ID          string  `yaml:"id"`
	Description string  `yaml:"description"`
	Mode        Mode    `yaml:"mode"`
	Profile     Profile `yaml:"profile"`
	// PreferredDistance overrides the profile's engagement distance when > 0.
	PreferredDistance float64 `yaml:"preferred_distance"`
	// CriticalHealth is the health fraction below which self-preservation dominates.
	CriticalHealth float64 `yaml:"critical_health"`
	// AllyFullThreshold is the health fraction at which a support stops prioritising heals.
	AllyFullThreshold float64 `yaml:"ally_full_threshold"`
	// ScoreHook names a Lua function that may replace each ability's score.
	ScoreHook string `yaml:"score_hook"`
}

// DefaultStrategy is used for combatants whose strategy is unset or unknown.
func DefaultStrategy() Strategy {
	return Strategy{
		ID:                "default",
		Mode:              Greedy,
		Profile:           Balanced,
		CriticalHealth:    defaultCriticalHealth,
		AllyFullThreshold: defaultAllyFullThreshold,
	}
}

// EngagementDistance returns the distance the strategy tries to keep from its target.
func (s Strategy) EngagementDistance() float64 {
	if s.PreferredDistance > 0 {
		return s.PreferredDistance
	}
	switch s.Profile {
	case Aggressive:
		return 2
	case Support:
		return 10
	default:
		return 5
	}
}

// Validate checks required fields and ranges.
func (s Strategy) Validate() error {
	var errs []error
	if s.ID == "" {
		errs = append(errs, errors.New("id must not be empty"))
	}
	if s.PreferredDistance < 0 {
		errs = append(errs, fmt.Errorf("preferred_distance %v must be >= 0", s.PreferredDistance))
	}
	if s.CriticalHealth < 0 || s.CriticalHealth > 1 {
		errs = append(errs, fmt.Errorf("critical_health %v must be within [0,1]", s.CriticalHealth))
	}
	if s.AllyFullThreshold < 0 || s.AllyFullThreshold > 1 {
		errs = append(errs, fmt.Errorf("ally_full_threshold %v must be within [0,1]", s.AllyFullThreshold))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("ai strategy %q: %w", s.ID, err)
	}
	return nil
}

type strategyFile struct {
	Strategies []Strategy `yaml:"strategies"`
}

// LoadStrategiesFromBytes parses a strategies document.
//
// Postcondition: unset thresholds take their defaults; every strategy is valid.
func LoadStrategiesFromBytes(data []byte) ([]Strategy, error) {
	var f strategyFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("ai: parsing strategies: %w", err)
	}
	for i := range f.Strategies {
		s := &f.Strategies[i]
		if s.CriticalHealth == 0 {
			s.CriticalHealth = defaultCriticalHealth
		}
		if s.AllyFullThreshold == 0 {
			s.AllyFullThreshold = defaultAllyFullThreshold
		}
		if err := s.Validate(); err != nil {
			return nil, err
		}
	}
	return f.Strategies, nil
}

// LoadStrategies reads every *.yaml file in dir in lexical order.
//
// Precondition: dir must be a readable directory.
// Postcondition: returns an error if any file fails to parse or validate.
func LoadStrategies(dir string) ([]Strategy, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("ai.LoadStrategies: reading %q: %w", dir, err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	var out []Strategy
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("ai.LoadStrategies: reading %s: %w", name, err)
		}
		ss, err := LoadStrategiesFromBytes(data)
		if err != nil {
			return nil, fmt.Errorf("ai.LoadStrategies: %s: %w", name, err)
		}
		out = append(out, ss...)
	}
	return out, nil
}
