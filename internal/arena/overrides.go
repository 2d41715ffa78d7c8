package arena

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/warchief/internal/game/ability"
	"github.com/cory-johannsen/warchief/internal/game/stance"
)

// OverrideSet is the on-disk shape of a user override file: sparse ability
// patches under "overrides" and sparse stance patches under "stances".
type OverrideSet struct {
	Abilities []ability.Override `yaml:"overrides"`
	Stances   []stance.Override  `yaml:"stances"`
}

// ParseOverrideSet decodes an override file, rejecting unknown keys and unnamed entries.
func ParseOverrideSet(data []byte) (OverrideSet, error) {
	var s OverrideSet
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil && !errors.Is(err, io.EOF) {
		return OverrideSet{}, fmt.Errorf("parsing overrides: %w", err)
	}
	for i, o := range s.Abilities {
		if o.Name == "" {
			return OverrideSet{}, fmt.Errorf("ability override %d: name must not be empty", i)
		}
	}
	for i, o := range s.Stances {
		if o.Name == "" {
			return OverrideSet{}, fmt.Errorf("stance override %d: name must not be empty", i)
		}
	}
	return s, nil
}

// LoadOverrideSet reads and parses the override file at path.
func LoadOverrideSet(path string) (OverrideSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return OverrideSet{}, fmt.Errorf("reading overrides %q: %w", path, err)
	}
	return ParseOverrideSet(data)
}

// ApplyStances registers every stance override with reg, stopping at the first failure.
//
// Precondition: every overridden stance is already registered.
func (s OverrideSet) ApplyStances(reg *stance.Registry) error {
	for _, o := range s.Stances {
		if err := reg.SetOverride(o); err != nil {
			return err
		}
	}
	return nil
}
