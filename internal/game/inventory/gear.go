// Package inventory provides gear definitions and the equipped-gear damage
// multiplier consumed by the damage pipeline.
package inventory

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Slot identifies an equipment slot.
type Slot string

const (
	// SlotMainHand is the primary weapon slot.
	SlotMainHand Slot = "main_hand"
	// SlotOffHand is the secondary weapon or focus slot.
	SlotOffHand Slot = "off_hand"
	SlotHead    Slot = "head"
	SlotTorso   Slot = "torso"
	SlotHands   Slot = "hands"
	SlotFeet    Slot = "feet"
	SlotNeck    Slot = "neck"
	SlotRing    Slot = "ring"
)

var validSlots = map[Slot]string{
	SlotMainHand: "Main Hand",
	SlotOffHand:  "Off Hand",
	SlotHead:     "Head",
	SlotTorso:    "Torso",
	SlotHands:    "Hands",
	SlotFeet:     "Feet",
	SlotNeck:     "Neck",
	SlotRing:     "Ring",
}

// DisplayName returns the human-readable label for the slot, or the slot itself if unknown.
func (s Slot) DisplayName() string {
	if label, ok := validSlots[s]; ok {
		return label
	}
	return string(s)
}

// GearDef is the static definition of a piece of equipment.
type GearDef struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
	Slot Slot   `yaml:"slot"`
	// DamageMultiplier scales outgoing damage while equipped; 0 in YAML means 1.
	DamageMultiplier float64 `yaml:"damage_multiplier"`
}

// Validate checks the definition.
//
// Postcondition: Returns nil iff ID and Name are non-empty, Slot is known, and DamageMultiplier > 0.
func (g *GearDef) Validate() error {
	if g.ID == "" {
		return fmt.Errorf("gear: id must not be empty")
	}
	if g.Name == "" {
		return fmt.Errorf("gear %q: name must not be empty", g.ID)
	}
	if _, ok := validSlots[g.Slot]; !ok {
		return fmt.Errorf("gear %q: unknown slot %q", g.ID, g.Slot)
	}
	if g.DamageMultiplier <= 0 {
		return fmt.Errorf("gear %q: damage_multiplier must be > 0", g.ID)
	}
	return nil
}

// LoadGearFromBytes parses one gear definition.
func LoadGearFromBytes(data []byte) (*GearDef, error) {
	var g GearDef
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&g); err != nil {
		return nil, fmt.Errorf("parsing gear: %w", err)
	}
	if g.DamageMultiplier == 0 {
		g.DamageMultiplier = 1
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return &g, nil
}

// LoadGear reads every *.yaml file in dir and returns a populated Registry.
//
// Precondition: dir must be a readable directory.
func LoadGear(dir string) (*Registry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading gear dir %q: %w", dir, err)
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
		g, err := LoadGearFromBytes(data)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", path, err)
		}
		if err := reg.Register(g); err != nil {
			return nil, err
		}
	}
	return reg, nil
}
