package inventory_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/warchief/internal/game/inventory"
)

func registry(t *testing.T) *inventory.Registry {
	t.Helper()
	r := inventory.NewRegistry()
	require.NoError(t, r.Register(&inventory.GearDef{ID: "greataxe", Name: "Greataxe", Slot: inventory.SlotMainHand, DamageMultiplier: 1.2}))
	require.NoError(t, r.Register(&inventory.GearDef{ID: "ring_fury", Name: "Ring of Fury", Slot: inventory.SlotRing, DamageMultiplier: 1.1}))
	require.NoError(t, r.Register(&inventory.GearDef{ID: "dagger", Name: "Dagger", Slot: inventory.SlotMainHand, DamageMultiplier: 1.05}))
	return r
}

func TestDamageMultiplier_Product(t *testing.T) {
	r := registry(t)
	m, err := r.DamageMultiplier("greataxe", "ring_fury", "ring_fury")
	require.NoError(t, err)
	assert.InDelta(t, 1.2*1.1*1.1, m, 1e-9)

	m, err = r.DamageMultiplier()
	require.NoError(t, err)
	assert.Equal(t, 1.0, m)
}

func TestDamageMultiplier_Errors(t *testing.T) {
	r := registry(t)
	_, err := r.DamageMultiplier("excalibur")
	assert.Error(t, err)
	_, err = r.DamageMultiplier("greataxe", "dagger")
	assert.Error(t, err, "two main-hand items")
}

func TestRegister_Duplicate(t *testing.T) {
	r := registry(t)
	assert.Error(t, r.Register(&inventory.GearDef{ID: "dagger", Name: "Dagger", Slot: inventory.SlotMainHand, DamageMultiplier: 1}))
	assert.Equal(t, []string{"dagger", "greataxe", "ring_fury"}, r.IDs())
}

func TestLoadGear(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "hood.yaml"), []byte("id: hood\nname: Hood\nslot: head\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.yaml.bak"), []byte("garbage"), 0o644))
	r, err := inventory.LoadGear(dir)
	require.NoError(t, err)
	g, ok := r.Gear("hood")
	require.True(t, ok)
	assert.Equal(t, 1.0, g.DamageMultiplier)
	assert.Equal(t, "Head", g.Slot.DisplayName())
}

func TestLoadGearFromBytes_Invalid(t *testing.T) {
	_, err := inventory.LoadGearFromBytes([]byte("id: x\nname: X\nslot: tail\n"))
	assert.Error(t, err)
	_, err = inventory.LoadGearFromBytes([]byte("id: x\nname: X\nslot: head\ndamage_multiplier: -1\n"))
	assert.Error(t, err)
}
