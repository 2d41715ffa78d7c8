package arena_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/warchief/internal/arena"
	"github.com/cory-johannsen/warchief/internal/game/stance"
)

func TestParseOverrideSet(t *testing.T) {
	set, err := arena.ParseOverrideSet([]byte(`
overrides:
  - name: Cleave
    magnitude: 40
    cooldown: 3s
stances:
  - name: fury
    lifesteal: 0.2
`))
	require.NoError(t, err)
	require.Len(t, set.Abilities, 1)
	require.NotNil(t, set.Abilities[0].Cooldown)
	assert.Equal(t, 3*time.Second, *set.Abilities[0].Cooldown)
	require.Len(t, set.Stances, 1)
	require.NotNil(t, set.Stances[0].Lifesteal)
	assert.Equal(t, 0.2, *set.Stances[0].Lifesteal)
}

func TestParseOverrideSet_Empty(t *testing.T) {
	set, err := arena.ParseOverrideSet(nil)
	require.NoError(t, err)
	assert.Empty(t, set.Abilities)
	assert.Empty(t, set.Stances)
}

func TestParseOverrideSet_Rejects(t *testing.T) {
	for name, doc := range map[string]string{
		"unnamed ability":         "overrides:\n  - magnitude: 40\n",
		"unnamed stance":          "stances:\n  - lifesteal: 0.1\n",
		"archetype not patchable": "overrides:\n  - name: Cleave\n    archetype: heal\n",
		"unknown section":         "weapons:\n  - name: axe\n",
	} {
		doc := doc // per-iteration copy for Go < 1.22 loop semantics
		t.Run(name, func(t *testing.T) {
			_, err := arena.ParseOverrideSet([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestOverrideSet_ApplyStances(t *testing.T) {
	reg := stance.NewRegistry()
	fury := stance.Neutral()
	fury.Name = "fury"
	fury.DamageMultiplier = 1.3
	fury.DamageTakenMultiplier = 1.2
	require.NoError(t, reg.Register(fury))
	mult := 1.5
	set := arena.OverrideSet{Stances: []stance.Override{{Name: "fury", DamageMultiplier: &mult}}}
	require.NoError(t, set.ApplyStances(reg))

	got, err := reg.Resolve("fury")
	require.NoError(t, err)
	assert.Equal(t, 1.5, got.DamageMultiplier)
	assert.Equal(t, 1.2, got.DamageTakenMultiplier)

	bad := arena.OverrideSet{Stances: []stance.Override{{Name: "calm", DamageMultiplier: &mult}}}
	assert.ErrorIs(t, bad.ApplyStances(reg), stance.ErrUnknownStance)
}
