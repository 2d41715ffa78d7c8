package ability_test

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/warchief/internal/game/ability"
	"github.com/cory-johannsen/warchief/internal/game/condition"
	"github.com/cory-johannsen/warchief/internal/game/resource"
)

func strike(name string, magnitude float64, cd time.Duration) ability.Definition {
	return ability.Definition{
		Name:      name,
		Archetype: ability.Melee,
		Magnitude: magnitude,
		Cost:      resource.Cost{Pool: resource.Red, Amount: 5},
		Cooldown:  cd,
		Range:     2,
	}
}

func drain() ability.Definition {
	return ability.Definition{
		Name:      "Soul Drain",
		Archetype: ability.Channel,
		Magnitude: 30,
		Cost:      resource.Cost{Pool: resource.Purple, Amount: 10},
		Cooldown:  8 * time.Second,
		Timing:    ability.Timing{Mode: ability.Channeled, Duration: 3 * time.Second, TickInterval: time.Second},
		Range:     12,
	}
}

func ptr[T any](v T) *T { return &v }

func TestDefinition_Validate_ArchetypeRequirements(t *testing.T) {
	bad := []ability.Definition{
		{Name: "no-range", Archetype: ability.Melee, Magnitude: 1},
		{Name: "no-radius", Archetype: ability.Area, Magnitude: 1},
		{Name: "zero-heal", Archetype: ability.Heal},
		{Name: "dot-no-effect", Archetype: ability.DamageOverTime, Range: 5},
		{Name: "channel-instant", Archetype: ability.Channel, Range: 5},
		{Name: "cast-no-duration", Archetype: ability.Melee, Range: 2, Timing: ability.Timing{Mode: ability.Cast}},
		{Name: "melee-channel-timing", Archetype: ability.Melee, Range: 2, Timing: ability.Timing{Mode: ability.Channeled, Duration: time.Second, TickInterval: time.Second}},
		{Name: "periodic-no-interval", Archetype: ability.Melee, Range: 2, Effect: &ability.EffectSpec{Kind: condition.HealOverTime, Duration: time.Second}},
		{Name: "", Archetype: ability.Melee, Range: 2},
	}
	for _, d := range bad {
		assert.Error(t, d.Validate(), "definition %q must be invalid", d.Name)
	}
	assert.NoError(t, strike("Cleave", 30, time.Second).Validate())
	assert.NoError(t, drain().Validate())
}

func TestTiming_TotalTicks(t *testing.T) {
	assert.Equal(t, 3, drain().Timing.TotalTicks())
	assert.Equal(t, 0, strike("x", 1, 0).Timing.TotalTicks())
}

func TestCatalog_DuplicateRejected(t *testing.T) {
	c := ability.NewCatalog()
	require.NoError(t, c.AddCategory("warrior", []ability.Definition{strike("Cleave", 30, time.Second)}))
	err := c.AddCategory("rogue", []ability.Definition{strike("Cleave", 10, time.Second)})
	assert.Error(t, err)
	assert.Equal(t, []string{"warrior"}, c.Categories())
}

func TestCatalog_BatchAtomic(t *testing.T) {
	c := ability.NewCatalog()
	err := c.AddCategory("mixed", []ability.Definition{strike("Good", 1, 0), {Name: "Bad", Archetype: ability.Area}})
	require.Error(t, err)
	assert.Equal(t, 0, c.Len())
	assert.Empty(t, c.Categories())
}

func TestCatalog_RegisterNeedsCategory(t *testing.T) {
	c := ability.NewCatalog()
	assert.Error(t, c.Register(strike("Cleave", 30, time.Second)))
	d := strike("Cleave", 30, time.Second)
	d.Category = "warrior"
	require.NoError(t, c.Register(d))
	assert.Equal(t, []string{"Cleave"}, c.InCategory("warrior"))
}

func TestResolver_UnknownIsExplicit(t *testing.T) {
	r := ability.NewResolver(ability.NewCatalog())
	_, err := r.Resolve("Fireball")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ability.ErrUnknownAbility))
	var uae *ability.UnknownAbilityError
	require.ErrorAs(t, err, &uae)
	assert.Equal(t, "Fireball", uae.Name)
}

func TestResolver_CategoryAddedLaterResolves(t *testing.T) {
	c := ability.NewCatalog()
	require.NoError(t, c.AddCategory("warrior", []ability.Definition{strike("Cleave", 30, 2*time.Second)}))
	r := ability.NewResolver(c)
	require.NoError(t, c.AddCategory("warlock", []ability.Definition{drain()}))
	got, err := r.Resolve("Soul Drain")
	require.NoError(t, err)
	assert.Equal(t, "Soul Drain", got.Name)
	assert.Equal(t, 30.0, got.Magnitude)
	assert.Equal(t, 8*time.Second, got.Cooldown)
	assert.Equal(t, "warlock", got.Category)
}

func TestResolver_OverrideMerges(t *testing.T) {
	c := ability.NewCatalog()
	require.NoError(t, c.AddCategory("warrior", []ability.Definition{strike("Cleave", 30, 2*time.Second)}))
	r := ability.NewResolver(c)
	require.NoError(t, r.SetOverride(ability.Override{Name: "Cleave", Magnitude: ptr(45.0)}))
	got, err := r.Resolve("Cleave")
	require.NoError(t, err)
	assert.Equal(t, 45.0, got.Magnitude)
	assert.Equal(t, 2*time.Second, got.Cooldown)

	base, ok := c.Lookup("Cleave")
	require.True(t, ok)
	assert.Equal(t, 30.0, base.Magnitude, "override must not mutate the catalog")

	assert.True(t, r.ClearOverride("Cleave"))
	got, err = r.Resolve("Cleave")
	require.NoError(t, err)
	assert.Equal(t, 30.0, got.Magnitude)
}

func TestResolver_OverrideCannotBreakDispatch(t *testing.T) {
	c := ability.NewCatalog()
	require.NoError(t, c.AddCategory("warlock", []ability.Definition{drain()}))
	r := ability.NewResolver(c)
	err := r.SetOverride(ability.Override{Name: "Soul Drain", TickInterval: ptr(time.Duration(0))})
	assert.Error(t, err)
	err = r.SetOverride(ability.Override{Name: "Soul Drain", EffectMagnitude: ptr(3.0)})
	assert.Error(t, err, "patching an absent effect must fail")
	err = r.SetOverride(ability.Override{Name: "Nope", Magnitude: ptr(1.0)})
	assert.ErrorIs(t, err, ability.ErrUnknownAbility)
	assert.Empty(t, r.Overrides())
}

func TestResolver_ConcurrentReadsAndOverrides(t *testing.T) {
	c := ability.NewCatalog()
	require.NoError(t, c.AddCategory("warrior", []ability.Definition{strike("Cleave", 30, time.Second)}))
	r := ability.NewResolver(c)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if i%2 == 0 {
					_ = r.SetOverride(ability.Override{Name: "Cleave", Magnitude: ptr(float64(j))})
				} else {
					d, err := r.Resolve("Cleave")
					assert.NoError(t, err)
					assert.Equal(t, "Cleave", d.Name)
				}
			}
		}(i)
	}
	wg.Wait()
}

func TestPropertyResolver_Totality(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		c := ability.NewCatalog()
		r := ability.NewResolver(c)
		nCats := rapid.IntRange(1, 6).Draw(rt, "categories")
		type want struct {
			mag float64
			cd  time.Duration
		}
		expected := map[string]want{}
		for ci := 0; ci < nCats; ci++ {
			n := rapid.IntRange(1, 8).Draw(rt, "abilities")
			defs := make([]ability.Definition, 0, n)
			for ai := 0; ai < n; ai++ {
				name := fmt.Sprintf("cat%d-ab%d", ci, ai)
				mag := float64(rapid.IntRange(1, 500).Draw(rt, "mag"))
				cd := time.Duration(rapid.IntRange(0, 30).Draw(rt, "cd")) * time.Second
				defs = append(defs, strike(name, mag, cd))
				expected[name] = want{mag, cd}
			}
			require.NoError(rt, c.AddCategory(fmt.Sprintf("cat%d", ci), defs))
		}
		for name, w := range expected {
			d, err := r.Resolve(name)
			require.NoError(rt, err)
			assert.Equal(rt, name, d.Name)
			assert.Equal(rt, w.mag, d.Magnitude)
			assert.Equal(rt, w.cd, d.Cooldown)
		}
		_, err := r.Resolve("not-registered")
		assert.ErrorIs(rt, err, ability.ErrUnknownAbility)
	})
}

const warriorYAML = `category: warrior
abilities:
  - name: Cleave
    archetype: melee
    magnitude: 30
    cost: {pool: red, amount: 10}
    cooldown: 4s
    range: 2.5
  - name: Rending Strike
    archetype: damage_over_time
    magnitude: 10
    cost: {pool: red, amount: 15}
    secondary_cost: {pool: yellow, amount: 5}
    cooldown: 6s
    range: 2.5
    timing: {mode: windup, duration: 500ms}
    effect: {kind: damage_over_time, duration: 4s, tick_interval: 1s, magnitude: 5}
`

func TestLoadDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "warrior.yaml"), []byte(warriorYAML), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("ignored"), 0o644))
	c, err := ability.LoadDirectory(dir)
	require.NoError(t, err)
	assert.Equal(t, 2, c.Len())
	d, ok := c.Lookup("Rending Strike")
	require.True(t, ok)
	assert.Equal(t, ability.DamageOverTime, d.Archetype)
	assert.Equal(t, ability.Windup, d.Timing.Mode)
	assert.Equal(t, 500*time.Millisecond, d.Timing.Duration)
	require.NotNil(t, d.SecondaryCost)
	assert.Equal(t, resource.Yellow, d.SecondaryCost.Pool)
	require.NotNil(t, d.Effect)
	assert.Equal(t, 4*time.Second, d.Effect.Duration)
}

func TestLoadDirectory_FailsFast(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte("category: x\nabilities:\n  - name: Zap\n    archetype: lightning\n"), 0o644))
	_, err := ability.LoadDirectory(dir)
	assert.Error(t, err)
}
