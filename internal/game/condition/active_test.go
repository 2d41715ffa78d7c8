package condition_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/warchief/internal/game/condition"
)

func burn(d time.Duration) condition.ActiveEffect {
	return condition.ActiveEffect{
		Kind:          condition.DamageOverTime,
		Remaining:     d,
		TickInterval:  time.Second,
		Magnitude:     4,
		SourceAbility: "Ember Brand",
		SourceID:      "caster-1",
	}
}

func TestLedger_Apply_Validates(t *testing.T) {
	l := condition.NewLedger()
	err := l.Apply(condition.ActiveEffect{Kind: condition.DamageOverTime, Remaining: time.Second, SourceAbility: "x"})
	assert.Error(t, err, "periodic effect without interval must be rejected")
	err = l.Apply(condition.ActiveEffect{Kind: condition.Stun, SourceAbility: "x"})
	assert.Error(t, err, "zero duration must be rejected")
	assert.Equal(t, 0, l.Len())
}

func TestLedger_Apply_RefreshesSameSource(t *testing.T) {
	l := condition.NewLedger()
	require.NoError(t, l.Apply(burn(3*time.Second)))
	require.NoError(t, l.Apply(burn(5*time.Second)))
	require.Equal(t, 1, l.Len())
	assert.Equal(t, 5*time.Second, l.All()[0].Remaining)
}

func TestLedger_Apply_DifferentSourcesStack(t *testing.T) {
	l := condition.NewLedger()
	require.NoError(t, l.Apply(burn(3*time.Second)))
	other := burn(3 * time.Second)
	other.SourceID = "caster-2"
	require.NoError(t, l.Apply(other))
	assert.Equal(t, 2, l.Len())
}

func TestLedger_Tick_ExactApplications(t *testing.T) {
	l := condition.NewLedger()
	require.NoError(t, l.Apply(burn(20*time.Second)))
	total := 0
	for i := 0; i < 1000; i++ {
		res := l.Tick(16 * time.Millisecond)
		for _, a := range res.Periodic {
			total += a.Count
		}
	}
	assert.Equal(t, 16, total)
}

func TestLedger_Tick_FinalApplicationBeforeRemoval(t *testing.T) {
	l := condition.NewLedger()
	require.NoError(t, l.Apply(burn(3*time.Second)))
	total := 0
	var expired []condition.ActiveEffect
	for i := 0; i < 10; i++ {
		res := l.Tick(400 * time.Millisecond)
		for _, a := range res.Periodic {
			total += a.Count
			assert.Equal(t, "Ember Brand", a.Effect.SourceAbility)
		}
		expired = append(expired, res.Expired...)
	}
	assert.Equal(t, 3, total)
	require.Len(t, expired, 1)
	assert.Equal(t, 0, l.Len())
}

func TestLedger_Tick_LargeStepBatches(t *testing.T) {
	l := condition.NewLedger()
	require.NoError(t, l.Apply(burn(10*time.Second)))
	res := l.Tick(2500 * time.Millisecond)
	require.Len(t, res.Periodic, 1)
	assert.Equal(t, 2, res.Periodic[0].Count)
	assert.Equal(t, 500*time.Millisecond, l.All()[0].Accumulated())
}

func TestLedger_Tick_NonPeriodicExpires(t *testing.T) {
	l := condition.NewLedger()
	require.NoError(t, l.Apply(condition.ActiveEffect{Kind: condition.Stun, Remaining: time.Second, SourceAbility: "Bash"}))
	assert.True(t, l.IsStunned())
	assert.True(t, l.IsRooted())
	res := l.Tick(time.Second)
	assert.Empty(t, res.Periodic)
	require.Len(t, res.Expired, 1)
	assert.False(t, l.IsStunned())
}

func TestLedger_RemoveFromSource(t *testing.T) {
	l := condition.NewLedger()
	require.NoError(t, l.Apply(burn(3*time.Second)))
	require.NoError(t, l.Apply(condition.ActiveEffect{Kind: condition.Silence, Remaining: time.Second, SourceAbility: "Hush", SourceID: "caster-2"}))
	assert.Equal(t, 1, l.RemoveFromSource("caster-1"))
	require.Equal(t, 1, l.Len())
	assert.True(t, l.IsSilenced())
	l.Clear()
	assert.Equal(t, 0, l.Len())
}

func TestParseKind(t *testing.T) {
	k, err := condition.ParseKind("Heal_Over_Time")
	require.NoError(t, err)
	assert.Equal(t, condition.HealOverTime, k)
	assert.True(t, k.Periodic())
	_, err = condition.ParseKind("petrify")
	assert.Error(t, err)
}

func TestPropertyLedger_ApplicationsMatchElapsed(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		intervalMs := rapid.IntRange(50, 2000).Draw(rt, "interval_ms")
		durationMs := rapid.IntRange(1, 30000).Draw(rt, "duration_ms")
		interval := time.Duration(intervalMs) * time.Millisecond
		duration := time.Duration(durationMs) * time.Millisecond
		l := condition.NewLedger()
		require.NoError(rt, l.Apply(condition.ActiveEffect{
			Kind: condition.HealOverTime, Remaining: duration, TickInterval: interval, Magnitude: 1, SourceAbility: "Mend",
		}))
		total := 0
		for l.Len() > 0 {
			dt := time.Duration(rapid.IntRange(1, 500).Draw(rt, "dt_ms")) * time.Millisecond
			for _, a := range l.Tick(dt).Periodic {
				total += a.Count
			}
		}
		assert.Equal(rt, int(duration/interval), total)
	})
}
