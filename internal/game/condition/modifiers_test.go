package condition_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/warchief/internal/game/condition"
)

func TestMultipliers_Neutral(t *testing.T) {
	l := condition.NewLedger()
	assert.Equal(t, 1.0, l.OutgoingMultiplier())
	assert.Equal(t, 1.0, l.IncomingMultiplier())
}

func TestMultipliers_Compound(t *testing.T) {
	l := condition.NewLedger()
	require.NoError(t, l.Apply(condition.ActiveEffect{Kind: condition.Buff, Remaining: time.Second, Magnitude: 0.5, SourceAbility: "War Cry"}))
	require.NoError(t, l.Apply(condition.ActiveEffect{Kind: condition.Buff, Remaining: time.Second, Magnitude: 0.2, SourceAbility: "Focus"}))
	require.NoError(t, l.Apply(condition.ActiveEffect{Kind: condition.Debuff, Remaining: time.Second, Magnitude: 0.25, SourceAbility: "Expose"}))
	assert.InDelta(t, 1.8, l.OutgoingMultiplier(), 1e-9)
	assert.InDelta(t, 1.25, l.IncomingMultiplier(), 1e-9)
}

func TestMultipliers_NeverNegative(t *testing.T) {
	l := condition.NewLedger()
	require.NoError(t, l.Apply(condition.ActiveEffect{Kind: condition.Buff, Remaining: time.Second, Magnitude: -3, SourceAbility: "Curse"}))
	assert.Equal(t, 0.0, l.OutgoingMultiplier())
}

func TestRooted_NotSilenced(t *testing.T) {
	l := condition.NewLedger()
	require.NoError(t, l.Apply(condition.ActiveEffect{Kind: condition.Root, Remaining: time.Second, SourceAbility: "Snare"}))
	assert.True(t, l.IsRooted())
	assert.False(t, l.IsStunned())
	assert.False(t, l.IsSilenced())
}
