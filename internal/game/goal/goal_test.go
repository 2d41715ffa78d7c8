package goal_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/warchief/internal/game/ability"
	"github.com/cory-johannsen/warchief/internal/game/combat"
	"github.com/cory-johannsen/warchief/internal/game/goal"
)

const goalsYAML = `
goals:
  - id: wolf_hunter
    name: Wolf Hunter
    kind: enemy_killed
    subject: wolf
    count: 2
  - id: spammer
    kind: ability_used
    count: 3
`

func TestLoadFromBytes(t *testing.T) {
	defs, err := goal.LoadFromBytes([]byte(goalsYAML))
	require.NoError(t, err)
	require.Len(t, defs, 2)
	assert.Equal(t, combat.GoalEnemyKilled, defs[0].Kind)
	assert.Equal(t, "wolf", defs[0].Subject)
	assert.Equal(t, combat.GoalAbilityUsed, defs[1].Kind)
	assert.Empty(t, defs[1].Subject)

	_, err = goal.LoadFromBytes([]byte("goals:\n  - id: x\n    kind: befriended\n    count: 1\n"))
	assert.Error(t, err)
	_, err = goal.LoadFromBytes([]byte("goals:\n  - id: x\n    kind: ability_used\n"))
	assert.Error(t, err)
}

func TestLoadDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "goals.yaml"), []byte(goalsYAML), 0644))
	defs, err := goal.LoadDirectory(dir)
	require.NoError(t, err)
	assert.Len(t, defs, 2)
}

func TestTracker_CompletesOncePerActor(t *testing.T) {
	defs, err := goal.LoadFromBytes([]byte(goalsYAML))
	require.NoError(t, err)
	tr, err := goal.NewTracker(defs, zaptest.NewLogger(t))
	require.NoError(t, err)
	var got []goal.Completion
	tr.OnComplete = func(c goal.Completion) { got = append(got, c) }

	kill := combat.GoalEvent{Kind: combat.GoalEnemyKilled, Actor: "hero", Subject: "wolf"}
	tr.Emit(kill)
	tr.Emit(combat.GoalEvent{Kind: combat.GoalEnemyKilled, Actor: "hero", Subject: "bear"})
	assert.Equal(t, 1, tr.Progress("hero", "wolf_hunter"))
	assert.Empty(t, got)

	tr.Emit(kill)
	tr.Emit(kill)
	require.Len(t, got, 1)
	assert.Equal(t, "wolf_hunter", got[0].Goal.ID)
	assert.Equal(t, []string{"wolf_hunter"}, tr.Completed("hero"))
	assert.Equal(t, 2, tr.Progress("hero", "wolf_hunter"))
	assert.Empty(t, tr.Completed("villain"))
}

func TestNewTracker_RejectsDuplicates(t *testing.T) {
	d := goal.Definition{ID: "x", Kind: combat.GoalAbilityUsed, Count: 1}
	_, err := goal.NewTracker([]goal.Definition{d, d}, nil)
	assert.Error(t, err)
}

func TestTracker_FedBySimulation(t *testing.T) {
	defs, err := goal.LoadFromBytes([]byte(goalsYAML))
	require.NoError(t, err)
	tr, err := goal.NewTracker(defs, nil)
	require.NoError(t, err)

	cat := ability.NewCatalog()
	require.NoError(t, cat.AddCategory("core", []ability.Definition{
		{Name: "Jab", Archetype: ability.Melee, Magnitude: 10, Range: 3},
	}))
	sim, err := combat.NewSimulation(combat.Settings{}, combat.Services{Resolver: ability.NewResolver(cat), Goals: tr})
	require.NoError(t, err)
	hero, err := combat.NewCombatant(combat.Spec{ID: "hero", Side: "red", EnemySide: "blue", MaxHealth: 100, Slots: []string{"Jab"}})
	require.NoError(t, err)
	wolf, err := combat.NewCombatant(combat.Spec{ID: "wolf-1", Template: "wolf", Side: "blue", EnemySide: "red", MaxHealth: 25})
	require.NoError(t, err)
	require.NoError(t, sim.Add(hero))
	require.NoError(t, sim.Add(wolf))

	for i := 0; i < 3; i++ {
		require.NoError(t, sim.UseAbility("hero", 0, "wolf-1"))
		sim.Tick(time.Millisecond)
	}
	assert.True(t, wolf.Dead)
	assert.Equal(t, []string{"spammer"}, tr.Completed("hero"))
	assert.Equal(t, 1, tr.Progress("hero", "wolf_hunter"))
}
