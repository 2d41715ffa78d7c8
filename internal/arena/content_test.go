package arena_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/warchief/internal/arena"
	"github.com/cory-johannsen/warchief/internal/config"
	"github.com/cory-johannsen/warchief/internal/game/ai"
	"github.com/cory-johannsen/warchief/internal/game/combat"
	"github.com/cory-johannsen/warchief/internal/game/geom"
	"github.com/cory-johannsen/warchief/internal/game/goal"
	"github.com/cory-johannsen/warchief/internal/game/stance"
	"github.com/cory-johannsen/warchief/internal/scripting"
	"github.com/cory-johannsen/warchief/internal/testutil"
)

func sampleContent(t *testing.T) config.ContentConfig {
	t.Helper()
	return config.ContentConfig{
		AbilitiesDir:  testutil.ContentDir(t, "abilities"),
		OverridesFile: testutil.ContentDir(t, "overrides.yaml"),
		StancesDir:    testutil.ContentDir(t, "stances"),
		GearDir:       testutil.ContentDir(t, "gear"),
		StrategiesDir: testutil.ContentDir(t, "strategies"),
		TemplatesDir:  testutil.ContentDir(t, "templates"),
		GoalsDir:      testutil.ContentDir(t, "goals"),
		ScriptsDir:    testutil.ContentDir(t, "scripts"),
		MatchesFile:   testutil.ContentDir(t, "arena", "matches.yaml"),
	}
}

func TestLoadContent_SampleContent(t *testing.T) {
	c, err := arena.LoadContent(sampleContent(t), zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.Equal(t, []string{"arcane", "melee", "restoration"}, c.Catalog.Categories())
	fireball, err := c.Resolver.Resolve("Fireball")
	require.NoError(t, err)
	assert.Equal(t, 60.0, fireball.Magnitude, "override applied")
	assert.Equal(t, 45.0, fireball.Cost.Amount)

	assert.Contains(t, c.Stances.Names(), "fury")
	fury, err := c.Stances.Resolve("fury")
	require.NoError(t, err)
	assert.Equal(t, 1.25, fury.DamageMultiplier, "stance override applied")
	assert.Equal(t, 1.2, fury.DamageTakenMultiplier, "unpatched field keeps its base value")
	assert.Equal(t, []string{"berserker", "duelist", "medic", "sniper"}, c.Strategies.IDs())
	assert.Equal(t, []string{"cleric", "mage", "warrior", "wolf"}, c.Spawner.IDs())
	assert.Len(t, c.Goals, 3)
	assert.Len(t, c.Matches, 2)
}

func TestLoadContent_StanceOverrideForUnknownStanceFails(t *testing.T) {
	cfg := sampleContent(t)
	cfg.OverridesFile = filepath.Join(t.TempDir(), "overrides.yaml")
	require.NoError(t, os.WriteFile(cfg.OverridesFile, []byte("stances:\n  - name: frenzy\n    lifesteal: 0.5\n"), 0o644))

	_, err := arena.LoadContent(cfg, nil)
	assert.ErrorIs(t, err, stance.ErrUnknownStance)
}

func TestLoadContent_RequiresAbilities(t *testing.T) {
	_, err := arena.LoadContent(config.ContentConfig{AbilitiesDir: t.TempDir() + "/missing"}, nil)
	assert.Error(t, err)
}

func TestLoadContent_OptionalDirsSkipped(t *testing.T) {
	c, err := arena.LoadContent(config.ContentConfig{AbilitiesDir: testutil.ContentDir(t, "abilities")}, nil)
	require.NoError(t, err)
	assert.Empty(t, c.Spawner.IDs())
	assert.Empty(t, c.Matches)
	assert.Empty(t, c.Resolver.Overrides())
}

func TestSampleDuel_RunsToAnOutcome(t *testing.T) {
	logger := zap.NewNop()
	cfg := sampleContent(t)
	c, err := arena.LoadContent(cfg, logger)
	require.NoError(t, err)

	scripts := scripting.NewManager(logger)
	require.NoError(t, scripts.LoadGlobal(cfg.ScriptsDir, 0))
	tracker, err := goal.NewTracker(c.Goals, logger)
	require.NoError(t, err)

	var duel arena.Match
	for _, m := range c.Matches {
		if m.Name == "duel" {
			duel = m
		}
	}
	require.Equal(t, "duel", duel.Name)

	r, err := arena.NewRunner(arena.Config{Tick: 50 * time.Millisecond}, arena.Deps{
		Engine:   combat.NewEngine(),
		Spawner:  c.Spawner,
		Resolver: c.Resolver,
		Stances:  c.Stances,
		Settings: combat.DefaultSettings(),
		Terrain:  geom.FlatTerrain{},
		Decider:  ai.NewEngine(c.Strategies, scripts, logger),
		Goals:    tracker,
		Logger:   logger,
	}, []arena.Match{duel})
	require.NoError(t, err)
	scripts.GetCombatant = r.ScriptLookup()

	results, err := r.RunToCompletion(int(duel.MaxDuration/(50*time.Millisecond)) + 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.NotEmpty(t, results[0].Audit)
	assert.LessOrEqual(t, results[0].Outcome.At, duel.MaxDuration)
}
