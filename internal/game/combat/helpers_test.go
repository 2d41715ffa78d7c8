package combat_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cory-johannsen/warchief/internal/game/ability"
	"github.com/cory-johannsen/warchief/internal/game/combat"
	"github.com/cory-johannsen/warchief/internal/game/condition"
	"github.com/cory-johannsen/warchief/internal/game/geom"
	"github.com/cory-johannsen/warchief/internal/game/resource"
	"github.com/cory-johannsen/warchief/internal/game/stance"
)

func testAbilities() []ability.Definition {
	return []ability.Definition{
		{Name: "Strike", Archetype: ability.Melee, Magnitude: 30, Cooldown: 3 * time.Second, Range: 3},
		{Name: "Mend", Archetype: ability.Heal, Magnitude: 50, Cooldown: 5 * time.Second, Range: 20,
			Cost:   resource.Cost{Pool: resource.Blue, Amount: 20},
			Timing: ability.Timing{Mode: ability.Cast, Duration: 2 * time.Second}},
		{Name: "Opener", Archetype: ability.Melee, Magnitude: 5, Cooldown: time.Second, Range: 3, EnablesCombo: true},
		{Name: "Follow", Archetype: ability.Melee, Magnitude: 5, Cooldown: time.Second, Range: 3},
		{Name: "Heavy Swing", Archetype: ability.Melee, Magnitude: 40, Range: 3,
			Timing: ability.Timing{Mode: ability.Windup, Duration: 500 * time.Millisecond}},
		{Name: "Drain", Archetype: ability.Channel, Magnitude: 30, Range: 10, Cooldown: 6 * time.Second,
			Timing: ability.Timing{Mode: ability.Channeled, Duration: 3 * time.Second, TickInterval: time.Second}},
		{Name: "Bolt", Archetype: ability.RangedProjectile, Magnitude: 10, Range: 30, Piercing: true},
		{Name: "Quake", Archetype: ability.Area, Magnitude: 10, Radius: 5},
		{Name: "Rend", Archetype: ability.DamageOverTime, Range: 3,
			Effect: &ability.EffectSpec{Kind: condition.DamageOverTime, Duration: 3 * time.Second, TickInterval: time.Second, Magnitude: 4}},
		{Name: "Long Rend", Archetype: ability.DamageOverTime, Range: 3,
			Effect: &ability.EffectSpec{Kind: condition.DamageOverTime, Duration: 20 * time.Second, TickInterval: time.Second, Magnitude: 1}},
		{Name: "Bash", Archetype: ability.Melee, Magnitude: 1, Range: 3,
			Effect: &ability.EffectSpec{Kind: condition.Stun, Duration: 2 * time.Second}},
		{Name: "Fireball", Archetype: ability.RangedProjectile, Magnitude: 50, Range: 30, Cooldown: 4 * time.Second,
			Cost:   resource.Cost{Pool: resource.Red, Amount: 40},
			Timing: ability.Timing{Mode: ability.Cast, Duration: time.Second}},
	}
}

// testingT is satisfied by both *testing.T and *rapid.T.
type testingT interface {
	require.TestingT
	Helper()
}

type rig struct {
	sim      *combat.Simulation
	resolver *ability.Resolver
	stances  *stance.Registry
	logs     *observer.ObservedLogs
	goals    []combat.GoalEvent
}

func newRig(t testingT, opts ...func(*combat.Services)) *rig {
	t.Helper()
	cat := ability.NewCatalog()
	require.NoError(t, cat.AddCategory("test", testAbilities()))
	r := &rig{resolver: ability.NewResolver(cat), stances: stance.NewRegistry()}
	core, logs := observer.New(zapcore.DebugLevel)
	r.logs = logs
	svc := combat.Services{
		Resolver: r.resolver,
		Stances:  r.stances,
		Terrain:  geom.FlatTerrain{},
		Goals:    combat.GoalSinkFunc(func(e combat.GoalEvent) { r.goals = append(r.goals, e) }),
		Logger:   zap.New(core),
	}
	for _, o := range opts {
		o(&svc)
	}
	sim, err := combat.NewSimulation(combat.DefaultSettings(), svc)
	require.NoError(t, err)
	r.sim = sim
	return r
}

func fullPools() [resource.PoolCount]float64 {
	return [resource.PoolCount]float64{100, 100, 100, 100, 100}
}

func newFighter(t *testing.T, id string, side, enemy combat.Side, x float64, slots ...string) *combat.Combatant {
	t.Helper()
	c, err := combat.NewCombatant(combat.Spec{
		ID:        id,
		Side:      side,
		EnemySide: enemy,
		Position:  geom.Vec3{X: x},
		MoveSpeed: 5,
		MaxHealth: 100,
		PoolMax:   fullPools(),
		Slots:     slots,
	})
	require.NoError(t, err)
	return c
}

func (r *rig) add(t *testing.T, cs ...*combat.Combatant) {
	t.Helper()
	for _, c := range cs {
		require.NoError(t, r.sim.Add(c))
	}
}

func (r *rig) tickFor(total, step time.Duration) {
	for elapsed := time.Duration(0); elapsed < total; elapsed += step {
		r.sim.Tick(step)
	}
}

func (r *rig) auditOf(kind combat.AuditKind) []combat.AuditEntry {
	var out []combat.AuditEntry
	for _, e := range r.sim.Audit() {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}
