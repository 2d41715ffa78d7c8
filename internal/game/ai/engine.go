package ai

import (
	"math"
	"time"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/warchief/internal/game/ability"
	"github.com/cory-johannsen/warchief/internal/game/combat"
	"github.com/cory-johannsen/warchief/internal/game/geom"
	"github.com/cory-johannsen/warchief/internal/game/resource"
	"github.com/cory-johannsen/warchief/internal/game/timers"
)

// ScriptCaller is the interface required by the Engine to evaluate Lua score hooks.
type ScriptCaller interface {
	// CallHook calls a named Lua function in the given scope's VM.
	// Returns (LNil, nil) if the function is not defined.
	CallHook(scope, hook string, args ...lua.LValue) (lua.LValue, error)
}

// distanceTolerance is the slack around the engagement distance inside which
// the engine does not move.
const distanceTolerance = 0.5

// Engine is a combat.Decider driven by Strategies.
//
// Engine holds no per-combatant state; it is safe to share across simulations
// that tick on the same goroutine.
type Engine struct {
	strategies *Registry
	caller     ScriptCaller
	logger     *zap.Logger
}

// NewEngine constructs an Engine.
//
// Precondition: strategies must not be nil. caller may be nil, disabling score hooks.
func NewEngine(strategies *Registry, caller ScriptCaller, logger *zap.Logger) *Engine {
	if strategies == nil {
		panic("ai.NewEngine: strategies must not be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{strategies: strategies, caller: caller, logger: logger}
}

// candidate is one usable ability paired with the target it would be used on.
type candidate struct {
	slot   int
	def    ability.Definition
	target *combat.Combatant
	hits   int
}

// StrategyFor returns the strategy named by c, or DefaultStrategy when unset or unknown.
func (e *Engine) StrategyFor(c *combat.Combatant) Strategy {
	if c.Strategy != "" {
		if s, ok := e.strategies.Strategy(c.Strategy); ok {
			return s
		}
	}
	return DefaultStrategy()
}

// Decide implements combat.Decider.
//
// Postcondition: a returned ability slot was usable against the returned target
// when the decision was made; movement is only proposed when no ability is chosen.
func (e *Engine) Decide(v combat.View, self *combat.Combatant, dt time.Duration) combat.Decision {
	if self.Dead || self.Busy() || self.Effects.IsStunned() {
		return combat.IdleDecision()
	}
	st := e.StrategyFor(self)
	sit := NewSituation(v, self)
	if sit.Target == nil {
		return combat.IdleDecision()
	}

	if self.Timers.CanBypassGate() {
		if c, ok := e.choose(v, st, sit); ok {
			return combat.Decision{Slot: c.slot, TargetID: targetID(c)}
		}
	}

	d := combat.IdleDecision()
	d.Move = e.approach(v, st, self, sit.Target, dt)
	return d
}

func targetID(c candidate) string {
	if c.target == nil {
		return ""
	}
	return c.target.ID
}

// choose returns the ability to use this tick according to st.Mode.
func (e *Engine) choose(v combat.View, st Strategy, sit Situation) (candidate, bool) {
	var best candidate
	bestScore := 0
	found := false
	for slot := 0; slot < timers.SlotCount; slot++ {
		c, ok := e.usable(v, st, sit, slot)
		if !ok {
			continue
		}
		if st.Mode == Greedy {
			return c, true
		}
		score := e.score(st, sit.Self, c)
		if !found || score > bestScore {
			best, bestScore, found = c, score, true
		}
	}
	return best, found
}

// usable resolves the ability in slot and reports whether it can be used now,
// and on whom.
func (e *Engine) usable(v combat.View, st Strategy, sit Situation, slot int) (candidate, bool) {
	self := sit.Self
	identity := self.Slots[slot]
	if identity == "" {
		return candidate{}, false
	}
	def, err := v.Resolver().Resolve(identity)
	if err != nil {
		e.logger.Warn("ai skipped unresolvable ability",
			zap.String("actor", self.ID),
			zap.Int("slot", slot),
			zap.String("identity", identity),
			zap.Error(err),
		)
		return candidate{}, false
	}
	if !self.Timers.Ready(slot) {
		return candidate{}, false
	}
	if self.Effects.IsSilenced() && def.Archetype != ability.Melee {
		return candidate{}, false
	}
	sm := v.StanceOf(self).CostMultiplier
	primary := def.Cost.Scaled(sm)
	var secondary *resource.Cost
	if def.SecondaryCost != nil {
		sc := def.SecondaryCost.Scaled(sm)
		secondary = &sc
	}
	if !self.Resources.CanAfford(primary, secondary) {
		return candidate{}, false
	}

	c := candidate{slot: slot, def: def}
	switch def.Archetype {
	case ability.Heal:
		c.target = self
		if st.Profile == Support {
			c.target = sit.NeediestAlly()
		}
		if c.target.HealthFraction() >= 1 || !inRange(self, c.target, def.Range) {
			return candidate{}, false
		}
	case ability.Area:
		center := sit.Target.Position
		if def.Range == 0 {
			center = self.Position
		} else {
			if !inRange(self, sit.Target, def.Range) {
				return candidate{}, false
			}
			c.target = sit.Target
		}
		c.hits = sit.EnemiesWithin(center, def.Radius)
		if c.hits == 0 {
			return candidate{}, false
		}
	default:
		if !inRange(self, sit.Target, def.Range) {
			return candidate{}, false
		}
		c.target = sit.Target
	}
	return c, true
}

func inRange(self, target *combat.Combatant, r float64) bool {
	return self == target || geom.DistanceXZ(self.Position, target.Position) <= r
}

// score returns the profile score, replaced by the strategy's Lua hook when it
// returns a number.
func (e *Engine) score(st Strategy, self *combat.Combatant, c candidate) int {
	target := c.target
	if target == nil {
		target = self
	}
	base := profileScore(st, self, target, c.def, c.hits)
	if st.ScoreHook == "" || e.caller == nil {
		return base
	}
	ret, err := e.caller.CallHook(st.ID, st.ScoreHook,
		lua.LString(self.ID),
		lua.LString(c.def.Name),
		lua.LNumber(base),
		lua.LString(target.ID),
		lua.LNumber(target.HealthFraction()),
	)
	if err != nil {
		e.logger.Debug("score hook failed", zap.String("hook", st.ScoreHook), zap.Error(err))
		return base
	}
	n, ok := ret.(lua.LNumber)
	if !ok {
		return base
	}
	return int(n)
}

// approach returns the displacement that moves self toward the strategy's
// engagement distance from target, limited by its speed for this tick. The
// distance is pulled in to the longest harmful reach so melee fighters close.
func (e *Engine) approach(v combat.View, st Strategy, self, target *combat.Combatant, dt time.Duration) geom.Vec3 {
	if self.Effects.IsRooted() || self.MoveSpeed <= 0 {
		return geom.Vec3{}
	}
	want := st.EngagementDistance()
	if r := reach(v, self); r > 0 && r-distanceTolerance < want {
		want = math.Max(r-distanceTolerance, 0)
	}
	dist := geom.DistanceXZ(self.Position, target.Position)
	gap := dist - want
	if gap > -distanceTolerance && gap < distanceTolerance {
		return geom.Vec3{}
	}
	step := self.MoveSpeed * v.StanceOf(self).MovementMultiplier * dt.Seconds()
	if step <= 0 {
		return geom.Vec3{}
	}
	dir := target.Position.Sub(self.Position).NormalizedXZ()
	if gap < 0 {
		dir = dir.Scale(-1)
		gap = -gap
	}
	if step > gap {
		step = gap
	}
	return dir.Scale(step)
}

// reach returns the longest range among self's harmful abilities, or 0 when
// it has none. Self-centred areas count by radius.
func reach(v combat.View, self *combat.Combatant) float64 {
	best := 0.0
	for _, name := range self.Slots {
		if name == "" {
			continue
		}
		def, err := v.Resolver().Resolve(name)
		if err != nil || !def.Archetype.Harmful() {
			continue
		}
		r := def.Range
		if def.Archetype == ability.Area && r == 0 {
			r = def.Radius
		}
		if r > best {
			best = r
		}
	}
	return best
}
