package combat

import (
	"go.uber.org/zap"

	"github.com/cory-johannsen/warchief/internal/game/ability"
	"github.com/cory-johannsen/warchief/internal/game/condition"
	"github.com/cory-johannsen/warchief/internal/game/geom"
)

// land resolves an ability's effect, dispatching on its archetype.
func (s *Simulation) land(actor *Combatant, ex Execution) {
	def := ex.Ability
	switch def.Archetype {
	case ability.Melee, ability.DamageOverTime:
		t := s.living(ex.TargetID)
		if t == nil {
			return
		}
		s.strike(actor, t, def)
	case ability.RangedProjectile:
		t := s.living(ex.TargetID)
		if t == nil {
			return
		}
		for _, victim := range s.projectilePath(actor, t, def) {
			s.strike(actor, victim, def)
		}
	case ability.Area:
		for _, c := range s.combatants {
			if c.Dead || !actor.IsEnemyOf(c) {
				continue
			}
			if geom.DistanceXZ(ex.Center, c.Position) <= def.Radius {
				s.strike(actor, c, def)
			}
		}
	case ability.Heal:
		t := s.living(ex.TargetID)
		if t == nil {
			return
		}
		amount := def.Magnitude * s.StanceOf(actor).HealingMultiplier
		s.restore(actor.ID, t, def.Name, amount, AuditHeal)
		s.applyEffect(actor, t, def)
	case ability.Channel:
		// Channels land tick by tick in advanceChannel.
	}
}

// projectilePath returns the primary target followed, for piercing projectiles,
// by every other living enemy inside the corridor from actor to target.
func (s *Simulation) projectilePath(actor, target *Combatant, def ability.Definition) []*Combatant {
	out := []*Combatant{target}
	if !def.Piercing {
		return out
	}
	for _, c := range s.combatants {
		if c == target || c.Dead || !actor.IsEnemyOf(c) {
			continue
		}
		if geom.DistanceToSegmentXZ(c.Position, actor.Position, target.Position) <= s.settings.PiercingWidth {
			out = append(out, c)
		}
	}
	return out
}

func (s *Simulation) strike(actor, t *Combatant, def ability.Definition) {
	if def.Magnitude > 0 {
		s.hit(actor, t, def, def.Magnitude, AuditDamage)
	}
	if !t.Dead {
		s.applyEffect(actor, t, def)
	}
}

// hit runs the outgoing damage chain: base, caster stance, gear, caster buffs,
// target stance damage taken, target debuffs, then clamps target health.
// Lifesteal is the post-modifier damage (before the health clamp) times the
// caster stance's lifesteal fraction, and no healing multiplier touches it.
func (s *Simulation) hit(actor, t *Combatant, def ability.Definition, base float64, kind AuditKind) {
	st := s.StanceOf(actor)
	amount := base
	amount *= st.DamageMultiplier
	amount *= actor.GearMultiplier
	amount *= actor.Effects.OutgoingMultiplier()
	amount *= s.StanceOf(t).DamageTakenMultiplier
	amount *= t.Effects.IncomingMultiplier()
	s.damage(actor.ID, t, def.Name, amount, kind)
	if st.Lifesteal > 0 && amount > 0 && !actor.Dead {
		s.restore(actor.ID, actor, def.Name, amount*st.Lifesteal, AuditLifesteal)
	}
}

// damage lowers t's health by amount, records exactly one audit entry, and
// processes death. Both parties count as in combat from this instant.
func (s *Simulation) damage(actorID string, t *Combatant, abilityName string, amount float64, kind AuditKind) {
	if s.halted {
		return
	}
	t.engage(s.now)
	if a, ok := s.index[actorID]; ok {
		a.engage(s.now)
	}
	before := t.Health
	t.Health = clampHealth(before-amount, t.MaxHealth)
	s.audit.Append(AuditEntry{
		At: s.now, Actor: actorID, Ability: abilityName, Target: t.ID,
		Kind: kind, Amount: amount, Applied: before - t.Health,
	})
	s.events = append(s.events, Event{
		At: s.now, Kind: EventDamage, Actor: actorID, Target: t.ID, Ability: abilityName, Amount: amount,
	})
	if t.Health <= 0 {
		s.kill(t, actorID, abilityName)
	}
}

// restore raises t's health by amount and records exactly one audit entry.
// The logged Amount is the computed heal; Applied is the change after clamping.
func (s *Simulation) restore(actorID string, t *Combatant, abilityName string, amount float64, kind AuditKind) {
	if s.halted {
		return
	}
	before := t.Health
	t.Health = clampHealth(before+amount, t.MaxHealth)
	s.audit.Append(AuditEntry{
		At: s.now, Actor: actorID, Ability: abilityName, Target: t.ID,
		Kind: kind, Amount: amount, Applied: t.Health - before,
	})
	s.events = append(s.events, Event{
		At: s.now, Kind: EventHeal, Actor: actorID, Target: t.ID, Ability: abilityName, Amount: amount,
	})
}

// applyEffect attaches def's status effect. Buffs carried by harmful abilities
// land on the caster; everything else lands on the target. Periodic magnitudes
// are scaled by the caster's chain once, at application.
func (s *Simulation) applyEffect(actor, t *Combatant, def ability.Definition) {
	if def.Effect == nil || s.halted {
		return
	}
	spec := def.Effect
	recipient := t
	if spec.Kind == condition.Buff && def.Archetype.Harmful() {
		recipient = actor
	}
	if recipient == nil || recipient.Dead {
		return
	}
	st := s.StanceOf(actor)
	mag := spec.Magnitude
	switch spec.Kind {
	case condition.DamageOverTime:
		mag *= st.DamageMultiplier * actor.GearMultiplier * actor.Effects.OutgoingMultiplier()
	case condition.HealOverTime:
		mag *= st.HealingMultiplier
	}
	err := recipient.Effects.Apply(condition.ActiveEffect{
		Kind:          spec.Kind,
		Remaining:     spec.Duration,
		TickInterval:  spec.TickInterval,
		Magnitude:     mag,
		SourceAbility: def.Name,
		SourceID:      actor.ID,
	})
	if err != nil {
		s.logger.Warn("status effect rejected", zap.String("ability", def.Name), zap.Error(err))
		return
	}
	if spec.Kind == condition.Stun {
		s.interrupt(recipient)
	}
}

// applyPeriodic turns one Tick's periodic applications into damage or healing,
// one audit entry per application, attributed to the source ability.
func (s *Simulation) applyPeriodic(c *Combatant, res condition.TickResult) {
	for _, app := range res.Periodic {
		e := app.Effect
		for i := 0; i < app.Count; i++ {
			if c.Dead {
				return
			}
			switch e.Kind {
			case condition.DamageOverTime:
				amount := e.Magnitude * s.StanceOf(c).DamageTakenMultiplier * c.Effects.IncomingMultiplier()
				s.damage(e.SourceID, c, e.SourceAbility, amount, AuditPeriodicDamage)
			case condition.HealOverTime:
				s.restore(e.SourceID, c, e.SourceAbility, e.Magnitude, AuditPeriodicHeal)
			}
		}
	}
}

// kill removes t from active simulation: its execution is cancelled, its own
// effects cleared, effects it sourced on others removed, and any execution
// aimed at it ends. Ticks already applied stand.
func (s *Simulation) kill(t *Combatant, killerID, abilityName string) {
	if t.Dead {
		return
	}
	if s.onDeath != nil {
		defer s.onDeath(t)
	}
	t.Health = 0
	t.Dead = true
	t.Exec = Execution{}
	t.Effects.Clear()
	s.events = append(s.events, Event{At: s.now, Kind: EventDeath, Actor: killerID, Target: t.ID, Ability: abilityName})
	s.logger.Info("combatant died",
		zap.String("combatant", t.ID),
		zap.String("killer", killerID),
		zap.String("ability", abilityName),
		zap.Duration("at", s.now),
	)

	for _, c := range s.combatants {
		if c == t {
			continue
		}
		c.Effects.RemoveFromSource(t.ID)
		if c.Dead || !c.Exec.singleTarget() || c.Exec.TargetID != t.ID {
			continue
		}
		if c.Exec.State == Channeling {
			s.endChannel(c)
			continue
		}
		s.logger.Debug("execution abandoned", zap.String("actor", c.ID),
			zap.String("ability", c.Exec.Ability.Name), zap.Error(ErrTargetLost))
		c.Exec = Execution{}
	}

	killer, ok := s.index[killerID]
	if !ok || !killer.IsEnemyOf(t) || s.goals == nil {
		return
	}
	subject := t.Template
	if subject == "" {
		subject = t.Name
	}
	key := killer.ID + "\x00" + subject
	s.kills[key]++
	s.goals.Emit(GoalEvent{Kind: GoalEnemyKilled, Actor: killer.ID, Subject: subject, Count: s.kills[key]})
}

func clampHealth(v, hi float64) float64 {
	if v < 0 {
		return 0
	}
	if v > hi {
		return hi
	}
	return v
}
