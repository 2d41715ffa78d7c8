package combat

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/warchief/internal/game/ability"
	"github.com/cory-johannsen/warchief/internal/game/geom"
	"github.com/cory-johannsen/warchief/internal/game/resource"
	"github.com/cory-johannsen/warchief/internal/game/stance"
	"github.com/cory-johannsen/warchief/internal/game/timers"
)

// Services are the collaborators a Simulation is constructed with.
type Services struct {
	Resolver *ability.Resolver
	// Stances defaults to a registry holding only the neutral stance.
	Stances *stance.Registry
	// Terrain keeps moving combatants grounded; nil leaves Y untouched.
	Terrain geom.Terrain
	// Decider drives AI-controlled combatants; nil disables AI.
	Decider Decider
	// Goals receives kill and ability-use events; nil discards them.
	Goals  GoalSink
	Logger *zap.Logger
}

type request struct {
	actor  string
	slot   int
	target string
	move   geom.Vec3
}

// Simulation advances a set of combatants one tick at a time.
//
// A Simulation is single-threaded: every method must be called from one
// goroutine, or serialised by the caller (Session does this).
type Simulation struct {
	settings Settings
	resolver *ability.Resolver
	stances  *stance.Registry
	terrain  geom.Terrain
	decider  Decider
	goals    GoalSink
	logger   *zap.Logger

	combatants []*Combatant
	index      map[string]*Combatant
	queue      []request
	audit      AuditLog
	events     []Event
	uses       map[string]int
	kills      map[string]int
	now        time.Duration

	// halted stops every further action; onDeath runs after each death is processed.
	halted  bool
	onDeath func(*Combatant)
}

// NewSimulation creates an empty Simulation.
//
// Precondition: svc.Resolver must not be nil.
func NewSimulation(settings Settings, svc Services) (*Simulation, error) {
	if svc.Resolver == nil {
		return nil, fmt.Errorf("combat: simulation requires a resolver")
	}
	if settings.GlobalCooldown < 0 || settings.ComboWindow < 0 || settings.PiercingWidth < 0 || settings.CombatTimeout < 0 {
		return nil, fmt.Errorf("combat: settings must not be negative")
	}
	if svc.Stances == nil {
		svc.Stances = stance.NewRegistry()
	}
	if svc.Logger == nil {
		svc.Logger = zap.NewNop()
	}
	return &Simulation{
		settings: settings,
		resolver: svc.Resolver,
		stances:  svc.Stances,
		terrain:  svc.Terrain,
		decider:  svc.Decider,
		goals:    svc.Goals,
		logger:   svc.Logger,
		index:    make(map[string]*Combatant),
		uses:     make(map[string]int),
		kills:    make(map[string]int),
	}, nil
}

// Add places c in the simulation. Scan order is insertion order.
//
// Postcondition: returns an error for a nil or duplicate combatant, or one whose stance is unknown.
func (s *Simulation) Add(c *Combatant) error {
	if c == nil {
		return fmt.Errorf("combat: add: nil combatant")
	}
	if _, dup := s.index[c.ID]; dup {
		return fmt.Errorf("combat: add: duplicate combatant %q", c.ID)
	}
	if _, err := s.stances.Resolve(c.Stance); err != nil {
		return fmt.Errorf("combat: add %q: %w", c.ID, err)
	}
	s.combatants = append(s.combatants, c)
	s.index[c.ID] = c
	return nil
}

// Combatants returns the combatants in scan order.
func (s *Simulation) Combatants() []*Combatant {
	return append([]*Combatant(nil), s.combatants...)
}

// Combatant looks up a combatant by ID.
func (s *Simulation) Combatant(id string) (*Combatant, bool) {
	c, ok := s.index[id]
	return c, ok
}

// Resolver returns the ability resolver.
func (s *Simulation) Resolver() *ability.Resolver { return s.resolver }

// Halt stops the simulation: later ticks do nothing, the current tick
// resolves nothing further, and UseAbility and Move return ErrHalted.
func (s *Simulation) Halt() { s.halted = true }

// Halted reports whether Halt was called.
func (s *Simulation) Halted() bool { return s.halted }

// Settings returns the simulation settings.
func (s *Simulation) Settings() Settings { return s.settings }

// Now returns the simulated time elapsed since creation.
func (s *Simulation) Now() time.Duration { return s.now }

// StanceOf resolves c's current stance, falling back to neutral with a warning
// if the stance has become unresolvable.
func (s *Simulation) StanceOf(c *Combatant) stance.Definition {
	d, err := s.stances.Resolve(c.Stance)
	if err != nil {
		s.logger.Warn("stance unresolvable, using neutral", zap.String("actor", c.ID), zap.Error(err))
		return stance.Neutral()
	}
	return d
}

// SetStance switches actor to the named stance.
func (s *Simulation) SetStance(actorID, name string) error {
	c, ok := s.index[actorID]
	if !ok {
		return fmt.Errorf("set stance: %w: %q", ErrUnknownCombatant, actorID)
	}
	if _, err := s.stances.Resolve(name); err != nil {
		return err
	}
	c.Stance = name
	return nil
}

// Audit returns a copy of the audit log.
func (s *Simulation) Audit() []AuditEntry { return s.audit.Entries() }

// AuditSince returns audit entries with Seq > seq.
func (s *Simulation) AuditSince(seq uint64) []AuditEntry { return s.audit.Since(seq) }

// Events returns a copy of the event log.
func (s *Simulation) Events() []Event { return append([]Event(nil), s.events...) }

// Snapshot returns the public state of one combatant.
func (s *Simulation) Snapshot(id string) (Snapshot, bool) {
	c, ok := s.index[id]
	if !ok {
		return Snapshot{}, false
	}
	return c.Snapshot(), true
}

// Snapshots returns the public state of every combatant in scan order.
func (s *Simulation) Snapshots() []Snapshot {
	out := make([]Snapshot, 0, len(s.combatants))
	for _, c := range s.combatants {
		out = append(out, c.Snapshot())
	}
	return out
}

// Request queues an ability use to be processed in the next tick's request phase.
func (s *Simulation) Request(actorID string, slot int, targetID string) {
	s.queue = append(s.queue, request{actor: actorID, slot: slot, target: targetID})
}

// RequestMove queues a movement to be processed in the next tick's request phase.
func (s *Simulation) RequestMove(actorID string, delta geom.Vec3) {
	s.queue = append(s.queue, request{actor: actorID, slot: NoAbility, move: delta})
}

// Tick advances the simulation by dt. Phases run in a fixed order: resource
// regeneration, timers and status effects, in-progress executions, queued
// requests, then AI decisions that are queued for the next tick.
func (s *Simulation) Tick(dt time.Duration) {
	if dt <= 0 || s.halted {
		return
	}
	s.now += dt

	for _, c := range s.combatants {
		if c.Dead {
			continue
		}
		c.Resources.Advance(dt, resource.RegenContext{
			Position: c.Position,
			InCombat: c.InCombat(s.now, s.settings.CombatTimeout),
		})
	}

	for _, c := range s.combatants {
		if s.halted {
			return
		}
		if c.Dead {
			continue
		}
		c.Timers.Advance(dt)
		s.applyPeriodic(c, c.Effects.Tick(dt))
	}

	for _, c := range s.combatants {
		if s.halted {
			return
		}
		if c.Dead || c.Exec.State == Idle {
			continue
		}
		s.advanceExecution(c, dt)
	}

	pending := s.queue
	s.queue = nil
	for _, r := range pending {
		if s.halted {
			return
		}
		if r.move != (geom.Vec3{}) {
			_ = s.Move(r.actor, r.move)
		}
		if r.slot != NoAbility {
			_ = s.UseAbility(r.actor, r.slot, r.target)
		}
	}

	if s.decider == nil || s.halted {
		return
	}
	for _, c := range s.combatants {
		if c.Dead || c.Controller != ControllerAI || c.EnemySide == "" {
			continue
		}
		d := s.decider.Decide(s, c, dt)
		if d.HasMove() || d.HasAbility() {
			s.queue = append(s.queue, request{actor: c.ID, slot: d.Slot, target: d.TargetID, move: d.Move})
		}
	}
}

// UseAbility starts the ability in actor's slot against target, synchronously.
// Every check runs before the first mutation, so a returned error leaves the
// combatant unchanged.
//
// Postcondition: on error the error is an *UnknownAbilityError, *InsufficientResourceError,
// *UnavailableError, or wraps ErrUnknownCombatant.
func (s *Simulation) UseAbility(actorID string, slot int, targetID string) error {
	if s.halted {
		return ErrHalted
	}
	err := s.useAbility(actorID, slot, targetID)
	if err == nil {
		return nil
	}
	var unknown *UnknownAbilityError
	var short *InsufficientResourceError
	var unavail *UnavailableError
	switch {
	case errors.As(err, &unknown):
		s.logger.Warn("ability identity did not resolve",
			zap.String("actor", unknown.Actor),
			zap.Int("slot", unknown.Slot),
			zap.String("identity", unknown.Identity),
		)
	case errors.As(err, &short):
		fields := []zap.Field{zap.String("actor", short.Actor), zap.String("ability", short.Ability)}
		for _, sf := range short.Shortfalls {
			fields = append(fields, zap.String(sf.Pool.String(), fmt.Sprintf("%.2f/%.2f", sf.Have, sf.Need)))
		}
		s.logger.Debug("action blocked: insufficient resource", fields...)
	case errors.As(err, &unavail):
		s.logger.Debug("action blocked",
			zap.String("actor", unavail.Actor),
			zap.String("ability", unavail.Ability),
			zap.Int("slot", slot),
			zap.Stringer("reason", unavail.Reason),
		)
	default:
		s.logger.Debug("action rejected", zap.String("actor", actorID), zap.Error(err))
	}
	return err
}

type plan struct {
	def       ability.Definition
	slot      int
	target    *Combatant
	center    geom.Vec3
	primary   resource.Cost
	secondary *resource.Cost
}

func (s *Simulation) useAbility(actorID string, slot int, targetID string) error {
	actor, ok := s.index[actorID]
	if !ok {
		return fmt.Errorf("use ability: %w: %q", ErrUnknownCombatant, actorID)
	}
	p, err := s.check(actor, slot, targetID)
	if err != nil {
		return err
	}
	if short, ok := actor.Resources.TrySpend(p.primary, p.secondary); !ok {
		return &InsufficientResourceError{Actor: actor.ID, Ability: p.def.Name, Shortfalls: short}
	}
	s.commit(actor, p)
	return nil
}

func (s *Simulation) check(actor *Combatant, slot int, targetID string) (plan, error) {
	if actor.Dead {
		return plan{}, unavailable(actor.ID, "", ActorDead)
	}
	if slot < 0 || slot >= timers.SlotCount || actor.Slots[slot] == "" {
		return plan{}, unavailable(actor.ID, "", EmptySlot)
	}
	identity := actor.Slots[slot]
	def, err := s.resolver.Resolve(identity)
	if err != nil {
		return plan{}, &UnknownAbilityError{Actor: actor.ID, Slot: slot, Identity: identity, Err: err}
	}
	if actor.Busy() {
		return plan{}, unavailable(actor.ID, def.Name, Busy)
	}
	if actor.Effects.IsStunned() {
		return plan{}, unavailable(actor.ID, def.Name, Stunned)
	}
	if actor.Effects.IsSilenced() && def.Archetype != ability.Melee {
		return plan{}, unavailable(actor.ID, def.Name, Silenced)
	}
	if !actor.Timers.Ready(slot) {
		return plan{}, unavailable(actor.ID, def.Name, OnCooldown)
	}
	if !actor.Timers.CanBypassGate() {
		return plan{}, unavailable(actor.ID, def.Name, GateActive)
	}

	p := plan{def: def, slot: slot}
	if err := s.selectTarget(actor, targetID, &p); err != nil {
		return plan{}, err
	}

	st := s.StanceOf(actor)
	p.primary = def.Cost.Scaled(st.CostMultiplier)
	if def.SecondaryCost != nil {
		sc := def.SecondaryCost.Scaled(st.CostMultiplier)
		p.secondary = &sc
	}
	return p, nil
}

func (s *Simulation) selectTarget(actor *Combatant, targetID string, p *plan) error {
	def := p.def
	if def.Archetype == ability.Area && def.Range == 0 {
		p.center = actor.Position
		return nil
	}
	if targetID == "" {
		if def.Archetype != ability.Heal {
			return unavailable(actor.ID, def.Name, InvalidTarget)
		}
		targetID = actor.ID
	}
	t, ok := s.index[targetID]
	if !ok {
		return unavailable(actor.ID, def.Name, InvalidTarget)
	}
	if def.Archetype == ability.Heal {
		if !actor.IsAllyOf(t) {
			return unavailable(actor.ID, def.Name, InvalidTarget)
		}
	} else if !actor.IsEnemyOf(t) {
		return unavailable(actor.ID, def.Name, InvalidTarget)
	}
	if t.Dead {
		return unavailable(actor.ID, def.Name, TargetDead)
	}
	if t != actor && geom.DistanceXZ(actor.Position, t.Position) > def.Range {
		return unavailable(actor.ID, def.Name, OutOfRange)
	}
	p.target = t
	p.center = t.Position
	return nil
}

// commit starts execution after the cost has been debited.
func (s *Simulation) commit(actor *Combatant, p plan) {
	continuation := actor.Timers.ComboOpen()
	if continuation {
		actor.Timers.CloseCombo()
	}
	ex := Execution{
		Ability:      p.def,
		Slot:         p.slot,
		Center:       p.center,
		Continuation: continuation,
	}
	if p.target != nil {
		ex.TargetID = p.target.ID
	}
	s.recordUse(actor, ex)

	switch p.def.Timing.Mode {
	case ability.Instant:
		s.setCooldown(actor, ex)
		s.land(actor, ex)
		if !actor.Dead {
			s.complete(actor, ex)
		}
	case ability.Windup:
		ex.State = Winding
		actor.Exec = ex
	case ability.Cast:
		ex.State = Casting
		actor.Exec = ex
	case ability.Channeled:
		ex.State = Channeling
		ex.TotalTicks = p.def.Timing.TotalTicks()
		s.setCooldown(actor, ex)
		actor.Exec = ex
	}
}

func (s *Simulation) recordUse(actor *Combatant, ex Execution) {
	key := actor.ID + "\x00" + ex.Ability.Name
	s.uses[key]++
	s.events = append(s.events, Event{
		At: s.now, Kind: EventAbilityUsed, Actor: actor.ID, Target: ex.TargetID, Ability: ex.Ability.Name,
	})
	if s.goals != nil {
		s.goals.Emit(GoalEvent{Kind: GoalAbilityUsed, Actor: actor.ID, Subject: ex.Ability.Name, Count: s.uses[key]})
	}
	s.logger.Debug("ability started",
		zap.String("actor", actor.ID),
		zap.String("ability", ex.Ability.Name),
		zap.Int("slot", ex.Slot),
		zap.String("target", ex.TargetID),
		zap.Stringer("timing", ex.Ability.Timing.Mode),
	)
}

func (s *Simulation) setCooldown(actor *Combatant, ex Execution) {
	mult := s.StanceOf(actor).CooldownMultiplier
	cd := ex.Ability.Cooldown
	if mult != 1 {
		cd = time.Duration(float64(cd) * mult)
	}
	_ = actor.Timers.SetCooldown(ex.Slot, cd)
}

// complete applies the gate rule for a finished execution.
func (s *Simulation) complete(actor *Combatant, ex Execution) {
	branch := actor.Timers.ApplyCompletion(ex.Ability.EnablesCombo, ex.Continuation,
		s.settings.GlobalCooldown, s.settings.ComboWindow)
	s.logger.Debug("ability completed",
		zap.String("actor", actor.ID),
		zap.String("ability", ex.Ability.Name),
		zap.Duration("elapsed", ex.Elapsed),
		zap.Stringer("gate", branch),
	)
}

func (s *Simulation) advanceExecution(c *Combatant, dt time.Duration) {
	switch c.Exec.State {
	case Winding, Casting:
		c.Exec.Elapsed += dt
		if c.Exec.Elapsed < c.Exec.Ability.Timing.Duration {
			return
		}
		c.Exec.Elapsed = c.Exec.Ability.Timing.Duration
		done := c.Exec
		c.Exec = Execution{}
		if done.singleTarget() && s.living(done.TargetID) == nil {
			s.logger.Debug("execution abandoned", zap.String("actor", c.ID),
				zap.String("ability", done.Ability.Name), zap.Error(ErrTargetLost))
			return
		}
		s.setCooldown(c, done)
		s.land(c, done)
		if !c.Dead {
			s.complete(c, done)
		}
	case Channeling:
		s.advanceChannel(c, dt)
	}
}

func (s *Simulation) advanceChannel(c *Combatant, dt time.Duration) {
	ex := &c.Exec
	step := ex.Ability.Timing.Duration - ex.Elapsed
	if dt < step {
		step = dt
	}
	ex.Elapsed += step
	ex.acc += step
	interval := ex.Ability.Timing.TickInterval
	n := int(ex.acc / interval)
	ex.acc -= time.Duration(n) * interval
	if left := ex.TotalTicks - ex.TicksApplied; n > left {
		n = left
	}
	perTick := ex.Ability.Magnitude / float64(ex.TotalTicks)
	for i := 0; i < n; i++ {
		t := s.living(ex.TargetID)
		if t == nil {
			break
		}
		first := ex.TicksApplied == 0
		ex.TicksApplied++
		def := ex.Ability
		s.hit(c, t, def, perTick, AuditPeriodicDamage)
		if first && !t.Dead {
			s.applyEffect(c, t, def)
		}
		if c.Dead || c.Exec.State != Channeling {
			return
		}
	}
	if ex.Elapsed >= ex.Ability.Timing.Duration || s.living(ex.TargetID) == nil {
		s.endChannel(c)
	}
}

// endChannel ends a channel by any means; ticks already applied stand and the
// gate rule applies as for any completion.
func (s *Simulation) endChannel(c *Combatant) {
	done := c.Exec
	c.Exec = Execution{}
	if !c.Dead {
		s.complete(c, done)
	}
}

// Move displaces actor by delta and keeps it grounded on the terrain.
// Moving synchronously cancels a cast in progress, without refund.
func (s *Simulation) Move(actorID string, delta geom.Vec3) error {
	if s.halted {
		return ErrHalted
	}
	c, ok := s.index[actorID]
	if !ok {
		return fmt.Errorf("move: %w: %q", ErrUnknownCombatant, actorID)
	}
	if c.Dead {
		return unavailable(c.ID, "", ActorDead)
	}
	if c.Effects.IsRooted() {
		return unavailable(c.ID, "", Rooted)
	}
	if delta == (geom.Vec3{}) {
		return nil
	}
	c.Position = c.Position.Add(delta)
	if s.terrain != nil {
		c.Position.Y = s.terrain.Height(c.Position.X, c.Position.Z)
	}
	if c.Exec.cancellableByMovement() {
		s.logger.Debug("cast cancelled by movement",
			zap.String("actor", c.ID), zap.String("ability", c.Exec.Ability.Name))
		c.Exec = Execution{}
	}
	return nil
}

// Cancel explicitly stops actor's cast or channel. Windups cannot be cancelled.
//
// Postcondition: returns true iff an execution was stopped.
func (s *Simulation) Cancel(actorID string) (bool, error) {
	c, ok := s.index[actorID]
	if !ok {
		return false, fmt.Errorf("cancel: %w: %q", ErrUnknownCombatant, actorID)
	}
	return s.interrupt(c), nil
}

// interrupt stops a cast (no cooldown, no gate) or ends a channel (gate rule applies).
func (s *Simulation) interrupt(c *Combatant) bool {
	switch c.Exec.State {
	case Casting:
		s.logger.Debug("cast interrupted", zap.String("actor", c.ID), zap.String("ability", c.Exec.Ability.Name))
		c.Exec = Execution{}
		return true
	case Channeling:
		s.logger.Debug("channel interrupted", zap.String("actor", c.ID), zap.String("ability", c.Exec.Ability.Name))
		s.endChannel(c)
		return true
	default:
		return false
	}
}

func (s *Simulation) living(id string) *Combatant {
	if id == "" {
		return nil
	}
	c, ok := s.index[id]
	if !ok || c.Dead {
		return nil
	}
	return c
}
