package arena

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/warchief/internal/game/ability"
	"github.com/cory-johannsen/warchief/internal/game/combat"
	"github.com/cory-johannsen/warchief/internal/game/geom"
	"github.com/cory-johannsen/warchief/internal/game/npc"
	"github.com/cory-johannsen/warchief/internal/game/stance"
	"github.com/cory-johannsen/warchief/internal/observability"
	"github.com/cory-johannsen/warchief/internal/storage/postgres"
)

// Archiver persists a decided session and its audit log.
type Archiver interface {
	Archive(ctx context.Context, rec postgres.SessionRecord, entries []combat.AuditEntry) error
}

// Config tunes the runner loop.
type Config struct {
	// Tick is the fixed simulation step and the wall-clock interval between steps.
	Tick time.Duration
	// Rematch restages a match as soon as it is decided.
	Rematch bool
	// EndCondition applies to matches that do not name one.
	EndCondition combat.EndCondition
	// MaxDuration applies to matches that do not set one.
	MaxDuration time.Duration
}

// Deps are the collaborators a Runner stages sessions with.
type Deps struct {
	Engine   *combat.Engine
	Spawner  *npc.Spawner
	Resolver *ability.Resolver
	Stances  *stance.Registry
	Settings combat.Settings
	Terrain  geom.Terrain
	Decider  combat.Decider
	Goals    combat.GoalSink
	// Archive may be nil, disabling persistence.
	Archive Archiver
	Logger  *zap.Logger
}

// Result is a decided session as reported by the runner.
type Result struct {
	Session uuid.UUID
	Match   string
	Round   int
	Outcome combat.Outcome
	Audit   []combat.AuditEntry
}

type staged struct {
	match Match
	round int
	sim   *combat.Simulation
}

// Runner stages matches into the combat engine and advances them at a fixed
// rate. It implements server.Service.
type Runner struct {
	cfg     Config
	deps    Deps
	matches []Match
	logger  *zap.Logger

	mu      sync.RWMutex
	live    map[uuid.UUID]staged
	results []Result

	stop     chan struct{}
	stopOnce sync.Once
	ctx      context.Context
	cancel   context.CancelFunc

	// OnResult, when set, is called for every decided session from the loop goroutine.
	OnResult func(Result)
}

// NewRunner creates a Runner for matches.
//
// Precondition: cfg.Tick > 0; deps.Engine, deps.Spawner and deps.Resolver non-nil;
// every match valid.
func NewRunner(cfg Config, deps Deps, matches []Match) (*Runner, error) {
	if cfg.Tick <= 0 {
		return nil, fmt.Errorf("arena: tick must be > 0")
	}
	if deps.Engine == nil || deps.Spawner == nil || deps.Resolver == nil {
		return nil, fmt.Errorf("arena: engine, spawner and resolver are required")
	}
	for _, m := range matches {
		if err := m.Validate(); err != nil {
			return nil, err
		}
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Runner{
		cfg:     cfg,
		deps:    deps,
		matches: append([]Match(nil), matches...),
		logger:  deps.Logger,
		live:    make(map[uuid.UUID]staged),
		stop:    make(chan struct{}),
		ctx:     ctx,
		cancel:  cancel,
	}, nil
}

// Stage spawns m's combatants into a fresh simulation and starts the session.
//
// Postcondition: the session is registered with the engine, or an error is
// returned and nothing is registered.
func (r *Runner) Stage(m Match, round int) (*combat.Session, error) {
	sim, err := combat.NewSimulation(r.deps.Settings, combat.Services{
		Resolver: r.deps.Resolver,
		Stances:  r.deps.Stances,
		Terrain:  r.deps.Terrain,
		Decider:  r.deps.Decider,
		Goals:    r.deps.Goals,
		Logger:   r.logger.With(zap.String("match", m.Name)),
	})
	if err != nil {
		return nil, fmt.Errorf("arena: staging %q: %w", m.Name, err)
	}
	combatants := make([]*combat.Combatant, 0, len(m.Combatants))
	for i, e := range m.Combatants {
		enemy := m.Sides[0]
		if e.Side == m.Sides[0] {
			enemy = m.Sides[1]
		}
		c, err := r.deps.Spawner.Spawn(e.Template, e.Side, enemy, e.Position)
		if err != nil {
			return nil, fmt.Errorf("arena: staging %q combatant %d: %w", m.Name, i, err)
		}
		combatants = append(combatants, c)
	}
	maxDur := m.MaxDuration
	if maxDur == 0 {
		maxDur = r.cfg.MaxDuration
	}
	sess, err := r.deps.Engine.Start(combat.SessionConfig{
		ID:           uuid.New(),
		Sides:        m.Sides,
		EndCondition: m.End(r.cfg.EndCondition),
		MaxDuration:  maxDur,
	}, sim, combatants)
	if err != nil {
		return nil, fmt.Errorf("arena: staging %q: %w", m.Name, err)
	}

	r.mu.Lock()
	r.live[sess.ID] = staged{match: m, round: round, sim: sim}
	r.mu.Unlock()

	observability.ForSession(r.logger, sess.ID, m.Name).Info("session staged",
		zap.Int("round", round),
		zap.Int("combatants", len(combatants)),
		zap.String("end_condition", m.End(r.cfg.EndCondition).String()),
	)
	return sess, nil
}

// Step advances every live session by one tick and settles the ones decided.
// Step must only be called from one goroutine at a time.
//
// Postcondition: returns the results decided during this step.
func (r *Runner) Step() []Result {
	finished := r.deps.Engine.TickAll(r.cfg.Tick)
	out := make([]Result, 0, len(finished))
	for _, sess := range finished {
		out = append(out, r.settle(sess))
	}
	return out
}

func (r *Runner) settle(sess *combat.Session) Result {
	r.mu.Lock()
	st := r.live[sess.ID]
	delete(r.live, sess.ID)
	r.mu.Unlock()

	outcome, _ := sess.Outcome()
	res := Result{
		Session: sess.ID,
		Match:   st.match.Name,
		Round:   st.round,
		Outcome: outcome,
		Audit:   sess.Audit(),
	}
	r.deps.Engine.End(sess.ID)

	log := observability.ForSession(r.logger, sess.ID, st.match.Name)
	log.Info("session decided",
		zap.Int("round", st.round),
		zap.String("winner", string(outcome.Winner)),
		zap.String("reason", string(outcome.Reason)),
		zap.Duration("at", outcome.At),
		zap.Int("audit_entries", len(res.Audit)),
	)

	if r.deps.Archive != nil {
		err := r.deps.Archive.Archive(r.ctx, postgres.SessionRecord{
			ID:       sess.ID,
			Match:    st.match.Name,
			Winner:   outcome.Winner,
			Loser:    outcome.Loser,
			Reason:   outcome.Reason,
			Duration: outcome.At,
		}, res.Audit)
		if err != nil {
			log.Error("archiving session", zap.Error(err))
		}
	}

	r.mu.Lock()
	r.results = append(r.results, res)
	r.mu.Unlock()
	if r.OnResult != nil {
		r.OnResult(res)
	}

	if r.again(st) {
		if _, err := r.Stage(st.match, st.round+1); err != nil {
			log.Error("restaging match", zap.Error(err))
		}
	}
	return res
}

func (r *Runner) again(st staged) bool {
	if st.match.Rounds > 0 {
		return st.round < st.match.Rounds
	}
	return r.cfg.Rematch
}

// Results returns every result decided so far, in order.
func (r *Runner) Results() []Result {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Result(nil), r.results...)
}

// Live returns the number of undecided sessions.
func (r *Runner) Live() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.live)
}

// Combatant returns a snapshot of the live combatant with id from any staged
// session. It reads simulation state unsynchronized and must only be called
// from the loop goroutine, for example from an AI score hook.
func (r *Runner) Combatant(id string) (combat.Snapshot, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, st := range r.live {
		if snap, ok := st.sim.Snapshot(id); ok {
			return snap, true
		}
	}
	return combat.Snapshot{}, false
}

// RunToCompletion stages every match and steps without waiting on the wall
// clock until nothing is live or limit steps have run. It returns the results
// decided along the way.
func (r *Runner) RunToCompletion(limit int) ([]Result, error) {
	for _, m := range r.matches {
		if _, err := r.Stage(m, 1); err != nil {
			return nil, err
		}
	}
	var out []Result
	for i := 0; i < limit && r.Live() > 0; i++ {
		out = append(out, r.Step()...)
	}
	return out, nil
}

// Start stages every match and runs the tick loop. It returns nil once every
// session is decided and nothing is restaged, or when Stop is called.
func (r *Runner) Start() error {
	for _, m := range r.matches {
		if _, err := r.Stage(m, 1); err != nil {
			return err
		}
	}
	r.logger.Info("arena running",
		zap.Int("matches", len(r.matches)),
		zap.Duration("tick", r.cfg.Tick),
	)

	ticker := time.NewTicker(r.cfg.Tick)
	defer ticker.Stop()
	for {
		select {
		case <-r.stop:
			return nil
		case <-ticker.C:
			r.Step()
			if r.Live() == 0 {
				r.logger.Info("arena idle, every match decided",
					zap.Int("results", len(r.Results())),
				)
				return nil
			}
		}
	}
}

// Stop ends the tick loop and cancels in-flight archive writes.
func (r *Runner) Stop() {
	r.stopOnce.Do(func() {
		close(r.stop)
		r.cancel()
	})
}
