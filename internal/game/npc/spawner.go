package npc

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/warchief/internal/game/ability"
	"github.com/cory-johannsen/warchief/internal/game/ai"
	"github.com/cory-johannsen/warchief/internal/game/combat"
	"github.com/cory-johannsen/warchief/internal/game/geom"
	"github.com/cory-johannsen/warchief/internal/game/inventory"
	"github.com/cory-johannsen/warchief/internal/game/stance"
)

// Spawner turns templates into combatants. Every reference a template makes
// is checked when it is registered, so an unknown ability fails at load time
// rather than mid-fight. All methods are safe for concurrent use.
type Spawner struct {
	resolver   *ability.Resolver
	stances    *stance.Registry
	gear       *inventory.Registry
	strategies *ai.Registry
	logger     *zap.Logger

	mu        sync.RWMutex
	templates map[string]*Template
	gearMult  map[string]float64
}

// SpawnerDeps are the registries templates are checked against. Gear and
// Strategies may be nil, in which case templates must not reference them.
type SpawnerDeps struct {
	Resolver   *ability.Resolver
	Stances    *stance.Registry
	Gear       *inventory.Registry
	Strategies *ai.Registry
	Logger     *zap.Logger
}

// NewSpawner creates an empty Spawner.
//
// Precondition: deps.Resolver and deps.Stances must not be nil.
func NewSpawner(deps SpawnerDeps) (*Spawner, error) {
	if deps.Resolver == nil || deps.Stances == nil {
		return nil, fmt.Errorf("npc.NewSpawner: resolver and stances are required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Spawner{
		resolver:   deps.Resolver,
		stances:    deps.Stances,
		gear:       deps.Gear,
		strategies: deps.Strategies,
		logger:     logger,
		templates:  make(map[string]*Template),
		gearMult:   make(map[string]float64),
	}, nil
}

// Check validates every external reference tmpl makes and returns the gear
// damage multiplier it resolves to. All problems are reported together.
func (s *Spawner) Check(tmpl *Template) (float64, error) {
	if err := tmpl.Validate(); err != nil {
		return 0, err
	}
	var errs []error
	for slot, name := range tmpl.Abilities {
		if name == "" {
			continue
		}
		if _, err := s.resolver.Resolve(name); err != nil {
			errs = append(errs, fmt.Errorf("slot %d: %w", slot, err))
		}
	}
	if _, err := s.stances.Resolve(tmpl.Stance); err != nil {
		errs = append(errs, err)
	}
	mult := 1.0
	if len(tmpl.Gear) > 0 {
		if s.gear == nil {
			errs = append(errs, fmt.Errorf("gear %v declared but no gear is loaded", tmpl.Gear))
		} else if m, err := s.gear.DamageMultiplier(tmpl.Gear...); err != nil {
			errs = append(errs, err)
		} else {
			mult = m
		}
	}
	if tmpl.Strategy != "" {
		if s.strategies == nil {
			errs = append(errs, fmt.Errorf("strategy %q declared but no strategies are loaded", tmpl.Strategy))
		} else if _, ok := s.strategies.Strategy(tmpl.Strategy); !ok {
			errs = append(errs, fmt.Errorf("unknown strategy %q", tmpl.Strategy))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return 0, fmt.Errorf("npc template %q: %w", tmpl.ID, err)
	}
	return mult, nil
}

// Register checks and stores tmpl.
//
// Postcondition: returns an error if tmpl is invalid, references anything
// unknown, or its ID is already registered.
func (s *Spawner) Register(tmpl *Template) error {
	mult, err := s.Check(tmpl)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.templates[tmpl.ID]; exists {
		return fmt.Errorf("npc template %q already registered", tmpl.ID)
	}
	s.templates[tmpl.ID] = tmpl
	s.gearMult[tmpl.ID] = mult
	return nil
}

// Template returns the registered template with id.
func (s *Spawner) Template(id string) (*Template, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.templates[id]
	return t, ok
}

// IDs returns every registered template ID in sorted order.
func (s *Spawner) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.templates))
	for id := range s.templates {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Spawn creates an AI-controlled combatant from the template with id.
//
// Postcondition: the combatant has a unique ID derived from the template ID,
// full health and pools, and the template's slots, stance, strategy and gear.
func (s *Spawner) Spawn(id string, side, enemySide combat.Side, pos geom.Vec3) (*combat.Combatant, error) {
	s.mu.RLock()
	tmpl, ok := s.templates[id]
	mult := s.gearMult[id]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("npc.Spawner.Spawn: unknown template %q", id)
	}
	c, err := combat.NewCombatant(combat.Spec{
		ID:             fmt.Sprintf("%s-%s", tmpl.ID, uuid.NewString()),
		Name:           tmpl.Name,
		Template:       tmpl.ID,
		Side:           side,
		EnemySide:      enemySide,
		Controller:     combat.ControllerAI,
		Position:       pos,
		MoveSpeed:      tmpl.MoveSpeed,
		MaxHealth:      tmpl.MaxHealth,
		PoolMax:        tmpl.PoolMaxes(),
		Regen:          tmpl.Regenerators(),
		Slots:          tmpl.Abilities,
		Stance:         tmpl.Stance,
		GearMultiplier: mult,
		Strategy:       tmpl.Strategy,
	})
	if err != nil {
		return nil, err
	}
	s.logger.Debug("combatant spawned",
		zap.String("template", tmpl.ID),
		zap.String("combatant", c.ID),
		zap.String("side", string(side)),
	)
	return c, nil
}
