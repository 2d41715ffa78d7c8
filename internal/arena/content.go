package arena

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/warchief/internal/config"
	"github.com/cory-johannsen/warchief/internal/game/ability"
	"github.com/cory-johannsen/warchief/internal/game/ai"
	"github.com/cory-johannsen/warchief/internal/game/goal"
	"github.com/cory-johannsen/warchief/internal/game/inventory"
	"github.com/cory-johannsen/warchief/internal/game/npc"
	"github.com/cory-johannsen/warchief/internal/game/stance"
)

// Content is every registry built from the content directories.
type Content struct {
	Catalog    *ability.Catalog
	Resolver   *ability.Resolver
	Stances    *stance.Registry
	Gear       *inventory.Registry
	Strategies *ai.Registry
	Spawner    *npc.Spawner
	Goals      []goal.Definition
	Matches    []Match
}

// LoadContent reads abilities, ability overrides, stances, stance overrides, gear, strategies, templates,
// goals and matches in dependency order. Empty optional paths are skipped.
//
// Postcondition: every template's references resolve, or an error names the
// first file that failed.
func LoadContent(cfg config.ContentConfig, logger *zap.Logger) (*Content, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	cat, err := ability.LoadDirectory(cfg.AbilitiesDir)
	if err != nil {
		return nil, fmt.Errorf("loading abilities: %w", err)
	}
	c := &Content{
		Catalog:    cat,
		Resolver:   ability.NewResolver(cat),
		Stances:    stance.NewRegistry(),
		Gear:       inventory.NewRegistry(),
		Strategies: ai.NewRegistry(),
	}

	var overrides OverrideSet
	if cfg.OverridesFile != "" {
		if overrides, err = LoadOverrideSet(cfg.OverridesFile); err != nil {
			return nil, err
		}
		if err := ability.ApplyOverrides(c.Resolver, overrides.Abilities); err != nil {
			return nil, fmt.Errorf("applying ability overrides: %w", err)
		}
	}
	if cfg.StancesDir != "" {
		if c.Stances, err = stance.LoadDirectory(cfg.StancesDir); err != nil {
			return nil, fmt.Errorf("loading stances: %w", err)
		}
	}
	if err := overrides.ApplyStances(c.Stances); err != nil {
		return nil, fmt.Errorf("applying stance overrides: %w", err)
	}
	if cfg.GearDir != "" {
		if c.Gear, err = inventory.LoadGear(cfg.GearDir); err != nil {
			return nil, fmt.Errorf("loading gear: %w", err)
		}
	}
	if cfg.StrategiesDir != "" {
		strategies, err := ai.LoadStrategies(cfg.StrategiesDir)
		if err != nil {
			return nil, fmt.Errorf("loading strategies: %w", err)
		}
		for _, s := range strategies {
			if err := c.Strategies.Register(s); err != nil {
				return nil, fmt.Errorf("loading strategies: %w", err)
			}
		}
	}

	c.Spawner, err = npc.NewSpawner(npc.SpawnerDeps{
		Resolver:   c.Resolver,
		Stances:    c.Stances,
		Gear:       c.Gear,
		Strategies: c.Strategies,
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}
	if cfg.TemplatesDir != "" {
		templates, err := npc.LoadTemplates(cfg.TemplatesDir)
		if err != nil {
			return nil, fmt.Errorf("loading templates: %w", err)
		}
		for _, t := range templates {
			if err := c.Spawner.Register(t); err != nil {
				return nil, fmt.Errorf("registering template %q: %w", t.ID, err)
			}
		}
	}

	if cfg.GoalsDir != "" {
		if c.Goals, err = goal.LoadDirectory(cfg.GoalsDir); err != nil {
			return nil, fmt.Errorf("loading goals: %w", err)
		}
	}
	if cfg.MatchesFile != "" {
		if c.Matches, err = LoadMatches(cfg.MatchesFile); err != nil {
			return nil, err
		}
		for _, m := range c.Matches {
			for i, e := range m.Combatants {
				if _, ok := c.Spawner.Template(e.Template); !ok {
					return nil, fmt.Errorf("match %q combatant %d: unknown template %q", m.Name, i, e.Template)
				}
			}
		}
	}

	logger.Info("content loaded",
		zap.Int("abilities", cat.Len()),
		zap.Int("overrides", len(c.Resolver.Overrides())),
		zap.Int("stance_overrides", len(overrides.Stances)),
		zap.Strings("stances", c.Stances.Names()),
		zap.Strings("strategies", c.Strategies.IDs()),
		zap.Strings("templates", c.Spawner.IDs()),
		zap.Int("goals", len(c.Goals)),
		zap.Int("matches", len(c.Matches)),
	)
	return c, nil
}
