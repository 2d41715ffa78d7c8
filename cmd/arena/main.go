// Package main provides the arena binary: it loads content, stages the
// configured matches, and drives them at a fixed tick rate until every match
// is decided or a signal arrives.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/warchief/internal/arena"
	"github.com/cory-johannsen/warchief/internal/config"
	"github.com/cory-johannsen/warchief/internal/game/ai"
	"github.com/cory-johannsen/warchief/internal/game/combat"
	"github.com/cory-johannsen/warchief/internal/game/geom"
	"github.com/cory-johannsen/warchief/internal/game/goal"
	"github.com/cory-johannsen/warchief/internal/observability"
	"github.com/cory-johannsen/warchief/internal/scripting"
	"github.com/cory-johannsen/warchief/internal/server"
	"github.com/cory-johannsen/warchief/internal/storage/postgres"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	healthInterval := flag.Duration("db-health", 30*time.Second, "database health check interval")
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	content, err := arena.LoadContent(cfg.Content, logger)
	if err != nil {
		logger.Fatal("loading content", zap.Error(err))
	}

	scripts := scripting.NewManager(logger)
	defer scripts.Close()
	if cfg.Content.ScriptsDir != "" {
		if err := scripts.LoadGlobal(cfg.Content.ScriptsDir, cfg.Scripting.InstructionLimit); err != nil {
			logger.Fatal("loading scripts", zap.Error(err))
		}
	}

	tracker, err := goal.NewTracker(content.Goals, logger)
	if err != nil {
		logger.Fatal("creating goal tracker", zap.Error(err))
	}

	endCondition, err := cfg.Simulation.EndCondition()
	if err != nil {
		logger.Fatal("parsing end condition", zap.Error(err))
	}

	lifecycle := server.NewLifecycle(logger)

	var archive arena.Archiver
	if cfg.Arena.Archive {
		dbStart := time.Now()
		store, err := postgres.Open(ctx, cfg.Database)
		if err != nil {
			logger.Fatal("connecting to database", zap.Error(err))
		}
		if err := store.RequireSchema(ctx); err != nil {
			logger.Fatal("checking database schema", zap.Error(err))
		}
		logger.Info("database connected",
			zap.String("host", cfg.Database.Host),
			zap.Duration("elapsed", time.Since(dbStart)),
		)
		n, err := store.Overrides().LoadInto(ctx, content.Resolver)
		if err != nil {
			logger.Fatal("loading stored overrides", zap.Error(err))
		}
		logger.Info("stored overrides applied", zap.Int("count", n))
		archive = store.Audit()

		stopHealth := make(chan struct{})
		lifecycle.Add("postgres", &server.FuncService{
			StartFn: func() error {
				ticker := time.NewTicker(*healthInterval)
				defer ticker.Stop()
				for {
					select {
					case <-stopHealth:
						return nil
					case <-ticker.C:
						if err := store.Health(ctx, 5*time.Second); err != nil {
							logger.Warn("database health check failed", zap.Error(err))
						}
					}
				}
			},
			StopFn: func() {
				close(stopHealth)
				store.Close()
			},
		})
	}

	runner, err := arena.NewRunner(arena.Config{
		Tick:         cfg.Simulation.TickInterval(),
		Rematch:      cfg.Arena.Rematch,
		EndCondition: endCondition,
		MaxDuration:  cfg.Simulation.MaxSessionDuration,
	}, arena.Deps{
		Engine:   combat.NewEngine(),
		Spawner:  content.Spawner,
		Resolver: content.Resolver,
		Stances:  content.Stances,
		Settings: cfg.Simulation.Settings(),
		Terrain:  geom.FlatTerrain{},
		Decider:  ai.NewEngine(content.Strategies, scripts, logger),
		Goals:    tracker,
		Archive:  archive,
		Logger:   logger,
	}, content.Matches)
	if err != nil {
		logger.Fatal("creating arena runner", zap.Error(err))
	}
	scripts.GetCombatant = runner.ScriptLookup()
	tracker.OnComplete = func(c goal.Completion) {
		logger.Info("achievement unlocked",
			zap.String("actor", c.Actor),
			zap.String("goal", c.Goal.Name),
		)
	}

	lifecycle.Add("arena", &server.FuncService{
		StartFn: func() error {
			defer cancel()
			return runner.Start()
		},
		StopFn: runner.Stop,
	})

	logger.Info("arena initialized",
		zap.Duration("startup", time.Since(start)),
		zap.Int("tick_rate_hz", cfg.Simulation.TickRateHz),
		zap.Bool("archive", cfg.Arena.Archive),
		zap.Bool("rematch", cfg.Arena.Rematch),
	)

	if err := lifecycle.Run(ctx); err != nil {
		logger.Fatal("arena error", zap.Error(err))
	}
}
