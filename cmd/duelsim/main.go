// Package main provides duelsim, a headless runner that stages one fight from
// the content directories, simulates it as fast as possible, and prints the
// outcome and a per-combatant damage summary.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"text/tabwriter"
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
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	matchName := flag.String("match", "", "name of a match from the matches file; empty uses -red and -blue")
	red := flag.String("red", "warrior", "template for the red side")
	blue := flag.String("blue", "mage", "template for the blue side")
	distance := flag.Float64("distance", 10, "starting distance between the two combatants")
	rounds := flag.Int("rounds", 1, "number of rounds to simulate")
	flag.Parse()

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

	match, err := pickMatch(content.Matches, *matchName, *red, *blue, *distance)
	if err != nil {
		logger.Fatal("choosing match", zap.Error(err))
	}
	match.Rounds = *rounds

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

	tick := cfg.Simulation.TickInterval()
	runner, err := arena.NewRunner(arena.Config{
		Tick:         tick,
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
		Logger:   logger,
	}, []arena.Match{match})
	if err != nil {
		logger.Fatal("creating runner", zap.Error(err))
	}
	scripts.GetCombatant = runner.ScriptLookup()
	var unlocked []goal.Completion
	tracker.OnComplete = func(c goal.Completion) { unlocked = append(unlocked, c) }

	maxDur := match.MaxDuration
	if maxDur == 0 {
		maxDur = cfg.Simulation.MaxSessionDuration
	}
	if maxDur == 0 {
		maxDur = 10 * time.Minute
	}
	limit := *rounds * (int(maxDur/tick) + 1)
	results, err := runner.RunToCompletion(limit)
	if err != nil {
		logger.Fatal("running match", zap.Error(err))
	}

	for _, res := range results {
		printResult(os.Stdout, res)
	}
	for _, c := range unlocked {
		fmt.Fprintf(os.Stdout, "goal %q reached by %s\n", c.Goal.Name, c.Actor)
	}
	if runner.Live() > 0 {
		fmt.Fprintf(os.Stdout, "%d session(s) still undecided after %d ticks\n", runner.Live(), limit)
	}
	fmt.Fprintf(os.Stdout, "simulated %d round(s) in %s\n", len(results), time.Since(start).Round(time.Millisecond))
}

func pickMatch(matches []arena.Match, name, red, blue string, distance float64) (arena.Match, error) {
	if name != "" {
		for _, m := range matches {
			if m.Name == name {
				return m, nil
			}
		}
		return arena.Match{}, fmt.Errorf("no match named %q", name)
	}
	m := arena.Match{
		Name:  fmt.Sprintf("%s-vs-%s", red, blue),
		Sides: [2]combat.Side{"red", "blue"},
		Combatants: []arena.Entry{
			{Template: red, Side: "red"},
			{Template: blue, Side: "blue", Position: geom.Vec3{X: distance}},
		},
	}
	return m, m.Validate()
}

type tally struct {
	damage  float64
	healing float64
	hits    int
}

func printResult(out *os.File, res arena.Result) {
	winner := string(res.Outcome.Winner)
	if res.Outcome.Draw() {
		winner = "draw"
	}
	fmt.Fprintf(out, "%s round %d: %s (%s) at %s\n",
		res.Match, res.Round, winner, res.Outcome.Reason, res.Outcome.At)

	byActor := map[string]*tally{}
	for _, e := range res.Audit {
		t, ok := byActor[e.Actor]
		if !ok {
			t = &tally{}
			byActor[e.Actor] = t
		}
		switch e.Kind {
		case combat.AuditHeal, combat.AuditPeriodicHeal, combat.AuditLifesteal:
			t.healing += e.Applied
		default:
			t.damage += e.Applied
			t.hits++
		}
	}
	actors := make([]string, 0, len(byActor))
	for a := range byActor {
		actors = append(actors, a)
	}
	sort.Strings(actors)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  actor\thits\tdamage\thealing")
	for _, a := range actors {
		t := byActor[a]
		fmt.Fprintf(w, "  %s\t%d\t%.1f\t%.1f\n", a, t.hits, t.damage, t.healing)
	}
	w.Flush() //nolint:errcheck
}
