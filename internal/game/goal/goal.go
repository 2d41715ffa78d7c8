// Package goal tracks progression goals fed by combat goal events.
package goal

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/warchief/internal/game/combat"
)

// Definition is a goal loaded from YAML, e.g. "kill 10 wolves" or "use Fireball 50 times".
type Definition struct {
	ID   string          `yaml:"id"`
	Name string          `yaml:"name"`
	Kind combat.GoalKind `yaml:"kind"`
	// Subject is the template or ability name to match; empty matches any.
	Subject string `yaml:"subject"`
	Count   int    `yaml:"count"`
}

// Validate checks the definition.
//
// Postcondition: Returns nil iff ID is non-empty and Count >= 1.
func (d Definition) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("goal: id must not be empty")
	}
	if d.Count < 1 {
		return fmt.Errorf("goal %q: count must be >= 1", d.ID)
	}
	return nil
}

func (d Definition) matches(e combat.GoalEvent) bool {
	return d.Kind == e.Kind && (d.Subject == "" || d.Subject == e.Subject)
}

type goalFile struct {
	Goals []Definition `yaml:"goals"`
}

// LoadFromBytes parses a goals document.
func LoadFromBytes(data []byte) ([]Definition, error) {
	var f goalFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("parsing goals YAML: %w", err)
	}
	for _, d := range f.Goals {
		if err := d.Validate(); err != nil {
			return nil, err
		}
	}
	return f.Goals, nil
}

// LoadDirectory reads every *.yaml file in dir in lexical order.
//
// Precondition: dir must be a readable directory.
func LoadDirectory(dir string) ([]Definition, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading goals dir %q: %w", dir, err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".yaml") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	var out []Definition
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", name, err)
		}
		defs, err := LoadFromBytes(data)
		if err != nil {
			return nil, fmt.Errorf("loading %q: %w", name, err)
		}
		out = append(out, defs...)
	}
	return out, nil
}

// Completion reports that an actor reached a goal.
type Completion struct {
	Actor string
	Goal  Definition
}

// Tracker consumes combat goal events and counts progress per actor and goal.
// Each goal completes at most once per actor. All methods are safe for concurrent use.
type Tracker struct {
	mu        sync.Mutex
	defs      []Definition
	progress  map[string]map[string]int
	completed map[string]map[string]bool
	logger    *zap.Logger

	// OnComplete, when set, is called once per completion, outside the lock.
	OnComplete func(Completion)
}

// NewTracker creates a Tracker for defs.
//
// Precondition: every definition is valid and IDs are unique.
func NewTracker(defs []Definition, logger *zap.Logger) (*Tracker, error) {
	seen := make(map[string]bool, len(defs))
	for _, d := range defs {
		if err := d.Validate(); err != nil {
			return nil, err
		}
		if seen[d.ID] {
			return nil, fmt.Errorf("goal %q defined twice", d.ID)
		}
		seen[d.ID] = true
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tracker{
		defs:      append([]Definition(nil), defs...),
		progress:  make(map[string]map[string]int),
		completed: make(map[string]map[string]bool),
		logger:    logger,
	}, nil
}

// Emit implements combat.GoalSink.
func (t *Tracker) Emit(e combat.GoalEvent) {
	var done []Completion
	t.mu.Lock()
	for _, d := range t.defs {
		if !d.matches(e) || t.completed[e.Actor][d.ID] {
			continue
		}
		p := t.progress[e.Actor]
		if p == nil {
			p = make(map[string]int)
			t.progress[e.Actor] = p
		}
		p[d.ID]++
		if p[d.ID] < d.Count {
			continue
		}
		if t.completed[e.Actor] == nil {
			t.completed[e.Actor] = make(map[string]bool)
		}
		t.completed[e.Actor][d.ID] = true
		done = append(done, Completion{Actor: e.Actor, Goal: d})
	}
	t.mu.Unlock()

	for _, c := range done {
		t.logger.Info("goal completed", zap.String("actor", c.Actor), zap.String("goal", c.Goal.ID))
		if t.OnComplete != nil {
			t.OnComplete(c)
		}
	}
}

// Progress returns how many matching events actor has accumulated toward goalID.
func (t *Tracker) Progress(actor, goalID string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.progress[actor][goalID]
}

// Completed returns the IDs of goals actor has completed, sorted.
func (t *Tracker) Completed(actor string) []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []string
	for id := range t.completed[actor] {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
