package arena_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/warchief/internal/arena"
	"github.com/cory-johannsen/warchief/internal/game/combat"
)

const matchesYAML = `
matches:
  - name: skirmish
    sides: [red, blue]
    end_condition: party_wipe
    max_duration: 2m
    rounds: 2
    combatants:
      - template: brute
        side: red
        position: {x: 0, y: 0, z: 0}
      - template: dummy
        side: blue
        position: {x: 4, y: 0, z: 1}
  - name: duel
    sides: [gold, silver]
    combatants:
      - template: brute
        side: gold
      - template: brute
        side: silver
`

func TestLoadMatchesFromBytes(t *testing.T) {
	matches, err := arena.LoadMatchesFromBytes([]byte(matchesYAML))
	require.NoError(t, err)
	require.Len(t, matches, 2)

	m := matches[0]
	assert.Equal(t, "skirmish", m.Name)
	assert.Equal(t, [2]combat.Side{"red", "blue"}, m.Sides)
	assert.Equal(t, combat.PartyWipe, m.End(combat.FirstDeath))
	assert.Equal(t, 2*time.Minute, m.MaxDuration)
	assert.Equal(t, 2, m.Rounds)
	assert.Equal(t, 4.0, m.Combatants[1].Position.X)
	assert.Equal(t, 1.0, m.Combatants[1].Position.Z)

	assert.Equal(t, combat.FirstDeath, matches[1].End(combat.FirstDeath))
}

func TestLoadMatchesFromBytes_Rejects(t *testing.T) {
	cases := map[string]string{
		"unknown field": `
matches:
  - name: a
    sides: [red, blue]
    colour: green
`,
		"same sides": `
matches:
  - name: a
    sides: [red, red]
    combatants:
      - {template: brute, side: red}
`,
		"foreign side": `
matches:
  - name: a
    sides: [red, blue]
    combatants:
      - {template: brute, side: red}
      - {template: brute, side: green}
`,
		"empty side": `
matches:
  - name: a
    sides: [red, blue]
    combatants:
      - {template: brute, side: red}
`,
		"bad end condition": `
matches:
  - name: a
    sides: [red, blue]
    end_condition: sudden_death
    combatants:
      - {template: brute, side: red}
      - {template: brute, side: blue}
`,
		"duplicate name": `
matches:
  - name: a
    sides: [red, blue]
    combatants:
      - {template: brute, side: red}
      - {template: brute, side: blue}
  - name: a
    sides: [red, blue]
    combatants:
      - {template: brute, side: red}
      - {template: brute, side: blue}
`,
	}
	for name, doc := range cases {
		doc := doc // per-iteration copy for Go < 1.22 loop semantics
		t.Run(name, func(t *testing.T) {
			_, err := arena.LoadMatchesFromBytes([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestMatchValidate_TooManyPerSide(t *testing.T) {
	m := arena.Match{Name: "crowd", Sides: [2]combat.Side{"red", "blue"}}
	for i := 0; i <= combat.MaxPerSide; i++ {
		m.Combatants = append(m.Combatants, arena.Entry{Template: "brute", Side: "red"})
	}
	m.Combatants = append(m.Combatants, arena.Entry{Template: "brute", Side: "blue"})
	assert.ErrorContains(t, m.Validate(), `side "red" has 6 combatants`)
}

func TestLoadMatches_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "matches.yaml")
	require.NoError(t, os.WriteFile(path, []byte(matchesYAML), 0644))
	matches, err := arena.LoadMatches(path)
	require.NoError(t, err)
	assert.Len(t, matches, 2)

	_, err = arena.LoadMatches(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
