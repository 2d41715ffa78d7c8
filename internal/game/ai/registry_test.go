package ai_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/warchief/internal/game/ai"
)

func TestRegistry_RegisterAndLookup(t *testing.T) {
	reg := ai.NewRegistry()
	require.NoError(t, reg.Register(support()))
	require.NoError(t, reg.Register(aggressive(ai.Greedy)))

	s, ok := reg.Strategy("medic")
	require.True(t, ok)
	assert.Equal(t, ai.Support, s.Profile)
	_, ok = reg.Strategy("ghost")
	assert.False(t, ok)
	assert.Equal(t, []string{"brute", "medic"}, reg.IDs())
}

func TestRegistry_RejectsDuplicateAndInvalid(t *testing.T) {
	reg := ai.NewRegistry()
	require.NoError(t, reg.Register(support()))
	assert.Error(t, reg.Register(support()))
	assert.Error(t, reg.Register(ai.Strategy{}))
}
