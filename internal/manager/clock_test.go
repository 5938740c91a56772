package manager

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTicTargets_ExcludesEnvironment(t *testing.T) {
	m := &Manager{Roster: []string{"agent-1", "environment", "agent-2"}}
	targets := m.ticTargets()

	assert.ElementsMatch(t, []string{"agent-1", "agent-2"}, targets)
}

func TestTicTargets_EmptyRoster(t *testing.T) {
	m := &Manager{Roster: nil}
	assert.Empty(t, m.ticTargets())
}

func TestContains(t *testing.T) {
	xs := []string{"a", "b", "c"}
	assert.True(t, contains(xs, "b"))
	assert.False(t, contains(xs, "z"))
	assert.False(t, contains(nil, "a"))
}
