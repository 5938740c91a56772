package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eosim/eosim/internal/types"
)

const sampleScenario = `
roster:
  - agent-1
  - agent-2
clock:
  kind: fixed_time_step
  start: 0
  end: 100
  dt: 1
agents:
  - name: agent-1
    position: [1, 2, 3]
    speed: 7.5
    instruments: [ir, vis]
requests:
  - id: r1
    position: [10, 20, 30]
    required_measurements: [ir]
    measurement_groups:
      - main: ir
        dependents: [vis]
    dependency_matrix: [[0, 0], [0, 0]]
    time_dependency_matrix: [[0, 0], [0, 0]]
    t_start: 0
    t_end: 50
    duration: 5
    utility_max: 20
`

func writeScenario(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_ParsesScenarioFile(t *testing.T) {
	path := writeScenario(t, sampleScenario)

	s, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"agent-1", "agent-2"}, s.Roster)
	assert.Equal(t, "fixed_time_step", s.Clock.Kind)
	require.Len(t, s.Agents, 1)
	assert.Equal(t, "agent-1", s.Agents[0].Name)
	require.Len(t, s.Requests, 1)
	assert.Equal(t, "r1", s.Requests[0].ID)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeScenario(t, "roster: [unterminated")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestScenario_AgentByName(t *testing.T) {
	s := Scenario{Agents: []AgentSpec{{Name: "a"}, {Name: "b"}}}

	a, ok := s.AgentByName("b")
	assert.True(t, ok)
	assert.Equal(t, "b", a.Name)

	_, ok = s.AgentByName("missing")
	assert.False(t, ok)
}

func TestRequestSpec_ToRequest(t *testing.T) {
	rs := RequestSpec{
		ID:                   "r1",
		Position:             [3]float64{1, 2, 3},
		RequiredMeasurements: []string{"ir"},
		MeasurementGroups:    []GroupSpec{{Main: "ir", Dependents: []string{"vis"}}},
		DependencyMatrix:     [][]int{{0, 0}, {0, 0}},
		TimeDependencyMatrix: [][]float64{{0, 0}, {0, 0}},
		TStart:               0,
		TEnd:                 10,
		Duration:             2,
		UtilityMax:           5,
	}

	req := rs.ToRequest()

	assert.Equal(t, "r1", req.ID)
	assert.Equal(t, types.Position{X: 1, Y: 2, Z: 3}, req.Position)
	require.Len(t, req.MeasurementGroups, 1)
	assert.Equal(t, "ir", req.MeasurementGroups[0].Main)
	assert.Equal(t, []string{"vis"}, req.MeasurementGroups[0].Dependents)
}

func TestClockSpec_ToClockConfig(t *testing.T) {
	cs := ClockSpec{Kind: "fixed_time_step", Start: 0, End: 10, Factor: 1, Dt: 0.5}

	cc := cs.ToClockConfig()

	assert.Equal(t, types.ClockFixedTimeStep, cc.Kind)
	assert.Equal(t, 0.5, cc.Dt)
	assert.Equal(t, 10.0, cc.End)
}
