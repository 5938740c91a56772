// Package config loads the YAML scenario and roster files the eosim
// launcher reads before starting an element (SPEC_FULL.md §Configuration
// surface), grounded on the teacher's use of structured config plus the
// rest of the retrieval pack's yaml.v3-driven config loaders.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/eosim/eosim/internal/types"
)

// RequestSpec is the YAML encoding of one scenario measurement request.
type RequestSpec struct {
	ID                   string               `yaml:"id"`
	Position             [3]float64           `yaml:"position"`
	RequiredMeasurements []string             `yaml:"required_measurements"`
	MeasurementGroups    []GroupSpec          `yaml:"measurement_groups"`
	DependencyMatrix     [][]int              `yaml:"dependency_matrix"`
	TimeDependencyMatrix [][]float64          `yaml:"time_dependency_matrix"`
	TStart               float64              `yaml:"t_start"`
	TEnd                 float64              `yaml:"t_end"`
	Duration             float64              `yaml:"duration"`
	UtilityMax           float64              `yaml:"utility_max"`
}

// GroupSpec is the YAML encoding of one measurement group.
type GroupSpec struct {
	Main       string   `yaml:"main"`
	Dependents []string `yaml:"dependents"`
}

// ToRequest converts a RequestSpec into its runtime types.MeasurementRequest.
func (r RequestSpec) ToRequest() types.MeasurementRequest {
	groups := make([]types.MeasurementGroup, len(r.MeasurementGroups))
	for i, g := range r.MeasurementGroups {
		groups[i] = types.MeasurementGroup{Main: g.Main, Dependents: g.Dependents}
	}
	return types.MeasurementRequest{
		ID:                   r.ID,
		Position:             types.Position{X: r.Position[0], Y: r.Position[1], Z: r.Position[2]},
		RequiredMeasurements: r.RequiredMeasurements,
		MeasurementGroups:    groups,
		DependencyMatrix:     r.DependencyMatrix,
		TimeDependencyMatrix: r.TimeDependencyMatrix,
		TStart:               r.TStart,
		TEnd:                 r.TEnd,
		Duration:             r.Duration,
		UtilityMax:           r.UtilityMax,
	}
}

// AgentSpec is the YAML encoding of one roster agent's starting condition
// and capability set.
type AgentSpec struct {
	Name        string     `yaml:"name"`
	Position    [3]float64 `yaml:"position"`
	Speed       float64    `yaml:"speed"`
	Instruments []string   `yaml:"instruments"`
}

// Scenario is the root YAML document the launcher loads with --scenario.
type Scenario struct {
	Roster   []string      `yaml:"roster"`
	Clock    ClockSpec     `yaml:"clock"`
	Agents   []AgentSpec   `yaml:"agents"`
	Requests []RequestSpec `yaml:"requests"`
}

// ClockSpec is the YAML encoding of a types.ClockConfig.
type ClockSpec struct {
	Kind   string  `yaml:"kind"`
	Start  float64 `yaml:"start"`
	End    float64 `yaml:"end"`
	Factor float64 `yaml:"factor"`
	Dt     float64 `yaml:"dt"`
}

// ToClockConfig converts a ClockSpec into its runtime types.ClockConfig.
func (c ClockSpec) ToClockConfig() types.ClockConfig {
	return types.ClockConfig{
		Kind:   types.ClockKind(c.Kind),
		Start:  c.Start,
		End:    c.End,
		Factor: c.Factor,
		Dt:     c.Dt,
	}
}

// Load reads and parses a scenario YAML file from path.
func Load(path string) (Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Scenario{}, fmt.Errorf("config.Load: %w", err)
	}
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Scenario{}, fmt.Errorf("config.Load: parse %s: %w", path, err)
	}
	return s, nil
}

// AgentByName finds the named agent's spec within the scenario.
func (s Scenario) AgentByName(name string) (AgentSpec, bool) {
	for _, a := range s.Agents {
		if a.Name == name {
			return a, true
		}
	}
	return AgentSpec{}, false
}
