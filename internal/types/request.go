package types

import "fmt"

// MeasurementGroup is one (main, dependents) pairing from a request's
// ordered measurement-group list (spec.md §3).
type MeasurementGroup struct {
	Main       string   `json:"main"`
	Dependents []string `json:"dependents"`
}

// MeasurementRequest is the unit of work agents bid on. Matrices are square
// of size n = len(MeasurementGroups); DependencyMatrix entries are in
// {-1, 0, 1}: -1 mutex, 0 independent, 1 dependent. The diagonal of
// DependencyMatrix is always 0 (spec.md §3).
type MeasurementRequest struct {
	ID                   string             `json:"id"`
	Position             Position           `json:"position"`
	RequiredMeasurements []string           `json:"required_measurements"`
	MeasurementGroups    []MeasurementGroup `json:"measurement_groups"`
	DependencyMatrix     [][]int            `json:"dependency_matrix"`
	TimeDependencyMatrix [][]float64        `json:"time_dependency_matrix"`
	TStart               float64            `json:"t_start"`
	TEnd                 float64            `json:"t_end"`
	Duration             float64            `json:"duration"`
	UtilityMax           float64            `json:"utility_max"`
}

// N returns the number of subtasks (measurement groups) in the request.
func (r MeasurementRequest) N() int { return len(r.MeasurementGroups) }

// Validate enforces the structural invariants spec.md §3 requires.
func (r MeasurementRequest) Validate() error {
	n := r.N()
	if len(r.DependencyMatrix) != n {
		return fmt.Errorf("request %s: dependency matrix has %d rows, want %d", r.ID, len(r.DependencyMatrix), n)
	}
	for i, row := range r.DependencyMatrix {
		if len(row) != n {
			return fmt.Errorf("request %s: dependency matrix row %d has %d cols, want %d", r.ID, i, len(row), n)
		}
		if row[i] != 0 {
			return fmt.Errorf("request %s: dependency matrix diagonal[%d] = %d, want 0", r.ID, i, row[i])
		}
	}
	if len(r.TimeDependencyMatrix) != n {
		return fmt.Errorf("request %s: time dependency matrix has %d rows, want %d", r.ID, len(r.TimeDependencyMatrix), n)
	}
	for i, row := range r.TimeDependencyMatrix {
		if len(row) != n {
			return fmt.Errorf("request %s: time dependency matrix row %d has %d cols, want %d", r.ID, i, len(row), n)
		}
	}
	if r.TEnd-r.Duration < r.TStart {
		return fmt.Errorf("request %s: t_end - duration (%v) < t_start (%v)", r.ID, r.TEnd-r.Duration, r.TStart)
	}
	return nil
}

// IsBiddableAt reports whether the request has not yet expired at t: the
// boundary t_end - duration == t is still biddable (spec.md §8).
func (r MeasurementRequest) IsBiddableAt(t float64) bool {
	return r.TEnd-r.Duration >= t
}

// MutexWith reports whether subtasks i and j of the request are mutually
// exclusive (spec.md GLOSSARY: dependency[i][j] < 0).
func (r MeasurementRequest) MutexWith(i, j int) bool {
	if i < 0 || j < 0 || i >= r.N() || j >= r.N() {
		return false
	}
	return r.DependencyMatrix[i][j] < 0
}

// DependsOn reports whether subtask k depends on subtask j
// (dependency[k][j] == 1).
func (r MeasurementRequest) DependsOn(k, j int) bool {
	if k < 0 || j < 0 || k >= r.N() || j >= r.N() {
		return false
	}
	return r.DependencyMatrix[k][j] == 1
}
