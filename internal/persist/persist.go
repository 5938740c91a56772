// Package persist writes the two result tables spec.md §6 names:
// states.csv and planner_history.csv, one directory per element under the
// run's results root. Grounded on the monitor/recording role of
// original_source/.backup/2023/utils/scienceserver.py, reworked from a
// bespoke HTTP reporting server into a plain CSV appender any node or the
// monitor element can use directly.
package persist

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/eosim/eosim/internal/types"
)

// Writer appends rows to one element's states.csv and planner_history.csv
// under <results>/<element>/. Neither file is buffered across process
// restarts; each row is flushed immediately so a crashed run still leaves a
// usable partial record.
type Writer struct {
	dir string

	states  *csv.Writer
	statesF *os.File

	planner  *csv.Writer
	plannerF *os.File

	planIndex int
}

// New creates the per-element results directory if needed, creates (or
// truncates) both CSV files, and writes their headers (spec.md §6).
func New(resultsRoot, element string) (*Writer, error) {
	dir := filepath.Join(resultsRoot, element)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("persist.New: %w", err)
	}

	statesF, err := os.Create(filepath.Join(dir, "states.csv"))
	if err != nil {
		return nil, fmt.Errorf("persist.New: %w", err)
	}
	states := csv.NewWriter(statesF)
	if err := states.Write([]string{"t", "x_pos", "y_pos", "x_vel", "y_vel", "status"}); err != nil {
		return nil, fmt.Errorf("persist.New: %w", err)
	}
	states.Flush()

	plannerF, err := os.Create(filepath.Join(dir, "planner_history.csv"))
	if err != nil {
		return nil, fmt.Errorf("persist.New: %w", err)
	}
	planner := csv.NewWriter(plannerF)
	if err := planner.Write([]string{"plan_index", "t", "request_id", "subtask_index", "t_img", "u_exp"}); err != nil {
		return nil, fmt.Errorf("persist.New: %w", err)
	}
	planner.Flush()

	return &Writer{dir: dir, states: states, statesF: statesF, planner: planner, plannerF: plannerF}, nil
}

// WriteState appends one states.csv row for state observed at time t.
func (w *Writer) WriteState(t float64, state types.AgentState) error {
	pos, vel := state.Position(), state.Velocity()
	row := []string{
		formatFloat(t),
		formatFloat(pos.X), formatFloat(pos.Y),
		formatFloat(vel.X), formatFloat(vel.Y),
		string(state.Status()),
	}
	if err := w.states.Write(row); err != nil {
		return fmt.Errorf("persist.WriteState: %w", err)
	}
	w.states.Flush()
	return w.states.Error()
}

// WritePlan appends one planner_history.csv row per Measure action in plan
// (other action kinds are skipped),
// incrementing the shared plan_index counter for every call (spec.md §6:
// "plan_index" distinguishes successive plan revisions).
func (w *Writer) WritePlan(t float64, plan types.Plan) error {
	idx := w.planIndex
	w.planIndex++
	for _, a := range plan.Actions {
		if a.Kind != types.ActionMeasure {
			continue
		}
		row := []string{
			strconv.Itoa(idx),
			formatFloat(t),
			a.RequestID,
			strconv.Itoa(a.SubtaskIndex),
			formatFloat(a.TStart),
			formatFloat(a.ExpectedUtility),
		}
		if err := w.planner.Write(row); err != nil {
			return fmt.Errorf("persist.WritePlan: %w", err)
		}
	}
	w.planner.Flush()
	return w.planner.Error()
}

// Close flushes and closes both underlying files.
func (w *Writer) Close() error {
	w.states.Flush()
	w.planner.Flush()
	if err := w.statesF.Close(); err != nil {
		return err
	}
	return w.plannerF.Close()
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
