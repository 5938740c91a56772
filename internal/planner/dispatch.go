package planner

import "github.com/eosim/eosim/internal/types"

// NextAction returns the head action of plan, whatever its status, as the
// agent's current action for this cycle (spec.md §4.6.6). A plan with no
// actions (should not happen: Synthesize always appends a terminal
// WaitForMessages) yields an idle action.
func NextAction(plan types.Plan, tCurr float64) types.Action {
	if a, ok := plan.Head(); ok {
		return a
	}
	return types.NewAction(types.ActionIdle, tCurr, tCurr)
}
