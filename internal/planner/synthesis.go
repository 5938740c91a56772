package planner

import "github.com/eosim/eosim/internal/types"

// Synthesize rebuilds the agent's plan wholesale from state, the current
// path, and the request cache (spec.md §4.6.5: "plans are rebuilt wholesale
// ... never patched in place"). Each path entry becomes a Travel action
// (if arrival is later than the current time) followed by a Measure action;
// no Maneuver action is emitted. The plan
// always ends with a WaitForMessages action so the agent keeps listening
// once its bundle is exhausted.
func (p *ConsensusPlanner) Synthesize(state types.AgentState, path types.Path, tCurr float64) types.Plan {
	var actions []types.Action
	cur := state
	t := tCurr

	for _, pair := range path {
		req, ok := p.Requests[pair.RequestID]
		if !ok {
			continue
		}
		arr, err := cur.CalcArrivalTime(req.Position, t)
		if err != nil {
			continue
		}
		if arr > t {
			travel := types.NewAction(types.ActionTravel, t, arr)
			travel.TargetPosition = req.Position
			actions = append(actions, travel)
		}
		measure := types.NewAction(types.ActionMeasure, arr, arr+req.Duration)
		measure.RequestID = pair.RequestID
		measure.SubtaskIndex = pair.SubtaskIndex
		measure.MainMeasurement = req.MeasurementGroups[pair.SubtaskIndex].Main
		actions = append(actions, measure)

		t = arr + req.Duration
		cur = cur.Propagate(t)
	}

	wait := types.NewAction(types.ActionWaitForMessages, t, t)
	actions = append(actions, wait)

	return types.Plan{Actions: actions}
}
