package planner

import (
	"github.com/eosim/eosim/internal/planner/market"
	"github.com/eosim/eosim/internal/types"
)

// insertion is one candidate placement of a new (request, subtask) pair
// into the current path (spec.md §4.6.4).
type insertion struct {
	pair   types.Pair
	index  int
	tImg   float64
	ownBid float64
}

// Planning runs the path-insertion phase of spec.md §4.6.4: for every
// request subtask the agent is capable of and not already committed to,
// find the best insertion point into the current path, bid on it if the
// valuation beats the subtask's current winning bid and passes the Mutex
// test while the bundle has not hit l_bundle, and repeat until no candidate
// qualifies or the cap is reached.
func (p *ConsensusPlanner) Planning(state types.AgentState, out *ConsensusOutcome, tCurr float64) {
	for len(out.Bundle) < p.Config.LBundle {
		best, found := p.bestInsertion(state, out, tCurr)
		if !found {
			return
		}
		p.applyInsertion(out, best, tCurr)
	}
}

// bestInsertion scans every known request's subtasks for the highest-
// valuation insertion point not already in the bundle, skipping subtasks
// the agent's capability policy rejects or whose own bid cannot win.
func (p *ConsensusPlanner) bestInsertion(state types.AgentState, out *ConsensusOutcome, tCurr float64) (insertion, bool) {
	var best insertion
	var bestVal float64
	found := false

	for reqID, req := range p.Requests {
		if !req.IsBiddableAt(tCurr) {
			continue
		}
		for k, group := range req.MeasurementGroups {
			pair := types.Pair{RequestID: reqID, SubtaskIndex: k}
			if containsPair(out.Bundle, pair) {
				continue
			}
			if p.Config.Capability != nil && !p.Config.Capability.CanBid(group.Main) {
				continue
			}
			bid, ok := out.Results.Get(pair)
			if !ok {
				continue
			}
			if bid.BidSoloRemaining <= 0 && bid.BidAnyRemaining <= 0 && bid.IsOptimistic() {
				continue
			}
			if p.Config.Pessimistic {
				others := out.Results.Others(reqID, k)
				if satisfiedDependencies(bid, others) != bid.NRequired() {
					continue
				}
			}

			ins, val, ok := p.bestIndexFor(state, out, req, pair, bid, tCurr)
			if !ok {
				continue
			}
			if !found || val > bestVal {
				best, bestVal, found = ins, val, true
				best.ownBid = val
			}
		}
	}
	return best, found
}

// bestIndexFor finds the highest-valuation index in the current path to insert pair,
// returning the valuation (spec.md §4.6.4) of the best placement. A
// candidate index is only accepted if it both beats the pair's current
// winning bid and, were this agent to win at that valuation, would pass
// the Mutex coalition test of spec.md §4.6.7 against the subtask's other
// current bids — otherwise the very next consensus tick would unwind the
// insertion anyway (grounded on accbba.py's planning_phase calling
// coalition_test/mutex_test before accepting a bundle insertion).
func (p *ConsensusPlanner) bestIndexFor(state types.AgentState, out *ConsensusOutcome, req types.MeasurementRequest, pair types.Pair, bid types.Bid, tCurr float64) (insertion, float64, bool) {
	bestIdx := -1
	var bestTImg, bestVal float64
	found := false

	others := out.Results.Others(pair.RequestID, pair.SubtaskIndex)

	for idx := 0; idx <= len(out.Path); idx++ {
		tImg, ok := p.simulateArrival(state, out.Path, idx, req.Position, tCurr)
		if !ok {
			continue
		}
		if !req.IsBiddableAt(tImg) || tImg < req.TStart {
			continue
		}

		coalSize := coalitionSize(out.Results, pair.RequestID)
		uBase := p.Config.Utility(req, pair.SubtaskIndex, tImg)
		cost := p.Config.Cost(state, req, pair.SubtaskIndex, tImg)
		alpha := market.CoalitionAlpha(coalSize, req.N())
		val := market.Valuation(uBase, alpha, coalSize, cost)

		if val <= bid.WinningBid {
			continue
		}

		candidate := bid
		candidate.OwnBid = val
		candidate.WinningBid = val
		candidate.Winner = p.Config.Bidder
		candidate.TImg = tImg
		if !MutexOK(pair.SubtaskIndex, req, candidate, others) {
			continue
		}

		if !found || val > bestVal {
			bestIdx, bestTImg, bestVal, found = idx, tImg, val, true
		}
	}

	if !found {
		return insertion{}, 0, false
	}
	return insertion{pair: pair, index: bestIdx, tImg: bestTImg}, bestVal, true
}

// simulateArrival projects state along path up through index idx-1 and
// returns the earliest arrival time at dest if inserted at idx.
func (p *ConsensusPlanner) simulateArrival(state types.AgentState, path types.Path, idx int, dest types.Position, tCurr float64) (float64, bool) {
	cur := state
	t := tCurr
	for i := 0; i < idx && i < len(path); i++ {
		pair := path[i]
		req, ok := p.Requests[pair.RequestID]
		if !ok {
			continue
		}
		arr, err := cur.CalcArrivalTime(req.Position, t)
		if err != nil {
			return 0, false
		}
		t = arr + req.Duration
		cur = cur.Propagate(t)
	}
	arr, err := cur.CalcArrivalTime(dest, t)
	if err != nil {
		return 0, false
	}
	return arr, true
}

// coalitionSize counts how many subtasks of requestID currently have a
// winner (spec.md §4.6.4's coalition size).
func coalitionSize(results types.Results, requestID string) int {
	bids := results[requestID]
	count := 0
	for _, b := range bids {
		if b.Winner != types.NoWinner {
			count++
		}
	}
	if count == 0 {
		count = 1
	}
	return count
}

// applyInsertion commits the chosen insertion: places the pair into the
// path at its index, appends it to the bundle, and records the agent's own
// bid on the corresponding Results entry.
func (p *ConsensusPlanner) applyInsertion(out *ConsensusOutcome, ins insertion, tCurr float64) {
	newPath := make(types.Path, 0, len(out.Path)+1)
	newPath = append(newPath, out.Path[:ins.index]...)
	newPath = append(newPath, ins.pair)
	newPath = append(newPath, out.Path[ins.index:]...)
	out.Path = newPath
	out.Bundle = append(out.Bundle, ins.pair)

	bid, _ := out.Results.Get(ins.pair)
	bid = bid.SetBid(ins.ownBid, ins.tImg, tCurr)
	out.Results.Set(ins.pair, bid)
	out.Rebroadcasts = append(out.Rebroadcasts, bid)
	out.Changed = true
}

func containsPair(bundle types.Bundle, pair types.Pair) bool {
	for _, p := range bundle {
		if p == pair {
			return true
		}
	}
	return false
}
