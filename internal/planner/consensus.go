package planner

import "github.com/eosim/eosim/internal/types"

// ConsensusOutcome is the result of running the four-stage consensus phase
// of spec.md §4.6.2 once.
type ConsensusOutcome struct {
	Results      types.Results
	Bundle       types.Bundle
	Path         types.Path
	Changed      bool
	Rebroadcasts []types.Bid
}

// Consensus runs the four consensus sub-stages in order over the current
// state and any inbox bid messages (spec.md §4.6.2). p.Requests, the
// planner's cache of known MeasurementRequests, is used to materialize bid
// arrays for requests not seen before.
func (p *ConsensusPlanner) Consensus(tCurr float64, results types.Results, bundle types.Bundle, path types.Path, inbox []types.Bid) ConsensusOutcome {
	out := ConsensusOutcome{Results: cloneResults(results), Bundle: append(types.Bundle{}, bundle...), Path: append(types.Path{}, path...)}

	p.stageCompareIncoming(tCurr, &out, inbox)
	p.stageExpirePastDue(tCurr, &out)
	p.stageDropPerformed(tCurr, &out)
	p.stageCheckConstraints(tCurr, &out)
	p.resetConverged(tCurr, &out)

	return out
}

// resetConverged implements spec.md §4.6.3's "on exit from the loop, reset
// each bid's bid_solo_remaining and bid_any_remaining to their configured
// maxima": once a bundle pair's own bid has held stable for at least
// DtConverge (t_curr >= t_update + dt_converge) and survived
// stageCheckConstraints, its solo/any counters are restored so a future
// displacement can re-bid with a full budget.
func (p *ConsensusPlanner) resetConverged(tCurr float64, out *ConsensusOutcome) {
	for _, pair := range out.Bundle {
		bid, ok := out.Results.Get(pair)
		if !ok || bid.Bidder != p.Config.Bidder || bid.Winner != p.Config.Bidder {
			continue
		}
		if tCurr-bid.TUpdate < p.Config.DtConverge {
			continue
		}
		bid.BidSoloRemaining = p.Config.BidSoloMax
		bid.BidAnyRemaining = p.Config.BidAnyMax
		out.Results.Set(pair, bid)
	}
}

func cloneResults(r types.Results) types.Results {
	out := make(types.Results, len(r))
	for id, bids := range r {
		out[id] = append([]types.Bid{}, bids...)
	}
	return out
}

// truncateFrom drops pair at index i and every subsequent pair from bundle
// and path, resetting any bids still owned by this planner's bidder among
// the dropped pairs (spec.md §4.6.2 stages 1-4: "drop ... and every
// subsequent one").
func (p *ConsensusPlanner) truncateFrom(out *ConsensusOutcome, i int) {
	if i < 0 || i >= len(out.Bundle) {
		return
	}
	dropped := out.Bundle[i:]
	for _, pair := range dropped {
		bid, ok := out.Results.Get(pair)
		if ok && bid.Winner == p.Config.Bidder {
			reset := bid.ResetAndDecrement()
			out.Results.Set(pair, reset)
			out.Rebroadcasts = append(out.Rebroadcasts, reset)
		}
	}
	out.Bundle = out.Bundle[:i]
	out.Path = removePairs(out.Path, dropped)
	out.Changed = true
}

func removePairs(path types.Path, dropped []types.Pair) types.Path {
	drop := make(map[types.Pair]bool, len(dropped))
	for _, p := range dropped {
		drop[p] = true
	}
	out := make(types.Path, 0, len(path))
	for _, p := range path {
		if !drop[p] {
			out = append(out, p)
		}
	}
	return out
}

// stageCompareIncoming drains the inbox and applies the bid-update rule
// (spec.md §4.6.1) to each incoming bid. If an incoming bid displaces this
// agent from a pair in bundle, that pair and every subsequent one is
// dropped (spec.md §4.6.2 stage 1).
func (p *ConsensusPlanner) stageCompareIncoming(tCurr float64, out *ConsensusOutcome, inbox []types.Bid) {
	for _, incoming := range inbox {
		pair := types.Pair{RequestID: incoming.RequestID, SubtaskIndex: incoming.SubtaskIndex}

		local, ok := out.Results.Get(pair)
		if !ok {
			req, known := p.Requests[incoming.RequestID]
			if !known {
				// Can't materialize without the full request; keep the
				// lone incoming bid as the seed for this subtask so future
				// comparisons have something to update against.
				out.Results.Set(pair, incoming)
				continue
			}
			fresh := types.NewBidArray(req, p.Config.Bidder, p.Config.DtViolationMax, p.Config.BidSoloMax, p.Config.BidAnyMax)
			for _, b := range fresh {
				out.Results.Set(types.Pair{RequestID: req.ID, SubtaskIndex: b.SubtaskIndex}, b)
			}
			local, _ = out.Results.Get(pair)
		}

		wasMine := local.Winner == p.Config.Bidder
		updated, broadcast, changed := local.Update(incoming, tCurr)
		out.Results.Set(pair, updated)
		if changed {
			out.Changed = true
		}
		switch broadcast {
		case types.BroadcastSelf:
			out.Rebroadcasts = append(out.Rebroadcasts, updated)
		case types.BroadcastOther:
			out.Rebroadcasts = append(out.Rebroadcasts, incoming)
		}

		if wasMine && updated.Winner != p.Config.Bidder {
			if i := indexOf(out.Bundle, pair); i >= 0 {
				p.truncateFrom(out, i)
			}
		}
	}
}

// stageExpirePastDue drops, from the first expired pair onward, any bundle
// entry whose request has passed its biddable deadline (spec.md §4.6.2
// stage 2).
func (p *ConsensusPlanner) stageExpirePastDue(tCurr float64, out *ConsensusOutcome) {
	for i, pair := range out.Bundle {
		req, ok := p.Requests[pair.RequestID]
		if !ok {
			continue
		}
		if !req.IsBiddableAt(tCurr) {
			p.truncateFrom(out, i)
			return
		}
	}
}

// stageDropPerformed drops, from the first already-performed mutex-blocking
// pair onward, any bundle entry whose subtask was imaged before tCurr by a
// winner mutually exclusive with ours (spec.md §4.6.2 stage 3).
func (p *ConsensusPlanner) stageDropPerformed(tCurr float64, out *ConsensusOutcome) {
	for i, pair := range out.Bundle {
		req, ok := p.Requests[pair.RequestID]
		if !ok {
			continue
		}
		others := out.Results.Others(pair.RequestID, pair.SubtaskIndex)
		k := pair.SubtaskIndex
		for _, other := range others {
			if other.TImg >= 0 && other.TImg < tCurr && other.Winner != types.NoWinner && req.MutexWith(k, other.SubtaskIndex) {
				p.truncateFrom(out, i)
				return
			}
		}
	}
}

// stageCheckConstraints drops, from the first constraint-failing pair
// onward, any bundle entry whose mutex/dependency/temporal constraints no
// longer hold (spec.md §4.6.2 stage 4, §4.6.7).
func (p *ConsensusPlanner) stageCheckConstraints(tCurr float64, out *ConsensusOutcome) {
	for i, pair := range out.Bundle {
		req, ok := p.Requests[pair.RequestID]
		if !ok {
			continue
		}
		bid, ok := out.Results.Get(pair)
		if !ok {
			continue
		}
		others := out.Results.Others(pair.RequestID, pair.SubtaskIndex)
		updated, ok := CheckConstraints(req, pair.SubtaskIndex, bid, others, tCurr)
		out.Results.Set(pair, updated)
		if !ok {
			p.truncateFrom(out, i)
			return
		}
	}
}

func indexOf(bundle types.Bundle, pair types.Pair) int {
	for i, p := range bundle {
		if p == pair {
			return i
		}
	}
	return -1
}
