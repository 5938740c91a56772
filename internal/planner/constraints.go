package planner

import "github.com/eosim/eosim/internal/types"

// coalitionSum is the sum of winning_bid over the local bidder's coalition:
// self plus every subtask j with dependency[k][j] == 1 won by the same
// bidder (spec.md §4.6.7 Mutex).
func coalitionSum(b types.Bid, others []types.Bid) float64 {
	sum := b.WinningBid
	for j, dep := range b.Dependencies {
		if dep != 1 {
			continue
		}
		other := findBySubtask(others, j)
		if other != nil && other.Winner == b.Bidder {
			sum += other.WinningBid
		}
	}
	return sum
}

// bestAlternativeCoalition finds the maximum winning_bid sum achievable by
// any alternative coalition of subtasks that are all pairwise mutex with
// the local coalition's main subtask (dependency[i][j] >= 0 per spec.md
// §4.6.7: "alternative coalition of subtasks all pairwise mutex ... with
// the local coalition"). We approximate the "alternative coalition" search
// as: for each subtask j mutex with k (dependency[k][j] < 0), the
// competing coalition rooted at whichever bidder currently wins j, summed
// over its own dependents that are still mutually exclusive with k's
// coalition. This matches the teacher's multi-objective scoring shape
// (market.Valuation) applied per-competitor rather than per-bid.
func bestAlternativeCoalition(k int, req types.MeasurementRequest, others []types.Bid) float64 {
	best := 0.0
	for _, bid := range others {
		j := bid.SubtaskIndex
		if !req.MutexWith(k, j) {
			continue
		}
		if bid.Winner == types.NoWinner {
			continue
		}
		sum := bid.WinningBid
		for j2, dep := range bid.Dependencies {
			if dep != 1 {
				continue
			}
			o := findBySubtask(others, j2)
			if o != nil && o.Winner == bid.Winner {
				sum += o.WinningBid
			}
		}
		if sum > best {
			best = sum
		}
	}
	return best
}

func findBySubtask(bids []types.Bid, k int) *types.Bid {
	for i := range bids {
		if bids[i].SubtaskIndex == k {
			return &bids[i]
		}
	}
	return nil
}

// MutexOK implements the Mutex predicate of spec.md §4.6.7: the sum of
// winning_bids of the local agent's coalition strictly exceeds the best
// sum achievable by any mutually-exclusive alternative coalition.
func MutexOK(k int, req types.MeasurementRequest, b types.Bid, others []types.Bid) bool {
	return coalitionSum(b, others) > bestAlternativeCoalition(k, req, others)
}

// satisfiedDependencies counts dependencies of subtask k that are currently
// satisfied: dependency[k][j] == 1 && others[j].winner != NONE (spec.md
// §4.6.7 Dependency).
func satisfiedDependencies(b types.Bid, others []types.Bid) int {
	n := 0
	for j, dep := range b.Dependencies {
		if dep != 1 {
			continue
		}
		other := findBySubtask(others, j)
		if other != nil && other.Winner != types.NoWinner {
			n++
		}
	}
	return n
}

// DependencyOK implements the Dependency predicate of spec.md §4.6.7.
// Optimistic bidders (any positive dependency) tolerate under-satisfaction
// until their violation timer exceeds dt_violation_max; pessimistic
// bidders (no positive dependency use this path trivially: NRequired==0)
// require exact satisfaction.
func DependencyOK(b types.Bid, others []types.Bid, tCurr float64) (ok bool, violated types.Bid) {
	satisfied := satisfiedDependencies(b, others)
	required := b.NRequired()
	if satisfied == required {
		b.TViolation = -1
		return true, b
	}
	if !b.IsOptimistic() {
		return false, b
	}
	if b.TViolation < 0 {
		b.TViolation = tCurr
	}
	if tCurr-b.TViolation > b.DtViolationMax {
		return false, b
	}
	return true, b
}

// TemporalOK implements the Temporal predicate of spec.md §4.6.7: for every
// j with others[j].winner != NONE, either dependency[k][j] <= 0
// (independent) or the two imaging times are mutually within each other's
// time_constraints window.
func TemporalOK(b types.Bid, others []types.Bid) bool {
	for j, dep := range b.Dependencies {
		other := findBySubtask(others, j)
		if other == nil || other.Winner == types.NoWinner {
			continue
		}
		if dep <= 0 {
			continue
		}
		var tcB, tcOther float64
		if j < len(b.TimeConstraints) {
			tcB = b.TimeConstraints[j]
		}
		if b.SubtaskIndex < len(other.TimeConstraints) {
			tcOther = other.TimeConstraints[b.SubtaskIndex]
		}
		if !(b.TImg <= other.TImg+tcB && other.TImg <= b.TImg+tcOther) {
			return false
		}
	}
	return true
}

// CheckConstraints evaluates all three predicates of spec.md §4.6.7 for
// pair (req, k)'s current bid against the request's other subtask bids at
// simulated time tCurr. Returns the (possibly violation-timer-updated) bid
// and whether every predicate currently holds.
func CheckConstraints(req types.MeasurementRequest, k int, b types.Bid, others []types.Bid, tCurr float64) (types.Bid, bool) {
	if !MutexOK(k, req, b, others) {
		return b, false
	}
	depOK, b := DependencyOK(b, others, tCurr)
	if !depOK {
		return b, false
	}
	if !TemporalOK(b, others) {
		return b, false
	}
	return b, true
}
