// Package market computes bid valuations for the consensus planner's
// path-insertion step (spec.md §4.6.4). Grounded on the teacher's
// optimizer.go multi-objective bid-ranking package: RankBids there scored a
// delegatee's fixed-cost bid against competing bids for the same task; here
// the same "weighted, normalized, pluggable scoring" shape computes a
// single candidate insertion's utility against the agent's own prior bids,
// since the consensus planner never needs to rank simultaneous bids from
// other agents — it only ever compares two scalar winning_bid values
// (handled by types.Bid.Update's tie-break rule).
package market

import (
	"github.com/eosim/eosim/internal/types"
)

// UtilityFunc computes the base utility of performing subtask k of req at
// imaging time tImg, before coalition/cost adjustments (spec.md §4.6.4).
// Pluggable per spec.md §9 ("inject as pure function values, not
// inheritance overrides").
type UtilityFunc func(req types.MeasurementRequest, k int, tImg float64) float64

// CostFunc computes the cost of performing subtask k of req at tImg from
// the given state. The default CostFunc returns 0 (spec.md §4.6.4).
type CostFunc func(state types.AgentState, req types.MeasurementRequest, k int, tImg float64) float64

// DefaultUtility returns a linear time-decay of the request's utility_max:
// full value at t_start, decaying linearly to zero by t_end. This is the
// simplest utility shape consistent with spec.md §4.6.4's "U_base =
// utility_func(req, k, t_img)" contract; swap in a domain-specific model
// via UtilityFunc.
func DefaultUtility(req types.MeasurementRequest, k int, tImg float64) float64 {
	span := req.TEnd - req.TStart
	if span <= 0 {
		return req.UtilityMax
	}
	frac := (tImg - req.TStart) / span
	if frac < 0 {
		frac = 0
	}
	if frac > 1 {
		frac = 1
	}
	return req.UtilityMax * (1 - frac)
}

// ZeroCost is the default CostFunc (spec.md §4.6.4: "the default returns
// 0").
func ZeroCost(types.AgentState, types.MeasurementRequest, int, float64) float64 {
	return 0
}

// CoalitionAlpha returns the coalition discount factor of spec.md §4.6.4:
// 1 if the subtask's coalition covers every measurement in the request,
// else 1/3.
func CoalitionAlpha(coalitionSize, totalMeasurements int) float64 {
	if totalMeasurements > 0 && coalitionSize == totalMeasurements {
		return 1
	}
	return 1.0 / 3.0
}

// Valuation computes the final per-subtask utility of spec.md §4.6.4:
// U_base * alpha / coalitionSize - cost.
func Valuation(uBase float64, alpha float64, coalitionSize int, cost float64) float64 {
	if coalitionSize <= 0 {
		coalitionSize = 1
	}
	return uBase*alpha/float64(coalitionSize) - cost
}
