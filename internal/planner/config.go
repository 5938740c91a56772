package planner

import (
	"github.com/eosim/eosim/internal/capability"
	"github.com/eosim/eosim/internal/planner/market"
)

// Config parameterizes one agent's consensus planner instance (spec.md
// §4.6). Utility/Cost/Capability are injected as pure function/interface
// values per spec.md §9 rather than subclassed.
type Config struct {
	Bidder string

	// LBundle caps bundle growth (spec.md §4.6.4, §8: "halts growth even if
	// profitable candidates remain").
	LBundle int

	// DtConverge is the minimum time a bid must be stable before the path
	// is considered converged (spec.md §4.6.3).
	DtConverge float64

	// DtViolationMax bounds how long an optimistic bid tolerates an
	// under-satisfied dependency before resetting (spec.md §4.6.7).
	DtViolationMax float64

	BidSoloMax int
	BidAnyMax  int

	// Pessimistic selects the agent's coalition-formation strategy for the
	// biddable precondition of spec.md §4.6.4. false (optimistic, the
	// default) lets the agent bid ahead of full dependency satisfaction
	// while it still has solo/any budget; true requires every dependency
	// already satisfied before bidding.
	Pessimistic bool

	Utility    market.UtilityFunc
	Cost       market.CostFunc
	Capability capability.Policy
}

// DefaultConfig returns a Config with the default utility/cost functions
// and a nil Capability; with Capability nil, path insertion applies no
// capability filter and every measurement is biddable.
func DefaultConfig(bidder string, lBundle int) Config {
	return Config{
		Bidder:         bidder,
		LBundle:        lBundle,
		DtConverge:     1,
		DtViolationMax: 5,
		BidSoloMax:     1,
		BidAnyMax:      1,
		Utility:        market.DefaultUtility,
		Cost:           market.ZeroCost,
	}
}
