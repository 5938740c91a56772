package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eosim/eosim/internal/capability"
	"github.com/eosim/eosim/internal/types"
)

func TestNew_SatisfiesPlannerInterface(t *testing.T) {
	var _ Planner = New(testConfig("a"))
}

func TestConsensusPlanner_Step_ProducesPlanAndRebroadcastsFirstWin(t *testing.T) {
	cfg := testConfig("a")
	cfg.Capability = capability.NewStaticSet("ir", "vis")
	cfg.DtConverge = 0
	p := New(cfg)

	req := simpleRequest("r1")
	req.Position = types.Position{X: 5}
	req.UtilityMax = 50
	p.ObserveRequest(req)

	state := types.SimpleAgentState{Pos: types.Position{X: 0}, Speed: 5, T: 0}

	plan, rebroadcasts := p.Step(state, 0, nil, nil)

	require.NotEmpty(t, plan.Actions)
	assert.NotEmpty(t, rebroadcasts, "winning a subtask for the first time rebroadcasts the bid")
}

func TestConsensusPlanner_DedupRebroadcasts_SuppressesRepeat(t *testing.T) {
	p := New(testConfig("a"))
	bid := types.Bid{RequestID: "r1", SubtaskIndex: 0, Winner: "a", WinningBid: 3}

	first := p.dedupRebroadcasts([]types.Bid{bid})
	second := p.dedupRebroadcasts([]types.Bid{bid})

	assert.Len(t, first, 1)
	assert.Empty(t, second, "same (pair, winning_bid) within the convergence window is suppressed")
}

func TestConsensusPlanner_DedupRebroadcasts_DistinctBidsPassThrough(t *testing.T) {
	p := New(testConfig("a"))
	b1 := types.Bid{RequestID: "r1", SubtaskIndex: 0, Winner: "a", WinningBid: 3}
	b2 := types.Bid{RequestID: "r1", SubtaskIndex: 0, Winner: "a", WinningBid: 9}

	out := p.dedupRebroadcasts([]types.Bid{b1, b2})
	assert.Len(t, out, 2)
}

func TestApplyOutcome_CompletedMeasureRemovesPairFromBundleAndPath(t *testing.T) {
	p := New(testConfig("a"))
	req := simpleRequest("r1")
	p.ObserveRequest(req)

	pair0 := types.Pair{RequestID: "r1", SubtaskIndex: 0}
	pair1 := types.Pair{RequestID: "r1", SubtaskIndex: 1}
	p.Bundle = types.Bundle{pair0, pair1}
	p.Path = types.Path{pair0, pair1}

	action := types.NewAction(types.ActionMeasure, 1, 2)
	action.RequestID = "r1"
	action.SubtaskIndex = 0
	action.Status = types.ActionCompleted

	p.applyOutcome(&action)

	assert.Equal(t, types.Bundle{pair1}, p.Bundle)
	assert.Equal(t, types.Path{pair1}, p.Path)

	bid, ok := p.Results.Get(pair0)
	require.True(t, ok)
	assert.True(t, bid.Performed)
}

func TestApplyOutcome_AbortedMeasureAlsoRemovesPair(t *testing.T) {
	p := New(testConfig("a"))
	req := simpleRequest("r1")
	p.ObserveRequest(req)

	pair0 := types.Pair{RequestID: "r1", SubtaskIndex: 0}
	p.Bundle = types.Bundle{pair0}
	p.Path = types.Path{pair0}

	action := types.NewAction(types.ActionMeasure, 1, 2)
	action.RequestID = "r1"
	action.SubtaskIndex = 0
	action.Status = types.ActionAborted

	p.applyOutcome(&action)

	assert.Empty(t, p.Bundle)
	bid, ok := p.Results.Get(pair0)
	require.True(t, ok)
	assert.False(t, bid.Performed)
}

func TestApplyOutcome_IgnoresNonMeasureAndPendingActions(t *testing.T) {
	p := New(testConfig("a"))
	pair0 := types.Pair{RequestID: "r1", SubtaskIndex: 0}
	p.Bundle = types.Bundle{pair0}
	p.Path = types.Path{pair0}

	travel := types.NewAction(types.ActionTravel, 0, 1)
	travel.Status = types.ActionCompleted
	p.applyOutcome(&travel)
	assert.Equal(t, types.Bundle{pair0}, p.Bundle, "non-Measure actions never touch bundle/path")

	pending := types.NewAction(types.ActionMeasure, 0, 1)
	pending.RequestID = "r1"
	pending.SubtaskIndex = 0
	p.applyOutcome(&pending)
	assert.Equal(t, types.Bundle{pair0}, p.Bundle, "a still-PENDING outcome is not dispatched yet")

	p.applyOutcome(nil)
	assert.Equal(t, types.Bundle{pair0}, p.Bundle)
}
