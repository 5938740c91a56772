package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eosim/eosim/internal/capability"
	"github.com/eosim/eosim/internal/types"
)

func TestPlanning_InsertsProfitableRequestIntoBundle(t *testing.T) {
	cfg := testConfig("a")
	cfg.Capability = capability.NewStaticSet("ir", "vis")
	p := New(cfg)

	req := simpleRequest("r1")
	req.Position = types.Position{X: 10}
	req.UtilityMax = 100
	p.ObserveRequest(req)

	state := types.SimpleAgentState{Pos: types.Position{X: 0}, Speed: 5, T: 0}
	out := ConsensusOutcome{Results: cloneResults(p.Results)}

	p.Planning(state, &out, 0)

	assert.NotEmpty(t, out.Bundle, "a profitable, capable request should be inserted")
	assert.True(t, out.Changed)
}

func TestPlanning_SkipsRequestOutsideCapability(t *testing.T) {
	cfg := testConfig("a")
	cfg.Capability = capability.NewStaticSet("radar") // can't do "ir"/"vis"
	p := New(cfg)

	req := simpleRequest("r1")
	req.UtilityMax = 100
	p.ObserveRequest(req)

	state := types.SimpleAgentState{T: 0}
	out := ConsensusOutcome{Results: cloneResults(p.Results)}

	p.Planning(state, &out, 0)

	assert.Empty(t, out.Bundle)
}

func TestPlanning_RespectsLBundleCap(t *testing.T) {
	cfg := testConfig("a")
	cfg.LBundle = 1
	cfg.Capability = capability.NewStaticSet("ir", "vis")
	p := New(cfg)

	for _, id := range []string{"r1", "r2"} {
		req := simpleRequest(id)
		req.UtilityMax = 100
		p.ObserveRequest(req)
	}

	state := types.SimpleAgentState{T: 0}
	out := ConsensusOutcome{Results: cloneResults(p.Results)}
	p.Planning(state, &out, 0)

	require.LessOrEqual(t, len(out.Bundle), cfg.LBundle)
}

func TestBestIndexFor_RejectsCandidateThatFailsMutexTest(t *testing.T) {
	cfg := testConfig("a")
	cfg.Capability = capability.NewStaticSet("ir", "vis")
	p := New(cfg)

	req := simpleRequest("r1")
	req.DependencyMatrix = [][]int{{0, -1}, {-1, 0}} // subtasks 0 and 1 are mutex
	req.UtilityMax = 10
	p.ObserveRequest(req)

	// A competitor already holds subtask 1 with a bid this agent's subtask-0
	// valuation can never beat.
	pair1 := types.Pair{RequestID: "r1", SubtaskIndex: 1}
	other, _ := p.Results.Get(pair1)
	other.Bidder = "b"
	other.Winner = "b"
	other.WinningBid = 1000
	p.Results.Set(pair1, other)

	state := types.SimpleAgentState{Pos: types.Position{X: 0}, Speed: 5, T: 0}
	out := ConsensusOutcome{Results: cloneResults(p.Results)}

	p.Planning(state, &out, 0)

	assert.Empty(t, out.Bundle, "an insertion that would lose the mutex coalition test is never committed")
}

func TestContainsPair(t *testing.T) {
	bundle := types.Bundle{{RequestID: "r", SubtaskIndex: 0}}
	assert.True(t, containsPair(bundle, types.Pair{RequestID: "r", SubtaskIndex: 0}))
	assert.False(t, containsPair(bundle, types.Pair{RequestID: "r", SubtaskIndex: 1}))
}

func TestCoalitionSize_MinimumOne(t *testing.T) {
	assert.Equal(t, 1, coalitionSize(types.Results{}, "missing"))
}
