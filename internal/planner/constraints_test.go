package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/eosim/eosim/internal/types"
)

func TestMutexOK_NoCompetitionWins(t *testing.T) {
	req := types.MeasurementRequest{DependencyMatrix: [][]int{{0, -1}, {-1, 0}}}
	b := types.Bid{Bidder: "a", SubtaskIndex: 0, Dependencies: []int{0, -1}, WinningBid: 5}
	assert.True(t, MutexOK(0, req, b, nil))
}

func TestMutexOK_LosesToStrongerAlternative(t *testing.T) {
	req := types.MeasurementRequest{DependencyMatrix: [][]int{{0, -1}, {-1, 0}}}
	b := types.Bid{Bidder: "a", SubtaskIndex: 0, Dependencies: []int{0, -1}, WinningBid: 3}
	competitor := types.Bid{Bidder: "b", SubtaskIndex: 1, Dependencies: []int{-1, 0}, Winner: "b", WinningBid: 9}
	assert.False(t, MutexOK(0, req, b, []types.Bid{competitor}))
}

func TestMutexOK_CoalitionSumsDependents(t *testing.T) {
	req := types.MeasurementRequest{DependencyMatrix: [][]int{{0, 1}, {0, 0}}}
	// Subtask 0 (main) depends on subtask 1; both won by "a" sum their bids.
	b := types.Bid{Bidder: "a", SubtaskIndex: 0, Dependencies: []int{0, 1}, WinningBid: 3}
	dependent := types.Bid{Bidder: "a", SubtaskIndex: 1, Winner: "a", WinningBid: 4}
	assert.True(t, MutexOK(0, req, b, []types.Bid{dependent}))
}

func TestDependencyOK_FullySatisfied(t *testing.T) {
	b := types.Bid{Dependencies: []int{0, 1}}
	dep := types.Bid{SubtaskIndex: 1, Winner: "someone"}
	ok, updated := DependencyOK(b, []types.Bid{dep}, 10)
	assert.True(t, ok)
	assert.Equal(t, -1.0, updated.TViolation)
}

func TestDependencyOK_PessimisticRequiresExactSatisfaction(t *testing.T) {
	b := types.Bid{Dependencies: []int{0, 0}} // no positive dependency: pessimistic/trivial
	ok, _ := DependencyOK(b, nil, 10)
	assert.True(t, ok)
}

func TestDependencyOK_OptimisticTripsViolationTimerThenFails(t *testing.T) {
	b := types.Bid{Dependencies: []int{0, 1}, DtViolationMax: 5, TViolation: -1}
	// Dependency not yet satisfied (dep is still NONE).
	unsatisfied := types.Bid{SubtaskIndex: 1, Winner: types.NoWinner}

	ok, b2 := DependencyOK(b, []types.Bid{unsatisfied}, 0)
	assert.True(t, ok, "within tolerance window immediately after first violation")
	assert.Equal(t, 0.0, b2.TViolation)

	ok2, _ := DependencyOK(b2, []types.Bid{unsatisfied}, 10)
	assert.False(t, ok2, "violation timer exceeded dt_violation_max")
}

func TestTemporalOK_WithinWindow(t *testing.T) {
	b := types.Bid{SubtaskIndex: 0, Dependencies: []int{0, 1}, TimeConstraints: []float64{0, 3}, TImg: 10}
	other := types.Bid{SubtaskIndex: 1, Winner: "x", TImg: 12, TimeConstraints: []float64{3, 0}}
	assert.True(t, TemporalOK(b, []types.Bid{other}))
}

func TestTemporalOK_OutsideWindowFails(t *testing.T) {
	b := types.Bid{SubtaskIndex: 0, Dependencies: []int{0, 1}, TimeConstraints: []float64{0, 1}, TImg: 10}
	other := types.Bid{SubtaskIndex: 1, Winner: "x", TImg: 20, TimeConstraints: []float64{1, 0}}
	assert.False(t, TemporalOK(b, []types.Bid{other}))
}

func TestTemporalOK_IndependentSubtasksIgnored(t *testing.T) {
	b := types.Bid{SubtaskIndex: 0, Dependencies: []int{0, 0}, TImg: 10}
	other := types.Bid{SubtaskIndex: 1, Winner: "x", TImg: 1000}
	assert.True(t, TemporalOK(b, []types.Bid{other}))
}

func TestCheckConstraints_FailsFastOnMutex(t *testing.T) {
	req := types.MeasurementRequest{DependencyMatrix: [][]int{{0, -1}, {-1, 0}}}
	b := types.Bid{Bidder: "a", SubtaskIndex: 0, Dependencies: []int{0, -1}, WinningBid: 1}
	competitor := types.Bid{Bidder: "b", SubtaskIndex: 1, Dependencies: []int{-1, 0}, Winner: "b", WinningBid: 9}
	_, ok := CheckConstraints(req, 0, b, []types.Bid{competitor}, 0)
	assert.False(t, ok)
}

func TestCheckConstraints_AllPredicatesHold(t *testing.T) {
	req := types.MeasurementRequest{DependencyMatrix: [][]int{{0, 0}, {0, 0}}}
	b := types.Bid{Bidder: "a", SubtaskIndex: 0, Dependencies: []int{0, 0}, WinningBid: 5}
	updated, ok := CheckConstraints(req, 0, b, nil, 0)
	assert.True(t, ok)
	assert.Equal(t, -1.0, updated.TViolation)
}
