package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBid_Reset(t *testing.T) {
	b := Bid{Winner: "agent-1", WinningBid: 5, TImg: 10, TViolation: 3}
	b = b.Reset()

	assert.Equal(t, NoWinner, b.Winner)
	assert.Zero(t, b.WinningBid)
	assert.Equal(t, -1.0, b.TImg)
	assert.Equal(t, -1.0, b.TViolation)
}

func TestBid_ResetAndDecrement(t *testing.T) {
	tests := []struct {
		name             string
		dependencies     []int
		soloIn, anyIn    int
		soloOut, anyOut  int
	}{
		{"pessimistic bid keeps counters", []int{0, 0}, 1, 1, 1, 1},
		{"optimistic bid decrements solo first", []int{1, 0}, 1, 1, 0, 1},
		{"optimistic bid falls back to any when solo exhausted", []int{1, 0}, 0, 1, 0, 0},
		{"optimistic bid at zero stays zero", []int{1, 0}, 0, 0, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := Bid{Dependencies: tt.dependencies, BidSoloRemaining: tt.soloIn, BidAnyRemaining: tt.anyIn}
			b = b.ResetAndDecrement()
			assert.Equal(t, tt.soloOut, b.BidSoloRemaining)
			assert.Equal(t, tt.anyOut, b.BidAnyRemaining)
			assert.Equal(t, NoWinner, b.Winner)
		})
	}
}

func TestBid_Update_AdoptsStrictlyHigherBid(t *testing.T) {
	mine := Bid{Bidder: "b", Winner: "b", WinningBid: 3, TImg: 1}
	other := Bid{Bidder: "a", Winner: "a", WinningBid: 5, TImg: 2}

	updated, broadcast, changed := mine.Update(other, 10)

	assert.True(t, changed)
	assert.Equal(t, "a", updated.Winner)
	assert.Equal(t, 5.0, updated.WinningBid)
	assert.Equal(t, 10.0, updated.TUpdate)
	assert.Equal(t, BroadcastOther, broadcast)
}

func TestBid_Update_TieBreaksLexicographically(t *testing.T) {
	mine := Bid{Bidder: "z", Winner: "z", WinningBid: 5}
	other := Bid{Bidder: "a", Winner: "a", WinningBid: 5}

	updated, _, changed := mine.Update(other, 1)

	assert.True(t, changed)
	assert.Equal(t, "a", updated.Winner, "lexicographically smaller bidder wins a tie")
}

func TestBid_Update_KeepsIncumbentOnLowerBid(t *testing.T) {
	mine := Bid{Bidder: "b", Winner: "b", WinningBid: 9}
	other := Bid{Bidder: "a", Winner: "a", WinningBid: 4}

	updated, broadcast, changed := mine.Update(other, 1)

	assert.Equal(t, "b", updated.Winner)
	assert.Equal(t, BroadcastSelf, broadcast)
	// t_update always advances even when nothing else changes.
	assert.True(t, changed)
}

func TestBid_Update_OwnBidNeverChangesOnAdopt(t *testing.T) {
	mine := Bid{Bidder: "b", Winner: "b", WinningBid: 3, OwnBid: 3}
	other := Bid{Bidder: "a", Winner: "a", WinningBid: 5}

	updated, _, _ := mine.Update(other, 1)

	assert.Equal(t, 3.0, updated.OwnBid)
}

func TestBid_SetBid_ClaimsWhenHighest(t *testing.T) {
	b := Bid{Bidder: "a", WinningBid: 2, Winner: "other"}
	b = b.SetBid(7, 100, 1)

	assert.Equal(t, 7.0, b.OwnBid)
	assert.Equal(t, "a", b.Winner)
	assert.Equal(t, 7.0, b.WinningBid)
	assert.Equal(t, 100.0, b.TImg)
}

func TestBid_SetBid_DoesNotClaimWhenLower(t *testing.T) {
	b := Bid{Bidder: "a", WinningBid: 9, Winner: "other"}
	b = b.SetBid(3, 100, 1)

	assert.Equal(t, "other", b.Winner)
	assert.Equal(t, 9.0, b.WinningBid)
}

func TestBid_NRequiredAndIsOptimistic(t *testing.T) {
	b := Bid{Dependencies: []int{0, 1, 0, 1}}
	assert.Equal(t, 2, b.NRequired())
	assert.True(t, b.IsOptimistic())

	none := Bid{Dependencies: []int{0, 0}}
	assert.Equal(t, 0, none.NRequired())
	assert.False(t, none.IsOptimistic())
}

func TestResults_GetSetAndOthers(t *testing.T) {
	r := make(Results)
	p0 := Pair{RequestID: "r1", SubtaskIndex: 0}
	p2 := Pair{RequestID: "r1", SubtaskIndex: 2}

	r.Set(p0, Bid{Bidder: "a"})
	r.Set(p2, Bid{Bidder: "b"})

	got, ok := r.Get(p0)
	assert.True(t, ok)
	assert.Equal(t, "a", got.Bidder)

	_, ok = r.Get(Pair{RequestID: "missing"})
	assert.False(t, ok)

	others := r.Others("r1", 0)
	assert.Len(t, others, 2)
}

func TestNewBidArray(t *testing.T) {
	req := MeasurementRequest{
		ID:                "r1",
		MeasurementGroups: []MeasurementGroup{{Main: "ir"}, {Main: "vis"}},
		DependencyMatrix:  [][]int{{0, 0}, {1, 0}},
		TimeDependencyMatrix: [][]float64{{0, 0}, {5, 0}},
	}
	bids := NewBidArray(req, "agent-1", 5, 2, 1)

	assert.Len(t, bids, 2)
	for _, b := range bids {
		assert.Equal(t, NoWinner, b.Winner)
		assert.Equal(t, -1.0, b.TImg)
		assert.Equal(t, 2, b.BidSoloRemaining)
		assert.Equal(t, 1, b.BidAnyRemaining)
	}
	assert.True(t, bids[1].IsOptimistic())
}
