package leaseguard

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegistry_Acquire_RejectsConflictingOwner(t *testing.T) {
	r := NewRegistry()
	assert.NoError(t, r.Acquire("node-a", "eosim.int.node-a."))
	err := r.Acquire("node-b", "eosim.int.node-a.")
	assert.Error(t, err)
}

func TestRegistry_Acquire_SameOwnerIsIdempotent(t *testing.T) {
	r := NewRegistry()
	assert.NoError(t, r.Acquire("node-a", "ep"))
	assert.NoError(t, r.Acquire("node-a", "ep"))
}

func TestRegistry_Release_FreesEndpointForReuse(t *testing.T) {
	r := NewRegistry()
	assert.NoError(t, r.Acquire("node-a", "ep"))
	r.Release("ep")
	assert.NoError(t, r.Acquire("node-b", "ep"))
}

func TestRegistry_NoteIgnored_TripsAtThreshold(t *testing.T) {
	r := NewRegistry()
	var tripped bool
	for i := 0; i < anomalyThreshold; i++ {
		tripped = r.NoteIgnored("bad-peer")
	}
	assert.True(t, tripped)
}

func TestRegistry_NoteIgnored_BelowThresholdNotTripped(t *testing.T) {
	r := NewRegistry()
	tripped := r.NoteIgnored("peer")
	assert.False(t, tripped)
}

func TestRegistry_ResetAnomaly(t *testing.T) {
	r := NewRegistry()
	for i := 0; i < anomalyThreshold-1; i++ {
		r.NoteIgnored("peer")
	}
	r.ResetAnomaly("peer")
	assert.False(t, r.NoteIgnored("peer"), "count restarts from zero after reset")
}
