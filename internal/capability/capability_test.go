package capability

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStaticSet_CanBid(t *testing.T) {
	s := NewStaticSet("ir", "vis")

	assert.True(t, s.CanBid("ir"))
	assert.True(t, s.CanBid("vis"))
	assert.False(t, s.CanBid("radar"))
}

func TestStaticSet_Empty(t *testing.T) {
	s := NewStaticSet()
	assert.False(t, s.CanBid("ir"))
}

func TestMatrix_CanBid_FlattensInstruments(t *testing.T) {
	m := NewMatrix(map[string][]string{
		"sensor-a": {"ir", "vis"},
		"sensor-b": {"radar"},
	})

	assert.True(t, m.CanBid("ir"))
	assert.True(t, m.CanBid("vis"))
	assert.True(t, m.CanBid("radar"))
	assert.False(t, m.CanBid("sonar"))
}

func TestMatrix_CanBid_NoInstruments(t *testing.T) {
	m := NewMatrix(nil)
	assert.False(t, m.CanBid("ir"))
}

func TestPolicy_InterfaceSatisfied(t *testing.T) {
	var _ Policy = NewStaticSet()
	var _ Policy = NewMatrix(nil)
}
