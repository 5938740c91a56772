package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClockConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     ClockConfig
		wantErr bool
	}{
		{"real_time ok", ClockConfig{Kind: ClockRealTime, Start: 0, End: 10}, false},
		{"event_driven ok", ClockConfig{Kind: ClockEventDriven, Start: 0, End: 10}, false},
		{"accelerated needs positive factor", ClockConfig{Kind: ClockAcceleratedRealTime, Start: 0, End: 10, Factor: 0}, true},
		{"accelerated ok", ClockConfig{Kind: ClockAcceleratedRealTime, Start: 0, End: 10, Factor: 4}, false},
		{"fixed step needs positive dt", ClockConfig{Kind: ClockFixedTimeStep, Start: 0, End: 10, Dt: 0}, true},
		{"fixed step ok", ClockConfig{Kind: ClockFixedTimeStep, Start: 0, End: 10, Dt: 1}, false},
		{"end before start", ClockConfig{Kind: ClockRealTime, Start: 10, End: 0}, true},
		{"unknown kind", ClockConfig{Kind: "bogus", Start: 0, End: 10}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestClockConfig_QuantizeFloorAndCeil(t *testing.T) {
	c := ClockConfig{Kind: ClockFixedTimeStep, Dt: 2}

	assert.Equal(t, 4.0, c.QuantizeFloor(5))
	assert.Equal(t, 6.0, c.QuantizeCeil(5))
	assert.Equal(t, 4.0, c.QuantizeFloor(4), "exact multiples are unchanged")
	assert.Equal(t, 4.0, c.QuantizeCeil(4))
}

func TestClockConfig_QuantizeNoOpForNonFixedStep(t *testing.T) {
	c := ClockConfig{Kind: ClockRealTime}
	assert.Equal(t, 5.3, c.QuantizeFloor(5.3))
	assert.Equal(t, 5.3, c.QuantizeCeil(5.3))
}
