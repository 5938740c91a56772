package market

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/eosim/eosim/internal/types"
)

func TestDefaultUtility_DecaysLinearly(t *testing.T) {
	req := types.MeasurementRequest{TStart: 0, TEnd: 10, UtilityMax: 100}

	assert.Equal(t, 100.0, DefaultUtility(req, 0, 0))
	assert.Equal(t, 50.0, DefaultUtility(req, 0, 5))
	assert.Equal(t, 0.0, DefaultUtility(req, 0, 10))
}

func TestDefaultUtility_ClampsOutsideWindow(t *testing.T) {
	req := types.MeasurementRequest{TStart: 0, TEnd: 10, UtilityMax: 100}

	assert.Equal(t, 100.0, DefaultUtility(req, 0, -5), "before t_start clamps to full value")
	assert.Equal(t, 0.0, DefaultUtility(req, 0, 20), "after t_end clamps to zero")
}

func TestDefaultUtility_ZeroSpanReturnsMax(t *testing.T) {
	req := types.MeasurementRequest{TStart: 5, TEnd: 5, UtilityMax: 42}
	assert.Equal(t, 42.0, DefaultUtility(req, 0, 5))
}

func TestZeroCost(t *testing.T) {
	assert.Equal(t, 0.0, ZeroCost(nil, types.MeasurementRequest{}, 0, 0))
}

func TestCoalitionAlpha(t *testing.T) {
	assert.Equal(t, 1.0, CoalitionAlpha(3, 3))
	assert.Equal(t, 1.0/3.0, CoalitionAlpha(2, 3))
	assert.Equal(t, 1.0/3.0, CoalitionAlpha(0, 0))
}

func TestValuation(t *testing.T) {
	assert.Equal(t, 10.0, Valuation(30, 1, 3, 0))
	assert.Equal(t, 5.0, Valuation(30, 1, 3, 5))
	assert.Equal(t, 30.0, Valuation(30, 1, 0, 0), "non-positive coalition size treated as 1")
}
