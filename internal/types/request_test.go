package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validRequest() MeasurementRequest {
	return MeasurementRequest{
		ID:                   "r1",
		MeasurementGroups:    []MeasurementGroup{{Main: "ir"}, {Main: "vis"}},
		DependencyMatrix:     [][]int{{0, 1}, {0, 0}},
		TimeDependencyMatrix: [][]float64{{0, 5}, {0, 0}},
		TStart:               0,
		TEnd:                 20,
		Duration:             5,
	}
}

func TestMeasurementRequest_Validate_OK(t *testing.T) {
	assert.NoError(t, validRequest().Validate())
}

func TestMeasurementRequest_Validate_BadDependencyRowCount(t *testing.T) {
	r := validRequest()
	r.DependencyMatrix = [][]int{{0, 1}}
	assert.Error(t, r.Validate())
}

func TestMeasurementRequest_Validate_NonZeroDiagonal(t *testing.T) {
	r := validRequest()
	r.DependencyMatrix[0][0] = 1
	assert.Error(t, r.Validate())
}

func TestMeasurementRequest_Validate_ExpiresBeforeStart(t *testing.T) {
	r := validRequest()
	r.TEnd = 2
	r.Duration = 5
	r.TStart = 0
	assert.Error(t, r.Validate())
}

func TestMeasurementRequest_IsBiddableAt(t *testing.T) {
	r := validRequest() // t_end=20, duration=5 -> expires at t=15
	assert.True(t, r.IsBiddableAt(15), "boundary t_end-duration == t is still biddable")
	assert.True(t, r.IsBiddableAt(10))
	assert.False(t, r.IsBiddableAt(16))
}

func TestMeasurementRequest_MutexAndDependsOn(t *testing.T) {
	r := validRequest()
	r.DependencyMatrix = [][]int{{0, -1}, {1, 0}}

	assert.True(t, r.MutexWith(0, 1))
	assert.True(t, r.DependsOn(1, 0))
	assert.False(t, r.DependsOn(0, 1))
	assert.False(t, r.MutexWith(5, 0), "out-of-range indices are not mutex")
}

func TestMeasurementRequest_N(t *testing.T) {
	assert.Equal(t, 2, validRequest().N())
}
