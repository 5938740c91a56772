package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/eosim/eosim/internal/types"
)

func TestNextAction_ReturnsHead(t *testing.T) {
	plan := types.Plan{Actions: []types.Action{types.NewAction(types.ActionMeasure, 1, 2)}}
	a := NextAction(plan, 0)
	assert.Equal(t, types.ActionMeasure, a.Kind)
}

func TestNextAction_EmptyPlanYieldsIdle(t *testing.T) {
	a := NextAction(types.Plan{}, 5)
	assert.Equal(t, types.ActionIdle, a.Kind)
	assert.Equal(t, 5.0, a.TStart)
}
