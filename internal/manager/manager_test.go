package manager

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/eosim/eosim/internal/types"
)

func TestDedupKey_SameMessageSameKey(t *testing.T) {
	body, _ := json.Marshal(TicPayload{Src: "a", T0: 1, Tf: 2})
	msg := types.Message{Source: "a", Kind: types.KindTicRequest, ID: "id-1", Body: body}

	assert.Equal(t, dedupKey(msg), dedupKey(msg))
}

func TestDedupKey_DifferingBodyDiffersEvenWithSameID(t *testing.T) {
	body1, _ := json.Marshal(TicPayload{Src: "a", T0: 1, Tf: 2})
	body2, _ := json.Marshal(TicPayload{Src: "a", T0: 1, Tf: 99})
	m1 := types.Message{Source: "a", Kind: types.KindTicRequest, ID: "id-1", Body: body1}
	m2 := types.Message{Source: "a", Kind: types.KindTicRequest, ID: "id-1", Body: body2}

	assert.NotEqual(t, dedupKey(m1), dedupKey(m2), "a retried id reused with a different payload must not collide")
}

func TestDedupKey_DifferingSourceOrKindDiffers(t *testing.T) {
	body, _ := json.Marshal(TicPayload{Src: "a", T0: 1, Tf: 2})
	base := types.Message{Source: "a", Kind: types.KindTicRequest, ID: "id-1", Body: body}
	otherSource := base
	otherSource.Source = "b"
	otherKind := base
	otherKind.Kind = types.KindSyncRequest

	assert.NotEqual(t, dedupKey(base), dedupKey(otherSource))
	assert.NotEqual(t, dedupKey(base), dedupKey(otherKind))
}

func TestManager_AlreadyProcessed(t *testing.T) {
	m := New(nil, []string{"a"}, types.ClockConfig{Kind: types.ClockRealTime}, 0)
	body, _ := json.Marshal(TicPayload{Src: "a", T0: 1, Tf: 2})
	msg := types.Message{Source: "a", Kind: types.KindTicRequest, ID: "id-1", Body: body}

	assert.False(t, m.alreadyProcessed(msg), "first observation is new")
	assert.True(t, m.alreadyProcessed(msg), "second observation of the same message is a dup")
}

func TestManager_IsRostered(t *testing.T) {
	m := &Manager{Roster: []string{"agent-1", "agent-2"}}
	assert.True(t, m.isRostered("agent-1"))
	assert.False(t, m.isRostered("agent-3"))
}
