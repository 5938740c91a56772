package types

import "github.com/google/uuid"

// ActionKind discriminates the tagged Action variant (spec.md §3).
type ActionKind string

const (
	ActionIdle            ActionKind = "Idle"
	ActionTravel          ActionKind = "Travel"
	ActionManeuver        ActionKind = "Maneuver"
	ActionMeasure         ActionKind = "Measure"
	ActionWaitForMessages ActionKind = "WaitForMessages"
	ActionBroadcast       ActionKind = "BroadcastMessage"
	ActionPeerMessage     ActionKind = "PeerMessage"
)

// ActionStatus is the closed set of action lifecycle states (spec.md §3).
type ActionStatus string

const (
	ActionPending   ActionStatus = "PENDING"
	ActionCompleted ActionStatus = "COMPLETED"
	ActionAborted   ActionStatus = "ABORTED"
)

// Action is the tagged variant of work an agent performs. Every action
// carries the common envelope fields plus kind-specific payload fields;
// unused payload fields are left zero for kinds that don't need them.
type Action struct {
	ID      string       `json:"id"`
	Kind    ActionKind   `json:"kind"`
	TStart  float64      `json:"t_start"`
	TEnd    float64      `json:"t_end"`
	Status  ActionStatus `json:"status"`

	TargetPosition   Position `json:"target_position,omitempty"`
	TargetAttitude   Position `json:"target_attitude,omitempty"`
	RequestID        string   `json:"request_id,omitempty"`
	SubtaskIndex     int      `json:"subtask_index,omitempty"`
	MainMeasurement  string   `json:"main_measurement,omitempty"`
	ExpectedUtility  float64  `json:"expected_utility,omitempty"`
	Message          *Message `json:"message,omitempty"`
}

// NewAction builds an action with a fresh id and PENDING status.
func NewAction(kind ActionKind, tStart, tEnd float64) Action {
	return Action{
		ID:     uuid.NewString(),
		Kind:   kind,
		TStart: tStart,
		TEnd:   tEnd,
		Status: ActionPending,
	}
}

// Plan is an ordered sequence of actions. Plans are rebuilt wholesale from
// (state, results, path); they are never patched in place (spec.md §3).
type Plan struct {
	Actions []Action `json:"actions"`
}

// Head returns the first action in the plan and whether one exists.
func (p Plan) Head() (Action, bool) {
	if len(p.Actions) == 0 {
		return Action{}, false
	}
	return p.Actions[0], true
}

// Bundle is an ordered sequence of (request, subtask) pairs selected for
// the agent (spec.md §3).
type Bundle []Pair

// Path is the possibly-reordered execution sequence of the same pairs as
// Bundle. Invariant: set(Bundle) == set(Path) (spec.md §3, §8).
type Path []Pair

// SameSet reports whether bundle and path contain exactly the same pairs,
// regardless of order (spec.md §8 invariant checked after every consensus
// step).
func SameSet(bundle Bundle, path Path) bool {
	if len(bundle) != len(path) {
		return false
	}
	counts := make(map[Pair]int, len(bundle))
	for _, p := range bundle {
		counts[p]++
	}
	for _, p := range path {
		counts[p]--
	}
	for _, c := range counts {
		if c != 0 {
			return false
		}
	}
	return true
}
