// Package agentloop implements the node-side half of the agent observation
// cycle of spec.md §4.4: gather outcomes, assemble a Senses message, push it
// to the local planner module, await the resulting Plan, perform the next
// action, then submit a TicRequest to advance the clock. Grounded on the
// manager's own clock-protocol request/reply shape (internal/manager/clock.go)
// applied at the node's tic-submission side.
package agentloop

import (
	"context"
	"fmt"

	"github.com/eosim/eosim/internal/errs"
	"github.com/eosim/eosim/internal/manager"
	"github.com/eosim/eosim/internal/node"
	"github.com/eosim/eosim/internal/planner"
	"github.com/eosim/eosim/internal/socket"
	"github.com/eosim/eosim/internal/types"
)

// Dependencies bundles everything the agent live loop needs beyond the Node
// itself: the planner module it hosts, a persistence sink, and the
// Senses/Plan request socket. SensesReq is the node's own internal request
// socket (the same one module.Run uses to send ModuleSyncRequest/
// ModuleReady during the handshake): by the time Execute runs, the
// handshake has completed and the request/reply pair is free for the
// per-cycle Senses/Plan round trip (spec.md §4.5 vs. §4.6).
type Dependencies struct {
	ModuleName string
	SensesReq  *socket.Socket
	State      types.AgentState
	Recorder   func(t float64, state types.AgentState, plan types.Plan)
}

// NewLoop returns a node.LiveLoop implementing the agent observation cycle.
// Each iteration: advance to the next Toc, build a Senses message from the
// current state plus any freshly observed MeasurementRequest broadcasts,
// round-trip it to the planner module, execute the resulting action, record
// evidence, then submit TicRequest to let the manager advance.
func NewLoop(deps *Dependencies) node.LiveLoop {
	return func(ctx context.Context, n *node.Node) error {
		state := deps.State
		var lastAction *types.Action
		for {
			t, err := waitForToc(ctx, n)
			if err != nil {
				if err == errSimEnd {
					return nil
				}
				return err
			}

			newReqs := drainRequests(n)

			plan, err := deps.senses(ctx, n.Name, state, t, newReqs, lastAction)
			if err != nil {
				return err
			}

			action, nextState := applyAction(state, plan, t)
			state = nextState
			lastAction = &action

			if deps.Recorder != nil {
				deps.Recorder(t, state, plan)
			}

			if err := submitTic(ctx, n, t, t+tickHorizon(n.Clock)); err != nil {
				return err
			}
		}
	}
}

var errSimEnd = fmt.Errorf("sim end observed")

// waitForToc blocks until the manager's next Toc or SimEnd, returning the
// observed time (spec.md §4.3, §4.4).
func waitForToc(ctx context.Context, n *node.Node) (float64, error) {
	sub := n.External[types.RoleSubscribe]
	if sub == nil {
		return 0, errs.Configuration("agentloop.waitForToc", fmt.Errorf("node %s has no subscribe socket", n.Name))
	}
	for {
		msg, err := sub.Recv(ctx)
		if err != nil {
			return 0, err
		}
		switch msg.Kind {
		case types.KindSimEnd:
			return 0, errSimEnd
		case types.KindToc:
			var payload manager.TocPayload
			if err := msg.Decode(&payload); err != nil {
				return 0, errs.Protocol("agentloop.waitForToc", err)
			}
			return payload.T, nil
		}
	}
}

// drainRequests non-blockingly collects any MeasurementRequest broadcasts
// observed since the last cycle (spec.md §5: "non-blocking drains used
// inside the consensus loop" applies equally to the node's own inbox
// draining before handing work to the planner).
func drainRequests(n *node.Node) []types.MeasurementRequest {
	sub := n.External[types.RoleSubscribe]
	if sub == nil {
		return nil
	}
	var out []types.MeasurementRequest
	for {
		msg, ok, err := sub.TryRecv()
		if err != nil || !ok {
			return out
		}
		if msg.Kind != types.KindMeasurementRequest {
			continue
		}
		var req types.MeasurementRequest
		if err := msg.Decode(&req); err != nil {
			continue
		}
		out = append(out, req)
	}
}

func (deps *Dependencies) senses(ctx context.Context, nodeName string, state types.AgentState, t float64, newReqs []types.MeasurementRequest, lastAction *types.Action) (types.Plan, error) {
	snapshot := toSnapshot(state)
	msg, err := types.NewMessage(deps.ModuleName, nodeName, types.KindSenses, planner.SensesPayload{
		State:       snapshot,
		TCurr:       t,
		NewRequests: newReqs,
		LastAction:  lastAction,
	})
	if err != nil {
		return types.Plan{}, errs.LogicInvariant("agentloop.senses", err)
	}
	resp, err := deps.SensesReq.Request(ctx, msg)
	if err != nil {
		return types.Plan{}, err
	}
	var payload planner.PlanPayload
	if err := resp.Decode(&payload); err != nil {
		return types.Plan{}, errs.Protocol("agentloop.senses", err)
	}
	return payload.Plan, nil
}

func toSnapshot(state types.AgentState) planner.StateSnapshot {
	kind := "simple"
	var speed float64
	if s, ok := state.(types.SimpleAgentState); ok {
		speed = s.Speed
	} else if _, ok := state.(types.OrbitalAgentState); ok {
		kind = "orbital"
	}
	return planner.StateSnapshot{
		Kind:     kind,
		Position: state.Position(),
		Velocity: state.Velocity(),
		Status:   state.Status(),
		Time:     state.Time(),
		Speed:    speed,
	}
}

// applyAction performs the plan's next dispatched action against state,
// returning the action taken (marked COMPLETED, since this loop executes
// every action to completion synchronously within one cycle) and the
// resulting state (spec.md §4.6.6, §3). The returned action is reported
// back to the planner module on the following cycle's Senses message so it
// can dispatch the next action based on previously reported outcomes.
func applyAction(state types.AgentState, plan types.Plan, t float64) (types.Action, types.AgentState) {
	action := planner.NextAction(plan, t)
	action.Status = types.ActionCompleted

	switch action.Kind {
	case types.ActionTravel:
		return action, state.Propagate(action.TEnd).WithStatus(types.StatusTraveling, action.TEnd)
	case types.ActionMeasure:
		return action, state.WithStatus(types.StatusMeasuring, action.TEnd)
	case types.ActionWaitForMessages:
		return action, state.WithStatus(types.StatusListening, t)
	default:
		return action, state.WithStatus(types.StatusIdling, t)
	}
}

// tickHorizon bounds how far ahead this node commits before needing another
// Toc, matching the fixed-step clock's dt when applicable (spec.md §4.3).
func tickHorizon(clock types.ClockConfig) float64 {
	if clock.Kind == types.ClockFixedTimeStep && clock.Dt > 0 {
		return clock.Dt
	}
	return 1
}

// submitTic sends TicRequest{src, t0, tf} to the manager (spec.md §4.3,
// §4.4).
func submitTic(ctx context.Context, n *node.Node, t0, tf float64) error {
	req := n.External[types.RoleRequest]
	if req == nil {
		return errs.Configuration("agentloop.submitTic", fmt.Errorf("node %s has no request socket", n.Name))
	}
	msg, err := types.NewMessage(n.ManagerName, n.Name, types.KindTicRequest, manager.TicPayload{Src: n.Name, T0: t0, Tf: tf})
	if err != nil {
		return errs.LogicInvariant("agentloop.submitTic", err)
	}
	resp, err := req.Request(ctx, msg)
	if err != nil {
		return err
	}
	if resp.Kind != types.KindReceptionAck {
		return errs.Protocol("agentloop.submitTic", fmt.Errorf("manager rejected TicRequest: %s", resp.Kind))
	}
	return nil
}
