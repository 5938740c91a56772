package planner

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/eosim/eosim/internal/errs"
	"github.com/eosim/eosim/internal/module"
	"github.com/eosim/eosim/internal/socket"
	"github.com/eosim/eosim/internal/types"
)

// StateSnapshot is the wire-level encoding of an AgentState: AgentState is
// an interface, so the planner module exchanges this concrete struct with
// its node instead (spec.md §6 Senses/Plan payloads).
type StateSnapshot struct {
	Kind     string        `json:"kind"` // "simple" or "orbital"
	Position types.Position `json:"position"`
	Velocity types.Velocity `json:"velocity"`
	Status   types.Status   `json:"status"`
	Time     float64        `json:"time"`
	Speed    float64        `json:"speed,omitempty"`
}

// ToAgentState reconstructs an AgentState from its snapshot. Orbital agents
// reconstruct without a Provider; callers that need orbit queries must
// attach one themselves.
func (s StateSnapshot) ToAgentState() types.AgentState {
	if s.Kind == "orbital" {
		return types.OrbitalAgentState{Pos: s.Position, Vel: s.Velocity, St: s.Status, T: s.Time}
	}
	return types.SimpleAgentState{Pos: s.Position, Vel: s.Velocity, St: s.Status, T: s.Time, Speed: s.Speed}
}

// SensesPayload is the body of a Senses message the node sends this module
// each planning cycle (spec.md §4.4, §4.6). LastAction reports the outcome
// of the action dispatched on the previous cycle, nil on the very first
// cycle, so the planner can dispatch the next action based on previously
// reported action outcomes (spec.md §4.6.6).
type SensesPayload struct {
	State        StateSnapshot               `json:"state"`
	TCurr        float64                     `json:"t_curr"`
	NewRequests  []types.MeasurementRequest `json:"new_requests,omitempty"`
	LastAction   *types.Action               `json:"last_action,omitempty"`
}

// PlanPayload is the body of this module's reply to Senses.
type PlanPayload struct {
	Plan types.Plan `json:"plan"`
}

// Module wires a Planner into the internal module protocol (spec.md §4.5):
// Routine answers the node's Senses/Plan request-reply exchange and
// rebroadcasts the bids each planning step returns; Listen drains peer
// MeasurementBid/MeasurementRequest broadcasts into the planner's inbox.
type Module struct {
	Name    string
	Planner Planner
	Log     zerolog.Logger

	mu    sync.Mutex
	inbox []types.Bid
}

var _ module.Behavior = (*Module)(nil)

// Routine answers each Senses request from the node with the planner's next
// Plan, draining accumulated peer bids into the consensus phase first
// (spec.md §4.4, §4.6).
func (mod *Module) Routine(ctx context.Context, sockets socket.Map) error {
	rep := sockets[types.RoleReply]
	pub := sockets[types.RolePublish]
	if rep == nil {
		return errs.Configuration("planner.Module.Routine", errNoReplySocket)
	}

	for {
		msg, err := rep.Recv(ctx)
		if err != nil {
			return err
		}
		if msg.Kind != types.KindSenses {
			continue
		}
		var payload SensesPayload
		if err := msg.Decode(&payload); err != nil {
			return errs.Protocol("planner.Module.Routine", err)
		}
		for _, req := range payload.NewRequests {
			mod.Planner.ObserveRequest(req)
		}

		mod.mu.Lock()
		inbox := mod.inbox
		mod.inbox = nil
		mod.mu.Unlock()

		plan, rebroadcasts := mod.Planner.Step(payload.State.ToAgentState(), payload.TCurr, inbox, payload.LastAction)

		resp, err := types.NewMessage(msg.Source, mod.Name, types.KindPlan, PlanPayload{Plan: plan})
		if err != nil {
			return errs.LogicInvariant("planner.Module.Routine", err)
		}
		if err := rep.Send(ctx, resp); err != nil {
			return err
		}

		if pub != nil {
			for _, b := range rebroadcasts {
				bidMsg, err := types.NewMessage(string(types.AllAddress), mod.Name, types.KindMeasurementBid, b)
				if err != nil {
					return errs.LogicInvariant("planner.Module.Routine", err)
				}
				if err := pub.Send(ctx, bidMsg); err != nil {
					return err
				}
			}
		}
	}
}

// Listen drains peer MeasurementRequest and MeasurementBid broadcasts,
// caching requests and queuing bids for the next Routine cycle to fold into
// the consensus phase (spec.md §4.6.2).
func (mod *Module) Listen(ctx context.Context, sockets socket.Map) error {
	sub := sockets[types.RoleSubscribe]
	if sub == nil {
		return errs.Configuration("planner.Module.Listen", errNoSubscribeSocket)
	}
	for {
		msg, err := sub.Recv(ctx)
		if err != nil {
			return err
		}
		switch msg.Kind {
		case types.KindMeasurementRequest:
			var req types.MeasurementRequest
			if err := msg.Decode(&req); err != nil {
				mod.Log.Warn().Err(err).Msg("malformed measurement request")
				continue
			}
			mod.Planner.ObserveRequest(req)
		case types.KindMeasurementBid:
			var bid types.Bid
			if err := msg.Decode(&bid); err != nil {
				mod.Log.Warn().Err(err).Msg("malformed measurement bid")
				continue
			}
			mod.mu.Lock()
			mod.inbox = append(mod.inbox, bid)
			mod.mu.Unlock()
		}
	}
}
