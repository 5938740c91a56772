// Package module implements the internal module protocol of spec.md §4.5:
// the module-side handshake (ModuleSyncRequest → NodeInfo → ModuleReady →
// ModuleActivate) and the concurrent routine/listen execution contract.
package module

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/eosim/eosim/internal/errs"
	"github.com/eosim/eosim/internal/socket"
	"github.com/eosim/eosim/internal/types"
)

// NodeInfoPayload is the body of a NodeInfo message.
type NodeInfoPayload struct {
	ClockConfig types.ClockConfig `json:"clock_config"`
}

// Behavior is implemented by a concrete module (e.g. the consensus planner
// module). Routine and Listen run concurrently once ModuleActivate is
// observed; termination of either cancels the other (spec.md §4.5 step 4).
type Behavior interface {
	Routine(ctx context.Context, sockets socket.Map) error
	Listen(ctx context.Context, sockets socket.Map) error
}

// Run drives a module through its full lifecycle against the node it is
// attached to, using the module's internal socket map (request, publish,
// subscribe — spec.md §4.5).
func Run(ctx context.Context, name string, sockets socket.Map, b Behavior) error {
	if err := sendSyncRequest(ctx, name, sockets); err != nil {
		return err
	}
	if _, err := waitFor(ctx, sockets, types.KindNodeInfo); err != nil {
		return err
	}
	if err := sendReady(ctx, name, sockets); err != nil {
		return err
	}
	if _, err := waitFor(ctx, sockets, types.KindModuleActivate); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return b.Routine(gctx, sockets) })
	g.Go(func() error { return b.Listen(gctx, sockets) })
	runErr := g.Wait()

	deactivated, err := types.NewMessage("node", name, types.KindModuleDeactivated, nil)
	if err != nil {
		return errs.LogicInvariant("module.Run", err)
	}
	if pub := sockets[types.RolePublish]; pub != nil {
		_ = pub.Send(context.WithoutCancel(ctx), deactivated)
	}
	return runErr
}

func sendSyncRequest(ctx context.Context, name string, sockets socket.Map) error {
	req := sockets[types.RoleRequest]
	if req == nil {
		return errs.Configuration("module.sendSyncRequest", fmt.Errorf("module %s has no request socket", name))
	}
	for {
		msg, err := types.NewMessage("node", name, types.KindModuleSyncRequest, nil)
		if err != nil {
			return errs.LogicInvariant("module.sendSyncRequest", err)
		}
		resp, err := req.Request(ctx, msg)
		if err != nil {
			return err
		}
		if resp.Kind == types.KindReceptionAck {
			return nil
		}
		// ReceptionIgnored: retry. The node mirrors this until every module
		// has registered.
	}
}

func sendReady(ctx context.Context, name string, sockets socket.Map) error {
	req := sockets[types.RoleRequest]
	msg, err := types.NewMessage("node", name, types.KindModuleReady, nil)
	if err != nil {
		return errs.LogicInvariant("module.sendReady", err)
	}
	resp, err := req.Request(ctx, msg)
	if err != nil {
		return err
	}
	if resp.Kind != types.KindReceptionAck {
		return errs.Protocol("module.sendReady", fmt.Errorf("node rejected ModuleReady: %s", resp.Kind))
	}
	return nil
}

// waitFor blocks on the module's subscribe socket until a message of kind
// is observed (spec.md §4.5 steps 2 and 3).
func waitFor(ctx context.Context, sockets socket.Map, kind types.Kind) (types.Message, error) {
	sub := sockets[types.RoleSubscribe]
	if sub == nil {
		return types.Message{}, errs.Configuration("module.waitFor", fmt.Errorf("no subscribe socket"))
	}
	for {
		msg, err := sub.Recv(ctx)
		if err != nil {
			return types.Message{}, err
		}
		if msg.Kind == kind {
			return msg, nil
		}
	}
}
