package node

import (
	"context"
	"fmt"

	"github.com/eosim/eosim/internal/errs"
	"github.com/eosim/eosim/internal/types"
)

// syncModules mirrors the module-side protocol of spec.md §4.5 from the
// node's perspective: wait for every module's ModuleSyncRequest, publish
// NodeInfo; wait for every module's ModuleReady, publish ModuleActivate.
// The ordering guarantee of spec.md §4.5 ("a module never observes
// ModuleActivate before it has observed NodeInfo") holds because NodeInfo
// is fully published (and, being a pub/sub broadcast that modules already
// subscribed to before sending ModuleSyncRequest, necessarily delivered)
// before ModuleReady is even awaited.
func (n *Node) syncModules(ctx context.Context) error {
	if len(n.Modules) == 0 {
		return nil
	}
	if err := n.collectFromModules(ctx, types.KindModuleSyncRequest); err != nil {
		return err
	}
	info, err := types.NewMessage(string(types.AllAddress), n.Name, types.KindNodeInfo, moduleNodeInfo{ClockConfig: n.Clock})
	if err != nil {
		return errs.LogicInvariant("Node.syncModules", err)
	}
	if err := n.Internal[types.RolePublish].Send(ctx, info); err != nil {
		return err
	}

	if err := n.collectFromModules(ctx, types.KindModuleReady); err != nil {
		return err
	}
	activate, err := types.NewMessage(string(types.AllAddress), n.Name, types.KindModuleActivate, nil)
	if err != nil {
		return errs.LogicInvariant("Node.syncModules", err)
	}
	return n.Internal[types.RolePublish].Send(ctx, activate)
}

type moduleNodeInfo struct {
	ClockConfig types.ClockConfig `json:"clock_config"`
}

// collectFromModules blocks on the node's internal reply socket until every
// module named in n.Modules has sent a request of the given kind, replying
// ReceptionAck to each and ReceptionIgnored to anything unrecognized.
func (n *Node) collectFromModules(ctx context.Context, kind types.Kind) error {
	rep := n.Internal[types.RoleReply]
	if rep == nil {
		return errs.Configuration("Node.collectFromModules", fmt.Errorf("node %s has no internal reply socket", n.Name))
	}
	seen := make(map[string]bool, len(n.Modules))
	for len(seen) < len(n.Modules) {
		msg, err := rep.Recv(ctx)
		if err != nil {
			return err
		}
		if msg.Kind != kind || !n.isModule(msg.Source) {
			resp, merr := types.NewMessage(msg.Source, n.Name, types.KindReceptionIgnored, nil)
			if merr != nil {
				return errs.LogicInvariant("Node.collectFromModules", merr)
			}
			if err := rep.Send(ctx, resp); err != nil {
				return err
			}
			continue
		}
		seen[msg.Source] = true
		resp, err := types.NewMessage(msg.Source, n.Name, types.KindReceptionAck, nil)
		if err != nil {
			return errs.LogicInvariant("Node.collectFromModules", err)
		}
		if err := rep.Send(ctx, resp); err != nil {
			return err
		}
	}
	return nil
}

func (n *Node) isModule(name string) bool {
	for _, m := range n.Modules {
		if m == name {
			return true
		}
	}
	return false
}

// deactivateModules publishes ModuleDeactivate and collects
// ModuleDeactivated from every module. Unlike ModuleSyncRequest/ModuleReady,
// ModuleDeactivated is a one-way notification delivered over the node's
// internal subscribe socket rather than request/reply (spec.md §4.5 node
// mirror).
func (n *Node) deactivateModules(ctx context.Context) error {
	if len(n.Modules) == 0 {
		return nil
	}
	msg, err := types.NewMessage(string(types.AllAddress), n.Name, types.KindModuleDeactivate, nil)
	if err != nil {
		return errs.LogicInvariant("Node.deactivateModules", err)
	}
	if err := n.Internal[types.RolePublish].Send(ctx, msg); err != nil {
		return err
	}

	sub := n.Internal[types.RoleSubscribe]
	if sub == nil {
		return errs.Configuration("Node.deactivateModules", fmt.Errorf("node %s has no internal subscribe socket", n.Name))
	}
	seen := make(map[string]bool, len(n.Modules))
	for len(seen) < len(n.Modules) {
		got, err := sub.Recv(ctx)
		if err != nil {
			return err
		}
		if got.Kind == types.KindModuleDeactivated && n.isModule(got.Source) {
			seen[got.Source] = true
		}
	}
	return nil
}
