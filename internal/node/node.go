// Package node implements the node network element of spec.md §4.4: manager
// registration, module hosting, and the per-clock-step observation cycle.
package node

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/eosim/eosim/internal/element"
	"github.com/eosim/eosim/internal/errs"
	"github.com/eosim/eosim/internal/manager"
	"github.com/eosim/eosim/internal/types"
)

// LiveLoop is the application-specific main behavior run during Execute
// (spec.md §4.4: "runs two concurrent activities that are
// application-specific" — the module half of that pair is run by the
// caller alongside Node.Run via module.Run; this is the node-local half).
type LiveLoop func(ctx context.Context, n *Node) error

// Node is a network element that hosts modules and participates in the
// manager protocol (spec.md §2).
type Node struct {
	*element.Element

	ManagerName string
	Modules     []string
	Clock       types.ClockConfig
	Ledger      types.AddressLedger

	Loop LiveLoop

	registerBackoff time.Duration
}

// New builds a Node ready to Run. loop implements the element's
// application-specific main behavior (e.g. the agent observation cycle).
func New(e *element.Element, managerName string, modules []string, loop LiveLoop) *Node {
	return &Node{
		Element:         e,
		ManagerName:     managerName,
		Modules:         modules,
		Loop:            loop,
		registerBackoff: 200 * time.Millisecond,
	}
}

// SyncExternal connects to the manager, sends SyncRequest (retrying with
// jittered backoff on ReceptionIgnored), then subscribes for SimInfo and
// installs the address ledger (spec.md §4.4).
func (n *Node) SyncExternal(ctx context.Context) error {
	req := n.External[types.RoleRequest]
	if req == nil {
		return errs.Configuration("Node.SyncExternal", fmt.Errorf("node %s has no request socket", n.Name))
	}

	for {
		msg, err := types.NewMessage(n.ManagerName, n.Name, types.KindSyncRequest, manager.SyncRequestPayload{
			Src:           n.Name,
			NetworkConfig: n.Config,
		})
		if err != nil {
			return errs.LogicInvariant("Node.SyncExternal", err)
		}
		resp, err := req.Request(ctx, msg)
		if err != nil {
			return err
		}
		if resp.Kind == types.KindReceptionAck {
			break
		}
		if err := jitterSleep(ctx, n.registerBackoff); err != nil {
			return err
		}
	}

	sub := n.External[types.RoleSubscribe]
	if sub == nil {
		return errs.Configuration("Node.SyncExternal", fmt.Errorf("node %s has no subscribe socket", n.Name))
	}
	for {
		msg, err := sub.Recv(ctx)
		if err != nil {
			return err
		}
		if msg.Kind != types.KindSimInfo {
			continue
		}
		var payload manager.SimInfoPayload
		if err := msg.Decode(&payload); err != nil {
			return errs.Protocol("Node.SyncExternal", err)
		}
		n.Clock = payload.ClockConfig
		n.Ledger = payload.AddressLedger
		return nil
	}
}

// SyncInternal performs the node-side half of the internal module protocol
// (spec.md §4.5).
func (n *Node) SyncInternal(ctx context.Context) error {
	return n.syncModules(ctx)
}

// WaitForStart sends NodeReady and blocks for SimStart (spec.md §4.4).
func (n *Node) WaitForStart(ctx context.Context) error {
	req := n.External[types.RoleRequest]
	msg, err := types.NewMessage(n.ManagerName, n.Name, types.KindNodeReady, manager.NodeReadyPayload{Src: n.Name})
	if err != nil {
		return errs.LogicInvariant("Node.WaitForStart", err)
	}
	resp, err := req.Request(ctx, msg)
	if err != nil {
		return err
	}
	if resp.Kind != types.KindReceptionAck {
		return errs.Protocol("Node.WaitForStart", fmt.Errorf("manager rejected NodeReady: %s", resp.Kind))
	}

	sub := n.External[types.RoleSubscribe]
	for {
		got, err := sub.Recv(ctx)
		if err != nil {
			return err
		}
		if got.Kind == types.KindSimStart {
			return nil
		}
	}
}

// Execute runs the node's application-specific live loop until it
// completes or ctx is cancelled (spec.md §4.2 step 4, §4.4).
func (n *Node) Execute(ctx context.Context) error {
	if n.Loop == nil {
		<-ctx.Done()
		return nil
	}
	return n.Loop(ctx, n)
}

// Deactivate tears down modules and reports departure to the manager
// (spec.md §4.2 step 5, §4.5).
func (n *Node) Deactivate(ctx context.Context) error {
	if err := n.deactivateModules(ctx); err != nil {
		n.Log.Warn().Err(err).Msg("module deactivation incomplete")
	}

	req := n.External[types.RoleRequest]
	if req == nil {
		return nil
	}
	msg, err := types.NewMessage(n.ManagerName, n.Name, types.KindNodeDeactivated, manager.NodeDeactivatedPayload{Src: n.Name})
	if err != nil {
		return errs.LogicInvariant("Node.Deactivate", err)
	}
	_, err = req.Request(ctx, msg)
	return err
}

// jitterSleep waits a randomized interval around base, used for ack-timeout
// retries (spec.md §7: "retry with jittered backoff").
func jitterSleep(ctx context.Context, base time.Duration) error {
	d := base + time.Duration(rand.Int63n(int64(base)))
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return errs.TransientIO("jitterSleep", ctx.Err())
	}
}
