package node

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/eosim/eosim/internal/element"
	"github.com/eosim/eosim/internal/module"
)

// RunWithModules drives a node's element lifecycle concurrently with every
// module it hosts (spec.md §4.5: the handshake and routine/listen pairing
// run alongside the node's own sync/execute steps, not after them — the
// node's SyncInternal blocks on ModuleSyncRequest/ModuleReady arriving from
// these same goroutines). A module and the node share one internal socket
// map, owned by the node (spec.md §4.1: the node binds reply/publish for
// its modules; modules connect request/subscribe to it). Either side
// returning ends the other, mirroring module.Run's own Routine/Listen
// pairing one level up.
func RunWithModules(ctx context.Context, e *element.Element, n *Node, modules map[string]module.Behavior) error {
	g, gctx := errgroup.WithContext(ctx)
	for name, b := range modules {
		name, b := name, b
		g.Go(func() error {
			return module.Run(gctx, name, e.Internal, b)
		})
	}
	g.Go(func() error {
		return element.Run(gctx, e, n)
	})
	return g.Wait()
}
