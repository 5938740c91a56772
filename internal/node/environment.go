package node

import (
	"context"
	"fmt"

	"github.com/eosim/eosim/internal/errs"
	"github.com/eosim/eosim/internal/manager"
	"github.com/eosim/eosim/internal/types"
)

// ConnectivityUpdatePayload is the body of a ConnectivityUpdate broadcast.
// spec.md §6 lists ConnectivityUpdate among the wire-format message kinds,
// but no protocol step in spec.md §4 produces one; SPEC_FULL.md supplements
// it with this Environment element variant, grounded on
// original_source/examples/multiagent/environment.py's connectivity-aware
// environment node.
type ConnectivityUpdatePayload struct {
	T     float64             `json:"t"`
	Links map[string][]string `json:"links"` // element name -> reachable peers
}

// ConnectivityProvider computes the connectivity graph at simulated time t.
type ConnectivityProvider func(t float64) map[string][]string

// DefaultConnectivity returns a ConnectivityProvider reporting a static
// full-mesh graph over roster, sufficient for scenarios that don't model
// link outages.
func DefaultConnectivity(roster []string) ConnectivityProvider {
	mesh := make(map[string][]string, len(roster))
	for _, a := range roster {
		var peers []string
		for _, b := range roster {
			if b != a {
				peers = append(peers, b)
			}
		}
		mesh[a] = peers
	}
	return func(t float64) map[string][]string { return mesh }
}

// NewEnvironmentLoop returns the LiveLoop for the Environment element: each
// Toc it recomputes connectivity via provider and publishes
// ConnectivityUpdate. Unlike an agent node it never submits TicRequest —
// internal/manager/clock.go's ticTargets excludes the element named "environment" from the
// clock's rendezvous, matching original_source's environment node, which
// only answers requests and never blocks the clock.
func NewEnvironmentLoop(provider ConnectivityProvider) LiveLoop {
	return func(ctx context.Context, n *Node) error {
		pub := n.External[types.RolePublish]
		if pub == nil {
			return errs.Configuration("node.NewEnvironmentLoop", fmt.Errorf("environment %s has no publish socket", n.Name))
		}
		for {
			t, err := waitForTocOrEnd(ctx, n)
			if err != nil {
				if err == errEnvSimEnd {
					return nil
				}
				return err
			}
			msg, err := types.NewMessage(string(types.AllAddress), n.Name, types.KindConnectivityUpdate, ConnectivityUpdatePayload{
				T:     t,
				Links: provider(t),
			})
			if err != nil {
				return errs.LogicInvariant("node.NewEnvironmentLoop", err)
			}
			if err := pub.Send(ctx, msg); err != nil {
				return err
			}
		}
	}
}

var errEnvSimEnd = fmt.Errorf("sim end observed")

func waitForTocOrEnd(ctx context.Context, n *Node) (float64, error) {
	sub := n.External[types.RoleSubscribe]
	if sub == nil {
		return 0, errs.Configuration("node.waitForTocOrEnd", fmt.Errorf("node %s has no subscribe socket", n.Name))
	}
	for {
		msg, err := sub.Recv(ctx)
		if err != nil {
			return 0, err
		}
		switch msg.Kind {
		case types.KindSimEnd:
			return 0, errEnvSimEnd
		case types.KindToc:
			var payload manager.TocPayload
			if err := msg.Decode(&payload); err != nil {
				return 0, errs.Protocol("node.waitForTocOrEnd", err)
			}
			return payload.T, nil
		}
	}
}
