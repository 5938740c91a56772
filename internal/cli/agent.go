package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/eosim/eosim/internal/agentloop"
	"github.com/eosim/eosim/internal/capability"
	"github.com/eosim/eosim/internal/element"
	"github.com/eosim/eosim/internal/errs"
	"github.com/eosim/eosim/internal/module"
	"github.com/eosim/eosim/internal/monitor"
	"github.com/eosim/eosim/internal/node"
	"github.com/eosim/eosim/internal/planner"
	"github.com/eosim/eosim/internal/types"
)

// lBundleDefault caps bundle growth when the scenario doesn't override it
// (spec.md §4.6.4, §8).
const lBundleDefault = 10

var agentFlags sharedFlags

var agentCmd = &cobra.Command{
	Use:   "agent <name>",
	Short: "Run one agent node: the observation cycle plus its consensus planner module",
	Args:  cobra.ExactArgs(1),
	RunE:  runAgent,
}

func init() {
	registerSharedFlags(agentCmd, &agentFlags)
	rootCmd.AddCommand(agentCmd)
}

func runAgent(cmd *cobra.Command, args []string) error {
	name := args[0]
	rt, err := setup(&agentFlags, name)
	if err != nil {
		return err
	}
	defer rt.nc.Close()

	spec, ok := rt.scn.AgentByName(name)
	if !ok {
		return errs.Configuration("cli.runAgent", fmt.Errorf("agent %q not found in scenario", name))
	}

	moduleName := name + ".planner"

	capPolicy := capability.NewStaticSet(spec.Instruments...)
	plannerCfg := planner.DefaultConfig(name, lBundleDefault)
	plannerCfg.Capability = capPolicy
	mod := &planner.Module{Name: moduleName, Planner: planner.New(plannerCfg), Log: rt.log}

	initial := types.SimpleAgentState{
		Pos:   types.Position{X: spec.Position[0], Y: spec.Position[1], Z: spec.Position[2]},
		St:    types.StatusIdling,
		Speed: spec.Speed,
	}

	netCfg := types.NewNetworkConfig(name).
		WithExternal(types.RoleRequest, types.Endpoint("manager")).
		WithExternal(types.RoleSubscribe, "").
		WithExternal(types.RolePush, "").
		WithInternal(types.RoleReply, "").
		WithInternal(types.RolePublish, "").
		WithInternal(types.RoleSubscribe, "").
		WithInternal(types.RoleRequest, types.Endpoint(name))

	e := &element.Element{
		Name:   name,
		Config: netCfg,
		Log:    rt.log,
		NC:     rt.nc,
		Leases: rt.leases,
		Prefix: rt.prefix,
	}

	deps := &agentloop.Dependencies{ModuleName: moduleName, State: initial}
	realLoop := agentloop.NewLoop(deps)

	// n.Internal and e.External are only populated once element.Run calls
	// ConfigureNetwork, which happens before Execute; bind the deferred
	// sockets the first (and only) time the loop body actually runs.
	loop := func(ctx context.Context, n *node.Node) error {
		deps.SensesReq = n.Internal[types.RoleRequest]
		deps.Recorder = makeRecorder(e, name)
		return realLoop(ctx, n)
	}

	n := node.New(e, "manager", []string{moduleName}, loop)

	return node.RunWithModules(context.Background(), e, n, map[string]module.Behavior{moduleName: mod})
}

// makeRecorder builds the agent's evidence push closure: one AgentState and
// one PlannerResults message per planning cycle, addressed to the monitor
// (spec.md §6).
func makeRecorder(e *element.Element, name string) func(t float64, state types.AgentState, plan types.Plan) {
	return func(t float64, state types.AgentState, plan types.Plan) {
		push := e.External[types.RolePush]
		if push == nil {
			return
		}
		ctx := context.Background()

		stateMsg, err := types.NewMessage("monitor", name, types.KindAgentState, monitor.AgentStatePayload{
			Source: name,
			T:      t,
			State: monitor.StateFields{
				Position: state.Position(),
				Velocity: state.Velocity(),
				Status:   state.Status(),
			},
		})
		if err == nil {
			if sendErr := push.Send(ctx, stateMsg); sendErr != nil {
				e.Log.Warn().Err(sendErr).Msg("failed to push agent state to monitor")
			}
		}

		resultsMsg, err := types.NewMessage("monitor", name, types.KindPlannerResults, monitor.PlannerResultsPayload{
			Source: name,
			T:      t,
			Plan:   plan,
		})
		if err == nil {
			if sendErr := push.Send(ctx, resultsMsg); sendErr != nil {
				e.Log.Warn().Err(sendErr).Msg("failed to push planner results to monitor")
			}
		}
	}
}
