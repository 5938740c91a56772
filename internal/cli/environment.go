package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/eosim/eosim/internal/element"
	"github.com/eosim/eosim/internal/node"
	"github.com/eosim/eosim/internal/types"
)

const environmentName = "environment"

var environmentFlags sharedFlags

var environmentCmd = &cobra.Command{
	Use:   "environment",
	Short: "Run the environment element: broadcasts ConnectivityUpdate each Toc",
	RunE:  runEnvironment,
}

func init() {
	registerSharedFlags(environmentCmd, &environmentFlags)
	rootCmd.AddCommand(environmentCmd)
}

func runEnvironment(cmd *cobra.Command, args []string) error {
	rt, err := setup(&environmentFlags, environmentName)
	if err != nil {
		return err
	}
	defer rt.nc.Close()

	roster := rosterFor(&environmentFlags, rt.scn)

	netCfg := types.NewNetworkConfig(environmentName).
		WithExternal(types.RoleRequest, types.Endpoint("manager")).
		WithExternal(types.RoleSubscribe, "").
		WithExternal(types.RolePublish, "")

	e := &element.Element{
		Name:   environmentName,
		Config: netCfg,
		Log:    rt.log,
		NC:     rt.nc,
		Leases: rt.leases,
		Prefix: rt.prefix,
	}
	loop := node.NewEnvironmentLoop(node.DefaultConnectivity(roster))
	n := node.New(e, "manager", nil, loop)

	return element.Run(context.Background(), e, n)
}
