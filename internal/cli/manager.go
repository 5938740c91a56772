package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/eosim/eosim/internal/element"
	"github.com/eosim/eosim/internal/errs"
	"github.com/eosim/eosim/internal/manager"
	"github.com/eosim/eosim/internal/types"
)

// registrationTimeout bounds how long the manager waits for the full
// roster to register before failing startup (spec.md §7: "sync deadline
// exceeded: fatal at startup").
const registrationTimeout = 30 * time.Second

var managerFlags sharedFlags

var managerCmd = &cobra.Command{
	Use:   "manager",
	Short: "Run the manager element: clock authority and registration gate",
	RunE:  runManager,
}

func init() {
	registerSharedFlags(managerCmd, &managerFlags)
	rootCmd.AddCommand(managerCmd)
}

func runManager(cmd *cobra.Command, args []string) error {
	rt, err := setup(&managerFlags, "manager")
	if err != nil {
		return err
	}
	defer rt.nc.Close()

	roster := rosterFor(&managerFlags, rt.scn)
	clock, err := parseClock(managerFlags.clock, rt.scn.Clock.ToClockConfig())
	if err != nil {
		return errs.Configuration("cli.runManager", err)
	}

	netCfg := types.NewNetworkConfig("manager").
		WithExternal(types.RoleReply, "").
		WithExternal(types.RolePublish, "")

	e := &element.Element{
		Name:   "manager",
		Config: netCfg,
		Log:    rt.log,
		NC:     rt.nc,
		Leases: rt.leases,
		Prefix: rt.prefix,
	}
	mgr := manager.New(e, roster, clock, registrationTimeout)

	return element.Run(context.Background(), e, mgr)
}
