package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/eosim/eosim/internal/element"
	"github.com/eosim/eosim/internal/errs"
	"github.com/eosim/eosim/internal/monitor"
	"github.com/eosim/eosim/internal/types"
)

var monitorFlags sharedFlags

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Run the monitor element: passive evidence collector and CSV writer",
	RunE:  runMonitor,
}

func init() {
	registerSharedFlags(monitorCmd, &monitorFlags)
	rootCmd.AddCommand(monitorCmd)
}

func runMonitor(cmd *cobra.Command, args []string) error {
	rt, err := setup(&monitorFlags, "monitor")
	if err != nil {
		return err
	}
	defer rt.nc.Close()

	// The results directory is created/cleared on start (spec.md §6); the
	// monitor owns this since it is the sole writer of <results>/<element>/.
	if err := os.RemoveAll(monitorFlags.scenario); err != nil {
		return errs.Configuration("cli.runMonitor", fmt.Errorf("clear results dir: %w", err))
	}
	if err := os.MkdirAll(monitorFlags.scenario, 0o755); err != nil {
		return errs.Configuration("cli.runMonitor", fmt.Errorf("create results dir: %w", err))
	}

	netCfg := types.NewNetworkConfig("monitor").
		WithExternal(types.RolePull, "").
		WithExternal(types.RoleSubscribe, "")

	e := &element.Element{
		Name:   "monitor",
		Config: netCfg,
		Log:    rt.log,
		NC:     rt.nc,
		Leases: rt.leases,
		Prefix: rt.prefix,
	}
	mon := monitor.New(e, monitorFlags.scenario)

	return element.Run(context.Background(), e, mon)
}
