package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/eosim/eosim/internal/config"
	"github.com/eosim/eosim/internal/errs"
	"github.com/eosim/eosim/internal/leaseguard"
	"github.com/eosim/eosim/internal/logging"
	"github.com/eosim/eosim/internal/types"
)

// sharedFlags is the CLI surface common to every subcommand (SPEC_FULL.md
// §6: "--scenario, --port, --log-level, --clock, --roster").
type sharedFlags struct {
	scenario string
	port     int
	logLevel string
	clock    string
	roster   string
}

// registerSharedFlags attaches the shared flag set to cmd.
func registerSharedFlags(cmd *cobra.Command, f *sharedFlags) {
	cmd.Flags().StringVar(&f.scenario, "scenario", "", "path to the run's results directory; the scenario definition is read from <scenario>.yaml alongside it (required)")
	cmd.Flags().IntVar(&f.port, "port", 4222, "base network port: the local NATS server's port")
	cmd.Flags().StringVar(&f.logLevel, "log-level", "info", "log level: trace|debug|info|warn|error")
	cmd.Flags().StringVar(&f.clock, "clock", "", "clock override: real_time | accelerated:<factor> | fixed_step:<dt> | event_driven (default: scenario.yaml's clock)")
	cmd.Flags().StringVar(&f.roster, "roster", "", "comma-separated roster override (default: scenario.yaml's roster)")
	_ = cmd.MarkFlagRequired("scenario")
}

// runtime bundles the infrastructure every subcommand wires up before
// constructing its element.
type runtime struct {
	nc     *nats.Conn
	leases *leaseguard.Registry
	log    zerolog.Logger
	scn    config.Scenario
	prefix string
}

// natsPrefix is the fixed root of every subject (the start of
// internal/socket.Build's prefix parameter). It is the same for every run,
// so eosim invocations sharing a NATS server share subjects.
const natsPrefix = "eosim."

func setup(f *sharedFlags, elementName string) (*runtime, error) {
	if f.scenario == "" {
		return nil, errs.Configuration("cli.setup", fmt.Errorf("--scenario is required"))
	}

	base := logging.Init(f.logLevel)
	log := logging.ForElement(base, elementName)

	scn, err := config.Load(f.scenario + ".yaml")
	if err != nil {
		return nil, errs.Configuration("cli.setup", err)
	}

	url := fmt.Sprintf("nats://127.0.0.1:%d", f.port)
	nc, err := nats.Connect(url)
	if err != nil {
		return nil, errs.Configuration("cli.setup", fmt.Errorf("connect to nats at %s: %w", url, err))
	}

	return &runtime{
		nc:     nc,
		leases: leaseguard.NewRegistry(),
		log:    log,
		scn:    scn,
		prefix: natsPrefix,
	}, nil
}

// rosterFor resolves the effective roster: the --roster override if given,
// otherwise the scenario's own roster.
func rosterFor(f *sharedFlags, scn config.Scenario) []string {
	if f.roster == "" {
		return scn.Roster
	}
	parts := strings.Split(f.roster, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parseClock resolves the effective clock: the --clock override if given,
// otherwise the scenario's own clock (SPEC_FULL.md §6).
func parseClock(spec string, scenarioClock types.ClockConfig) (types.ClockConfig, error) {
	if spec == "" {
		return scenarioClock, nil
	}
	parts := strings.SplitN(spec, ":", 2)
	cfg := types.ClockConfig{Start: scenarioClock.Start, End: scenarioClock.End}
	switch parts[0] {
	case "real_time":
		cfg.Kind = types.ClockRealTime
	case "event_driven":
		cfg.Kind = types.ClockEventDriven
	case "accelerated":
		if len(parts) != 2 {
			return cfg, fmt.Errorf("clock %q: accelerated requires a factor, e.g. accelerated:10", spec)
		}
		factor, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return cfg, fmt.Errorf("clock %q: invalid factor: %w", spec, err)
		}
		cfg.Kind = types.ClockAcceleratedRealTime
		cfg.Factor = factor
	case "fixed_step":
		if len(parts) != 2 {
			return cfg, fmt.Errorf("clock %q: fixed_step requires a dt, e.g. fixed_step:1", spec)
		}
		dt, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return cfg, fmt.Errorf("clock %q: invalid dt: %w", spec, err)
		}
		cfg.Kind = types.ClockFixedTimeStep
		cfg.Dt = dt
	default:
		return cfg, fmt.Errorf("clock %q: unknown kind %q", spec, parts[0])
	}
	return cfg, nil
}
