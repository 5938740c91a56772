// Package orbit defines the read-only orbit-data provider collaborator of
// spec.md §9: "offering access_windows(lat, lon, t_from) → ordered sequence
// of (t_enter, t_exit)". Real deployments back this with an astrodynamics
// library; no such library is present in this module's dependency pack
// (see DESIGN.md), so the only implementation here is a deterministic
// geometric stub suitable for tests and the orbital agent path
// (OrbitalAgentState).
package orbit

import (
	"math"

	"github.com/eosim/eosim/internal/types"
)

// Provider satisfies types.OrbitProvider.
type Provider interface {
	AccessWindows(lat, lon, tFrom float64) ([]types.AccessWindow, error)
}

// PeriodicStub models a satellite in a circular repeat-ground-track orbit:
// it revisits every ground point once per Period seconds, offset by a
// per-point phase derived from longitude, and observes it for Duration
// seconds each pass. This has no claim to physical accuracy — it exists so
// the planner's path-insertion logic has a deterministic, swappable
// arrival-time source to exercise (spec.md §4.6.4).
type PeriodicStub struct {
	Period   float64
	Duration float64
}

var _ Provider = PeriodicStub{}

func (p PeriodicStub) AccessWindows(lat, lon, tFrom float64) ([]types.AccessWindow, error) {
	if p.Period <= 0 {
		p.Period = 5400
	}
	if p.Duration <= 0 {
		p.Duration = 60
	}
	phase := math.Mod(math.Abs(lon)/360.0*p.Period, p.Period)
	first := phase
	for first < tFrom {
		first += p.Period
	}
	return []types.AccessWindow{
		{Enter: first, Exit: first + p.Duration},
		{Enter: first + p.Period, Exit: first + p.Period + p.Duration},
	}, nil
}
