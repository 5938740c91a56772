package manager

import (
	"context"
	"fmt"
	"time"

	"github.com/eosim/eosim/internal/errs"
	"github.com/eosim/eosim/internal/types"
)

// TicPayload is the body of a TicRequest message.
type TicPayload struct {
	Src string  `json:"src"`
	T0  float64 `json:"t0"`
	Tf  float64 `json:"tf"`
}

// TocPayload is the body of a Toc message.
type TocPayload struct {
	T float64 `json:"t"`
}

// runClock advances simulated time according to m.Clock, publishing Toc and
// collecting TicRequest as the variant requires (spec.md §4.3). Returns
// once the end time is reached; SimEnd is broadcast by the caller.
func (m *Manager) runClock(ctx context.Context) error {
	if err := m.Clock.Validate(); err != nil {
		return errs.Configuration("Manager.runClock", err)
	}

	switch m.Clock.Kind {
	case types.ClockRealTime:
		return m.sleepFor(ctx, m.Clock.End-m.Clock.Start)

	case types.ClockAcceleratedRealTime:
		return m.sleepFor(ctx, (m.Clock.End-m.Clock.Start)/m.Clock.Factor)

	case types.ClockFixedTimeStep:
		return m.runSteppedClock(ctx, m.Clock.Dt)

	case types.ClockEventDriven:
		return m.runEventDrivenClock(ctx)

	default:
		return errs.Configuration("Manager.runClock", fmt.Errorf("unsupported clock kind %q", m.Clock.Kind))
	}
}

func (m *Manager) sleepFor(ctx context.Context, d float64) error {
	if d < 0 {
		d = 0
	}
	timer := time.NewTimer(time.Duration(d * float64(time.Second)))
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return errs.TransientIO("Manager.sleepFor", ctx.Err())
	}
}

// runSteppedClock implements FixedTimeStep: publish Toc(t), then wait for a
// TicRequest from every non-environment rostered element before advancing
// by dt (spec.md §4.3).
func (m *Manager) runSteppedClock(ctx context.Context, dt float64) error {
	t := m.Clock.Start
	for t < m.Clock.End {
		if err := m.publishToc(ctx, t); err != nil {
			return err
		}
		if err := m.collectTics(ctx, t, t+dt); err != nil {
			return err
		}
		t += dt
	}
	return nil
}

// runEventDrivenClock implements EventDriven: advance to the minimum tf
// across received TicRequests rather than a fixed step (spec.md §4.3).
func (m *Manager) runEventDrivenClock(ctx context.Context) error {
	t := m.Clock.Start
	for t < m.Clock.End {
		if err := m.publishToc(ctx, t); err != nil {
			return err
		}
		next, err := m.collectMinTic(ctx, t)
		if err != nil {
			return err
		}
		if next <= t {
			return errs.LogicInvariant("Manager.runEventDrivenClock", fmt.Errorf("clock did not advance past %v", t))
		}
		t = next
	}
	return nil
}

func (m *Manager) publishToc(ctx context.Context, t float64) error {
	msg, err := types.NewMessage(string(types.AllAddress), m.Name, types.KindToc, TocPayload{T: t})
	if err != nil {
		return errs.LogicInvariant("Manager.publishToc", err)
	}
	pub := m.External[types.RolePublish]
	if pub == nil {
		return errs.Configuration("Manager.publishToc", fmt.Errorf("manager has no publish socket"))
	}
	return pub.Send(ctx, msg)
}

// ticTargets returns the rostered elements that must submit a TicRequest
// before the clock advances: every rostered element except any named
// "environment" (spec.md §4.3: "every non-environment element").
func (m *Manager) ticTargets() []string {
	out := make([]string, 0, len(m.Roster))
	for _, name := range m.Roster {
		if name == environmentElementName {
			continue
		}
		out = append(out, name)
	}
	return out
}

const environmentElementName = "environment"

// collectTics waits for exactly one TicRequest per tic target in this step,
// rejecting duplicates and non-rostered senders with ReceptionIgnored.
func (m *Manager) collectTics(ctx context.Context, t0, tf float64) error {
	targets := m.ticTargets()
	seen := make(map[string]bool, len(targets))
	rep := m.External[types.RoleReply]
	if rep == nil {
		return errs.Configuration("Manager.collectTics", fmt.Errorf("manager has no reply socket"))
	}
	for len(seen) < len(targets) {
		msg, err := rep.Recv(ctx)
		if err != nil {
			return err
		}
		if msg.Kind != types.KindTicRequest {
			if err := m.ignore(ctx, msg); err != nil {
				return err
			}
			continue
		}
		var payload TicPayload
		if err := msg.Decode(&payload); err != nil {
			return errs.Protocol("Manager.collectTics", err)
		}
		if !m.isRostered(msg.Source) || !contains(targets, msg.Source) || seen[msg.Source] {
			if err := m.ignore(ctx, msg); err != nil {
				return err
			}
			continue
		}
		seen[msg.Source] = true
		if err := m.ack(ctx, msg); err != nil {
			return err
		}
	}
	return nil
}

// collectMinTic waits for one TicRequest per tic target and returns the
// minimum tf received (spec.md §4.3 EventDriven).
func (m *Manager) collectMinTic(ctx context.Context, tCurr float64) (float64, error) {
	targets := m.ticTargets()
	seen := make(map[string]bool, len(targets))
	min := tCurr
	first := true
	rep := m.External[types.RoleReply]
	if rep == nil {
		return 0, errs.Configuration("Manager.collectMinTic", fmt.Errorf("manager has no reply socket"))
	}
	for len(seen) < len(targets) {
		msg, err := rep.Recv(ctx)
		if err != nil {
			return 0, err
		}
		if msg.Kind != types.KindTicRequest {
			if err := m.ignore(ctx, msg); err != nil {
				return 0, err
			}
			continue
		}
		var payload TicPayload
		if err := msg.Decode(&payload); err != nil {
			return 0, errs.Protocol("Manager.collectMinTic", err)
		}
		if !m.isRostered(msg.Source) || !contains(targets, msg.Source) || seen[msg.Source] {
			if err := m.ignore(ctx, msg); err != nil {
				return 0, err
			}
			continue
		}
		seen[msg.Source] = true
		if first || payload.Tf < min {
			min = payload.Tf
			first = false
		}
		if err := m.ack(ctx, msg); err != nil {
			return 0, err
		}
	}
	return min, nil
}

func contains(xs []string, x string) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}
