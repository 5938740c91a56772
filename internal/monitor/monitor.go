// Package monitor implements the passive evidence collector of spec.md §2:
// a subscriber that records every agent state and planner result pushed to
// it until SimEnd, persisting them via internal/persist.
package monitor

import (
	"context"
	"fmt"

	"github.com/eosim/eosim/internal/element"
	"github.com/eosim/eosim/internal/errs"
	"github.com/eosim/eosim/internal/persist"
	"github.com/eosim/eosim/internal/types"
)

// AgentStatePayload is the body of an AgentState push from a node.
type AgentStatePayload struct {
	Source string             `json:"source"`
	T      float64            `json:"t"`
	State  StateFields        `json:"state"`
}

// StateFields is the flattened wire encoding of an AgentState pushed to the
// monitor (spec.md §6 states.csv columns).
type StateFields struct {
	Position types.Position `json:"position"`
	Velocity types.Velocity `json:"velocity"`
	Status   types.Status   `json:"status"`
}

// PlannerResultsPayload is the body of a PlannerResults push from a node,
// carrying the plan that drove one planning cycle (spec.md §6).
type PlannerResultsPayload struct {
	Source string     `json:"source"`
	T      float64    `json:"t"`
	Plan   types.Plan `json:"plan"`
}

// simpleState adapts StateFields to types.AgentState so it can be written
// through the same persist.Writer.WriteState path a node would use.
type simpleState struct {
	pos    types.Position
	vel    types.Velocity
	status types.Status
	t      float64
}

func (s simpleState) Position() types.Position { return s.pos }
func (s simpleState) Velocity() types.Velocity { return s.vel }
func (s simpleState) Status() types.Status     { return s.status }
func (s simpleState) Time() float64            { return s.t }
func (s simpleState) Propagate(t float64) types.AgentState {
	s.t = t
	return s
}
func (s simpleState) CalcArrivalTime(types.Position, float64) (float64, error) { return s.t, nil }
func (s simpleState) WithStatus(status types.Status, t float64) types.AgentState {
	s.status, s.t = status, t
	return s
}

var _ types.AgentState = simpleState{}

// Monitor is the passive evidence-collecting element.
type Monitor struct {
	*element.Element

	ResultsRoot string
	writers     map[string]*persist.Writer
}

// New builds a Monitor ready to Run.
func New(e *element.Element, resultsRoot string) *Monitor {
	return &Monitor{Element: e, ResultsRoot: resultsRoot, writers: make(map[string]*persist.Writer)}
}

// SyncExternal performs no handshake beyond socket binding: the monitor is
// not rostered as a participant in manager registration (spec.md §2: it
// only observes).
func (mon *Monitor) SyncExternal(ctx context.Context) error { return nil }

// SyncInternal is a no-op: the monitor hosts no modules.
func (mon *Monitor) SyncInternal(ctx context.Context) error { return nil }

// WaitForStart blocks until SimStart is observed on the subscribe socket.
func (mon *Monitor) WaitForStart(ctx context.Context) error {
	sub := mon.External[types.RoleSubscribe]
	if sub == nil {
		return errs.Configuration("Monitor.WaitForStart", fmt.Errorf("monitor has no subscribe socket"))
	}
	for {
		msg, err := sub.Recv(ctx)
		if err != nil {
			return err
		}
		if msg.Kind == types.KindSimStart {
			return nil
		}
	}
}

// Execute collects AgentState and PlannerResults pushes on the pull socket
// and SimEnd on the subscribe socket, persisting rows as they arrive until
// SimEnd or ctx cancellation (spec.md §2, §6).
func (mon *Monitor) Execute(ctx context.Context) error {
	pull := mon.External[types.RolePull]
	sub := mon.External[types.RoleSubscribe]
	if pull == nil {
		return errs.Configuration("Monitor.Execute", fmt.Errorf("monitor has no pull socket"))
	}

	execCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	if sub != nil {
		go func() {
			for {
				msg, err := sub.Recv(execCtx)
				if err != nil {
					return
				}
				if msg.Kind == types.KindSimEnd {
					cancel()
					return
				}
			}
		}()
	}

	for {
		msg, err := pull.Recv(execCtx)
		if err != nil {
			if execCtx.Err() != nil {
				return nil
			}
			return err
		}
		if err := mon.record(msg); err != nil {
			mon.Log.Warn().Err(err).Str("kind", string(msg.Kind)).Msg("failed to persist evidence")
		}
	}
}

func (mon *Monitor) record(msg types.Message) error {
	switch msg.Kind {
	case types.KindAgentState:
		var p AgentStatePayload
		if err := msg.Decode(&p); err != nil {
			return errs.Protocol("Monitor.record", err)
		}
		w, err := mon.writerFor(p.Source)
		if err != nil {
			return err
		}
		return w.WriteState(p.T, simpleState{pos: p.State.Position, vel: p.State.Velocity, status: p.State.Status, t: p.T})
	case types.KindPlannerResults:
		var p PlannerResultsPayload
		if err := msg.Decode(&p); err != nil {
			return errs.Protocol("Monitor.record", err)
		}
		w, err := mon.writerFor(p.Source)
		if err != nil {
			return err
		}
		return w.WritePlan(p.T, p.Plan)
	}
	return nil
}

func (mon *Monitor) writerFor(source string) (*persist.Writer, error) {
	if w, ok := mon.writers[source]; ok {
		return w, nil
	}
	w, err := persist.New(mon.ResultsRoot, source)
	if err != nil {
		return nil, errs.Configuration("Monitor.writerFor", err)
	}
	mon.writers[source] = w
	return w, nil
}

// Deactivate closes every open persist.Writer.
func (mon *Monitor) Deactivate(ctx context.Context) error {
	for _, w := range mon.writers {
		_ = w.Close()
	}
	return nil
}

var _ element.Behavior = (*Monitor)(nil)
