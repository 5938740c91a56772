package types

import "math"

// Status is the closed set of agent activity states (spec.md §3).
type Status string

const (
	StatusIdling     Status = "IDLING"
	StatusTraveling  Status = "TRAVELING"
	StatusManeuvering Status = "MANEUVERING"
	StatusMeasuring  Status = "MEASURING"
	StatusSensing    Status = "SENSING"
	StatusThinking   Status = "THINKING"
	StatusListening  Status = "LISTENING"
	StatusMessaging  Status = "MESSAGING"
)

// Position is a point in the agent's working coordinate frame: Cartesian
// (x, y[, z]) for ballistic/aerial agents, or (lat, lon) for orbital agents
// querying the orbit provider. Which interpretation applies is determined
// by the concrete AgentState implementation.
type Position struct {
	X, Y, Z float64
}

// Velocity is the time-derivative of Position in the same frame.
type Velocity struct {
	X, Y, Z float64
}

// AgentState is the tagged-variant-plus-vtable modeled per spec.md §9: a
// small closed hierarchy of state kinds sharing one pure-operation contract.
// propagate must not mutate the receiver (spec.md §3).
type AgentState interface {
	Position() Position
	Velocity() Velocity
	Status() Status
	Time() float64

	// Propagate returns a new state projected forward to time t. Pure: does
	// not mutate the receiver.
	Propagate(t float64) AgentState

	// CalcArrivalTime returns the earliest time the agent could reach dest
	// if it starts moving from its current position no earlier than
	// tEarliest. Domain-specific per spec.md §4.6.4 (ballistic vs. orbital).
	CalcArrivalTime(dest Position, tEarliest float64) (float64, error)

	// WithStatus returns a copy of the state with Status and Time replaced.
	WithStatus(status Status, t float64) AgentState
}

// SimpleAgentState models a ballistic/aerial agent moving in a straight
// line at a fixed nominal speed (original_source/applications/chess3d's
// "states.py" ground-agent kind, per SPEC_FULL.md §4 supplement).
type SimpleAgentState struct {
	Pos    Position
	Vel    Velocity
	St     Status
	T      float64
	Speed  float64 // nominal cruise speed, units/second
}

var _ AgentState = SimpleAgentState{}

func (s SimpleAgentState) Position() Position { return s.Pos }
func (s SimpleAgentState) Velocity() Velocity { return s.Vel }
func (s SimpleAgentState) Status() Status     { return s.St }
func (s SimpleAgentState) Time() float64      { return s.T }

func (s SimpleAgentState) Propagate(t float64) AgentState {
	dt := t - s.T
	if dt <= 0 {
		return s
	}
	return SimpleAgentState{
		Pos: Position{
			X: s.Pos.X + s.Vel.X*dt,
			Y: s.Pos.Y + s.Vel.Y*dt,
			Z: s.Pos.Z + s.Vel.Z*dt,
		},
		Vel:   s.Vel,
		St:    s.St,
		T:     t,
		Speed: s.Speed,
	}
}

func (s SimpleAgentState) CalcArrivalTime(dest Position, tEarliest float64) (float64, error) {
	start := s
	if tEarliest > s.T {
		start = s.Propagate(tEarliest).(SimpleAgentState)
	}
	d := distance(start.Pos, dest)
	if start.Speed <= 0 {
		return start.T, nil
	}
	return start.T + d/start.Speed, nil
}

func (s SimpleAgentState) WithStatus(status Status, t float64) AgentState {
	s.St = status
	s.T = t
	return s
}

func distance(a, b Position) float64 {
	dx, dy, dz := a.X-b.X, a.Y-b.Y, a.Z-b.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// OrbitProvider is the read-only collaborator an OrbitalAgentState queries
// for ground-point access windows (spec.md §9). Defined here to avoid an
// import cycle with internal/orbit; internal/orbit.Provider satisfies it.
type OrbitProvider interface {
	AccessWindows(lat, lon, tFrom float64) ([]AccessWindow, error)
}

// AccessWindow is one contiguous interval during which an orbital agent can
// observe a given ground point.
type AccessWindow struct {
	Enter, Exit float64
}

// OrbitalAgentState models a satellite agent whose arrival time at a target
// is the next ground-point access window, queried from a pluggable
// astrodynamics-backed provider rather than computed locally (spec.md §9).
type OrbitalAgentState struct {
	Pos      Position // lat, lon, alt
	Vel      Velocity
	St       Status
	T        float64
	Provider OrbitProvider
}

var _ AgentState = OrbitalAgentState{}

func (s OrbitalAgentState) Position() Position { return s.Pos }
func (s OrbitalAgentState) Velocity() Velocity { return s.Vel }
func (s OrbitalAgentState) Status() Status     { return s.St }
func (s OrbitalAgentState) Time() float64      { return s.T }

func (s OrbitalAgentState) Propagate(t float64) AgentState {
	s.T = t
	return s
}

func (s OrbitalAgentState) CalcArrivalTime(dest Position, tEarliest float64) (float64, error) {
	if s.Provider == nil {
		return 0, errNoOrbitProvider
	}
	from := tEarliest
	if s.T > from {
		from = s.T
	}
	windows, err := s.Provider.AccessWindows(dest.X, dest.Y, from)
	if err != nil {
		return 0, err
	}
	if len(windows) == 0 {
		return 0, errNoAccessWindow
	}
	return windows[0].Enter, nil
}

func (s OrbitalAgentState) WithStatus(status Status, t float64) AgentState {
	s.St = status
	s.T = t
	return s
}
