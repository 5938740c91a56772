// Package capability implements the pluggable capability query of spec.md
// §4.7: a synchronous predicate mapping a measurement kind to yes/no for
// one agent's instrument suite, ranging from static set membership to a
// remote knowledge-graph lookup.
package capability

// Policy is the core interface the planner consults via can_bid (spec.md
// §4.7).
type Policy interface {
	CanBid(measurement string) bool
}

// StaticSet is the simplest Policy: a fixed set of instrument names an
// agent carries, each assumed able to perform the measurement of the same
// name (spec.md §4.7: "a static set membership").
type StaticSet struct {
	instruments map[string]bool
}

// NewStaticSet builds a StaticSet policy from the given instrument names.
func NewStaticSet(instruments ...string) *StaticSet {
	s := &StaticSet{instruments: make(map[string]bool, len(instruments))}
	for _, i := range instruments {
		s.instruments[i] = true
	}
	return s
}

func (s *StaticSet) CanBid(measurement string) bool {
	return s.instruments[measurement]
}

// Matrix is a Policy backed by an explicit instrument→measurements table,
// for agents whose instruments can perform measurements under a different
// name than the instrument itself (e.g. a remote knowledge-graph snapshot
// baked into a map at construction time).
type Matrix struct {
	supported map[string]bool
}

// NewMatrix builds a Matrix policy from an instrument→supported
// measurements table, flattening it into the single agent's capability
// set.
func NewMatrix(instrumentMeasurements map[string][]string) *Matrix {
	m := &Matrix{supported: make(map[string]bool)}
	for _, measurements := range instrumentMeasurements {
		for _, meas := range measurements {
			m.supported[meas] = true
		}
	}
	return m
}

func (m *Matrix) CanBid(measurement string) bool {
	return m.supported[measurement]
}
