// Package leaseguard enforces the network-configuration invariant of
// spec.md §3: "any endpoint a given element binds is not reused by another
// element on the same host." It also tracks per-element protocol-error
// counts so repeated ReceptionIgnored responses trip a circuit breaker
// (spec.md §7's "logged at read sites" containment policy).
//
// Grounded on the teacher's Delegation Capability Token mechanism
// (security.go's DCT/Caveat), repurposed here from permission-attenuation
// tokens into bind-time endpoint leases and an anomaly counter — see
// DESIGN.md.
package leaseguard

import (
	"fmt"
	"sync"
	"time"
)

// Lease records which element holds a given endpoint, and since when.
type Lease struct {
	Owner    string
	Endpoint string
	BoundAt  time.Time
}

// Registry tracks endpoint leases and per-element protocol-anomaly counts
// for one host/process group. Safe for concurrent use.
type Registry struct {
	mu      sync.Mutex
	leases  map[string]Lease
	anomaly map[string]int
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		leases:  make(map[string]Lease),
		anomaly: make(map[string]int),
	}
}

// Acquire binds endpoint to owner. Fails if the endpoint is already leased
// to a different owner — a fatal configuration error per spec.md §4.2 step
// 1 ("binding fails if the endpoint is already in use").
func (r *Registry) Acquire(owner, endpoint string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.leases[endpoint]; ok && existing.Owner != owner {
		return fmt.Errorf("leaseguard: endpoint %q already bound by %q", endpoint, existing.Owner)
	}
	r.leases[endpoint] = Lease{Owner: owner, Endpoint: endpoint, BoundAt: time.Now()}
	return nil
}

// Release frees endpoint so a later run (e.g. a retried bind after restart)
// can reclaim it.
func (r *Registry) Release(endpoint string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.leases, endpoint)
}

// anomalyThreshold is the number of ReceptionIgnored responses a single
// element may accumulate before the registry reports it as tripped.
const anomalyThreshold = 5

// NoteIgnored records a ReceptionIgnored response attributed to sender, and
// reports whether sender has now crossed the anomaly threshold. Callers
// (the manager's registration/readiness/tic loops) use this to distinguish
// an occasional retry from a misbehaving or misconfigured peer worth
// aborting over (spec.md §7 protocol-error containment).
func (r *Registry) NoteIgnored(sender string) (tripped bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.anomaly[sender]++
	return r.anomaly[sender] >= anomalyThreshold
}

// ResetAnomaly clears sender's anomaly count, e.g. after it successfully
// registers.
func (r *Registry) ResetAnomaly(sender string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.anomaly, sender)
}
