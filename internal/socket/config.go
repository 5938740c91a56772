package socket

import (
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/eosim/eosim/internal/errs"
	"github.com/eosim/eosim/internal/leaseguard"
	"github.com/eosim/eosim/internal/types"
)

// Map is the per-role socket table one element owns, mirroring the "socket
// map" of spec.md §3/§4.1. Two Maps exist per element: external and
// internal.
type Map map[types.Role]*Socket

const pullQueueGroup = "pull"

// Build constructs a socket map from cfg's role/endpoint table, binding the
// roles that own an address (publish, reply, pull) and connecting the roles
// that target one (request, subscribe, push). prefix is prepended to every
// subject this map uses (internal/element passes "eosim.ext." or
// "eosim.int.<element>."); it carries no run or scenario name, so two runs
// on one NATS server share subjects. leases enforces spec.md §3's "no endpoint reused by
// another element on the same host" invariant.
func Build(nc *nats.Conn, owner string, roles map[types.Role][]types.Endpoint, prefix string, leases *leaseguard.Registry) (Map, error) {
	out := make(Map, len(roles))
	for role, endpoints := range roles {
		sock, err := buildOne(nc, owner, role, endpoints, prefix, leases)
		if err != nil {
			return nil, err
		}
		out[role] = sock
	}
	return out, nil
}

func buildOne(nc *nats.Conn, owner string, role types.Role, endpoints []types.Endpoint, prefix string, leases *leaseguard.Registry) (*Socket, error) {
	switch role {
	case types.RolePublish, types.RolePush:
		return &Socket{role: role, subject: prefix, owner: owner, nc: nc}, nil

	case types.RoleReply, types.RolePull:
		if err := leases.Acquire(owner, prefix+owner); err != nil {
			return nil, errs.Configuration("socket.Build", err)
		}
		s := &Socket{role: role, subject: prefix + owner, owner: owner, nc: nc, msgCh: make(chan *nats.Msg, 256)}
		var sub *nats.Subscription
		var err error
		if role == types.RolePull {
			sub, err = nc.ChanQueueSubscribe(s.subject, pullQueueGroup, s.msgCh)
		} else {
			sub, err = nc.ChanSubscribe(s.subject, s.msgCh)
		}
		if err != nil {
			return nil, errs.Configuration("socket.Build", fmt.Errorf("bind %s %s: %w", role, s.subject, err))
		}
		s.subs = append(s.subs, sub)
		return s, nil

	case types.RoleSubscribe:
		s := &Socket{role: role, owner: owner, nc: nc, msgCh: make(chan *nats.Msg, 256)}
		subjects := []string{prefix + owner, prefix + string(types.AllAddress)}
		for _, ep := range endpoints {
			subjects = append(subjects, prefix+string(ep))
		}
		for _, subj := range dedupe(subjects) {
			sub, err := nc.ChanSubscribe(subj, s.msgCh)
			if err != nil {
				return nil, errs.Configuration("socket.Build", fmt.Errorf("subscribe %s: %w", subj, err))
			}
			s.subs = append(s.subs, sub)
		}
		return s, nil

	case types.RoleRequest:
		if len(endpoints) == 0 {
			return nil, errs.Configuration("socket.Build", fmt.Errorf("request role for %s has no target endpoint", owner))
		}
		return &Socket{role: role, subject: prefix + string(endpoints[0]), owner: owner, nc: nc}, nil

	default:
		return nil, errs.Configuration("socket.Build", fmt.Errorf("unknown role %q", role))
	}
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

// CloseAll closes every socket in the map, collecting but not stopping on
// individual errors.
func (m Map) CloseAll() error {
	var firstErr error
	for _, s := range m {
		if err := s.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
