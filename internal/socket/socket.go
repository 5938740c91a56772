// Package socket implements the messaging substrate of spec.md §4.1: typed,
// capability-checked sockets carrying three-frame (destination, source,
// body) messages. Built on NATS subjects (github.com/nats-io/nats.go)
// rather than broker-less ZMQ-style TCP endpoints — see SPEC_FULL.md §2.2
// for the subject-per-role mapping and DESIGN.md for the grounding.
package socket

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/eosim/eosim/internal/errs"
	"github.com/eosim/eosim/internal/types"
)

// capability is what a socket may do: send, receive, or both in strict
// alternation (request/reply).
type capability int

const (
	capSend capability = 1 << iota
	capRecv
)

func capabilityFor(role types.Role) capability {
	switch role {
	case types.RolePublish, types.RoleRequest, types.RolePush:
		return capSend
	case types.RoleSubscribe, types.RolePull:
		return capRecv
	case types.RoleReply:
		return capSend | capRecv
	default:
		return 0
	}
}

// Socket is one endpoint of a given role, owned by exactly one element.
// Send and receive are serialized by mu; every exit path (success,
// cancellation, failure) releases it (spec.md §4.1, §5).
type Socket struct {
	role    types.Role
	subject string
	owner   string
	nc      *nats.Conn
	mu      sync.Mutex

	// subscribe/pull/reply sockets drain into msgCh
	msgCh chan *nats.Msg
	subs  []*nats.Subscription

	// reply-role sockets must remember the subject to respond on for the
	// request currently being served, enforcing strict request/reply
	// alternation.
	pendingReply string
}

// replyTimeout is not read by any code path: a Reply socket's Send answers
// the pending request immediately, with no deadline.
const replyTimeout = 30 * time.Second

// Send transmits msg. Only valid for publish/push/reply sockets; a request
// socket gets an error and must use Request.
// For a reply socket, Send answers the most recently received request.
func (s *Socket) Send(ctx context.Context, msg types.Message) error {
	if capabilityFor(s.role)&capSend == 0 {
		return errs.LogicInvariant("socket.Send", fmt.Errorf("role %s cannot send", s.role))
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	select {
	case <-ctx.Done():
		return errs.TransientIO("socket.Send", ctx.Err())
	default:
	}

	data, err := msg.Marshal()
	if err != nil {
		return errs.LogicInvariant("socket.Send", err)
	}

	switch s.role {
	case types.RolePublish, types.RolePush:
		// s.subject holds this socket's subject prefix (e.g. "eosim.ext.");
		// the destination name (or the broadcast value "ALL") selects which
		// subscribers receive it.
		if err := s.nc.Publish(s.subject+string(msg.Destination), data); err != nil {
			return errs.TransientIO("socket.Send", err)
		}
		return nil
	case types.RoleReply:
		if s.pendingReply == "" {
			return errs.LogicInvariant("socket.Send", fmt.Errorf("reply socket has no pending request to answer"))
		}
		subj := s.pendingReply
		s.pendingReply = ""
		if err := s.nc.Publish(subj, data); err != nil {
			return errs.TransientIO("socket.Send", err)
		}
		return nil
	default:
		return errs.LogicInvariant("socket.Send", fmt.Errorf("role %s: use Request instead of Send", s.role))
	}
}

// Recv blocks until a message is available or ctx is cancelled. Valid for
// subscribe/pull/reply sockets.
func (s *Socket) Recv(ctx context.Context) (types.Message, error) {
	if capabilityFor(s.role)&capRecv == 0 {
		return types.Message{}, errs.LogicInvariant("socket.Recv", fmt.Errorf("role %s cannot receive", s.role))
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	select {
	case m := <-s.msgCh:
		return s.decode(m)
	case <-ctx.Done():
		return types.Message{}, errs.TransientIO("socket.Recv", ctx.Err())
	}
}

// TryRecv performs a non-blocking drain: an empty inbox returns immediately
// with ok == false (spec.md §5: "non-blocking drains used inside the
// consensus loop").
func (s *Socket) TryRecv() (types.Message, bool, error) {
	if capabilityFor(s.role)&capRecv == 0 {
		return types.Message{}, false, errs.LogicInvariant("socket.TryRecv", fmt.Errorf("role %s cannot receive", s.role))
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	select {
	case m := <-s.msgCh:
		msg, err := s.decode(m)
		return msg, true, err
	default:
		return types.Message{}, false, nil
	}
}

func (s *Socket) decode(m *nats.Msg) (types.Message, error) {
	msg, err := types.UnmarshalMessage(m.Data)
	if err != nil {
		return types.Message{}, errs.Protocol("socket.decode", err)
	}
	if s.role == types.RoleReply && m.Reply != "" {
		s.pendingReply = m.Reply
	}
	return msg, nil
}

// Request sends msg and blocks for the reply, or until ctx is cancelled.
// Only valid for request-role sockets.
func (s *Socket) Request(ctx context.Context, msg types.Message) (types.Message, error) {
	if s.role != types.RoleRequest {
		return types.Message{}, errs.LogicInvariant("socket.Request", fmt.Errorf("role %s cannot request", s.role))
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := msg.Marshal()
	if err != nil {
		return types.Message{}, errs.LogicInvariant("socket.Request", err)
	}
	resp, err := s.nc.RequestWithContext(ctx, s.subject, data)
	if err != nil {
		return types.Message{}, errs.TransientIO("socket.Request", err)
	}
	return s.decode(resp)
}

// Close releases the socket's NATS subscriptions. Idempotent.
func (s *Socket) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sub := range s.subs {
		_ = sub.Drain()
	}
	s.subs = nil
	return nil
}
