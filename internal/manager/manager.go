// Package manager implements the distinguished manager node of spec.md
// §4.3: registration, clock-synchronized simulation control, and
// deactivation collection.
package manager

import (
	"context"
	"encoding/hex"
	"fmt"
	"time"

	cache "github.com/patrickmn/go-cache"
	"golang.org/x/crypto/blake2b"

	"github.com/eosim/eosim/internal/element"
	"github.com/eosim/eosim/internal/errs"
	"github.com/eosim/eosim/internal/types"
)

// SyncRequestPayload is the body of a SyncRequest message.
type SyncRequestPayload struct {
	Src           string              `json:"src"`
	NetworkConfig types.NetworkConfig `json:"network_config"`
}

// SimInfoPayload is the body of a SimInfo message.
type SimInfoPayload struct {
	AddressLedger types.AddressLedger `json:"address_ledger"`
	ClockConfig   types.ClockConfig   `json:"clock_config"`
}

// NodeReadyPayload / NodeDeactivatedPayload carry only the sender; kept as
// named types for symmetry with the other protocol payloads.
type NodeReadyPayload struct {
	Src string `json:"src"`
}

type NodeDeactivatedPayload struct {
	Src string `json:"src"`
}

// Manager is the distinguished network element that owns the authoritative
// clock, gates simulation start, and signals end (spec.md §2, §4.3).
type Manager struct {
	*element.Element

	Roster              []string
	Clock               types.ClockConfig
	RegistrationTimeout time.Duration
	AckTimeout          time.Duration

	dedup *cache.Cache

	registered map[string]types.NetworkConfig
}

// New builds a Manager ready to Run.
func New(e *element.Element, roster []string, clock types.ClockConfig, registrationTimeout time.Duration) *Manager {
	return &Manager{
		Element:             e,
		Roster:              roster,
		Clock:               clock,
		RegistrationTimeout: registrationTimeout,
		AckTimeout:          5 * time.Second,
		dedup:               cache.New(1*time.Minute, 2*time.Minute),
		registered:          make(map[string]types.NetworkConfig),
	}
}

func (m *Manager) isRostered(name string) bool {
	return contains(m.Roster, name)
}

// ack sends ReceptionAck in response to msg on the reply socket.
func (m *Manager) ack(ctx context.Context, msg types.Message) error {
	resp, err := types.NewMessage(msg.Source, m.Name, types.KindReceptionAck, nil)
	if err != nil {
		return errs.LogicInvariant("Manager.ack", err)
	}
	return m.External[types.RoleReply].Send(ctx, resp)
}

// ignore sends ReceptionIgnored in response to msg, and trips the anomaly
// counter via the lease registry. Once sender crosses the anomaly
// threshold, ignore itself returns a Protocol error so every call site
// (which already propagates ignore's error upward) aborts the node instead
// of silently tolerating a misbehaving peer forever (spec.md §7).
func (m *Manager) ignore(ctx context.Context, msg types.Message) error {
	m.Log.Warn().Str("from", msg.Source).Str("kind", string(msg.Kind)).Msg("ignoring message")
	var tripped bool
	if m.Leases != nil {
		tripped = m.Leases.NoteIgnored(msg.Source)
	}
	resp, err := types.NewMessage(msg.Source, m.Name, types.KindReceptionIgnored, nil)
	if err != nil {
		return errs.LogicInvariant("Manager.ignore", err)
	}
	if err := m.External[types.RoleReply].Send(ctx, resp); err != nil {
		return err
	}
	if tripped {
		return errs.Protocol("Manager.ignore", fmt.Errorf("element %q exceeded the reception-ignored anomaly threshold", msg.Source))
	}
	return nil
}

// dedupKey identifies a message instance for the registry's idempotence
// cache: a blake2b digest of sender, kind, id, and body, so a redelivered
// copy of the same SyncRequest is processed once and a reused id with a
// different payload is not mistaken for it. A retry built as a new message
// carries a fresh id and so gets a different key.
func dedupKey(msg types.Message) string {
	h, _ := blake2b.New256(nil)
	h.Write([]byte(msg.Source))
	h.Write([]byte{0})
	h.Write([]byte(msg.Kind))
	h.Write([]byte{0})
	h.Write([]byte(msg.ID))
	h.Write([]byte{0})
	h.Write(msg.Body)
	return hex.EncodeToString(h.Sum(nil))
}

func (m *Manager) alreadyProcessed(msg types.Message) bool {
	key := dedupKey(msg)
	if _, found := m.dedup.Get(key); found {
		return true
	}
	m.dedup.Set(key, true, cache.DefaultExpiration)
	return false
}

// SyncExternal collects registrations until the full roster has registered,
// then broadcasts SimInfo (spec.md §4.3).
func (m *Manager) SyncExternal(ctx context.Context) error {
	deadline := ctx
	var cancel context.CancelFunc
	if m.RegistrationTimeout > 0 {
		deadline, cancel = context.WithTimeout(ctx, m.RegistrationTimeout)
		defer cancel()
	}

	rep := m.External[types.RoleReply]
	if rep == nil {
		return errs.Configuration("Manager.SyncExternal", fmt.Errorf("manager has no reply socket"))
	}

	for len(m.registered) < len(m.Roster) {
		msg, err := rep.Recv(deadline)
		if err != nil {
			return errs.Timeout("Manager.SyncExternal", fmt.Errorf("registration did not complete within %s: %w", m.RegistrationTimeout, err))
		}
		if msg.Kind != types.KindSyncRequest {
			if err := m.ignore(ctx, msg); err != nil {
				return err
			}
			continue
		}
		if m.alreadyProcessed(msg) {
			continue
		}
		var payload SyncRequestPayload
		if err := msg.Decode(&payload); err != nil {
			return errs.Protocol("Manager.SyncExternal", err)
		}
		if _, already := m.registered[msg.Source]; !m.isRostered(msg.Source) || already {
			if err := m.ignore(ctx, msg); err != nil {
				return err
			}
			continue
		}
		m.registered[msg.Source] = payload.NetworkConfig
		if m.Leases != nil {
			m.Leases.ResetAnomaly(msg.Source)
		}
		if err := m.ack(ctx, msg); err != nil {
			return err
		}
		m.Log.Info().Str("element", msg.Source).Msg("registered")
	}

	ledger := make(types.AddressLedger, len(m.registered))
	for name, cfg := range m.registered {
		ledger[name] = cfg
	}
	info, err := types.NewMessage(string(types.AllAddress), m.Name, types.KindSimInfo, SimInfoPayload{
		AddressLedger: ledger,
		ClockConfig:   m.Clock,
	})
	if err != nil {
		return errs.LogicInvariant("Manager.SyncExternal", err)
	}
	return m.External[types.RolePublish].Send(ctx, info)
}

// SyncInternal is a no-op: the manager hosts no modules (spec.md §4.3).
func (m *Manager) SyncInternal(ctx context.Context) error { return nil }

// WaitForStart collects NodeReady from every rostered element (spec.md
// §4.2 step 3: "ready to be sent" for the manager).
func (m *Manager) WaitForStart(ctx context.Context) error {
	ready := make(map[string]bool, len(m.Roster))
	rep := m.External[types.RoleReply]
	for len(ready) < len(m.Roster) {
		msg, err := rep.Recv(ctx)
		if err != nil {
			return err
		}
		if msg.Kind != types.KindNodeReady {
			if err := m.ignore(ctx, msg); err != nil {
				return err
			}
			continue
		}
		if !m.isRostered(msg.Source) {
			if err := m.ignore(ctx, msg); err != nil {
				return err
			}
			continue
		}
		ready[msg.Source] = true
		if err := m.ack(ctx, msg); err != nil {
			return err
		}
	}
	return nil
}

// Execute broadcasts SimStart, advances the clock, and broadcasts SimEnd
// (spec.md §4.3).
func (m *Manager) Execute(ctx context.Context) error {
	start, err := types.NewMessage(string(types.AllAddress), m.Name, types.KindSimStart, nil)
	if err != nil {
		return errs.LogicInvariant("Manager.Execute", err)
	}
	if err := m.External[types.RolePublish].Send(ctx, start); err != nil {
		return err
	}

	if err := m.runClock(ctx); err != nil {
		return err
	}

	end, err := types.NewMessage(string(types.AllAddress), m.Name, types.KindSimEnd, nil)
	if err != nil {
		return errs.LogicInvariant("Manager.Execute", err)
	}
	return m.External[types.RolePublish].Send(ctx, end)
}

// Deactivate collects NodeDeactivated from every rostered element (spec.md
// §4.3).
func (m *Manager) Deactivate(ctx context.Context) error {
	deactivated := make(map[string]bool, len(m.Roster))
	rep := m.External[types.RoleReply]
	if rep == nil {
		return nil
	}
	timeout := m.AckTimeout * time.Duration(len(m.Roster)+1)
	deadline, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	for len(deactivated) < len(m.Roster) {
		msg, err := rep.Recv(deadline)
		if err != nil {
			m.Log.Warn().Err(err).Msg("deactivation collection incomplete")
			return nil
		}
		if msg.Kind != types.KindNodeDeactivated {
			if err := m.ignore(deadline, msg); err != nil {
				return err
			}
			continue
		}
		deactivated[msg.Source] = true
		_ = m.ack(deadline, msg)
	}
	return nil
}
