// Package types defines the core data structures for the eosim simulation
// framework: messages, network/clock configuration, agent state, measurement
// requests, bids, actions, and plans.
package types

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Kind is the closed set of message discriminators used by the simulation
// protocols (spec.md §6).
type Kind string

const (
	KindSyncRequest        Kind = "SyncRequest"
	KindReceptionAck       Kind = "ReceptionAck"
	KindReceptionIgnored   Kind = "ReceptionIgnored"
	KindSimInfo            Kind = "SimInfo"
	KindNodeReady          Kind = "NodeReady"
	KindSimStart           Kind = "SimStart"
	KindToc                Kind = "Toc"
	KindTicRequest         Kind = "TicRequest"
	KindSimEnd             Kind = "SimEnd"
	KindNodeDeactivated    Kind = "NodeDeactivated"
	KindModuleSyncRequest  Kind = "ModuleSyncRequest"
	KindNodeInfo           Kind = "NodeInfo"
	KindModuleReady        Kind = "ModuleReady"
	KindModuleActivate     Kind = "ModuleActivate"
	KindModuleDeactivate   Kind = "ModuleDeactivate"
	KindModuleDeactivated  Kind = "ModuleDeactivated"
	KindAgentState         Kind = "AgentState"
	KindAgentAction        Kind = "AgentAction"
	KindMeasurementRequest Kind = "MeasurementRequest"
	KindMeasurementBid     Kind = "MeasurementBid"
	KindSenses             Kind = "Senses"
	KindPlan               Kind = "Plan"
	KindConnectivityUpdate Kind = "ConnectivityUpdate"
	KindPlannerResults     Kind = "PlannerResults"
)

// AllAddress is the distinguished subscribe-filter destination meaning
// "every subscriber accepts this message" (spec.md §4.1).
const AllAddress = "ALL"

// Message is the immutable envelope carried over every socket. Body holds
// the self-describing payload as raw JSON so unknown fields are preserved
// or ignored defensively by readers that don't recognize them (spec.md §3).
type Message struct {
	Destination string          `json:"destination_name"`
	Source      string          `json:"source_name"`
	Kind        Kind            `json:"kind"`
	ID          string          `json:"id"`
	Body        json.RawMessage `json:"body"`
}

// NewMessage builds a message with a fresh globally-unique id, marshaling
// payload into the body. payload may be nil for bodyless kinds.
func NewMessage(destination, source string, kind Kind, payload any) (Message, error) {
	var body json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return Message{}, fmt.Errorf("marshal message body: %w", err)
		}
		body = b
	}
	return Message{
		Destination: destination,
		Source:      source,
		Kind:        kind,
		ID:          uuid.NewString(),
		Body:        body,
	}, nil
}

// Decode unmarshals the message body into v. Unknown fields in the body are
// silently ignored by encoding/json's default decode behavior, matching the
// forward-compatible decode guidance of spec.md §9.
func (m Message) Decode(v any) error {
	if len(m.Body) == 0 {
		return nil
	}
	if err := json.Unmarshal(m.Body, v); err != nil {
		return fmt.Errorf("decode %s body: %w", m.Kind, err)
	}
	return nil
}

// Marshal serializes the message to its self-describing textual wire form.
func (m Message) Marshal() ([]byte, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal message: %w", err)
	}
	return b, nil
}

// UnmarshalMessage deserializes a message from its wire form. Serializing
// then deserializing any message yields an equal message (spec.md §8).
func UnmarshalMessage(data []byte) (Message, error) {
	var m Message
	if err := json.Unmarshal(data, &m); err != nil {
		return Message{}, fmt.Errorf("unmarshal message: %w", err)
	}
	return m, nil
}
