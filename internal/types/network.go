package types

// Role names one of the six socket capabilities a network element can own
// (spec.md §4.1). Each role carries a fixed send/receive capability enforced
// by the socket substrate, not by convention.
type Role string

const (
	RolePublish   Role = "publish"
	RoleSubscribe Role = "subscribe"
	RoleRequest   Role = "request"
	RoleReply     Role = "reply"
	RolePush      Role = "push"
	RolePull      Role = "pull"
)

// Endpoint is a single locally-unique address a role resolves to. In the
// NATS-backed substrate this is a subject name, not a TCP port, but it plays
// the same role as the ZMQ-style "tcp://host:port" endpoints spec.md
// describes: an address a socket binds or connects to.
type Endpoint string

// NetworkConfig describes, for one element, the two socket maps spec.md §3
// requires: external (inter-element) and internal (node↔module) roles, each
// mapping to the list of endpoints that role binds or connects to.
type NetworkConfig struct {
	Name     string              `json:"name"`
	External map[Role][]Endpoint `json:"external"`
	Internal map[Role][]Endpoint `json:"internal"`
}

// NewNetworkConfig returns an empty, named configuration ready to be
// populated by the launcher before the element starts.
func NewNetworkConfig(name string) NetworkConfig {
	return NetworkConfig{
		Name:     name,
		External: make(map[Role][]Endpoint),
		Internal: make(map[Role][]Endpoint),
	}
}

// WithExternal returns a copy of cfg with an external role/endpoint added.
func (cfg NetworkConfig) WithExternal(role Role, ep Endpoint) NetworkConfig {
	cfg.External = cloneRoleMap(cfg.External)
	cfg.External[role] = append(append([]Endpoint{}, cfg.External[role]...), ep)
	return cfg
}

// WithInternal returns a copy of cfg with an internal role/endpoint added.
func (cfg NetworkConfig) WithInternal(role Role, ep Endpoint) NetworkConfig {
	cfg.Internal = cloneRoleMap(cfg.Internal)
	cfg.Internal[role] = append(append([]Endpoint{}, cfg.Internal[role]...), ep)
	return cfg
}

func cloneRoleMap(m map[Role][]Endpoint) map[Role][]Endpoint {
	out := make(map[Role][]Endpoint, len(m))
	for k, v := range m {
		out[k] = append([]Endpoint{}, v...)
	}
	return out
}

// AddressLedger maps element names to the external network configuration a
// peer needs in order to reach them. The manager builds and broadcasts this
// in SimInfo (spec.md §4.3).
type AddressLedger map[string]NetworkConfig
