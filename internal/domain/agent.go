package domain

// AgentStatus is the availability an agent advertises.
type AgentStatus string

const (
	AgentAvailable AgentStatus = "available"
	AgentBusy      AgentStatus = "busy"
	AgentAway      AgentStatus = "away"
	AgentOffline   AgentStatus = "offline"
)

// Valid reports whether s is a known status.
func (s AgentStatus) Valid() bool {
	switch s {
	case AgentAvailable, AgentBusy, AgentAway, AgentOffline:
		return true
	}
	return false
}

// UnknownAgent is the sentinel identity used when no agent id is available.
const UnknownAgent = "unknown"
