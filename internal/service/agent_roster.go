package service

import (
	"sort"
	"sync"
	"time"

	"github.com/spec-kit/support-console/internal/domain"
)

// RosterEntry is one agent's advertised availability.
type RosterEntry struct {
	AgentID   string             `json:"agent_id"`
	Status    domain.AgentStatus `json:"status"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// AgentRoster tracks the availability of agents seen on the channel.
type AgentRoster struct {
	now func() time.Time

	mu      sync.RWMutex
	entries map[string]RosterEntry
}

// NewAgentRoster creates an empty roster.
func NewAgentRoster(now func() time.Time) *AgentRoster {
	if now == nil {
		now = time.Now
	}
	return &AgentRoster{now: now, entries: make(map[string]RosterEntry)}
}

// Update sets an agent's status. Unknown statuses and blank ids are ignored.
func (r *AgentRoster) Update(agentID string, status domain.AgentStatus) bool {
	if agentID == "" || !status.Valid() {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[agentID] = RosterEntry{AgentID: agentID, Status: status, UpdatedAt: r.now()}
	return true
}

// Status returns an agent's last known status.
func (r *AgentRoster) Status(agentID string) (domain.AgentStatus, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.entries[agentID]
	return entry.Status, ok
}

// List returns all entries ordered by agent id.
func (r *AgentRoster) List() []RosterEntry {
	r.mu.RLock()
	out := make([]RosterEntry, 0, len(r.entries))
	for _, entry := range r.entries {
		out = append(out, entry)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].AgentID < out[j].AgentID })
	return out
}
