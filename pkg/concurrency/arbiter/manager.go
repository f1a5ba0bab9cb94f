package arbiter

import (
	"log/slog"
	"slices"

	"kcoord/pkg/logging"
	"kcoord/pkg/primitives"
)

// Options configures a Manager.
type Options struct {
	DefaultPolicy Policy
	Logger        *slog.Logger
}

// Manager owns one ResourceArbiter per resource id.
type Manager struct {
	arbiters map[primitives.ResourceID]*ResourceArbiter
	policy   Policy
	logger   *slog.Logger
}

// NewManager creates an empty arbiter registry.
func NewManager(opts Options) *Manager {
	return &Manager{
		arbiters: make(map[primitives.ResourceID]*ResourceArbiter),
		policy:   opts.DefaultPolicy,
		logger:   logging.OrDiscard(opts.Logger).With("component", "arbiter"),
	}
}

// Create registers a resource under policy. It returns false if the
// resource already exists.
func (m *Manager) Create(resource primitives.ResourceID, policy Policy) bool {
	if _, exists := m.arbiters[resource]; exists {
		return false
	}
	m.arbiters[resource] = NewResourceArbiter(resource, policy)
	m.logger.Debug("arbiter created", "resource_id", uint64(resource), "policy", policy.String())
	return true
}

// CreateDefault registers a resource under the manager's default policy.
func (m *Manager) CreateDefault(resource primitives.ResourceID) bool {
	return m.Create(resource, m.policy)
}

// Destroy forgets a resource and all of its contenders.
func (m *Manager) Destroy(resource primitives.ResourceID) bool {
	if _, exists := m.arbiters[resource]; !exists {
		return false
	}
	delete(m.arbiters, resource)
	return true
}

// Get returns the arbiter for a resource.
func (m *Manager) Get(resource primitives.ResourceID) (*ResourceArbiter, bool) {
	ra, ok := m.arbiters[resource]
	return ra, ok
}

// AddContender registers a requester on a resource.
func (m *Manager) AddContender(resource primitives.ResourceID, req Request, now primitives.Tick) bool {
	ra, ok := m.arbiters[resource]
	if !ok {
		return false
	}
	return ra.AddContender(req, now)
}

// RemoveContender withdraws a requester from a resource.
func (m *Manager) RemoveContender(resource primitives.ResourceID, r primitives.RequesterID) bool {
	ra, ok := m.arbiters[resource]
	if !ok {
		return false
	}
	return ra.RemoveContender(r)
}

// SetPriority changes a contender's priority.
func (m *Manager) SetPriority(resource primitives.ResourceID, r primitives.RequesterID, priority uint32) bool {
	ra, ok := m.arbiters[resource]
	return ok && ra.SetPriority(r, priority)
}

// SetTickets changes a contender's lottery tickets.
func (m *Manager) SetTickets(resource primitives.ResourceID, r primitives.RequesterID, tickets uint32) bool {
	ra, ok := m.arbiters[resource]
	return ok && ra.SetTickets(r, tickets)
}

// SetDeadline changes a contender's deadline.
func (m *Manager) SetDeadline(resource primitives.ResourceID, r primitives.RequesterID, deadline primitives.Tick) bool {
	ra, ok := m.arbiters[resource]
	return ok && ra.SetDeadline(r, deadline)
}

// Arbitrate picks the next winner for a resource.
func (m *Manager) Arbitrate(resource primitives.ResourceID, now primitives.Tick) (primitives.RequesterID, bool) {
	ra, ok := m.arbiters[resource]
	if !ok {
		return 0, false
	}

	prev, hadHolder := ra.Holder()
	winner, ok := ra.Arbitrate(now)
	if ok && hadHolder && prev != winner {
		m.logger.Debug("holder preempted", "resource_id", uint64(resource),
			"previous", uint64(prev), "winner", uint64(winner))
	}
	return winner, ok
}

// Release clears a resource's holder.
func (m *Manager) Release(resource primitives.ResourceID) bool {
	ra, ok := m.arbiters[resource]
	return ok && ra.Release()
}

// Holder returns a resource's current holder.
func (m *Manager) Holder(resource primitives.ResourceID) (primitives.RequesterID, bool) {
	ra, ok := m.arbiters[resource]
	if !ok {
		return 0, false
	}
	return ra.Holder()
}

// FairnessIndex returns the grant fairness of a resource. Unknown resources
// report 0.
func (m *Manager) FairnessIndex(resource primitives.ResourceID) float64 {
	ra, ok := m.arbiters[resource]
	if !ok {
		return 0
	}
	return ra.FairnessIndex()
}

// IDs returns the registered resource ids in ascending order.
func (m *Manager) IDs() []primitives.ResourceID {
	ids := make([]primitives.ResourceID, 0, len(m.arbiters))
	for id := range m.arbiters {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// ManagerStats aggregates counters across all resources.
type ManagerStats struct {
	Contexts     int
	Contenders   int
	Held         int
	Arbitrations uint64
	Preemptions  uint64
	TotalGrants  uint64
	ByPolicy     map[Policy]int
}

// Stats returns aggregated counters across all resources.
func (m *Manager) Stats() ManagerStats {
	s := ManagerStats{
		Contexts: len(m.arbiters),
		ByPolicy: make(map[Policy]int),
	}
	for _, ra := range m.arbiters {
		as := ra.Stats()
		s.Contenders += as.Contenders
		if as.HasHolder {
			s.Held++
		}
		s.Arbitrations += as.Arbitrations
		s.Preemptions += as.Preemptions
		s.TotalGrants += as.TotalGrants
		s.ByPolicy[as.Policy]++
	}
	return s
}
