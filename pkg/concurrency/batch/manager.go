package batch

import (
	"log/slog"
	"slices"

	"kcoord/pkg/logging"
	"kcoord/pkg/primitives"
)

// Options configures a GroupManager.
type Options struct {
	// DefaultTimeout applies to groups created through CreateDefault.
	DefaultTimeout primitives.Tick
	Logger         *slog.Logger
}

// Summary records how a reaped group ended.
type Summary struct {
	ID              primitives.GroupID
	Op              Op
	Success         bool
	Participants    int
	ResolutionTicks uint64
	AvgWaitTicks    float64
}

// GroupManager owns batch groups keyed by id.
type GroupManager struct {
	groups         map[primitives.GroupID]*Group
	defaultTimeout primitives.Tick
	logger         *slog.Logger

	created         uint64
	succeeded       uint64
	timedOut        uint64
	reaped          uint64
	resolutionTicks uint64
}

// NewGroupManager creates an empty registry.
func NewGroupManager(opts Options) *GroupManager {
	return &GroupManager{
		groups:         make(map[primitives.GroupID]*Group),
		defaultTimeout: opts.DefaultTimeout,
		logger:         logging.OrDiscard(opts.Logger).With("component", "batch"),
	}
}

// Create registers a new group. It returns false if id is taken.
func (gm *GroupManager) Create(id primitives.GroupID, op Op, required uint32, timeout, now primitives.Tick) bool {
	if _, exists := gm.groups[id]; exists {
		return false
	}
	gm.groups[id] = NewGroup(id, op, required, timeout, now)
	gm.created++
	gm.logger.Debug("group created", "group_id", uint64(id), "op", op.String(),
		"required", required, "timeout", uint64(timeout))
	return true
}

// CreateDefault registers a new group with the manager's default timeout.
func (gm *GroupManager) CreateDefault(id primitives.GroupID, op Op, required uint32, now primitives.Tick) bool {
	return gm.Create(id, op, required, gm.defaultTimeout, now)
}

// Destroy forgets a group whatever its state.
func (gm *GroupManager) Destroy(id primitives.GroupID) bool {
	if _, exists := gm.groups[id]; !exists {
		return false
	}
	delete(gm.groups, id)
	return true
}

// Get returns a snapshot of the group behind id. Mutations go through the
// manager so its counters stay in step.
func (gm *GroupManager) Get(id primitives.GroupID) (GroupStats, bool) {
	g, ok := gm.groups[id]
	if !ok {
		return GroupStats{}, false
	}
	return g.Stats(), true
}

// Participants returns copies of the participants of group id in join
// order.
func (gm *GroupManager) Participants(id primitives.GroupID) []Participant {
	g, ok := gm.groups[id]
	if !ok {
		return nil
	}
	return g.Participants()
}

// AddParticipant joins pid to group id.
func (gm *GroupManager) AddParticipant(id primitives.GroupID, pid primitives.RequesterID, now primitives.Tick) bool {
	g, ok := gm.groups[id]
	return ok && g.AddParticipant(pid, now)
}

// SignalReady marks pid ready in group id.
func (gm *GroupManager) SignalReady(id primitives.GroupID, pid primitives.RequesterID, result int64, now primitives.Tick) bool {
	g, ok := gm.groups[id]
	return ok && g.SignalReady(pid, result, now)
}

// Abort withdraws pid from group id.
func (gm *GroupManager) Abort(id primitives.GroupID, pid primitives.RequesterID) bool {
	g, ok := gm.groups[id]
	return ok && g.Abort(pid)
}

// TryResolve commits group id if its predicate holds.
func (gm *GroupManager) TryResolve(id primitives.GroupID, now primitives.Tick) bool {
	g, ok := gm.groups[id]
	if !ok || !g.TryResolve(now) {
		return false
	}
	gm.committed(g)
	return true
}

func (gm *GroupManager) committed(g *Group) {
	gm.succeeded++
	gm.resolutionTicks += uint64(g.CompletedAt.Since(g.CreatedAt))
	gm.logger.Debug("group committed", "group_id", uint64(g.ID), "ready", g.ReadyCount())
}

// CheckTimeout fails group id if its timeout elapsed. An expired group whose
// predicate holds is committed and counted as a success instead.
func (gm *GroupManager) CheckTimeout(id primitives.GroupID, now primitives.Tick) bool {
	g, ok := gm.groups[id]
	if !ok || g.Resolved() {
		return false
	}
	if !g.CheckTimeout(now) {
		if g.Resolved() {
			gm.committed(g)
		}
		return false
	}
	gm.timedOut++
	gm.resolutionTicks += uint64(g.CompletedAt.Since(g.CreatedAt))
	gm.logger.Debug("group timed out", "group_id", uint64(id), "stragglers", len(g.Stragglers()))
	return true
}

// CheckTimeouts sweeps every unresolved group and returns the ids that
// timed out on this call, in ascending order.
func (gm *GroupManager) CheckTimeouts(now primitives.Tick) []primitives.GroupID {
	var out []primitives.GroupID
	for _, id := range gm.IDs() {
		if gm.CheckTimeout(id, now) {
			out = append(out, id)
		}
	}
	return out
}

// ReapResolved removes every resolved group and returns their summaries in
// id order.
func (gm *GroupManager) ReapResolved() []Summary {
	var out []Summary
	for _, id := range gm.IDs() {
		g := gm.groups[id]
		if !g.Resolved() {
			continue
		}
		out = append(out, Summary{
			ID:              id,
			Op:              g.Op,
			Success:         g.Success(),
			Participants:    len(g.participants),
			ResolutionTicks: uint64(g.CompletedAt.Since(g.CreatedAt)),
			AvgWaitTicks:    g.AvgWait(),
		})
		delete(gm.groups, id)
		gm.reaped++
	}
	return out
}

// IDs returns the registered group ids in ascending order.
func (gm *GroupManager) IDs() []primitives.GroupID {
	ids := make([]primitives.GroupID, 0, len(gm.groups))
	for id := range gm.groups {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// ManagerStats aggregates group counters.
type ManagerStats struct {
	Active             int
	Resolved           int
	Created            uint64
	Succeeded          uint64
	TimedOut           uint64
	Reaped             uint64
	Waiting            int
	AvgResolutionTicks float64
}

// Stats returns aggregated counters. Active counts unresolved groups still
// registered; Resolved counts resolved groups not yet reaped.
func (gm *GroupManager) Stats() ManagerStats {
	s := ManagerStats{
		Created:   gm.created,
		Succeeded: gm.succeeded,
		TimedOut:  gm.timedOut,
		Reaped:    gm.reaped,
	}
	for _, g := range gm.groups {
		if g.Resolved() {
			s.Resolved++
			continue
		}
		s.Active++
		s.Waiting += len(g.Stragglers())
	}
	if done := gm.succeeded + gm.timedOut; done > 0 {
		s.AvgResolutionTicks = float64(gm.resolutionTicks) / float64(done)
	}
	return s
}
