package batch

import (
	"slices"

	"kcoord/pkg/primitives"
)

// Participant is one member of a group.
type Participant struct {
	ID       primitives.RequesterID
	State    ParticipantState
	JoinedAt primitives.Tick
	ReadyAt  primitives.Tick
	Result   int64
}

// signalled reports whether the participant reached Ready at some point.
func (p *Participant) signalled() bool {
	return p.State == Ready || p.State == Committed
}

// Group is a single rendezvous. Once resolved no participant state and
// neither flag changes again.
type Group struct {
	ID         primitives.GroupID
	Op         Op
	Required   uint32
	QuorumSize uint32
	// Timeout of zero disables the timeout.
	Timeout     primitives.Tick
	CreatedAt   primitives.Tick
	CompletedAt primitives.Tick

	participants []*Participant
	readyCount   uint32
	resolved     bool
	success      bool
}

// NewGroup creates an unresolved group with no participants.
func NewGroup(id primitives.GroupID, op Op, required uint32, timeout, now primitives.Tick) *Group {
	return &Group{
		ID:         id,
		Op:         op,
		Required:   required,
		QuorumSize: QuorumSize(op, required),
		Timeout:    timeout,
		CreatedAt:  now,
	}
}

func (g *Group) find(pid primitives.RequesterID) *Participant {
	i := slices.IndexFunc(g.participants, func(p *Participant) bool {
		return p.ID == pid
	})
	if i < 0 {
		return nil
	}
	return g.participants[i]
}

// AddParticipant joins pid in state Waiting. It fails once the group is
// resolved or when pid already joined.
func (g *Group) AddParticipant(pid primitives.RequesterID, now primitives.Tick) bool {
	if g.resolved || g.find(pid) != nil {
		return false
	}
	g.participants = append(g.participants, &Participant{
		ID:       pid,
		State:    Waiting,
		JoinedAt: now,
	})
	return true
}

// SignalReady moves a Waiting participant to Ready and records its result.
// It does not resolve the group; call TryResolve for that.
func (g *Group) SignalReady(pid primitives.RequesterID, result int64, now primitives.Tick) bool {
	if g.resolved {
		return false
	}
	p := g.find(pid)
	if p == nil || p.State != Waiting {
		return false
	}
	p.State = Ready
	p.ReadyAt = now
	p.Result = result
	g.readyCount++
	return true
}

// Abort withdraws a Waiting participant from an unresolved group.
func (g *Group) Abort(pid primitives.RequesterID) bool {
	if g.resolved {
		return false
	}
	p := g.find(pid)
	if p == nil || p.State != Waiting {
		return false
	}
	p.State = Aborted
	return true
}

// Complete reports whether the completion predicate holds.
func (g *Group) Complete() bool {
	if g.Op == AnyComplete {
		return g.readyCount >= 1
	}
	return g.readyCount >= g.QuorumSize
}

// TryResolve commits every Ready participant and marks the group
// successful if the predicate holds. It reports whether it resolved the
// group on this call.
func (g *Group) TryResolve(now primitives.Tick) bool {
	if g.resolved || !g.Complete() {
		return false
	}
	for _, p := range g.participants {
		if p.State == Ready {
			p.State = Committed
		}
	}
	g.resolved, g.success = true, true
	g.CompletedAt = now
	return true
}

// Expired reports whether now-CreatedAt has reached a non-zero Timeout.
func (g *Group) Expired(now primitives.Tick) bool {
	return g.Timeout != 0 && now.Since(g.CreatedAt) >= g.Timeout
}

// CheckTimeout fails the group once it has expired. Waiting participants
// become TimedOut; Ready participants keep their state. A group whose
// predicate already holds is committed instead, as TryResolve would, and
// CheckTimeout reports false. It reports whether it failed the group on
// this call.
func (g *Group) CheckTimeout(now primitives.Tick) bool {
	if g.resolved || !g.Expired(now) {
		return false
	}
	if g.TryResolve(now) {
		return false
	}
	for _, p := range g.participants {
		if p.State == Waiting {
			p.State = TimedOut
		}
	}
	g.resolved, g.success = true, false
	g.CompletedAt = now
	return true
}

// Resolved reports whether the group has resolved.
func (g *Group) Resolved() bool { return g.resolved }

// Success reports whether the group resolved successfully.
func (g *Group) Success() bool { return g.success }

// ReadyCount is the number of participants that signalled ready.
func (g *Group) ReadyCount() uint32 { return g.readyCount }

// Participant returns a copy of one participant.
func (g *Group) Participant(pid primitives.RequesterID) (Participant, bool) {
	p := g.find(pid)
	if p == nil {
		return Participant{}, false
	}
	return *p, true
}

// Participants returns copies of all participants in join order.
func (g *Group) Participants() []Participant {
	out := make([]Participant, len(g.participants))
	for i, p := range g.participants {
		out[i] = *p
	}
	return out
}

// Stragglers returns the participants still Waiting, in join order.
func (g *Group) Stragglers() []primitives.RequesterID {
	var out []primitives.RequesterID
	for _, p := range g.participants {
		if p.State == Waiting {
			out = append(out, p.ID)
		}
	}
	return out
}

// CompletionRate is the ready count as a fraction of the required count,
// capped at 1.
func (g *Group) CompletionRate() float64 {
	if g.Required == 0 {
		return 1
	}
	return min(1, float64(g.readyCount)/float64(g.Required))
}

// AvgWait is the mean number of ticks between joining and signalling ready
// over participants that signalled.
func (g *Group) AvgWait() float64 {
	var total, n uint64
	for _, p := range g.participants {
		if p.signalled() {
			total += uint64(p.ReadyAt.Since(p.JoinedAt))
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return float64(total) / float64(n)
}

// GroupStats is a point-in-time view of one group.
type GroupStats struct {
	ID             primitives.GroupID
	Op             Op
	Required       uint32
	QuorumSize     uint32
	Timeout        primitives.Tick
	CreatedAt      primitives.Tick
	CompletedAt    primitives.Tick
	Participants   int
	Ready          uint32
	Stragglers     int
	Resolved       bool
	Success        bool
	CompletionRate float64
	AvgWaitTicks   float64
}

// Stats returns a snapshot of the group.
func (g *Group) Stats() GroupStats {
	return GroupStats{
		ID:             g.ID,
		Op:             g.Op,
		Required:       g.Required,
		QuorumSize:     g.QuorumSize,
		Timeout:        g.Timeout,
		CreatedAt:      g.CreatedAt,
		CompletedAt:    g.CompletedAt,
		Participants:   len(g.participants),
		Ready:          g.readyCount,
		Stragglers:     len(g.Stragglers()),
		Resolved:       g.resolved,
		Success:        g.success,
		CompletionRate: g.CompletionRate(),
		AvgWaitTicks:   g.AvgWait(),
	}
}
