package arbiter

import (
	"slices"

	"kcoord/pkg/primitives"
)

// ResourceArbiter holds the contenders for one resource. Contenders keep
// their registration order, which is the tie-break order for every policy.
// The holder, when set, is always one of the contenders.
type ResourceArbiter struct {
	Resource primitives.ResourceID
	policy   Policy

	contenders []*Contender
	holder     primitives.RequesterID
	hasHolder  bool

	cursor int
	rng    *Xorshift64

	arbitrations uint64
	preemptions  uint64
}

// NewResourceArbiter creates an arbiter whose generator is seeded from the
// resource id.
func NewResourceArbiter(resource primitives.ResourceID, policy Policy) *ResourceArbiter {
	return &ResourceArbiter{
		Resource: resource,
		policy:   policy,
		rng:      NewXorshift64(uint64(resource)),
	}
}

func (ra *ResourceArbiter) indexOf(r primitives.RequesterID) int {
	return slices.IndexFunc(ra.contenders, func(c *Contender) bool {
		return c.Requester == r
	})
}

func (ra *ResourceArbiter) find(r primitives.RequesterID) *Contender {
	if i := ra.indexOf(r); i >= 0 {
		return ra.contenders[i]
	}
	return nil
}

// AddContender registers a requester. It returns false if the requester is
// already contending. Tickets start equal to the weight.
func (ra *ResourceArbiter) AddContender(req Request, now primitives.Tick) bool {
	if ra.indexOf(req.Requester) >= 0 {
		return false
	}
	ra.contenders = append(ra.contenders, newContender(req, now))
	return true
}

// RemoveContender withdraws a requester. Removing the holder clears it.
func (ra *ResourceArbiter) RemoveContender(r primitives.RequesterID) bool {
	i := ra.indexOf(r)
	if i < 0 {
		return false
	}
	ra.contenders = slices.Delete(ra.contenders, i, i+1)
	if ra.hasHolder && ra.holder == r {
		ra.holder, ra.hasHolder = 0, false
	}
	return true
}

// SetPriority changes a contender's priority.
func (ra *ResourceArbiter) SetPriority(r primitives.RequesterID, priority uint32) bool {
	c := ra.find(r)
	if c == nil {
		return false
	}
	c.Priority = priority
	return true
}

// SetTickets changes a contender's lottery tickets without touching its weight.
func (ra *ResourceArbiter) SetTickets(r primitives.RequesterID, tickets uint32) bool {
	c := ra.find(r)
	if c == nil {
		return false
	}
	c.Tickets = tickets
	return true
}

// SetDeadline changes a contender's deadline. Zero clears it.
func (ra *ResourceArbiter) SetDeadline(r primitives.RequesterID, deadline primitives.Tick) bool {
	c := ra.find(r)
	if c == nil {
		return false
	}
	c.Deadline = deadline
	return true
}

// SetPolicy swaps the selection policy. Bookkeeping and the generator state
// carry over.
func (ra *ResourceArbiter) SetPolicy(p Policy) {
	ra.policy = p
}

// Policy returns the active policy.
func (ra *ResourceArbiter) Policy() Policy { return ra.policy }

// Arbitrate picks one winner under the active policy and updates every
// contender's bookkeeping. It returns false when there are no contenders.
func (ra *ResourceArbiter) Arbitrate(now primitives.Tick) (primitives.RequesterID, bool) {
	if len(ra.contenders) == 0 {
		return 0, false
	}

	winner := ra.contenders[ra.pick()]
	ra.arbitrations++
	if ra.hasHolder && ra.holder != winner.Requester {
		ra.preemptions++
	}
	ra.holder, ra.hasHolder = winner.Requester, true

	for _, c := range ra.contenders {
		c.WaitTicks += uint64(now.Since(c.RequestTime))
		c.RequestTime = now
		if c == winner {
			c.Granted++
		} else {
			c.Denied++
		}
	}
	return winner.Requester, true
}

// pick returns the index of the winning contender. It requires at least
// one contender.
func (ra *ResourceArbiter) pick() int {
	switch ra.policy {
	case RoundRobin:
		i := ra.cursor % len(ra.contenders)
		ra.cursor = (i + 1) % len(ra.contenders)
		return i
	case FairShare:
		return ra.best(func(a, b *Contender) bool { return a.Granted < b.Granted })
	case WeightedFair:
		return ra.draw(func(c *Contender) uint64 { return uint64(c.Weight) })
	case Lottery:
		return ra.draw(func(c *Contender) uint64 { return uint64(c.Tickets) })
	case EarliestDeadline:
		best := -1
		for i, c := range ra.contenders {
			if c.Deadline == 0 {
				continue
			}
			if best < 0 || c.Deadline < ra.contenders[best].Deadline {
				best = i
			}
		}
		return max(best, 0)
	default:
		return ra.best(func(a, b *Contender) bool { return a.Priority > b.Priority })
	}
}

// best returns the first contender that no later contender beats.
func (ra *ResourceArbiter) best(beats func(a, b *Contender) bool) int {
	best := 0
	for i := 1; i < len(ra.contenders); i++ {
		if beats(ra.contenders[i], ra.contenders[best]) {
			best = i
		}
	}
	return best
}

// draw selects a contender whose cumulative share interval contains a
// uniform draw over the total share. A zero total picks the first contender
// without consuming a draw.
func (ra *ResourceArbiter) draw(share func(*Contender) uint64) int {
	var total uint64
	for _, c := range ra.contenders {
		total += share(c)
	}
	if total == 0 {
		return 0
	}

	point := ra.rng.Below(total)
	var acc uint64
	for i, c := range ra.contenders {
		acc += share(c)
		if point < acc {
			return i
		}
	}
	return len(ra.contenders) - 1
}

// Release clears the current holder. It reports whether there was one.
func (ra *ResourceArbiter) Release() bool {
	if !ra.hasHolder {
		return false
	}
	ra.holder, ra.hasHolder = 0, false
	return true
}

// Holder returns the last winner that has not been released.
func (ra *ResourceArbiter) Holder() (primitives.RequesterID, bool) {
	return ra.holder, ra.hasHolder
}

// Contenders returns copies of the contender records in registration order.
func (ra *ResourceArbiter) Contenders() []Contender {
	out := make([]Contender, len(ra.contenders))
	for i, c := range ra.contenders {
		out[i] = *c
	}
	return out
}

// FairnessIndex is Jain's index over the contenders' grant counts: 1.0 when
// grants are even, approaching 1/n when one contender gets everything. It
// returns 1.0 before any grants.
func (ra *ResourceArbiter) FairnessIndex() float64 {
	var sum, squares float64
	for _, c := range ra.contenders {
		g := float64(c.Granted)
		sum += g
		squares += g * g
	}
	if squares == 0 {
		return 1.0
	}
	return sum * sum / (float64(len(ra.contenders)) * squares)
}

// ArbiterStats is a point-in-time view of one resource's arbitration.
type ArbiterStats struct {
	Resource     primitives.ResourceID
	Policy       Policy
	Contenders   int
	Holder       primitives.RequesterID
	HasHolder    bool
	Arbitrations uint64
	Preemptions  uint64
	TotalGrants  uint64
	AvgWaitTicks float64
	Fairness     float64
}

// Stats returns a snapshot of the arbiter's counters.
func (ra *ResourceArbiter) Stats() ArbiterStats {
	s := ArbiterStats{
		Resource:     ra.Resource,
		Policy:       ra.policy,
		Contenders:   len(ra.contenders),
		Holder:       ra.holder,
		HasHolder:    ra.hasHolder,
		Arbitrations: ra.arbitrations,
		Preemptions:  ra.preemptions,
		Fairness:     ra.FairnessIndex(),
	}

	var wait, rounds uint64
	for _, c := range ra.contenders {
		s.TotalGrants += c.Granted
		wait += c.WaitTicks
		rounds += c.Granted + c.Denied
	}
	if rounds > 0 {
		s.AvgWaitTicks = float64(wait) / float64(rounds)
	}
	return s
}
