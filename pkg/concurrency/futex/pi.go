package futex

import "kcoord/pkg/primitives"

// MaxPIChainDepth bounds the boosts recorded against one owner.
const MaxPIChainDepth = 16

// PIOwner is the holder of a priority-inheritance address.
type PIOwner struct {
	Requester primitives.RequesterID
	Priority  int
	// Effective is Priority raised to the most urgent boosting waiter.
	Effective int
	// Chain counts the waiters that boosted this owner.
	Chain int
}

// LockPI takes addr for requester if no one owns it and reports true.
// Otherwise requester queues as a Blocked waiter behind the owner and LockPI
// returns its handle. A waiter more urgent than the owner's effective
// priority boosts the owner, at most MaxPIChainDepth times per owner.
// The owner locking addr again is refused with a zero handle.
func (m *Manager) LockPI(addr primitives.Address, requester primitives.RequesterID, priority int, now primitives.Tick) (primitives.WaiterID, bool) {
	o, held := m.piOwners[addr]
	if !held {
		m.piOwners[addr] = &PIOwner{Requester: requester, Priority: priority, Effective: priority}
		m.piAcquires++
		return 0, true
	}
	if o.Requester == requester {
		m.logger.Warn("pi lock already owned", "address", addr.String(), "requester", uint64(requester))
		return 0, false
	}

	id := m.Wait(addr, 0, BitsetMatchAny, requester, now)
	m.records[id].Priority = priority

	if priority > o.Effective && o.Chain < MaxPIChainDepth {
		o.Effective = priority
		o.Chain++
		m.piBoosts++
		m.maxPIChain = max(m.maxPIChain, o.Chain)
		m.logger.Debug("pi boost", "address", addr.String(),
			"owner", uint64(o.Requester), "effective", o.Effective, "chain", o.Chain)
	}
	return id, false
}

// UnlockPI releases addr held by owner and hands it to the oldest Blocked
// waiter on addr, which is woken and returned. A zero Waiter means addr is
// now free. It reports false, changing nothing, if owner does not hold addr.
func (m *Manager) UnlockPI(addr primitives.Address, owner primitives.RequesterID, now primitives.Tick) (Waiter, bool) {
	o, held := m.piOwners[addr]
	if !held || o.Requester != owner {
		return Waiter{}, false
	}

	next := m.table.Take(addr, 1, nil)
	if len(next) == 0 {
		delete(m.piOwners, addr)
		return Waiter{}, true
	}

	w := next[0]
	m.wake(w, now)
	m.table.Bucket(addr).totalWakes++
	m.totalWakes++

	m.piOwners[addr] = &PIOwner{Requester: w.Requester, Priority: w.Priority, Effective: w.Priority}
	m.piAcquires++
	m.logger.Debug("pi handoff", "address", addr.String(),
		"from", uint64(owner), "to", uint64(w.Requester))
	return *w, true
}

// PIOwner returns the current owner of addr.
func (m *Manager) PIOwner(addr primitives.Address) (PIOwner, bool) {
	o, ok := m.piOwners[addr]
	if !ok {
		return PIOwner{}, false
	}
	return *o, true
}
