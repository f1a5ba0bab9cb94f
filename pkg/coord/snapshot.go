package coord

import (
	"kcoord/pkg/concurrency/arbiter"
	"kcoord/pkg/concurrency/batch"
	"kcoord/pkg/concurrency/futex"
	"kcoord/pkg/concurrency/lock"
)

// hotspotLimit caps the hotspots carried in a snapshot.
const hotspotLimit = 8

// Snapshot is a consistent view of every manager's counters, taken in one
// critical section.
type Snapshot struct {
	Futex    futex.Stats
	Hotspots []futex.Hotspot
	Locks    lock.ManagerStats
	LockList []lock.LockStats
	Arbiter  arbiter.ManagerStats
	Arbiters []arbiter.ArbiterStats
	Batch    batch.ManagerStats
}

// Snapshot collects stats from every manager.
func (c *Coordinator) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Snapshot{
		Futex:    c.futex.Stats(),
		Hotspots: c.futex.ContentionHotspots(hotspotLimit),
		Locks:    c.locks.Stats(),
		Arbiter:  c.arbiter.Stats(),
		Batch:    c.batch.Stats(),
	}
	for _, id := range c.locks.IDs() {
		l, _ := c.locks.Get(id)
		s.LockList = append(s.LockList, l.Stats())
	}
	for _, id := range c.arbiter.IDs() {
		ra, _ := c.arbiter.Get(id)
		s.Arbiters = append(s.Arbiters, ra.Stats())
	}
	return s
}
