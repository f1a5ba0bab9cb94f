package futex

import (
	"cmp"
	"log/slog"
	"slices"

	"kcoord/pkg/logging"
	"kcoord/pkg/primitives"
)

// Options configures a Manager.
type Options struct {
	// HashBits is the bucket key width; zero selects DefaultHashBits.
	HashBits uint
	// Hasher spreads addresses over buckets; nil selects FNV-1a.
	Hasher primitives.Hasher
	Logger *slog.Logger
}

// Manager provides wait, wake, requeue and timeout scanning keyed by address.
type Manager struct {
	table    *HashTable
	records  map[primitives.WaiterID]*Waiter
	piOwners map[primitives.Address]*PIOwner
	nextID   primitives.WaiterID
	logger   *slog.Logger

	totalWaits     uint64
	totalWakes     uint64
	totalRequeues  uint64
	totalTimeouts  uint64
	totalCancels   uint64
	collisions     uint64
	wokenWaitTicks uint64
	waitvOps       uint64
	piAcquires     uint64
	piBoosts       uint64
	maxPIChain     int
}

// NewManager creates an empty futex manager.
func NewManager(opts Options) *Manager {
	return &Manager{
		table:    NewHashTable(opts.HashBits, opts.Hasher),
		records:  make(map[primitives.WaiterID]*Waiter),
		piOwners: make(map[primitives.Address]*PIOwner),
		logger:   logging.OrDiscard(opts.Logger).With("component", "futex"),
	}
}

// Wait enqueues requester as a Blocked waiter on addr and returns its handle.
// Wait never fails and never compares expected against memory; the caller
// performs that check before calling.
func (m *Manager) Wait(addr primitives.Address, expected, bitset uint32, requester primitives.RequesterID, now primitives.Tick) primitives.WaiterID {
	m.nextID++
	w := &Waiter{
		ID:         m.nextID,
		Requester:  requester,
		Address:    addr,
		Expected:   expected,
		Bitset:     bitset,
		EnqueuedAt: now,
		State:      Blocked,
	}

	if m.table.Enqueue(w) {
		m.collisions++
		m.logger.Debug("bucket collision", "address", addr.String(), "key", m.table.KeyFor(addr))
	}
	m.records[w.ID] = w
	m.totalWaits++
	return w.ID
}

// Wake transitions up to maxCount Blocked waiters on addr whose bitset
// intersects bitset to Woken, in arrival order, and returns how many it woke.
// Unknown addresses wake nobody.
func (m *Manager) Wake(addr primitives.Address, maxCount int, bitset uint32, now primitives.Tick) int {
	if maxCount <= 0 {
		return 0
	}

	b := m.table.Bucket(addr)
	if b == nil {
		return 0
	}

	taken := m.table.Take(addr, maxCount, func(w *Waiter) bool {
		return w.Bitset&bitset != 0
	})
	woken := 0
	for _, w := range taken {
		// A vectored sibling taken in the same batch was already withdrawn.
		if w.State != Blocked {
			continue
		}
		m.wake(w, now)
		woken++
	}

	b.totalWakes += uint64(woken)
	m.totalWakes += uint64(woken)

	if woken > 0 {
		m.logger.Debug("waiters woken", "address", addr.String(), "count", woken)
	}
	return woken
}

// wake marks a dequeued waiter Woken and withdraws the siblings of its
// vectored wait that are still Blocked.
func (m *Manager) wake(w *Waiter, now primitives.Tick) {
	w.State = Woken
	w.WokenAt = now
	m.wokenWaitTicks += uint64(now.Since(w.EnqueuedAt))

	for _, sib := range w.vector {
		if sib == w || sib.State != Blocked {
			continue
		}
		m.table.Remove(sib)
		sib.State = Cancelled
		sib.WokenAt = now
		m.totalCancels++
	}
}

// Requeue moves up to maxCount Blocked waiters from one address to another,
// keeping their arrival order, and returns how many moved. Moved waiters pass
// through Requeued and are Blocked again under the destination address.
// Requeueing an address onto itself is a no-op.
func (m *Manager) Requeue(from, to primitives.Address, maxCount int, now primitives.Tick) int {
	if maxCount <= 0 || from == to {
		return 0
	}

	moved := m.table.Take(from, maxCount, nil)
	for _, w := range moved {
		w.State = Requeued
		w.Requeues++
		w.Address = to
		w.State = Blocked
		if m.table.Requeue(w) {
			m.collisions++
		}
	}

	m.totalRequeues += uint64(len(moved))
	if len(moved) > 0 {
		m.logger.Debug("waiters requeued",
			"from", from.String(), "to", to.String(), "count", len(moved), "now", uint64(now))
	}
	return len(moved)
}

// WakeRequeue wakes up to nrWake Blocked waiters on from, then moves up to
// nrRequeue of those left onto to. It returns both counts.
func (m *Manager) WakeRequeue(from, to primitives.Address, nrWake, nrRequeue int, now primitives.Tick) (woken, requeued int) {
	woken = m.Wake(from, nrWake, BitsetMatchAny, now)
	requeued = m.Requeue(from, to, nrRequeue, now)
	return woken, requeued
}

// TickTimeouts transitions every Blocked waiter enqueued before deadline to
// TimedOut and returns how many expired.
func (m *Manager) TickTimeouts(deadline primitives.Tick) int {
	expired := m.table.Expire(func(w *Waiter) bool {
		return w.EnqueuedAt < deadline
	})
	for _, w := range expired {
		w.State = TimedOut
		w.WokenAt = deadline
	}

	m.totalTimeouts += uint64(len(expired))
	if len(expired) > 0 {
		m.logger.Debug("waiters timed out", "deadline", uint64(deadline), "count", len(expired))
	}
	return len(expired)
}

// Drain cancels every Blocked waiter on addr and returns how many it removed.
func (m *Manager) Drain(addr primitives.Address, now primitives.Tick) int {
	drained := m.table.Take(addr, -1, nil)
	for _, w := range drained {
		w.State = Cancelled
		w.WokenAt = now
	}

	m.totalCancels += uint64(len(drained))
	return len(drained)
}

// Waiter returns a copy of the waiter record behind id.
func (m *Manager) Waiter(id primitives.WaiterID) (Waiter, bool) {
	w, ok := m.records[id]
	if !ok {
		return Waiter{}, false
	}
	return *w, true
}

// Reap forgets a waiter record in a terminal state. Blocked waiters cannot
// be reaped.
func (m *Manager) Reap(id primitives.WaiterID) bool {
	w, ok := m.records[id]
	if !ok || !w.State.IsTerminal() {
		return false
	}
	delete(m.records, id)
	return true
}

// ReapTerminal forgets every terminal waiter record and returns the count.
func (m *Manager) ReapTerminal() int {
	n := 0
	for id, w := range m.records {
		if w.State.IsTerminal() {
			delete(m.records, id)
			n++
		}
	}
	return n
}

// WaiterCount returns the number of Blocked waiters on exactly addr.
func (m *Manager) WaiterCount(addr primitives.Address) int {
	return len(m.table.Waiters(addr))
}

// Waiters returns copies of the Blocked waiters on addr in arrival order.
func (m *Manager) Waiters(addr primitives.Address) []Waiter {
	ws := m.table.Waiters(addr)
	out := make([]Waiter, len(ws))
	for i, w := range ws {
		out[i] = *w
	}
	return out
}

// Hotspot is a bucket ranked by contention score.
type Hotspot struct {
	Key        uint64
	Score      float64
	Waiters    int
	MaxWaiters int
}

// ContentionHotspots returns up to n buckets with a positive contention
// score, highest first.
func (m *Manager) ContentionHotspots(n int) []Hotspot {
	var spots []Hotspot
	for _, b := range m.table.Buckets() {
		if s := b.ContentionScore(); s > 0 {
			spots = append(spots, Hotspot{Key: b.Key, Score: s, Waiters: b.Len(), MaxWaiters: b.maxWaiters})
		}
	}

	slices.SortStableFunc(spots, func(a, b Hotspot) int {
		return cmp.Compare(b.Score, a.Score)
	})

	if n >= 0 && len(spots) > n {
		spots = spots[:n]
	}
	return spots
}

// Stats is a point-in-time view of the manager's counters.
type Stats struct {
	BucketsUsed     int
	ActiveBuckets   int
	CollidedBuckets int
	ActiveWaiters   int
	Records         int
	TotalWaits      uint64
	TotalWakes      uint64
	TotalRequeues   uint64
	TotalTimeouts   uint64
	TotalCancels    uint64
	Collisions      uint64
	AvgWaitTicks    float64
	WaitvOps        uint64
	PIOwners        int
	PIAcquires      uint64
	PIBoosts        uint64
	MaxPIChainDepth int
}

// Stats returns a snapshot of the manager's counters.
func (m *Manager) Stats() Stats {
	s := Stats{
		BucketsUsed:   m.table.Len(),
		ActiveBuckets: m.table.Active(),
		Records:       len(m.records),
		TotalWaits:    m.totalWaits,
		TotalWakes:    m.totalWakes,
		TotalRequeues: m.totalRequeues,
		TotalTimeouts: m.totalTimeouts,
		TotalCancels:  m.totalCancels,
		Collisions:    m.collisions,

		WaitvOps:        m.waitvOps,
		PIOwners:        len(m.piOwners),
		PIAcquires:      m.piAcquires,
		PIBoosts:        m.piBoosts,
		MaxPIChainDepth: m.maxPIChain,
	}

	for _, b := range m.table.Buckets() {
		s.ActiveWaiters += b.Len()
		if b.Collided() {
			s.CollidedBuckets++
		}
	}

	if m.totalWakes > 0 {
		s.AvgWaitTicks = float64(m.wokenWaitTicks) / float64(m.totalWakes)
	}
	return s
}
