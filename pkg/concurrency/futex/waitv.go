package futex

import "kcoord/pkg/primitives"

// MaxWaitv is the largest vector WaitMulti accepts.
const MaxWaitv = 128

// WaitEntry is one address of a vectored wait.
type WaitEntry struct {
	Address  primitives.Address
	Expected uint32
	Bitset   uint32
}

// WaitMulti blocks requester on every entry at once and returns one handle
// per entry, in entry order. The first wake on any entry wins: the entries
// still Blocked are withdrawn as Cancelled. An empty vector or one longer
// than MaxWaitv enqueues nothing and returns nil.
func (m *Manager) WaitMulti(entries []WaitEntry, requester primitives.RequesterID, now primitives.Tick) []primitives.WaiterID {
	if len(entries) == 0 || len(entries) > MaxWaitv {
		return nil
	}

	vec := make([]*Waiter, 0, len(entries))
	ids := make([]primitives.WaiterID, 0, len(entries))
	for _, e := range entries {
		id := m.Wait(e.Address, e.Expected, e.Bitset, requester, now)
		vec = append(vec, m.records[id])
		ids = append(ids, id)
	}
	for _, w := range vec {
		w.vector = vec
	}

	m.waitvOps++
	return ids
}

// WokenIndex returns the position of the woken handle among ids, or -1 if
// none of them has been woken.
func (m *Manager) WokenIndex(ids []primitives.WaiterID) int {
	for i, id := range ids {
		if w, ok := m.records[id]; ok && w.State == Woken {
			return i
		}
	}
	return -1
}
