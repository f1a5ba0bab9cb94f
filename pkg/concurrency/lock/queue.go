package lock

import (
	"slices"

	"kcoord/pkg/primitives"
)

// WaitQueue is the FIFO of requesters waiting for one lock. A requester
// appears at most once; the membership set makes duplicate checks O(1).
type WaitQueue struct {
	order   []primitives.RequesterID
	members map[primitives.RequesterID]struct{}
}

// NewWaitQueue creates an empty queue.
func NewWaitQueue() *WaitQueue {
	return &WaitQueue{
		members: make(map[primitives.RequesterID]struct{}),
	}
}

// Add appends requester to the tail. It returns false, leaving the queue
// unchanged, if the requester is already queued.
func (wq *WaitQueue) Add(r primitives.RequesterID) bool {
	if _, ok := wq.members[r]; ok {
		return false
	}
	wq.members[r] = struct{}{}
	wq.order = append(wq.order, r)
	return true
}

// Remove deletes requester from the queue while preserving the order of
// everyone behind it.
func (wq *WaitQueue) Remove(r primitives.RequesterID) bool {
	if _, ok := wq.members[r]; !ok {
		return false
	}
	delete(wq.members, r)
	wq.order = slices.DeleteFunc(wq.order, func(q primitives.RequesterID) bool {
		return q == r
	})
	return true
}

// Pop removes and returns the head of the queue.
func (wq *WaitQueue) Pop() (primitives.RequesterID, bool) {
	if len(wq.order) == 0 {
		return 0, false
	}
	head := wq.order[0]
	wq.order = wq.order[1:]
	delete(wq.members, head)
	return head, true
}

// Contains reports whether requester is queued.
func (wq *WaitQueue) Contains(r primitives.RequesterID) bool {
	_, ok := wq.members[r]
	return ok
}

// Len returns the number of queued requesters.
func (wq *WaitQueue) Len() int {
	return len(wq.order)
}

// Requesters returns the queued requesters in arrival order.
func (wq *WaitQueue) Requesters() []primitives.RequesterID {
	return slices.Clone(wq.order)
}
