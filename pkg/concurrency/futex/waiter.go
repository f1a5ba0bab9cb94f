package futex

import (
	"fmt"

	"kcoord/pkg/primitives"
)

// WaiterState tracks where a waiter is in its lifecycle.
type WaiterState int

const (
	Blocked WaiterState = iota
	Woken
	TimedOut
	Cancelled
	Requeued
)

// BitsetMatchAny is the wake bitset that intersects every non-zero waiter bitset.
const BitsetMatchAny uint32 = 0xFFFF_FFFF

func (s WaiterState) String() string {
	switch s {
	case Blocked:
		return "blocked"
	case Woken:
		return "woken"
	case TimedOut:
		return "timed_out"
	case Cancelled:
		return "cancelled"
	case Requeued:
		return "requeued"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// IsTerminal reports whether no further transition can happen from s.
// Requeued is transient: a requeued waiter is Blocked again under its new address.
func (s WaiterState) IsTerminal() bool {
	return s == Woken || s == TimedOut || s == Cancelled
}

// Waiter is one blocked (or formerly blocked) execution context.
type Waiter struct {
	ID         primitives.WaiterID
	Requester  primitives.RequesterID
	Address    primitives.Address
	Expected   uint32
	Bitset     uint32
	EnqueuedAt primitives.Tick
	WokenAt    primitives.Tick
	State      WaiterState
	Requeues   uint32
	// Priority orders priority-inheritance waiters; plain waits leave it zero.
	Priority int

	// vector links the per-address records of one vectored wait.
	vector []*Waiter
}

func (w *Waiter) matches(addr primitives.Address) bool {
	return w.State == Blocked && w.Address == addr
}
