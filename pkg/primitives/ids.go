package primitives

import "fmt"

// Tick is an opaque monotonic timestamp supplied by the caller on every
// mutating call, typically nanoseconds. The coordination core never reads a
// clock itself.
type Tick uint64

// Since returns the ticks elapsed from earlier to t, saturating at zero when
// the caller supplies timestamps out of order.
func (t Tick) Since(earlier Tick) Tick {
	if t < earlier {
		return 0
	}
	return t - earlier
}

// RequesterID identifies an execution context (thread, task, syscall handler)
// that waits on, contends for, or participates in a primitive. The core only
// compares requester ids for equality.
type RequesterID uint64

// LockID identifies an adaptive lock instance.
type LockID uint64

// ResourceID identifies an arbitrated resource. It also seeds the
// per-resource pseudo-random generator used by weighted policies.
type ResourceID uint64

// GroupID identifies a batch synchronization group.
type GroupID uint64

// WaiterID is the handle returned by a futex wait, used to poll the
// waiter's state after it leaves its bucket.
type WaiterID uint64

// Address is a resource address used as a futex key.
type Address uint64

func (r RequesterID) String() string {
	return fmt.Sprintf("Requester(%d)", r)
}

func (l LockID) String() string {
	return fmt.Sprintf("Lock(%d)", l)
}

func (r ResourceID) String() string {
	return fmt.Sprintf("Resource(%d)", r)
}

func (g GroupID) String() string {
	return fmt.Sprintf("Group(%d)", g)
}

func (a Address) String() string {
	return fmt.Sprintf("0x%x", uint64(a))
}
