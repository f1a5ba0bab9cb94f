// Package futex implements address-keyed wait/wake coordination without a
// data structure per address.
//
// Waiters are recorded in a [HashTable] whose buckets are keyed by a truncated
// hash of the address. Different addresses may share a bucket; every waiter
// carries its original address and wake, requeue and drain operations match
// it exactly after the bucket lookup, so a collision only costs scan time.
//
// The [Manager] never blocks. Wait appends a Blocked waiter and returns a
// handle; the caller suspends by its own means and polls [Manager.Waiter]
// until the state is terminal (Woken, TimedOut, Cancelled). Terminal records
// stay queryable until the caller reaps them.
//
// WaitMulti waits on several addresses under one requester; the first wake
// withdraws the rest. LockPI and UnlockPI keep an owner per address, boost it
// for more urgent waiters and hand it to the oldest waiter on unlock.
//
// No value check happens inside Wait: comparing the expected value against
// memory is the caller's job before it calls Wait, as with a minimal futex.
//
// A Manager is not safe for concurrent use; callers serialize access (see
// package kcoord/pkg/coord).
package futex
