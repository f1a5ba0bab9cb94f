// Package lock implements the adaptive mutual-exclusion lock of the
// coordination core.
//
// # Overview
//
// An [AdaptiveLock] starts optimistic: TryAcquire either succeeds immediately
// or records a contention event and fails. The caller decides whether to spin
// locally or queue with AddWaiter; [AdaptiveLock.RecommendWait] tells it which
// the lock's strategy favours. Release never hands the lock over itself. It
// nominates the head of the FIFO waiter queue and the caller performs the
// hand-off by calling TryAcquire on the nominee's behalf.
//
// Four strategies are supported:
//
//   - [SpinOnly]: callers always spin with the aggressive preset.
//   - [SleepOnly]: callers always queue; conservative preset.
//   - [Hybrid]: spin while the owner holds a plain spin lock, sleep once
//     waiters queue; default preset.
//   - [Adaptive]: AdaptStrategy maps the contention level to a preset.
//
// Strategy never affects correctness: every strategy keeps at most one owner.
//
// # States
//
//	Unlocked --TryAcquire--> SpinLocked --failed TryAcquire (Hybrid/Adaptive)--> Upgrading
//	SpinLocked/Upgrading --AddWaiter (not SpinOnly)--> SleepLocked
//	any held state --Release--> Unlocked
//
// # Contention
//
// [LevelFor] derives the contention level from counters alone:
// contention/acquisitions below 5% is None, below 20% Low, below 50% Medium,
// below 100% High, and Extreme from there up.
//
// # Components
//
// [LockManager] owns many locks keyed by [primitives.LockID] and answers
// unknown ids with permissive no-ops. Its [DependencyGraph] turns the
// waiter-to-owner relation across all locks into a wait-for graph whose
// cycles are reported as deadlock hints.
package lock
