// Package batch implements N-party rendezvous groups.
//
// A Group collects participants that each signal readiness once. Depending
// on its Op the group succeeds when all, any, or a strict majority of the
// required participants are ready. Success is committed by TryResolve; a
// group that outlives its timeout is resolved as failed by CheckTimeout,
// unless its predicate already holds, in which case it commits.
// Either way a group resolves exactly once and is immutable afterwards.
//
// GroupManager owns groups keyed by id, sweeps timeouts across all of them
// and reaps resolved groups on request. There is no background expiry.
package batch
