// Package arbiter resolves contention for a resource among competing
// requesters.
//
// Each resource has its own ResourceArbiter holding the registered
// contenders, a selection Policy and policy-local state (a round-robin
// cursor and a xorshift64 generator seeded from the resource id). A call to
// Arbitrate picks exactly one winner and updates per-contender grant, deny
// and wait bookkeeping. The award is advisory: the caller transfers the
// resource and calls Release when it is given back.
//
// The Manager owns every ResourceArbiter keyed by resource id. Calls naming
// an unknown resource or requester are no-ops that return zero values.
//
// Nothing here blocks or reads a clock. Callers pass a monotonically
// non-decreasing primitives.Tick and serialize calls themselves.
package arbiter
