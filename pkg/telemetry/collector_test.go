package telemetry

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kcoord/pkg/concurrency/arbiter"
	"kcoord/pkg/concurrency/futex"
	"kcoord/pkg/concurrency/lock"
	"kcoord/pkg/coord"
)

func populated(t *testing.T) *coord.Coordinator {
	t.Helper()
	c := coord.New(nil, nil)
	c.Do(func(m coord.Managers) {
		m.Futex.Wait(0x40, 0, futex.BitsetMatchAny, 1, 0)
		m.Futex.Wait(0x40, 0, futex.BitsetMatchAny, 2, 0)
		m.Futex.Wake(0x40, 1, futex.BitsetMatchAny, 4)

		m.Locks.Create(1, lock.Adaptive)
		m.Locks.Create(2, lock.Hybrid)
		m.Locks.TryAcquire(1, 1, 0)
		m.Locks.TryAcquire(1, 2, 5)
		m.Locks.Release(1, 10)

		m.Arbiter.Create(3, arbiter.RoundRobin)
		m.Arbiter.AddContender(3, arbiter.Request{Requester: 1}, 0)
		m.Arbiter.AddContender(3, arbiter.Request{Requester: 2}, 0)
		m.Arbiter.Arbitrate(3, 1)
		m.Arbiter.Arbitrate(3, 2)
	})
	return c
}

func TestCollectorValues(t *testing.T) {
	col := NewCollector(populated(t))

	expected := `
# HELP kcoord_futex_waits_total Futex waits enqueued.
# TYPE kcoord_futex_waits_total counter
kcoord_futex_waits_total 2
# HELP kcoord_futex_active_waiters Futex waiters currently blocked.
# TYPE kcoord_futex_active_waiters gauge
kcoord_futex_active_waiters 1
# HELP kcoord_lock_contentions_total Failed lock acquisition attempts.
# TYPE kcoord_lock_contentions_total counter
kcoord_lock_contentions_total 1
# HELP kcoord_lock_contention_level Contention level of a lock, 0 (none) to 4 (extreme).
# TYPE kcoord_lock_contention_level gauge
kcoord_lock_contention_level{lock="1"} 4
kcoord_lock_contention_level{lock="2"} 0
# HELP kcoord_arbiter_preemptions_total Arbitrations that replaced the holder.
# TYPE kcoord_arbiter_preemptions_total counter
kcoord_arbiter_preemptions_total 1
# HELP kcoord_arbiter_fairness_index Jain's fairness index over grants for a resource.
# TYPE kcoord_arbiter_fairness_index gauge
kcoord_arbiter_fairness_index{policy="round_robin",resource="3"} 1
`
	err := testutil.CollectAndCompare(col, strings.NewReader(expected),
		"kcoord_futex_waits_total",
		"kcoord_futex_active_waiters",
		"kcoord_lock_contentions_total",
		"kcoord_lock_contention_level",
		"kcoord_arbiter_preemptions_total",
		"kcoord_arbiter_fairness_index",
	)
	require.NoError(t, err)
}

func TestCollectorCount(t *testing.T) {
	col := NewCollector(populated(t))

	// fixed metrics plus three per lock, two per resource, one per hotspot
	snap := populated(t).Snapshot()
	want := len(col.metrics) + 3*len(snap.LockList) + 2*len(snap.Arbiters) + len(snap.Hotspots)
	assert.Equal(t, want, testutil.CollectAndCount(col))
}

func TestCollectorRegisters(t *testing.T) {
	reg := prometheus.NewPedanticRegistry()
	require.NoError(t, reg.Register(NewCollector(coord.New(nil, nil))))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}
