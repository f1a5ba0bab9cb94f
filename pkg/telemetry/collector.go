// Package telemetry exports coordinator snapshots as Prometheus metrics.
package telemetry

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"kcoord/pkg/coord"
)

const namespace = "kcoord"

// SnapshotSource is anything that can produce a coordinator snapshot.
type SnapshotSource interface {
	Snapshot() coord.Snapshot
}

type metric struct {
	desc      *prometheus.Desc
	valueType prometheus.ValueType
	value     func(s *coord.Snapshot) float64
}

func newMetric(subsystem, name, help string, vt prometheus.ValueType, value func(s *coord.Snapshot) float64) metric {
	return metric{
		desc:      prometheus.NewDesc(prometheus.BuildFQName(namespace, subsystem, name), help, nil, nil),
		valueType: vt,
		value:     value,
	}
}

// Collector implements prometheus.Collector over a SnapshotSource. Each
// scrape takes one snapshot, so all values in a scrape are consistent.
type Collector struct {
	source  SnapshotSource
	metrics []metric

	lockLevel        *prometheus.Desc
	lockAcquisitions *prometheus.Desc
	lockPreset       *prometheus.Desc
	arbiterFairness  *prometheus.Desc
	arbiterGrants    *prometheus.Desc
	hotspotScore     *prometheus.Desc
}

// NewCollector creates a collector reading from source.
func NewCollector(source SnapshotSource) *Collector {
	counter, gauge := prometheus.CounterValue, prometheus.GaugeValue
	return &Collector{
		source: source,
		metrics: []metric{
			newMetric("futex", "waits_total", "Futex waits enqueued.", counter,
				func(s *coord.Snapshot) float64 { return float64(s.Futex.TotalWaits) }),
			newMetric("futex", "wakes_total", "Futex waiters woken.", counter,
				func(s *coord.Snapshot) float64 { return float64(s.Futex.TotalWakes) }),
			newMetric("futex", "requeues_total", "Futex waiters moved between addresses.", counter,
				func(s *coord.Snapshot) float64 { return float64(s.Futex.TotalRequeues) }),
			newMetric("futex", "timeouts_total", "Futex waiters timed out.", counter,
				func(s *coord.Snapshot) float64 { return float64(s.Futex.TotalTimeouts) }),
			newMetric("futex", "cancels_total", "Futex waiters cancelled by draining.", counter,
				func(s *coord.Snapshot) float64 { return float64(s.Futex.TotalCancels) }),
			newMetric("futex", "collisions_total", "Distinct addresses that landed in an occupied bucket.", counter,
				func(s *coord.Snapshot) float64 { return float64(s.Futex.Collisions) }),
			newMetric("futex", "active_waiters", "Futex waiters currently blocked.", gauge,
				func(s *coord.Snapshot) float64 { return float64(s.Futex.ActiveWaiters) }),
			newMetric("futex", "buckets_used", "Wait-address buckets allocated.", gauge,
				func(s *coord.Snapshot) float64 { return float64(s.Futex.BucketsUsed) }),
			newMetric("futex", "avg_wait_ticks", "Mean ticks between wait and wake.", gauge,
				func(s *coord.Snapshot) float64 { return s.Futex.AvgWaitTicks }),
			newMetric("futex", "waitv_total", "Vectored waits over several addresses.", counter,
				func(s *coord.Snapshot) float64 { return float64(s.Futex.WaitvOps) }),
			newMetric("futex", "pi_acquisitions_total", "Priority-inheritance addresses taken or handed off.", counter,
				func(s *coord.Snapshot) float64 { return float64(s.Futex.PIAcquires) }),
			newMetric("futex", "pi_boosts_total", "Owners boosted by a more urgent waiter.", counter,
				func(s *coord.Snapshot) float64 { return float64(s.Futex.PIBoosts) }),
			newMetric("futex", "pi_owners", "Priority-inheritance addresses currently owned.", gauge,
				func(s *coord.Snapshot) float64 { return float64(s.Futex.PIOwners) }),
			newMetric("futex", "pi_max_chain_depth", "Deepest boost chain seen on one owner.", gauge,
				func(s *coord.Snapshot) float64 { return float64(s.Futex.MaxPIChainDepth) }),

			newMetric("lock", "acquisitions_total", "Successful lock acquisitions.", counter,
				func(s *coord.Snapshot) float64 { return float64(s.Locks.TotalAcquisitions) }),
			newMetric("lock", "contentions_total", "Failed lock acquisition attempts.", counter,
				func(s *coord.Snapshot) float64 { return float64(s.Locks.TotalContentions) }),
			newMetric("lock", "locks", "Registered locks.", gauge,
				func(s *coord.Snapshot) float64 { return float64(s.Locks.Locks) }),
			newMetric("lock", "held", "Locks currently held.", gauge,
				func(s *coord.Snapshot) float64 { return float64(s.Locks.Held) }),
			newMetric("lock", "waiters", "Requesters queued on locks.", gauge,
				func(s *coord.Snapshot) float64 { return float64(s.Locks.Waiters) }),
			newMetric("lock", "avg_hold_ticks", "Mean ticks a lock is held.", gauge,
				func(s *coord.Snapshot) float64 { return s.Locks.AvgHoldTicks }),
			newMetric("lock", "avg_wait_ticks", "Mean ticks from first failed attempt to acquisition.", gauge,
				func(s *coord.Snapshot) float64 { return s.Locks.AvgWaitTicks }),

			newMetric("arbiter", "arbitrations_total", "Arbitration rounds with a winner.", counter,
				func(s *coord.Snapshot) float64 { return float64(s.Arbiter.Arbitrations) }),
			newMetric("arbiter", "preemptions_total", "Arbitrations that replaced the holder.", counter,
				func(s *coord.Snapshot) float64 { return float64(s.Arbiter.Preemptions) }),
			newMetric("arbiter", "resources", "Registered arbitrated resources.", gauge,
				func(s *coord.Snapshot) float64 { return float64(s.Arbiter.Contexts) }),
			newMetric("arbiter", "contenders", "Registered contenders across resources.", gauge,
				func(s *coord.Snapshot) float64 { return float64(s.Arbiter.Contenders) }),

			newMetric("batch", "created_total", "Batch groups created.", counter,
				func(s *coord.Snapshot) float64 { return float64(s.Batch.Created) }),
			newMetric("batch", "succeeded_total", "Batch groups committed.", counter,
				func(s *coord.Snapshot) float64 { return float64(s.Batch.Succeeded) }),
			newMetric("batch", "timed_out_total", "Batch groups failed by timeout.", counter,
				func(s *coord.Snapshot) float64 { return float64(s.Batch.TimedOut) }),
			newMetric("batch", "active", "Unresolved batch groups.", gauge,
				func(s *coord.Snapshot) float64 { return float64(s.Batch.Active) }),
			newMetric("batch", "avg_resolution_ticks", "Mean ticks from creation to resolution.", gauge,
				func(s *coord.Snapshot) float64 { return s.Batch.AvgResolutionTicks }),
		},
		lockLevel: prometheus.NewDesc(prometheus.BuildFQName(namespace, "lock", "contention_level"),
			"Contention level of a lock, 0 (none) to 4 (extreme).", []string{"lock"}, nil),
		lockAcquisitions: prometheus.NewDesc(prometheus.BuildFQName(namespace, "lock", "instance_acquisitions_total"),
			"Acquisitions of a single lock.", []string{"lock"}, nil),
		lockPreset: prometheus.NewDesc(prometheus.BuildFQName(namespace, "lock", "preset"),
			"Active spin preset of a lock.", []string{"lock", "preset"}, nil),
		arbiterFairness: prometheus.NewDesc(prometheus.BuildFQName(namespace, "arbiter", "fairness_index"),
			"Jain's fairness index over grants for a resource.", []string{"resource", "policy"}, nil),
		arbiterGrants: prometheus.NewDesc(prometheus.BuildFQName(namespace, "arbiter", "resource_grants_total"),
			"Grants awarded for a resource.", []string{"resource"}, nil),
		hotspotScore: prometheus.NewDesc(prometheus.BuildFQName(namespace, "futex", "hotspot_score"),
			"Contention score of the busiest futex buckets.", []string{"bucket"}, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, m := range c.metrics {
		ch <- m.desc
	}
	ch <- c.lockLevel
	ch <- c.lockAcquisitions
	ch <- c.lockPreset
	ch <- c.arbiterFairness
	ch <- c.arbiterGrants
	ch <- c.hotspotScore
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	s := c.source.Snapshot()

	for _, m := range c.metrics {
		ch <- prometheus.MustNewConstMetric(m.desc, m.valueType, m.value(&s))
	}

	for _, l := range s.LockList {
		id := strconv.FormatUint(uint64(l.ID), 10)
		ch <- prometheus.MustNewConstMetric(c.lockLevel, prometheus.GaugeValue, float64(l.Level), id)
		ch <- prometheus.MustNewConstMetric(c.lockAcquisitions, prometheus.CounterValue, float64(l.AcquireCount), id)
		ch <- prometheus.MustNewConstMetric(c.lockPreset, prometheus.GaugeValue, 1, id, string(l.Preset))
	}
	for _, a := range s.Arbiters {
		id := strconv.FormatUint(uint64(a.Resource), 10)
		ch <- prometheus.MustNewConstMetric(c.arbiterFairness, prometheus.GaugeValue, a.Fairness, id, a.Policy.String())
		ch <- prometheus.MustNewConstMetric(c.arbiterGrants, prometheus.CounterValue, float64(a.TotalGrants), id)
	}
	for _, h := range s.Hotspots {
		ch <- prometheus.MustNewConstMetric(c.hotspotScore, prometheus.GaugeValue, h.Score, strconv.FormatUint(h.Key, 10))
	}
}
