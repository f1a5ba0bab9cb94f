package arbiter

import (
	"math"
	"testing"

	"kcoord/pkg/primitives"
)

func newArbiter(t *testing.T, resource primitives.ResourceID, policy Policy, reqs ...Request) *ResourceArbiter {
	t.Helper()
	ra := NewResourceArbiter(resource, policy)
	for _, req := range reqs {
		if !ra.AddContender(req, 0) {
			t.Fatalf("AddContender(%d) failed", req.Requester)
		}
	}
	return ra
}

func winners(ra *ResourceArbiter, n int) []primitives.RequesterID {
	out := make([]primitives.RequesterID, 0, n)
	for i := range n {
		w, ok := ra.Arbitrate(primitives.Tick(i + 1))
		if !ok {
			return out
		}
		out = append(out, w)
	}
	return out
}

func TestArbitrateEmpty(t *testing.T) {
	for _, p := range Policies() {
		ra := NewResourceArbiter(1, p)
		if _, ok := ra.Arbitrate(10); ok {
			t.Errorf("%v: arbitration with no contenders returned a winner", p)
		}
		if ra.Stats().Arbitrations != 0 {
			t.Errorf("%v: empty arbitration was counted", p)
		}
	}
}

func TestRoundRobinExactCycle(t *testing.T) {
	ra := newArbiter(t, 1, RoundRobin,
		Request{Requester: 1}, Request{Requester: 2}, Request{Requester: 3})

	got := winners(ra, 5)
	want := []primitives.RequesterID{1, 2, 3, 1, 2}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("winners = %v, want %v", got, want)
		}
	}
}

func TestRoundRobinAfterRemoval(t *testing.T) {
	ra := newArbiter(t, 1, RoundRobin,
		Request{Requester: 1}, Request{Requester: 2}, Request{Requester: 3})
	winners(ra, 2)
	ra.RemoveContender(3)

	// cursor was at index 2; with two contenders it wraps to the first
	if w, _ := ra.Arbitrate(10); w != 1 {
		t.Errorf("winner = %d, want 1", w)
	}
}

func TestHighestPriority(t *testing.T) {
	ra := newArbiter(t, 1, HighestPriority,
		Request{Requester: 1, Priority: 5},
		Request{Requester: 2, Priority: 9},
		Request{Requester: 3, Priority: 9})

	for _, w := range winners(ra, 3) {
		if w != 2 {
			t.Fatalf("winner = %d, want 2 (first registered of the tied maximum)", w)
		}
	}
	if ra.Stats().Preemptions != 0 {
		t.Error("same winner should not count preemptions")
	}

	ra.SetPriority(1, 10)
	if w, _ := ra.Arbitrate(10); w != 1 {
		t.Errorf("after SetPriority winner = %d, want 1", w)
	}
	if ra.Stats().Preemptions != 1 {
		t.Errorf("Preemptions = %d, want 1", ra.Stats().Preemptions)
	}
}

func TestFairShare(t *testing.T) {
	ra := newArbiter(t, 1, FairShare,
		Request{Requester: 1}, Request{Requester: 2}, Request{Requester: 3})

	got := winners(ra, 6)
	want := []primitives.RequesterID{1, 2, 3, 1, 2, 3}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("winners = %v, want %v", got, want)
		}
	}
	if f := ra.FairnessIndex(); f != 1.0 {
		t.Errorf("FairnessIndex() = %v, want 1", f)
	}

	ra.AddContender(Request{Requester: 4}, 10)
	if w, _ := ra.Arbitrate(11); w != 4 {
		t.Errorf("newcomer with no grants should win, got %d", w)
	}
}

func TestWeightedFairConservation(t *testing.T) {
	ra := newArbiter(t, 1, WeightedFair,
		Request{Requester: 1, Weight: 1},
		Request{Requester: 2, Weight: 3})

	counts := map[primitives.RequesterID]int{}
	for _, w := range winners(ra, 4000) {
		counts[w]++
	}

	ratio := float64(counts[2]) / float64(counts[1])
	if ratio < 2.7 || ratio > 3.3 {
		t.Errorf("grant ratio B/A = %.3f (%d/%d), want about 3", ratio, counts[2], counts[1])
	}
}

func TestWeightedFairSeedDeterministic(t *testing.T) {
	reqs := []Request{
		{Requester: 1, Weight: 2},
		{Requester: 2, Weight: 5},
		{Requester: 3, Weight: 1},
	}
	a := winners(newArbiter(t, 99, WeightedFair, reqs...), 200)
	b := winners(newArbiter(t, 99, WeightedFair, reqs...), 200)

	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("sequences diverged at call %d", i)
		}
	}
}

func TestWeightedFairZeroWeight(t *testing.T) {
	ra := newArbiter(t, 1, WeightedFair,
		Request{Requester: 7}, Request{Requester: 8})

	for _, w := range winners(ra, 3) {
		if w != 7 {
			t.Fatalf("zero total weight should pick the first contender, got %d", w)
		}
	}
}

func TestLotteryUsesTickets(t *testing.T) {
	ra := newArbiter(t, 3, Lottery,
		Request{Requester: 1, Weight: 10},
		Request{Requester: 2, Weight: 10})

	if c := ra.Contenders()[0]; c.Tickets != 10 {
		t.Fatalf("tickets should default to weight, got %d", c.Tickets)
	}

	ra.SetTickets(1, 0)
	for _, w := range winners(ra, 50) {
		if w != 2 {
			t.Fatalf("contender without tickets won")
		}
	}
	if c := ra.Contenders()[0]; c.Weight != 10 {
		t.Error("SetTickets changed weight")
	}
}

func TestEarliestDeadline(t *testing.T) {
	ra := newArbiter(t, 1, EarliestDeadline,
		Request{Requester: 1},
		Request{Requester: 2, Deadline: 50},
		Request{Requester: 3, Deadline: 20})

	if w, _ := ra.Arbitrate(1); w != 3 {
		t.Errorf("winner = %d, want 3", w)
	}

	ra.SetDeadline(2, 0)
	ra.SetDeadline(3, 0)
	if w, _ := ra.Arbitrate(2); w != 1 {
		t.Errorf("without deadlines winner = %d, want first registered", w)
	}
}

func TestArbitrateBookkeeping(t *testing.T) {
	ra := NewResourceArbiter(5, RoundRobin)
	ra.AddContender(Request{Requester: 1}, 0)
	ra.AddContender(Request{Requester: 2}, 4)

	ra.Arbitrate(10)
	ra.Arbitrate(15)

	cs := ra.Contenders()
	if cs[0].WaitTicks != 15 || cs[1].WaitTicks != 11 {
		t.Errorf("wait ticks = %d, %d; want 15, 11", cs[0].WaitTicks, cs[1].WaitTicks)
	}
	for _, c := range cs {
		if c.Granted != 1 || c.Denied != 1 {
			t.Errorf("contender %d granted/denied = %d/%d", c.Requester, c.Granted, c.Denied)
		}
		if c.RequestTime != 15 {
			t.Errorf("contender %d request time = %d, want 15", c.Requester, c.RequestTime)
		}
	}

	s := ra.Stats()
	if s.Arbitrations != 2 || s.Preemptions != 1 {
		t.Errorf("arbitrations/preemptions = %d/%d, want 2/1", s.Arbitrations, s.Preemptions)
	}
	if s.TotalGrants != 2 {
		t.Errorf("TotalGrants = %d, want 2", s.TotalGrants)
	}
}

func TestHolderLifecycle(t *testing.T) {
	ra := newArbiter(t, 1, HighestPriority,
		Request{Requester: 1, Priority: 1}, Request{Requester: 2, Priority: 2})

	if _, held := ra.Holder(); held {
		t.Fatal("fresh arbiter has a holder")
	}
	ra.Arbitrate(1)
	if h, held := ra.Holder(); !held || h != 2 {
		t.Fatalf("Holder() = %d, %v", h, held)
	}

	if !ra.Release() {
		t.Error("Release should report a holder")
	}
	if ra.Release() {
		t.Error("second Release should report none")
	}

	ra.Arbitrate(2)
	ra.RemoveContender(2)
	if _, held := ra.Holder(); held {
		t.Error("removing the holder should clear it")
	}
	// the holder is gone, so the next winner is not a preemption
	ra.Arbitrate(3)
	if ra.Stats().Preemptions != 0 {
		t.Errorf("Preemptions = %d, want 0", ra.Stats().Preemptions)
	}
}

func TestAddContenderDuplicate(t *testing.T) {
	ra := newArbiter(t, 1, RoundRobin, Request{Requester: 1})
	if ra.AddContender(Request{Requester: 1, Priority: 9}, 5) {
		t.Error("duplicate contender accepted")
	}
	if ra.RemoveContender(42) || ra.SetPriority(42, 1) || ra.SetTickets(42, 1) || ra.SetDeadline(42, 1) {
		t.Error("operations on unknown requester should fail")
	}
}

func TestFairnessIndexSkewed(t *testing.T) {
	ra := newArbiter(t, 1, HighestPriority,
		Request{Requester: 1}, Request{Requester: 2, Priority: 1}, Request{Requester: 3})
	winners(ra, 3)

	if f := ra.FairnessIndex(); math.Abs(f-1.0/3) > 1e-9 {
		t.Errorf("FairnessIndex() = %v, want 1/3", f)
	}
}

func BenchmarkArbitrate(b *testing.B) {
	for _, policy := range Policies() {
		b.Run(policy.String(), func(b *testing.B) {
			ra := NewResourceArbiter(7, policy)
			for r := range 16 {
				ra.AddContender(Request{
					Requester: primitives.RequesterID(r + 1),
					Priority:  uint32(r % 4),
					Weight:    uint32(r + 1),
					Deadline:  primitives.Tick(100 + r),
				}, 0)
			}

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				ra.Arbitrate(primitives.Tick(i))
			}
		})
	}
}
