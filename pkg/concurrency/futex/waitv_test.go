package futex

import "testing"

func TestWaitMultiFirstWakeWins(t *testing.T) {
	m := NewManager(Options{})
	ids := m.WaitMulti([]WaitEntry{
		{Address: 0x1, Bitset: BitsetMatchAny},
		{Address: 0x2, Bitset: BitsetMatchAny},
		{Address: 0x3, Bitset: BitsetMatchAny},
	}, 7, 0)
	if len(ids) != 3 {
		t.Fatalf("WaitMulti returned %d handles", len(ids))
	}
	if m.WokenIndex(ids) != -1 {
		t.Error("nothing woken yet")
	}

	if n := m.Wake(0x2, 1, BitsetMatchAny, 5); n != 1 {
		t.Fatalf("Wake woke %d", n)
	}
	if i := m.WokenIndex(ids); i != 1 {
		t.Errorf("WokenIndex = %d, want 1", i)
	}
	for _, i := range []int{0, 2} {
		if w, _ := m.Waiter(ids[i]); w.State != Cancelled || w.WokenAt != 5 {
			t.Errorf("sibling %d = %v at %d, want cancelled at 5", i, w.State, w.WokenAt)
		}
	}
	if m.WaiterCount(0x1) != 0 || m.WaiterCount(0x3) != 0 {
		t.Error("siblings still queued")
	}
	if m.Wake(0x1, 1, BitsetMatchAny, 6) != 0 {
		t.Error("withdrawn sibling woke")
	}

	s := m.Stats()
	if s.WaitvOps != 1 || s.TotalWaits != 3 || s.TotalWakes != 1 || s.TotalCancels != 2 {
		t.Errorf("unexpected counters: %+v", s)
	}
}

func TestWaitMultiSameAddressWakesOnce(t *testing.T) {
	m := NewManager(Options{})
	ids := m.WaitMulti([]WaitEntry{
		{Address: 0x1, Bitset: BitsetMatchAny},
		{Address: 0x1, Bitset: BitsetMatchAny},
	}, 7, 0)

	if n := m.Wake(0x1, 2, BitsetMatchAny, 3); n != 1 {
		t.Errorf("Wake woke %d, want 1", n)
	}
	if m.WokenIndex(ids) != 0 || m.WaiterCount(0x1) != 0 {
		t.Error("first entry should win and the second be withdrawn")
	}
}

func TestWaitMultiRejectsBadVectors(t *testing.T) {
	m := NewManager(Options{})
	if m.WaitMulti(nil, 1, 0) != nil {
		t.Error("empty vector should enqueue nothing")
	}
	if m.WaitMulti(make([]WaitEntry, MaxWaitv+1), 1, 0) != nil {
		t.Error("oversized vector should enqueue nothing")
	}
	if s := m.Stats(); s.TotalWaits != 0 || s.WaitvOps != 0 {
		t.Errorf("unexpected counters: %+v", s)
	}
}
