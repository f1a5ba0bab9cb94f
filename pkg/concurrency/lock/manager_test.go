package lock

import (
	"testing"

	"kcoord/pkg/primitives"
)

func TestNewLockManager(t *testing.T) {
	lm := NewLockManager(Options{})

	if lm == nil {
		t.Fatal("NewLockManager() returned nil")
	}
	if lm.locks == nil {
		t.Error("locks map not initialized")
	}
	if lm.presets != DefaultPresets() {
		t.Error("zero presets should fall back to defaults")
	}
}

func TestLockManagerCreateDestroy(t *testing.T) {
	lm := NewLockManager(Options{DefaultStrategy: Hybrid})

	if !lm.CreateDefault(1) {
		t.Fatal("CreateDefault failed")
	}
	if lm.Create(1, SpinOnly) {
		t.Error("duplicate Create should fail")
	}

	l, ok := lm.Get(1)
	if !ok || l.Strategy() != Hybrid {
		t.Fatalf("Get(1) = %v, %v", l, ok)
	}

	if !lm.Destroy(1) {
		t.Error("Destroy failed")
	}
	if lm.Destroy(1) {
		t.Error("second Destroy should fail")
	}
}

func TestLockManagerUnknownIDs(t *testing.T) {
	lm := NewLockManager(Options{})
	const missing primitives.LockID = 42

	if lm.TryAcquire(missing, 1, 0) {
		t.Error("TryAcquire on unknown lock succeeded")
	}
	if _, ok := lm.Release(missing, 0); ok {
		t.Error("Release on unknown lock nominated")
	}
	if lm.AddWaiter(missing, 1) || lm.RemoveWaiter(missing, 1) {
		t.Error("waiter operations on unknown lock succeeded")
	}
	if _, ok := lm.ContentionLevel(missing); ok {
		t.Error("ContentionLevel on unknown lock reported ok")
	}
	if _, ok := lm.AdaptStrategy(missing); ok {
		t.Error("AdaptStrategy on unknown lock reported ok")
	}
}

func TestLockManagerHandOff(t *testing.T) {
	lm := NewLockManager(Options{})
	lm.Create(7, Adaptive)

	lm.TryAcquire(7, 1, 0)
	lm.AddWaiter(7, 2)

	next, ok := lm.Release(7, 10)
	if !ok || next != 2 {
		t.Fatalf("Release nominated %d, %v", next, ok)
	}
	if !lm.TryAcquire(7, next, 11) {
		t.Error("nominee could not acquire")
	}
}

func TestLockManagerAdaptAll(t *testing.T) {
	lm := NewLockManager(Options{})
	lm.Create(1, Adaptive)
	lm.Create(2, Adaptive)
	lm.Create(3, Hybrid)

	for _, id := range []primitives.LockID{1, 3} {
		lm.TryAcquire(id, 1, 0)
		lm.TryAcquire(id, 2, 1)
	}

	if n := lm.AdaptAll(); n != 1 {
		t.Errorf("AdaptAll changed %d locks, want 1", n)
	}
}

func TestLockManagerDeadlockHints(t *testing.T) {
	lm := NewLockManager(Options{})
	lm.Create(1, Hybrid)
	lm.Create(2, Hybrid)

	lm.TryAcquire(1, 10, 0)
	lm.TryAcquire(2, 20, 0)
	lm.AddWaiter(1, 20)
	if hints := lm.DeadlockHints(); len(hints) != 0 {
		t.Fatalf("no cycle yet, got %v", hints)
	}

	lm.AddWaiter(2, 10)
	hints := lm.DeadlockHints()
	if len(hints) != 1 || len(hints[0]) != 2 {
		t.Fatalf("expected one 2-party cycle, got %v", hints)
	}
}

func TestLockManagerStats(t *testing.T) {
	lm := NewLockManager(Options{})
	lm.Create(1, Adaptive)
	lm.Create(2, Adaptive)

	lm.TryAcquire(1, 1, 0)
	lm.TryAcquire(1, 2, 2)
	lm.Release(1, 10)
	lm.TryAcquire(1, 2, 12)
	lm.TryAcquire(2, 3, 0)
	lm.Release(2, 30)

	s := lm.Stats()
	if s.Locks != 2 || s.Held != 1 {
		t.Errorf("Locks/Held = %d/%d, want 2/1", s.Locks, s.Held)
	}
	if s.TotalAcquisitions != 3 || s.TotalContentions != 1 {
		t.Errorf("acquisitions/contentions = %d/%d", s.TotalAcquisitions, s.TotalContentions)
	}
	// completed holds: 10 and 30
	if s.AvgHoldTicks != 20 {
		t.Errorf("AvgHoldTicks = %v, want 20", s.AvgHoldTicks)
	}
	if s.MaxHoldTicks != 30 {
		t.Errorf("MaxHoldTicks = %d, want 30", s.MaxHoldTicks)
	}
	if s.AvgWaitTicks != 10 {
		t.Errorf("AvgWaitTicks = %v, want 10", s.AvgWaitTicks)
	}
	counted := 0
	for _, n := range s.ByLevel {
		counted += n
	}
	if counted != 2 {
		t.Errorf("ByLevel counts %d locks, want 2", counted)
	}
}

func TestParseStrategy(t *testing.T) {
	for _, s := range []Strategy{SpinOnly, SleepOnly, Hybrid, Adaptive} {
		got, err := ParseStrategy(s.String())
		if err != nil || got != s {
			t.Errorf("ParseStrategy(%q) = %v, %v", s.String(), got, err)
		}
	}
	if _, err := ParseStrategy("ticket"); err == nil {
		t.Error("unknown strategy should fail")
	}
}
