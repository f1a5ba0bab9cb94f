package lock

import (
	"fmt"

	"kcoord/pkg/primitives"
)

// LockState is the externally visible state of an adaptive lock.
type LockState int

const (
	Unlocked LockState = iota
	SpinLocked
	SleepLocked
	Upgrading
)

func (s LockState) String() string {
	switch s {
	case Unlocked:
		return "unlocked"
	case SpinLocked:
		return "spin_locked"
	case SleepLocked:
		return "sleep_locked"
	case Upgrading:
		return "upgrading"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// AdaptiveLock is a single mutual-exclusion lock that tracks its own
// contention. The owner is set exactly when the state is not Unlocked.
type AdaptiveLock struct {
	ID       primitives.LockID
	strategy Strategy
	state    LockState
	owner    primitives.RequesterID
	queue    *WaitQueue

	presets Presets
	preset  PresetName
	params  SpinParams

	acquiredAt       primitives.Tick
	acquireCount     uint64
	contentionEvents uint64
	totalHold        uint64
	maxHold          uint64
	totalWait        uint64
	waitSamples      uint64

	// waitStart records the first failed attempt of each requester still
	// trying to get the lock.
	waitStart map[primitives.RequesterID]primitives.Tick
}

// NewAdaptiveLock creates an unlocked lock using the given presets.
func NewAdaptiveLock(id primitives.LockID, strategy Strategy, presets Presets) *AdaptiveLock {
	preset := initialPreset(strategy)
	return &AdaptiveLock{
		ID:        id,
		strategy:  strategy,
		state:     Unlocked,
		queue:     NewWaitQueue(),
		presets:   presets,
		preset:    preset,
		params:    presets.Get(preset),
		waitStart: make(map[primitives.RequesterID]primitives.Tick),
	}
}

// TryAcquire takes the lock for requester if it is Unlocked. On failure it
// counts a contention event and returns false; the caller chooses whether to
// spin or to queue.
func (l *AdaptiveLock) TryAcquire(r primitives.RequesterID, now primitives.Tick) bool {
	if l.state != Unlocked {
		l.contentionEvents++
		if r != l.owner {
			if _, waiting := l.waitStart[r]; !waiting {
				l.waitStart[r] = now
			}
		}
		if l.state == SpinLocked && (l.strategy == Hybrid || l.strategy == Adaptive) {
			l.state = Upgrading
		}
		return false
	}

	l.owner = r
	l.state = SpinLocked
	l.acquireCount++
	l.acquiredAt = now

	if start, waiting := l.waitStart[r]; waiting {
		l.totalWait += uint64(now.Since(start))
		l.waitSamples++
		delete(l.waitStart, r)
	}
	l.queue.Remove(r)
	return true
}

// Release unlocks the lock, records the hold time, and nominates the head of
// the waiter queue as the next owner. The nominee is not granted the lock;
// the caller hands it over. Releasing an unlocked lock does nothing.
func (l *AdaptiveLock) Release(now primitives.Tick) (primitives.RequesterID, bool) {
	if l.state == Unlocked {
		return 0, false
	}

	hold := uint64(now.Since(l.acquiredAt))
	l.totalHold += hold
	l.maxHold = max(l.maxHold, hold)

	l.owner = 0
	l.state = Unlocked

	return l.queue.Pop()
}

// AddWaiter appends requester to the FIFO waiter queue. Requesters already
// queued, and the current owner, are not added again. Queueing behind a held
// lock makes it a sleep lock unless the strategy is SpinOnly.
func (l *AdaptiveLock) AddWaiter(r primitives.RequesterID) bool {
	if l.state != Unlocked && r == l.owner {
		return false
	}
	if !l.queue.Add(r) {
		return false
	}

	if l.strategy != SpinOnly && (l.state == SpinLocked || l.state == Upgrading) {
		l.state = SleepLocked
	}
	return true
}

// RemoveWaiter withdraws requester from the queue and forgets its wait clock.
func (l *AdaptiveLock) RemoveWaiter(r primitives.RequesterID) bool {
	delete(l.waitStart, r)
	return l.queue.Remove(r)
}

// ContentionLevel classifies the lock's accumulated counters.
func (l *AdaptiveLock) ContentionLevel() ContentionLevel {
	return LevelFor(l.contentionEvents, l.acquireCount)
}

// AdaptStrategy switches the spin preset to match the current contention
// level. It only acts under the Adaptive strategy and reports whether the
// preset changed. Queued waiters are unaffected.
func (l *AdaptiveLock) AdaptStrategy() (PresetName, bool) {
	if l.strategy != Adaptive {
		return l.preset, false
	}

	next := PresetForLevel(l.ContentionLevel())
	if next == l.preset {
		return next, false
	}
	l.preset = next
	l.params = l.presets.Get(next)
	return next, true
}

// RecommendWait tells a caller whose TryAcquire failed whether to spin or
// to queue and sleep.
func (l *AdaptiveLock) RecommendWait() WaitMode {
	switch l.strategy {
	case SpinOnly:
		return WaitSpin
	case SleepOnly:
		return WaitSleep
	case Hybrid:
		if l.state == SleepLocked || l.queue.Len() > 0 {
			return WaitSleep
		}
		return WaitSpin
	default:
		if l.state == SleepLocked || l.ContentionLevel() >= ContentionHigh {
			return WaitSleep
		}
		return WaitSpin
	}
}

// Owner returns the current owner, if any.
func (l *AdaptiveLock) Owner() (primitives.RequesterID, bool) {
	return l.owner, l.state != Unlocked
}

// State returns the lock state.
func (l *AdaptiveLock) State() LockState { return l.state }

// Strategy returns the configured strategy.
func (l *AdaptiveLock) Strategy() Strategy { return l.strategy }

// Params returns the live spin parameters.
func (l *AdaptiveLock) Params() SpinParams { return l.params }

// Preset returns the name of the live spin preset.
func (l *AdaptiveLock) Preset() PresetName { return l.preset }

// Waiters returns the queued requesters in FIFO order.
func (l *AdaptiveLock) Waiters() []primitives.RequesterID {
	return l.queue.Requesters()
}

// LockStats is a point-in-time view of one lock's counters.
type LockStats struct {
	ID               primitives.LockID
	State            LockState
	Strategy         Strategy
	Preset           PresetName
	Owner            primitives.RequesterID
	Held             bool
	Waiters          int
	AcquireCount     uint64
	ContentionEvents uint64
	TotalHoldTicks   uint64
	MaxHoldTicks     uint64
	AvgHoldTicks     float64
	TotalWaitTicks   uint64
	AvgWaitTicks     float64
	Level            ContentionLevel
}

// Stats returns a snapshot of the lock's counters. Average hold time covers
// completed holds only.
func (l *AdaptiveLock) Stats() LockStats {
	s := LockStats{
		ID:               l.ID,
		State:            l.state,
		Strategy:         l.strategy,
		Preset:           l.preset,
		Owner:            l.owner,
		Held:             l.state != Unlocked,
		Waiters:          l.queue.Len(),
		AcquireCount:     l.acquireCount,
		ContentionEvents: l.contentionEvents,
		TotalHoldTicks:   l.totalHold,
		MaxHoldTicks:     l.maxHold,
		TotalWaitTicks:   l.totalWait,
		Level:            l.ContentionLevel(),
	}

	releases := l.acquireCount
	if s.Held {
		releases--
	}
	if releases > 0 {
		s.AvgHoldTicks = float64(l.totalHold) / float64(releases)
	}
	if l.waitSamples > 0 {
		s.AvgWaitTicks = float64(l.totalWait) / float64(l.waitSamples)
	}
	return s
}
