package lock

import (
	"log/slog"
	"slices"

	"kcoord/pkg/logging"
	"kcoord/pkg/primitives"
)

// Options configures a LockManager.
type Options struct {
	DefaultStrategy Strategy
	Presets         Presets
	Logger          *slog.Logger
}

// LockManager owns adaptive locks keyed by id. Operations on unknown ids
// are permissive no-ops returning zero values.
type LockManager struct {
	locks    map[primitives.LockID]*AdaptiveLock
	strategy Strategy
	presets  Presets
	logger   *slog.Logger
}

// NewLockManager creates an empty manager. A zero Presets value selects
// DefaultPresets.
func NewLockManager(opts Options) *LockManager {
	presets := opts.Presets
	if presets == (Presets{}) {
		presets = DefaultPresets()
	}
	return &LockManager{
		locks:    make(map[primitives.LockID]*AdaptiveLock),
		strategy: opts.DefaultStrategy,
		presets:  presets,
		logger:   logging.OrDiscard(opts.Logger).With("component", "lock"),
	}
}

// Create registers a new unlocked lock. It returns false if id is taken.
func (lm *LockManager) Create(id primitives.LockID, strategy Strategy) bool {
	if _, exists := lm.locks[id]; exists {
		return false
	}
	lm.locks[id] = NewAdaptiveLock(id, strategy, lm.presets)
	lm.logger.Debug("lock created", "lock_id", uint64(id), "strategy", strategy.String())
	return true
}

// CreateDefault registers a new lock with the manager's default strategy.
func (lm *LockManager) CreateDefault(id primitives.LockID) bool {
	return lm.Create(id, lm.strategy)
}

// Destroy forgets a lock, whatever its state.
func (lm *LockManager) Destroy(id primitives.LockID) bool {
	if _, exists := lm.locks[id]; !exists {
		return false
	}
	delete(lm.locks, id)
	return true
}

// Get returns the lock behind id.
func (lm *LockManager) Get(id primitives.LockID) (*AdaptiveLock, bool) {
	l, ok := lm.locks[id]
	return l, ok
}

// TryAcquire attempts to take lock id for requester.
func (lm *LockManager) TryAcquire(id primitives.LockID, r primitives.RequesterID, now primitives.Tick) bool {
	l, ok := lm.locks[id]
	if !ok {
		return false
	}
	return l.TryAcquire(r, now)
}

// Release unlocks lock id and returns the nominated next owner, if any.
func (lm *LockManager) Release(id primitives.LockID, now primitives.Tick) (primitives.RequesterID, bool) {
	l, ok := lm.locks[id]
	if !ok {
		return 0, false
	}

	next, nominated := l.Release(now)
	if nominated {
		lm.logger.Debug("next owner nominated", "lock_id", uint64(id), "requester", uint64(next))
	}
	return next, nominated
}

// AddWaiter queues requester on lock id.
func (lm *LockManager) AddWaiter(id primitives.LockID, r primitives.RequesterID) bool {
	l, ok := lm.locks[id]
	if !ok {
		return false
	}
	return l.AddWaiter(r)
}

// RemoveWaiter withdraws requester from lock id's queue.
func (lm *LockManager) RemoveWaiter(id primitives.LockID, r primitives.RequesterID) bool {
	l, ok := lm.locks[id]
	if !ok {
		return false
	}
	return l.RemoveWaiter(r)
}

// ContentionLevel returns the contention level of lock id.
func (lm *LockManager) ContentionLevel(id primitives.LockID) (ContentionLevel, bool) {
	l, ok := lm.locks[id]
	if !ok {
		return ContentionNone, false
	}
	return l.ContentionLevel(), true
}

// AdaptStrategy re-evaluates the spin preset of lock id.
func (lm *LockManager) AdaptStrategy(id primitives.LockID) (PresetName, bool) {
	l, ok := lm.locks[id]
	if !ok {
		return "", false
	}

	preset, changed := l.AdaptStrategy()
	if changed {
		lm.logger.Debug("spin preset changed", "lock_id", uint64(id), "preset", string(preset),
			"level", l.ContentionLevel().String())
	}
	return preset, changed
}

// AdaptAll re-evaluates every Adaptive lock and returns how many changed preset.
func (lm *LockManager) AdaptAll() int {
	changed := 0
	for _, id := range lm.IDs() {
		if _, ok := lm.AdaptStrategy(id); ok {
			changed++
		}
	}
	return changed
}

// IDs returns the registered lock ids in ascending order.
func (lm *LockManager) IDs() []primitives.LockID {
	ids := make([]primitives.LockID, 0, len(lm.locks))
	for id := range lm.locks {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// DeadlockHints builds the wait-for graph from every lock's queue and owner
// and returns its cycles.
func (lm *LockManager) DeadlockHints() [][]primitives.RequesterID {
	graph := NewDependencyGraph()
	for _, l := range lm.locks {
		owner, held := l.Owner()
		if !held {
			continue
		}
		for _, w := range l.Waiters() {
			graph.AddEdge(w, owner)
		}
	}
	return graph.Cycles()
}

// ManagerStats aggregates counters across all locks.
type ManagerStats struct {
	Locks             int
	Held              int
	Waiters           int
	TotalAcquisitions uint64
	TotalContentions  uint64
	AvgHoldTicks      float64
	AvgWaitTicks      float64
	MaxHoldTicks      uint64
	ByLevel           map[ContentionLevel]int
}

// Stats returns aggregated counters across all locks.
func (lm *LockManager) Stats() ManagerStats {
	s := ManagerStats{
		Locks:   len(lm.locks),
		ByLevel: make(map[ContentionLevel]int),
	}

	var holdTicks, releases, waitTicks, waitSamples uint64
	for _, l := range lm.locks {
		ls := l.Stats()
		if ls.Held {
			s.Held++
		}
		s.Waiters += ls.Waiters
		s.TotalAcquisitions += ls.AcquireCount
		s.TotalContentions += ls.ContentionEvents
		s.MaxHoldTicks = max(s.MaxHoldTicks, ls.MaxHoldTicks)
		s.ByLevel[ls.Level]++

		holdTicks += l.totalHold
		releases += l.acquireCount
		if ls.Held {
			releases--
		}
		waitTicks += l.totalWait
		waitSamples += l.waitSamples
	}

	if releases > 0 {
		s.AvgHoldTicks = float64(holdTicks) / float64(releases)
	}
	if waitSamples > 0 {
		s.AvgWaitTicks = float64(waitTicks) / float64(waitSamples)
	}
	return s
}
