// Package coord puts the four coordination managers behind one mutex so
// that Go callers on many goroutines get the exclusive-execution discipline
// the managers require.
package coord

import (
	"log/slog"
	"sync"

	"kcoord/pkg/concurrency/arbiter"
	"kcoord/pkg/concurrency/batch"
	"kcoord/pkg/concurrency/futex"
	"kcoord/pkg/concurrency/lock"
	"kcoord/pkg/config"
	"kcoord/pkg/logging"
)

// Coordinator owns one of each manager. Every accessor runs its callback
// inside the same critical section; callbacks must not retain the manager
// or call back into the Coordinator.
type Coordinator struct {
	mu      sync.Mutex
	futex   *futex.Manager
	locks   *lock.LockManager
	arbiter *arbiter.Manager
	batch   *batch.GroupManager
	logger  *slog.Logger
}

// New builds a Coordinator from a validated configuration. A nil cfg uses
// config.Default.
func New(cfg *config.Config, logger *slog.Logger) *Coordinator {
	if cfg == nil {
		cfg = config.Default()
	}
	logger = logging.OrDiscard(logger)

	fo := cfg.FutexOptions()
	fo.Logger = logger
	lo := cfg.LockOptions()
	lo.Logger = logger
	ao := cfg.ArbiterOptions()
	ao.Logger = logger
	bo := cfg.BatchOptions()
	bo.Logger = logger

	return &Coordinator{
		futex:   futex.NewManager(fo),
		locks:   lock.NewLockManager(lo),
		arbiter: arbiter.NewManager(ao),
		batch:   batch.NewGroupManager(bo),
		logger:  logger.With("component", "coord"),
	}
}

// Futex runs fn with exclusive access to the futex manager.
func (c *Coordinator) Futex(fn func(m *futex.Manager)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(c.futex)
}

// Locks runs fn with exclusive access to the lock manager.
func (c *Coordinator) Locks(fn func(m *lock.LockManager)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(c.locks)
}

// Arbiter runs fn with exclusive access to the arbiter manager.
func (c *Coordinator) Arbiter(fn func(m *arbiter.Manager)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(c.arbiter)
}

// Batch runs fn with exclusive access to the group manager.
func (c *Coordinator) Batch(fn func(m *batch.GroupManager)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(c.batch)
}

// Managers is the full set handed to Do.
type Managers struct {
	Futex   *futex.Manager
	Locks   *lock.LockManager
	Arbiter *arbiter.Manager
	Batch   *batch.GroupManager
}

// Do runs fn with exclusive access to every manager, for callers that need
// several primitives to change atomically together.
func (c *Coordinator) Do(fn func(m Managers)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(Managers{Futex: c.futex, Locks: c.locks, Arbiter: c.arbiter, Batch: c.batch})
}
