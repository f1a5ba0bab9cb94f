package coord

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"kcoord/pkg/concurrency/arbiter"
	"kcoord/pkg/concurrency/batch"
	"kcoord/pkg/concurrency/futex"
	"kcoord/pkg/concurrency/lock"
	coorderr "kcoord/pkg/error"
	"kcoord/pkg/primitives"
)

// StressOptions sizes a stress run.
type StressOptions struct {
	Workers int
	Ops     int
	// Locks is the number of shared locks and arbitrated resources.
	Locks int
	// Addresses is the number of shared futex addresses.
	Addresses int
}

func (o StressOptions) withDefaults() StressOptions {
	if o.Workers <= 0 {
		o.Workers = 8
	}
	if o.Ops <= 0 {
		o.Ops = 1000
	}
	if o.Locks <= 0 {
		o.Locks = 4
	}
	if o.Addresses <= 0 {
		o.Addresses = 16
	}
	return o
}

// StressReport summarizes a stress run.
type StressReport struct {
	Options      StressOptions
	Acquired     uint64
	Contended    uint64
	Woken        uint64
	Arbitrations uint64
	Committed    uint64
	Elapsed      time.Duration
	Snapshot     Snapshot
}

// stressState is only touched inside the Coordinator's critical section.
type stressState struct {
	now       primitives.Tick
	owners    map[primitives.LockID]primitives.RequesterID
	nextGroup primitives.GroupID
	report    StressReport
}

func (s *stressState) tick() primitives.Tick {
	s.now++
	return s.now
}

func violation(format string, args ...any) error {
	return coorderr.Newf(coorderr.ErrCategoryConcurrency, coorderr.CodeInvariantViolated, format, args...)
}

// RunStress drives the Coordinator from opts.Workers goroutines doing lock,
// futex, arbiter and batch cycles, and checks mutual exclusion, wait/wake
// conservation and exactly-once group resolution along the way.
func RunStress(ctx context.Context, c *Coordinator, opts StressOptions) (StressReport, error) {
	opts = opts.withDefaults()
	st := &stressState{owners: make(map[primitives.LockID]primitives.RequesterID)}
	st.report.Options = opts

	c.Do(func(m Managers) {
		for i := 1; i <= opts.Locks; i++ {
			m.Locks.Create(primitives.LockID(i), lock.Adaptive)
			m.Arbiter.Create(primitives.ResourceID(i), arbiter.RoundRobin)
		}
	})

	c.logger.Info("stress run starting", "workers", opts.Workers, "ops", opts.Ops)
	start := time.Now()

	g, ctx := errgroup.WithContext(ctx)
	for w := range opts.Workers {
		me := primitives.RequesterID(w + 1)
		g.Go(func() error {
			return stressWorker(ctx, c, st, opts, me)
		})
	}
	err := g.Wait()
	st.report.Elapsed = time.Since(start)
	if err != nil {
		return st.report, err
	}

	c.Locks(func(m *lock.LockManager) { m.AdaptAll() })
	st.report.Snapshot = c.Snapshot()

	fs := st.report.Snapshot.Futex
	if fs.TotalWaits != fs.TotalWakes+uint64(fs.ActiveWaiters) {
		return st.report, violation("futex waits %d != wakes %d + blocked %d",
			fs.TotalWaits, fs.TotalWakes, fs.ActiveWaiters)
	}

	c.logger.Info("stress run finished", "elapsed", st.report.Elapsed,
		"acquired", st.report.Acquired, "contended", st.report.Contended)
	return st.report, nil
}

func stressWorker(ctx context.Context, c *Coordinator, st *stressState, opts StressOptions, me primitives.RequesterID) error {
	var held primitives.LockID
	for i := range opts.Ops {
		if err := ctx.Err(); err != nil {
			return err
		}

		var err error
		switch i % 4 {
		case 0:
			held, err = stressLock(c, st, opts, me, held, i)
		case 1:
			stressFutex(c, st, opts, me, i)
		case 2:
			err = stressArbiter(c, st, opts, me, i)
		case 3:
			err = stressBatch(c, st, me)
		}
		if err != nil {
			return err
		}
	}

	if held != 0 {
		_, err := stressLock(c, st, opts, me, held, 0)
		return err
	}
	return nil
}

// stressLock releases held if set, otherwise tries to take a lock.
func stressLock(c *Coordinator, st *stressState, opts StressOptions, me primitives.RequesterID, held primitives.LockID, i int) (primitives.LockID, error) {
	var err error
	c.Locks(func(m *lock.LockManager) {
		now := st.tick()
		if held != 0 {
			if st.owners[held] != me {
				err = violation("lock %d released by %d but shadow owner is %d", held, me, st.owners[held])
				return
			}
			delete(st.owners, held)
			m.Release(held, now)
			held = 0
			return
		}

		id := primitives.LockID((int(me)+i)%opts.Locks + 1)
		if !m.TryAcquire(id, me, now) {
			st.report.Contended++
			m.AddWaiter(id, me)
			return
		}
		if other, taken := st.owners[id]; taken {
			err = violation("lock %d acquired by %d while held by %d", id, me, other)
			return
		}
		st.owners[id] = me
		st.report.Acquired++
		held = id
	})
	return held, err
}

func stressFutex(c *Coordinator, st *stressState, opts StressOptions, me primitives.RequesterID, i int) {
	addr := primitives.Address(0x1000 + 8*((int(me)+i)%opts.Addresses))
	c.Futex(func(m *futex.Manager) {
		m.Wait(addr, 0, futex.BitsetMatchAny, me, st.tick())
	})
	c.Futex(func(m *futex.Manager) {
		st.report.Woken += uint64(m.Wake(addr, 1, futex.BitsetMatchAny, st.tick()))
		m.ReapTerminal()
	})
}

func stressArbiter(c *Coordinator, st *stressState, opts StressOptions, me primitives.RequesterID, i int) error {
	var err error
	resource := primitives.ResourceID((int(me)+i)%opts.Locks + 1)
	c.Arbiter(func(m *arbiter.Manager) {
		now := st.tick()
		m.AddContender(resource, arbiter.Request{Requester: me, Weight: 1}, now)
		winner, ok := m.Arbitrate(resource, now)
		if !ok {
			err = violation("resource %d has contenders but no winner", resource)
			return
		}
		ra, _ := m.Get(resource)
		if h, held := ra.Holder(); !held || h != winner {
			err = violation("resource %d holder %d does not match winner %d", resource, h, winner)
			return
		}
		st.report.Arbitrations++
		m.Release(resource)
		m.RemoveContender(resource, me)
	})
	return err
}

func stressBatch(c *Coordinator, st *stressState, me primitives.RequesterID) error {
	var err error
	c.Batch(func(m *batch.GroupManager) {
		st.nextGroup++
		id := st.nextGroup
		now := st.tick()
		m.Create(id, batch.AnyComplete, 1, 0, now)
		m.AddParticipant(id, me, now)
		m.SignalReady(id, me, int64(me), now)
		if !m.TryResolve(id, now) {
			err = violation("group %d did not commit with its only participant ready", id)
			return
		}
		if m.TryResolve(id, now) {
			err = violation("group %d resolved twice", id)
			return
		}
		st.report.Committed++
		m.ReapResolved()
	})
	return err
}
