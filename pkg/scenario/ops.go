package scenario

import (
	"errors"

	"kcoord/pkg/concurrency/arbiter"
	"kcoord/pkg/concurrency/batch"
	"kcoord/pkg/concurrency/futex"
	"kcoord/pkg/concurrency/lock"
	"kcoord/pkg/coord"
	"kcoord/pkg/primitives"
)

// none is the result of a call that returned no id.
const none = "none"

// handler executes one step and returns its result as a plain value. It
// returns a non-nil error only for malformed arguments.
type handler func(m coord.Managers, st Step, now primitives.Tick) (any, error)

var handlers = map[string]handler{
	"futex.wait":         futexWait,
	"futex.wake":         futexWake,
	"futex.requeue":      futexRequeue,
	"futex.wake_requeue": futexWakeRequeue,
	"futex.tick":         futexTick,
	"futex.drain":        futexDrain,
	"futex.waitv":        futexWaitv,
	"futex.lock_pi":      futexLockPI,
	"futex.unlock_pi":    futexUnlockPI,

	"lock.create":      lockCreate,
	"lock.try_acquire": lockTryAcquire,
	"lock.release":     lockRelease,
	"lock.add_waiter":  lockAddWaiter,
	"lock.adapt":       lockAdapt,
	"lock.level":       lockLevel,

	"arbiter.create":    arbiterCreate,
	"arbiter.add":       arbiterAdd,
	"arbiter.remove":    arbiterRemove,
	"arbiter.arbitrate": arbiterArbitrate,
	"arbiter.release":   arbiterRelease,

	"batch.create":  batchCreate,
	"batch.add":     batchAdd,
	"batch.ready":   batchReady,
	"batch.resolve": batchResolve,
	"batch.timeout": batchTimeout,
}

func optionalID[T ~uint64](id T, ok bool) any {
	if !ok {
		return none
	}
	return uint64(id)
}

func (st Step) bitset() uint32 {
	if st.Bitset == nil {
		return futex.BitsetMatchAny
	}
	return *st.Bitset
}

func futexWait(m coord.Managers, st Step, now primitives.Tick) (any, error) {
	id := m.Futex.Wait(primitives.Address(st.Address), st.Expected, st.bitset(),
		primitives.RequesterID(st.Requester), now)
	return uint64(id), nil
}

func futexWake(m coord.Managers, st Step, now primitives.Tick) (any, error) {
	return m.Futex.Wake(primitives.Address(st.Address), st.count(), st.bitset(), now), nil
}

func futexRequeue(m coord.Managers, st Step, now primitives.Tick) (any, error) {
	return m.Futex.Requeue(primitives.Address(st.Address), primitives.Address(st.To), st.count(), now), nil
}

// futexWakeRequeue returns [woken requeued].
func futexWakeRequeue(m coord.Managers, st Step, now primitives.Tick) (any, error) {
	woken, requeued := m.Futex.WakeRequeue(primitives.Address(st.Address), primitives.Address(st.To),
		st.count(), st.Requeue, now)
	return []int{woken, requeued}, nil
}

// futexWaitv returns how many addresses the requester now waits on.
func futexWaitv(m coord.Managers, st Step, now primitives.Tick) (any, error) {
	if len(st.Addresses) == 0 {
		return nil, errors.New("futex.waitv needs addresses")
	}
	entries := make([]futex.WaitEntry, len(st.Addresses))
	for i, addr := range st.Addresses {
		entries[i] = futex.WaitEntry{Address: primitives.Address(addr), Expected: st.Expected, Bitset: st.bitset()}
	}
	return len(m.Futex.WaitMulti(entries, primitives.RequesterID(st.Requester), now)), nil
}

// futexLockPI reports whether the requester took the address.
func futexLockPI(m coord.Managers, st Step, now primitives.Tick) (any, error) {
	_, acquired := m.Futex.LockPI(primitives.Address(st.Address), primitives.RequesterID(st.Requester),
		int(st.Priority), now)
	return acquired, nil
}

// futexUnlockPI returns the new owner, none when the address is free, or
// false when the requester was not the owner.
func futexUnlockPI(m coord.Managers, st Step, now primitives.Tick) (any, error) {
	next, ok := m.Futex.UnlockPI(primitives.Address(st.Address), primitives.RequesterID(st.Requester), now)
	if !ok {
		return false, nil
	}
	return optionalID(next.Requester, next.ID != 0), nil
}

func futexTick(m coord.Managers, _ Step, now primitives.Tick) (any, error) {
	return m.Futex.TickTimeouts(now), nil
}

func futexDrain(m coord.Managers, st Step, now primitives.Tick) (any, error) {
	return m.Futex.Drain(primitives.Address(st.Address), now), nil
}

func lockCreate(m coord.Managers, st Step, _ primitives.Tick) (any, error) {
	id := primitives.LockID(st.Lock)
	if st.Strategy == "" {
		return m.Locks.CreateDefault(id), nil
	}
	strategy, err := lock.ParseStrategy(st.Strategy)
	if err != nil {
		return nil, err
	}
	return m.Locks.Create(id, strategy), nil
}

func lockTryAcquire(m coord.Managers, st Step, now primitives.Tick) (any, error) {
	return m.Locks.TryAcquire(primitives.LockID(st.Lock), primitives.RequesterID(st.Requester), now), nil
}

func lockRelease(m coord.Managers, st Step, now primitives.Tick) (any, error) {
	next, ok := m.Locks.Release(primitives.LockID(st.Lock), now)
	return optionalID(next, ok), nil
}

func lockAddWaiter(m coord.Managers, st Step, _ primitives.Tick) (any, error) {
	return m.Locks.AddWaiter(primitives.LockID(st.Lock), primitives.RequesterID(st.Requester)), nil
}

func lockAdapt(m coord.Managers, st Step, _ primitives.Tick) (any, error) {
	id := primitives.LockID(st.Lock)
	if _, ok := m.Locks.Get(id); !ok {
		return none, nil
	}
	preset, _ := m.Locks.AdaptStrategy(id)
	return string(preset), nil
}

func lockLevel(m coord.Managers, st Step, _ primitives.Tick) (any, error) {
	level, ok := m.Locks.ContentionLevel(primitives.LockID(st.Lock))
	if !ok {
		return none, nil
	}
	return level.String(), nil
}

func arbiterCreate(m coord.Managers, st Step, _ primitives.Tick) (any, error) {
	id := primitives.ResourceID(st.Resource)
	if st.Policy == "" {
		return m.Arbiter.CreateDefault(id), nil
	}
	policy, err := arbiter.ParsePolicy(st.Policy)
	if err != nil {
		return nil, err
	}
	return m.Arbiter.Create(id, policy), nil
}

func arbiterAdd(m coord.Managers, st Step, now primitives.Tick) (any, error) {
	req := arbiter.Request{
		Requester: primitives.RequesterID(st.Requester),
		Priority:  st.Priority,
		Weight:    st.Weight,
		Deadline:  primitives.Tick(st.Deadline),
	}
	return m.Arbiter.AddContender(primitives.ResourceID(st.Resource), req, now), nil
}

func arbiterRemove(m coord.Managers, st Step, _ primitives.Tick) (any, error) {
	return m.Arbiter.RemoveContender(primitives.ResourceID(st.Resource), primitives.RequesterID(st.Requester)), nil
}

func arbiterArbitrate(m coord.Managers, st Step, now primitives.Tick) (any, error) {
	winner, ok := m.Arbiter.Arbitrate(primitives.ResourceID(st.Resource), now)
	return optionalID(winner, ok), nil
}

func arbiterRelease(m coord.Managers, st Step, _ primitives.Tick) (any, error) {
	return m.Arbiter.Release(primitives.ResourceID(st.Resource)), nil
}

func batchCreate(m coord.Managers, st Step, now primitives.Tick) (any, error) {
	op := batch.AllComplete
	if st.Kind != "" {
		var err error
		if op, err = batch.ParseOp(st.Kind); err != nil {
			return nil, err
		}
	}
	return m.Batch.Create(primitives.GroupID(st.Group), op, st.Required, primitives.Tick(st.Timeout), now), nil
}

func batchAdd(m coord.Managers, st Step, now primitives.Tick) (any, error) {
	return m.Batch.AddParticipant(primitives.GroupID(st.Group), primitives.RequesterID(st.Requester), now), nil
}

func batchReady(m coord.Managers, st Step, now primitives.Tick) (any, error) {
	return m.Batch.SignalReady(primitives.GroupID(st.Group), primitives.RequesterID(st.Requester), st.Result, now), nil
}

func batchResolve(m coord.Managers, st Step, now primitives.Tick) (any, error) {
	return m.Batch.TryResolve(primitives.GroupID(st.Group), now), nil
}

func batchTimeout(m coord.Managers, st Step, now primitives.Tick) (any, error) {
	return m.Batch.CheckTimeout(primitives.GroupID(st.Group), now), nil
}
