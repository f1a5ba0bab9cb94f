package futex

import (
	"cmp"
	"slices"

	"kcoord/pkg/primitives"
)

// DefaultHashBits is the bucket key width used when none is configured.
const DefaultHashBits uint = 10

// Bucket holds the FIFO list of waiters whose address hashes to Key.
type Bucket struct {
	Key     uint64
	waiters []*Waiter

	// addrs counts live waiters per distinct address sharing this bucket.
	addrs map[primitives.Address]int

	totalWaits    uint64
	totalWakes    uint64
	totalTimeouts uint64
	maxWaiters    int
}

func newBucket(key uint64) *Bucket {
	return &Bucket{
		Key:   key,
		addrs: make(map[primitives.Address]int),
	}
}

// Len returns the number of waiters currently in the bucket.
func (b *Bucket) Len() int {
	return len(b.waiters)
}

// Collided reports whether waiters on more than one address share the bucket.
func (b *Bucket) Collided() bool {
	return len(b.addrs) > 1
}

// ContentionScore weights the peak queue length by how far waits outrun wakes.
func (b *Bucket) ContentionScore() float64 {
	if b.totalWaits == 0 {
		return 0
	}
	return float64(b.maxWaiters) * (float64(b.totalWaits) / float64(max(b.totalWakes, 1)))
}

func (b *Bucket) push(w *Waiter) (newAddress bool) {
	b.waiters = append(b.waiters, w)
	b.maxWaiters = max(b.maxWaiters, len(b.waiters))
	newAddress = b.addrs[w.Address] == 0 && len(b.addrs) > 0
	b.addrs[w.Address]++
	return newAddress
}

// take removes up to limit waiters satisfying pred, preserving the order of
// those left behind. A negative limit means no limit.
func (b *Bucket) take(limit int, pred func(*Waiter) bool) []*Waiter {
	if limit == 0 {
		return nil
	}

	var taken []*Waiter
	b.waiters = slices.DeleteFunc(b.waiters, func(w *Waiter) bool {
		if limit >= 0 && len(taken) >= limit {
			return false
		}
		if !pred(w) {
			return false
		}
		taken = append(taken, w)
		return true
	})

	for _, w := range taken {
		b.forget(w.Address)
	}
	return taken
}

func (b *Bucket) forget(addr primitives.Address) {
	if n := b.addrs[addr]; n > 1 {
		b.addrs[addr] = n - 1
	} else {
		delete(b.addrs, addr)
	}
}

// HashTable maps truncated address hashes to buckets. Buckets are created on
// first use and kept, so their counters survive; there are at most 2^bits.
type HashTable struct {
	buckets  map[uint64]*Bucket
	hashBits uint
	hasher   primitives.Hasher
}

// NewHashTable creates a table with 2^bits possible bucket keys.
// A zero bits value selects DefaultHashBits; a nil hasher selects FNV-1a.
func NewHashTable(bits uint, hasher primitives.Hasher) *HashTable {
	if bits == 0 {
		bits = DefaultHashBits
	}
	if hasher == nil {
		hasher = primitives.HashFNV
	}
	return &HashTable{
		buckets:  make(map[uint64]*Bucket),
		hashBits: bits,
		hasher:   hasher,
	}
}

// KeyFor returns the bucket key for an address.
func (ht *HashTable) KeyFor(addr primitives.Address) uint64 {
	return ht.hasher(addr).Truncate(ht.hashBits)
}

// Bucket returns the bucket an address hashes to, or nil if none was created.
func (ht *HashTable) Bucket(addr primitives.Address) *Bucket {
	return ht.buckets[ht.KeyFor(addr)]
}

// Len returns the number of buckets ever used.
func (ht *HashTable) Len() int {
	return len(ht.buckets)
}

// Active returns the number of buckets currently holding waiters.
func (ht *HashTable) Active() int {
	n := 0
	for _, b := range ht.buckets {
		if len(b.waiters) > 0 {
			n++
		}
	}
	return n
}

func (ht *HashTable) bucketFor(addr primitives.Address) *Bucket {
	key := ht.KeyFor(addr)
	b, ok := ht.buckets[key]
	if !ok {
		b = newBucket(key)
		ht.buckets[key] = b
	}
	return b
}

// Enqueue appends w to the tail of its address's bucket and counts a wait on
// it. It reports whether w introduced a second distinct address into an
// occupied bucket.
func (ht *HashTable) Enqueue(w *Waiter) bool {
	b := ht.bucketFor(w.Address)
	b.totalWaits++
	return b.push(w)
}

// Requeue appends a waiter moved off another address to the tail of its new
// bucket. The move is not a new wait, so bucket wait counters are unchanged.
func (ht *HashTable) Requeue(w *Waiter) bool {
	return ht.bucketFor(w.Address).push(w)
}

// Remove takes w itself out of its bucket. It reports false if w was not
// queued.
func (ht *HashTable) Remove(w *Waiter) bool {
	b, ok := ht.buckets[ht.KeyFor(w.Address)]
	if !ok {
		return false
	}
	return len(b.take(1, func(q *Waiter) bool { return q == w })) == 1
}

// Take removes, in arrival order, up to limit Blocked waiters on exactly addr
// that satisfy pred. A negative limit removes every match.
func (ht *HashTable) Take(addr primitives.Address, limit int, pred func(*Waiter) bool) []*Waiter {
	b, ok := ht.buckets[ht.KeyFor(addr)]
	if !ok {
		return nil
	}

	return b.take(limit, func(w *Waiter) bool {
		return w.matches(addr) && (pred == nil || pred(w))
	})
}

// Expire removes every Blocked waiter satisfying pred from every bucket and
// counts it as a timeout on its bucket. Buckets are visited in key order so
// the result is deterministic.
func (ht *HashTable) Expire(pred func(*Waiter) bool) []*Waiter {
	var expired []*Waiter
	for _, b := range ht.Buckets() {
		removed := b.take(-1, func(w *Waiter) bool {
			return w.State == Blocked && pred(w)
		})
		b.totalTimeouts += uint64(len(removed))
		expired = append(expired, removed...)
	}
	return expired
}

// Waiters returns the Blocked waiters on exactly addr, in arrival order.
func (ht *HashTable) Waiters(addr primitives.Address) []*Waiter {
	b := ht.Bucket(addr)
	if b == nil {
		return nil
	}
	var out []*Waiter
	for _, w := range b.waiters {
		if w.matches(addr) {
			out = append(out, w)
		}
	}
	return out
}

// Buckets returns the live buckets.
func (ht *HashTable) Buckets() []*Bucket {
	out := make([]*Bucket, 0, len(ht.buckets))
	for _, b := range ht.buckets {
		out = append(out, b)
	}
	slices.SortFunc(out, func(a, b *Bucket) int {
		return cmp.Compare(a.Key, b.Key)
	})
	return out
}
