package arbiter

// zeroSeed replaces a zero seed, which would keep xorshift at zero forever.
const zeroSeed uint64 = 0x9E3779B97F4A7C15

// Xorshift64 is a small deterministic generator. The same seed always yields
// the same sequence, which keeps weighted and lottery draws reproducible.
type Xorshift64 struct {
	state uint64
}

// NewXorshift64 seeds a generator.
func NewXorshift64(seed uint64) *Xorshift64 {
	if seed == 0 {
		seed = zeroSeed
	}
	return &Xorshift64{state: seed}
}

// Next advances the generator and returns the new state.
func (x *Xorshift64) Next() uint64 {
	s := x.state
	s ^= s << 13
	s ^= s >> 7
	s ^= s << 17
	x.state = s
	return s
}

// Below returns a value in [0, n). n must be nonzero.
func (x *Xorshift64) Below(n uint64) uint64 {
	return x.Next() % n
}
