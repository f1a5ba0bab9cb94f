package primitives

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"

	"github.com/cespare/xxhash/v2"
)

// HashCode is a 64-bit hash of an address.
type HashCode uint64

// HashKind selects the function used to spread addresses over buckets.
type HashKind string

const (
	// HashFNV1a hashes the little-endian address bytes with FNV-1a.
	HashFNV1a HashKind = "fnv1a"

	// HashXX hashes the little-endian address bytes with xxHash64.
	HashXX HashKind = "xxhash"
)

// Hasher maps an address to a 64-bit hash code.
type Hasher func(Address) HashCode

// NewHasher returns the hasher for the given kind.
func NewHasher(kind HashKind) (Hasher, error) {
	switch kind {
	case HashFNV1a, "":
		return HashFNV, nil
	case HashXX:
		return HashXXH, nil
	default:
		return nil, fmt.Errorf("unknown hash kind %q", kind)
	}
}

// HashFNV hashes an address with FNV-1a over its little-endian bytes.
func HashFNV(addr Address) HashCode {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(addr))
	h := fnv.New64a()
	h.Write(buf[:])
	return HashCode(h.Sum64())
}

// HashXXH hashes an address with xxHash64 over its little-endian bytes.
func HashXXH(addr Address) HashCode {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(addr))
	return HashCode(xxhash.Sum64(buf[:]))
}

// Truncate keeps the low bits of the hash code.
func (h HashCode) Truncate(bits uint) uint64 {
	if bits >= 64 {
		return uint64(h)
	}
	return uint64(h) & ((uint64(1) << bits) - 1)
}
