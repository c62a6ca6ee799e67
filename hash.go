package bloomr

import (
	"fmt"
	"strings"

	"github.com/spaolacci/murmur3"
	"github.com/zeebo/xxh3"
)

// HashFamily selects the seeded 64-bit hash used to derive bit positions.
// The family is part of the serialized state: a filter must be queried with
// the same family it was populated with.
type HashFamily uint8

const (
	// XXH3 hashes keys with xxh3 seeded by the hash index. It is the default.
	XXH3 HashFamily = iota
	// Murmur3 hashes keys with the 64-bit half of murmur3 x64_128 seeded by
	// the hash index.
	Murmur3
)

func (h HashFamily) String() string {
	switch h {
	case XXH3:
		return "xxh3"
	case Murmur3:
		return "murmur3"
	default:
		return fmt.Sprintf("HashFamily(%d)", uint8(h))
	}
}

// Valid reports whether h names a supported hash family.
func (h HashFamily) Valid() bool {
	return h == XXH3 || h == Murmur3
}

// ParseHashFamily parses the name returned by HashFamily.String.
func ParseHashFamily(s string) (HashFamily, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "xxh3":
		return XXH3, nil
	case "murmur3", "murmur":
		return Murmur3, nil
	}
	return 0, fmt.Errorf("%w: unknown hash family %q", ErrInvalidConfig, s)
}

// hashSeeded computes the 64-bit hash of s under the given seed.
func hashSeeded(family HashFamily, s string, seed uint32) uint64 {
	if family == Murmur3 {
		return murmur3.Sum64WithSeed([]byte(s), seed)
	}
	return xxh3.HashStringSeed(s, uint64(seed))
}

// Index maps key to a bit position in [0, m) for hash number seed.
//
// Add and Check both go through Index, so the positions they touch are
// identical for a given (family, key, seed, m). m must be non-zero.
func Index(family HashFamily, key string, seed uint32, m uint64) uint64 {
	h := hashSeeded(family, key, seed)
	return ((h % m) + m) % m
}
