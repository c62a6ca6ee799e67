// Package bloomr provides a compact, persistable bloom filter for string keys.
//
// A bloom filter is a space-efficient probabilistic data structure that tests
// whether an element is a member of a set. False positive matches are possible,
// but false negatives are not – if the filter says an element is not present,
// it definitely is not. If it says an element might be present, it could be a
// false positive.
//
// # Hashing
//
// Each key is hashed k times with one seeded 64-bit hash function, using the
// hash number 0..k-1 as the seed. Each hash selects one of the filter's m bits
// via ((h mod m) + m) mod m. Two hash families are available:
//
//   - [XXH3] (default) uses xxh3 with a 64-bit seed
//   - [Murmur3] uses the first half of murmur3 x64_128
//
// The family is stored with the filter, so a restored filter always probes
// the same bits it was populated with. [Index] exposes the position function
// on its own.
//
// # Counting
//
// [Filter.Count] is a lifetime insertion counter: it grows by one for every
// key passed to [Filter.Add], duplicates included, and [Filter.Clear] does
// not reset it. Use [Filter.FracFilled] or [Filter.EstimatedDistinct] to
// reason about what the bits currently hold.
//
// # Persistence
//
// [Filter.MarshalBinary] produces a versioned little-endian record:
//
//	magic "BLMR" | version | family | reserved(2) | k u32 | m u64 | count u64 | bits
//
// [Filter.Save], [Filter.SaveAtomic] and [Load] move that record to and from
// files. Failures are reported as [ErrIO] for filesystem problems and
// [ErrInvalidData] for malformed content; a failed load never returns a
// filter.
//
// # Thread Safety
//
// [Filter] is NOT thread-safe. Use external synchronization or wrap it in a
// [SyncFilter], which guards the whole filter with one read-write lock.
package bloomr
