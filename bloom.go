package bloomr

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/bits-and-blooms/bitset"
)

// MaxBits is the largest filter capacity accepted by New and by the decoder.
const MaxBits = uint64(1) << 48

// ErrInvalidConfig is returned when a filter is constructed with parameters
// it cannot operate with, such as a zero-sized bit array.
var ErrInvalidConfig = errors.New("bloomr: invalid filter configuration")

// Filter is a non-thread-safe bloom filter over string keys.
//
// Each key is hashed k times with the same hash family, using the hash
// number as the seed, and each hash selects one of m bits. Use [SyncFilter]
// or your own locking when a filter is shared between goroutines.
type Filter struct {
	bits   *bitset.BitSet // m bits, all false at construction
	m      uint64         // Number of addressable bits
	k      uint32         // Number of hash functions
	count  uint64         // Keys passed to Add over the filter's lifetime
	family HashFamily
}

// Option configures a Filter at construction.
type Option func(*Filter)

// WithHashFamily selects the hash family used to derive bit positions.
func WithHashFamily(family HashFamily) Option {
	return func(f *Filter) {
		f.family = family
	}
}

// New creates an empty bloom filter with m bits and k hash functions.
func New(m uint64, k uint32, opts ...Option) (*Filter, error) {
	if m == 0 {
		return nil, fmt.Errorf("%w: filter size must be positive", ErrInvalidConfig)
	}
	if m > MaxBits {
		return nil, fmt.Errorf("%w: filter size %d exceeds %d bits", ErrInvalidConfig, m, MaxBits)
	}
	if k == 0 {
		return nil, fmt.Errorf("%w: number of hashes must be positive", ErrInvalidConfig)
	}

	f := &Filter{
		bits: bitset.New(uint(m)),
		m:    m,
		k:    k,
	}
	for _, opt := range opts {
		opt(f)
	}
	if !f.family.Valid() {
		return nil, fmt.Errorf("%w: unsupported hash family %s", ErrInvalidConfig, f.family)
	}
	return f, nil
}

// Add inserts every key into the filter. The stored count grows by
// len(keys) whether or not a key was seen before.
func (f *Filter) Add(keys ...string) {
	for _, key := range keys {
		f.add(key)
	}
	f.count += uint64(len(keys))
}

// AddString inserts a single key.
func (f *Filter) AddString(s string) {
	f.add(s)
	f.count++
}

func (f *Filter) add(key string) {
	for i := uint32(0); i < f.k; i++ {
		f.bits.Set(uint(Index(f.family, key, i, f.m)))
	}
}

// Check reports, for each key in order, whether it might be in the filter.
// A false result is definitive; a true result may be a false positive.
func (f *Filter) Check(keys ...string) []bool {
	out := make([]bool, len(keys))
	for i, key := range keys {
		out[i] = f.test(key)
	}
	return out
}

// TestString reports whether s might be in the filter.
func (f *Filter) TestString(s string) bool {
	return f.test(s)
}

// TestAndAddString reports whether s might have been in the filter and then
// adds it.
func (f *Filter) TestAndAddString(s string) bool {
	present := f.test(s)
	f.AddString(s)
	return present
}

func (f *Filter) test(key string) bool {
	for i := uint32(0); i < f.k; i++ {
		if !f.bits.Test(uint(Index(f.family, key, i, f.m))) {
			return false
		}
	}
	return true
}

// Clear resets every bit. The stored count, capacity, hash count and hash
// family are left unchanged.
func (f *Filter) Clear() {
	f.bits.ClearAll()
}

// FracFilled returns the fraction of bits that are set, in [0, 1].
func (f *Filter) FracFilled() float64 {
	return float64(f.bits.Count()) / float64(f.m)
}

// Cap returns the capacity of the filter in bits.
func (f *Filter) Cap() uint64 {
	return f.m
}

// K returns the number of hash functions used.
func (f *Filter) K() uint32 {
	return f.k
}

// Count returns the number of keys passed to Add over the filter's lifetime.
// It is neither deduplicated nor reset by Clear.
func (f *Filter) Count() uint64 {
	return f.count
}

// HashFamily returns the hash family used to derive bit positions.
func (f *Filter) HashFamily() HashFamily {
	return f.family
}

// EstimatedFalsePositiveRate estimates the current false positive rate
// from the lifetime count. After Clear the estimate overstates the rate.
func (f *Filter) EstimatedFalsePositiveRate() float64 {
	return EstimateFalsePositiveRate(f.m, f.k, f.count)
}

// Equal reports whether f and g have identical parameters, counts and bits.
func (f *Filter) Equal(g *Filter) bool {
	if f == nil || g == nil {
		return f == g
	}
	return f.m == g.m &&
		f.k == g.k &&
		f.count == g.count &&
		f.family == g.family &&
		f.bits.Equal(g.bits)
}

// clone returns a deep copy of f.
func (f *Filter) clone() *Filter {
	return &Filter{
		bits:   f.bits.Clone(),
		m:      f.m,
		k:      f.k,
		count:  f.count,
		family: f.family,
	}
}

// Describe writes a two-line human readable summary of the filter to w.
func (f *Filter) Describe(w io.Writer) error {
	_, err := fmt.Fprintf(w, "A BloomFilter with a capacity of %d bits.\nCurrently Storing %d values with %d hashes\n",
		f.m, f.count, f.k)
	return err
}

// Print writes the summary produced by Describe to standard output.
func (f *Filter) Print() {
	_ = f.Describe(os.Stdout)
}

func (f *Filter) String() string {
	var sb strings.Builder
	_ = f.Describe(&sb)
	return strings.TrimSuffix(sb.String(), "\n")
}
