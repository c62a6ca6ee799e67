package bloomr

import "sync"

// SyncFilter guards a Filter with a single read-write lock so it can be
// shared between goroutines. Writers (Add, Clear) take the exclusive lock;
// queries share the read lock.
type SyncFilter struct {
	mu sync.RWMutex
	f  *Filter
}

// NewSync creates a lock-guarded filter with m bits and k hash functions.
func NewSync(m uint64, k uint32, opts ...Option) (*SyncFilter, error) {
	f, err := New(m, k, opts...)
	if err != nil {
		return nil, err
	}
	return &SyncFilter{f: f}, nil
}

// Guard wraps an existing filter. The caller must not use f directly
// afterwards.
func Guard(f *Filter) *SyncFilter {
	return &SyncFilter{f: f}
}

// Add inserts every key into the filter.
func (s *SyncFilter) Add(keys ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.f.Add(keys...)
}

// AddString inserts a single key.
func (s *SyncFilter) AddString(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.f.AddString(key)
}

// Check reports, for each key in order, whether it might be in the filter.
func (s *SyncFilter) Check(keys ...string) []bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.f.Check(keys...)
}

// TestString reports whether key might be in the filter.
func (s *SyncFilter) TestString(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.f.TestString(key)
}

// TestAndAddString tests and adds key under one exclusive lock, so exactly
// one of several concurrent callers with the same new key sees false.
func (s *SyncFilter) TestAndAddString(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.f.TestAndAddString(key)
}

// Clear resets every bit.
func (s *SyncFilter) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.f.Clear()
}

// FracFilled returns the fraction of bits that are set.
func (s *SyncFilter) FracFilled() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.f.FracFilled()
}

// Count returns the number of keys added over the filter's lifetime.
func (s *SyncFilter) Count() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.f.Count()
}

// Cap returns the capacity of the filter in bits.
func (s *SyncFilter) Cap() uint64 {
	return s.f.Cap()
}

// K returns the number of hash functions used.
func (s *SyncFilter) K() uint32 {
	return s.f.K()
}

// Snapshot returns a deep copy of the current filter state.
func (s *SyncFilter) Snapshot() *Filter {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.f.clone()
}

// Save writes the filter to path atomically. Queries may proceed while the
// file is written; adds wait.
func (s *SyncFilter) Save(path string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.f.SaveAtomic(path)
}
