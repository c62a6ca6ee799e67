package bloomr

import "math"

// EstimateFalsePositiveRate estimates the false positive rate of a filter
// with m bits and k hash functions after n insertions.
// Formula: (1 - e^(-kn/m))^k
func EstimateFalsePositiveRate(m uint64, k uint32, n uint64) float64 {
	if m == 0 || n == 0 {
		return 0
	}

	mf := float64(m)
	kf := float64(k)

	// (1 - e^(-kn/m))^k
	return math.Pow(1-math.Exp(-kf*float64(n)/mf), kf)
}

// FalsePositiveRateFromFill estimates the false positive rate from the
// observed fill ratio. Unlike EstimateFalsePositiveRate it does not depend
// on the insertion count, so it stays accurate after Clear and with
// repeated keys.
// Formula: fill^k
func FalsePositiveRateFromFill(fill float64, k uint32) float64 {
	if fill <= 0 {
		return 0
	}
	if fill >= 1 {
		return 1
	}
	return math.Pow(fill, float64(k))
}

// EstimateDistinct approximates the number of distinct keys in a filter
// with m bits, k hash functions and the given fill ratio.
// Formula: -(m/k) * ln(1 - fill)
//
// A saturated filter returns +Inf.
func EstimateDistinct(m uint64, k uint32, fill float64) float64 {
	if m == 0 || k == 0 || fill <= 0 {
		return 0
	}
	if fill >= 1 {
		return math.Inf(1)
	}
	return -float64(m) / float64(k) * math.Log(1-fill)
}

// EstimatedDistinct approximates the number of distinct keys added since
// the last Clear.
func (f *Filter) EstimatedDistinct() float64 {
	return EstimateDistinct(f.m, f.k, f.FracFilled())
}
