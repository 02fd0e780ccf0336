// Package safeconv provides integer conversions that check for overflow.
package safeconv

import "math"

// MustIntToUint converts int to uint, panics if negative.
// Use only when negative values are logically impossible.
func MustIntToUint(v int) uint {
	if v < 0 {
		panic("safeconv: negative int to uint conversion")
	}

	return uint(v)
}

// Uint64ToInt64 converts v to int64, reporting false when it does not fit.
func Uint64ToInt64(v uint64) (int64, bool) {
	if v > math.MaxInt64 {
		return 0, false
	}

	return int64(v), true
}

// ClampUint64ToInt64 converts v to int64, saturating at [math.MaxInt64].
func ClampUint64ToInt64(v uint64) int64 {
	n, ok := Uint64ToInt64(v)
	if !ok {
		return math.MaxInt64
	}

	return n
}
