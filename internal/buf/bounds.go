// Package buf contains overflow-checked size arithmetic for arena offsets.
//
// Arena offsets are stored in 32-bit header fields with 0xFFFFFFFF reserved,
// so every size that reaches a header must stay at or below MaxSize.
package buf

import "math"

// MaxSize is the largest request or offset an arena accepts.
const MaxSize = math.MaxInt32

// AddSize adds two non-negative sizes, returning ok = false when either is
// negative or the sum exceeds MaxSize.
func AddSize(a, b int) (int, bool) {
	if a < 0 || b < 0 || a > MaxSize-b {
		return 0, false
	}
	return a + b, true
}

// MulSize multiplies count by elemSize for calloc-style requests, returning
// ok = false when either is negative or the product exceeds MaxSize.
func MulSize(count, elemSize int) (int, bool) {
	if count < 0 || elemSize < 0 {
		return 0, false
	}
	if count == 0 || elemSize == 0 {
		return 0, true
	}
	if count > MaxSize/elemSize {
		return 0, false
	}
	return count * elemSize, true
}

// Fits reports whether [off, off+n) lies within [0, limit).
func Fits(off, n, limit int) bool {
	end, ok := AddSize(off, n)
	return ok && end <= limit
}
