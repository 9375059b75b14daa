package format

// Alignment utilities for the arena. Every block header starts on a word
// boundary, which in turn makes every payload word aligned.

// AlignWord returns n aligned up to the next word boundary.
//
// Example:
//
//	AlignWord(1)  = 8
//	AlignWord(8)  = 8
//	AlignWord(9)  = 16
func AlignWord(n int) int {
	return (n + WordMask) &^ WordMask
}

// AlignDownWord returns n truncated to the previous word boundary.
// Used to derive the usable end of a region whose length is not a word multiple.
func AlignDownWord(n int) int {
	return n &^ WordMask
}

// IsWordAligned reports whether n sits on a word boundary.
func IsWordAligned(n int) bool {
	return n&WordMask == 0
}
