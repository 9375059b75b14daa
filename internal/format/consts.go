// Package format houses the low-level encoding of the lightheap arena: block
// header layout, word alignment, and the little-endian field accessors shared
// by the allocator, the verifier, and the printer. It is kept independent of
// the allocator so tools can decode a raw arena image without live state.
package format

const (
	// WordSize is the platform word every header and payload is aligned to.
	WordSize = 8

	// WordMask is the alignment mask for WordSize.
	WordMask = WordSize - 1

	// FieldSize is the width of every offset and tag field in a header.
	FieldSize = 4

	// GuardSize is the width of each guard region when guards are enabled.
	GuardSize = 4

	// CallerSize is the width of the caller PC slot when caller tracking is enabled.
	CallerSize = 8

	// NoBlock marks an absent next/nextFree/prevFree link. Offset 0 is a valid
	// header (the first block always starts there) so zero cannot be used.
	NoBlock uint32 = 0xFFFFFFFF
)

// Tag values stored in the header tag field.
// Layout (little-endian):
//
//	Free    'E' 'E' 'R' 'F'
//	Used    'D' 'E' 'S' 'U'
//	Invalid 0xDEADDEAD, written over a header that was merged away
const (
	TagFree    uint32 = 0x46524545
	TagUsed    uint32 = 0x55534544
	TagInvalid uint32 = 0xDEADDEAD
)

// Guard patterns written before and after the core header fields.
const (
	GuardPrefix uint32 = 0xA5A5A5A5
	GuardSuffix uint32 = 0x5A5A5A5A
)

// TagName returns a short human-readable name for a tag value.
func TagName(tag uint32) string {
	switch tag {
	case TagFree:
		return "free"
	case TagUsed:
		return "used"
	case TagInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}
