package format

import "fmt"

// Layout describes where each header field lives relative to the header start.
// Optional fields have offset -1 when disabled.
//
// Full layout with every option enabled:
//
//	0x00  guard prefix
//	0x04  tag
//	0x08  requested size
//	0x0C  next
//	0x10  nextFree
//	0x14  prevFree
//	0x18  caller PC (8 bytes)
//	0x20  guard suffix
//
// Size is rounded up to WordSize.
type Layout struct {
	Size int

	Tag      int
	ReqSize  int
	Next     int
	NextFree int
	PrevFree int
	Caller   int

	GuardPrefix int
	GuardSuffix int
}

// NewLayout computes the header layout for the given feature set.
func NewLayout(sizes, guards, callers bool) Layout {
	l := Layout{ReqSize: -1, Caller: -1, GuardPrefix: -1, GuardSuffix: -1}

	off := 0
	if guards {
		l.GuardPrefix = off
		off += GuardSize
	}
	l.Tag = off
	off += FieldSize
	if sizes {
		l.ReqSize = off
		off += FieldSize
	}
	l.Next = off
	off += FieldSize
	l.NextFree = off
	off += FieldSize
	l.PrevFree = off
	off += FieldSize
	if callers {
		off = AlignWord(off)
		l.Caller = off
		off += CallerSize
	}
	if guards {
		l.GuardSuffix = off
		off += GuardSize
	}

	l.Size = AlignWord(off)
	return l
}

// HasSize reports whether headers carry the requested-size field.
func (l Layout) HasSize() bool { return l.ReqSize >= 0 }

// HasGuards reports whether headers carry guard patterns.
func (l Layout) HasGuards() bool { return l.GuardPrefix >= 0 }

// HasCaller reports whether headers carry a caller PC.
func (l Layout) HasCaller() bool { return l.Caller >= 0 }

// Header is a decoded block header.
type Header struct {
	Off      int
	Tag      uint32
	ReqSize  uint32
	Next     uint32
	NextFree uint32
	PrevFree uint32
	Caller   uint64
}

// Free reports whether the header is tagged free.
func (h Header) Free() bool { return h.Tag == TagFree }

// Last reports whether the header is the final block of the arena.
func (h Header) Last() bool { return h.Next == NoBlock }

// Decode reads the header at off. It does not validate tags or guards.
func (l Layout) Decode(b []byte, off int) (Header, error) {
	if off < 0 || off+l.Size > len(b) {
		return Header{}, fmt.Errorf("header at 0x%X: %w", off, ErrTruncated)
	}
	h := Header{
		Off:      off,
		Tag:      ReadU32(b, off+l.Tag),
		Next:     ReadU32(b, off+l.Next),
		NextFree: ReadU32(b, off+l.NextFree),
		PrevFree: ReadU32(b, off+l.PrevFree),
	}
	if l.HasSize() {
		h.ReqSize = ReadU32(b, off+l.ReqSize)
	}
	if l.HasCaller() {
		h.Caller = ReadU64(b, off+l.Caller)
	}
	return h, nil
}

// Encode writes h at h.Off, including guard patterns when enabled.
func (l Layout) Encode(b []byte, h Header) {
	off := h.Off
	if l.HasGuards() {
		PutU32(b, off+l.GuardPrefix, GuardPrefix)
		PutU32(b, off+l.GuardSuffix, GuardSuffix)
	}
	PutU32(b, off+l.Tag, h.Tag)
	if l.HasSize() {
		PutU32(b, off+l.ReqSize, h.ReqSize)
	}
	PutU32(b, off+l.Next, h.Next)
	PutU32(b, off+l.NextFree, h.NextFree)
	PutU32(b, off+l.PrevFree, h.PrevFree)
	if l.HasCaller() {
		PutU64(b, off+l.Caller, h.Caller)
	}
}

// CheckGuards verifies both guard patterns of the header at off.
// Always nil when guards are disabled.
func (l Layout) CheckGuards(b []byte, off int) error {
	if !l.HasGuards() {
		return nil
	}
	if off < 0 || off+l.Size > len(b) {
		return fmt.Errorf("header at 0x%X: %w", off, ErrTruncated)
	}
	if got := ReadU32(b, off+l.GuardPrefix); got != GuardPrefix {
		return fmt.Errorf("prefix at 0x%X = 0x%08X: %w", off, got, ErrGuard)
	}
	if got := ReadU32(b, off+l.GuardSuffix); got != GuardSuffix {
		return fmt.Errorf("suffix at 0x%X = 0x%08X: %w", off, got, ErrGuard)
	}
	return nil
}

// CheckTag verifies that the header at off carries a known tag.
func (l Layout) CheckTag(b []byte, off int) error {
	tag := ReadU32(b, off+l.Tag)
	if tag != TagFree && tag != TagUsed {
		return fmt.Errorf("tag at 0x%X = 0x%08X: %w", off, tag, ErrBadTag)
	}
	return nil
}
