package alloc

import (
	"fmt"

	"github.com/joshuapare/lightheap/internal/buf"
	"github.com/joshuapare/lightheap/internal/format"
)

// guardOK checks the guard patterns of the header at off. On mismatch the
// corruption is reported and false is returned; the caller must abandon the
// operation.
func (l *Light) guardOK(off int, op string) bool {
	if !l.layout.HasGuards() {
		return true
	}
	if err := l.layout.CheckGuards(l.mem, off); err != nil {
		l.corrupt(off, op, err)
		return false
	}
	return true
}

// corrupt reports damage at off. Without an OnCorruption handler this panics,
// which releases the critical section through the deferred Exit.
func (l *Light) corrupt(off int, op string, err error) {
	ce := &CorruptionError{Offset: off, Op: op, Err: err}
	l.log.Error("arena corruption", "offset", off, "op", op, "err", err)
	if l.cfg.OnCorruption == nil {
		panic(ce)
	}
	l.cfg.OnCorruption(ce)
}

// validUsed checks that p names a live block and returns its header offset.
func (l *Light) validUsed(p Ptr) (int, error) {
	off := l.headerOf(p)
	if !buf.Fits(off, l.hdr, l.end) || !format.IsWordAligned(off) {
		return none, fmt.Errorf("pointer 0x%X: %w", p, ErrBadPtr)
	}
	if !l.guardOK(off, "lookup") {
		return none, &CorruptionError{Offset: off, Op: "lookup", Err: format.ErrGuard}
	}
	if l.tag(off) != format.TagUsed {
		return none, fmt.Errorf("pointer 0x%X (%s): %w", p, format.TagName(l.tag(off)), ErrNotAllocated)
	}
	nx := l.next(off)
	if nx == none || nx <= off || nx > l.end {
		l.corrupt(off, "lookup", fmt.Errorf("used block with next=%d", nx))
		return none, &CorruptionError{Offset: off, Op: "lookup", Err: ErrCorrupt}
	}
	return off, nil
}
