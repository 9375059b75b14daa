package alloc

import "github.com/joshuapare/lightheap/internal/format"

// Blocks returns every block in address order. The snapshot is taken inside
// the critical section; the returned slice is owned by the caller.
func (l *Light) Blocks() []BlockInfo {
	var out []BlockInfo
	l.critical(func() {
		for off := 0; off != none; off = l.next(off) {
			out = append(out, l.info(off))
		}
	})
	return out
}

// Walk calls fn for every block in address order until fn returns false.
// fn runs outside the critical section and may call back into the allocator;
// it sees the blocks as they were when Walk started.
func (l *Light) Walk(fn func(BlockInfo) bool) {
	for _, b := range l.Blocks() {
		if !fn(b) {
			return
		}
	}
}

// FreeList returns the header offsets of the free list from head to tail.
func (l *Light) FreeList() []int {
	var out []int
	l.critical(func() {
		for off := l.head; off != none; off = l.nextFree(off) {
			out = append(out, off)
		}
	})
	return out
}

// Bounds returns the free-list head and tail header offsets.
func (l *Light) Bounds() (head, tail int) {
	l.critical(func() { head, tail = l.head, l.tail })
	return head, tail
}

// Snapshot returns a copy of the arena bytes taken inside the critical section.
func (l *Light) Snapshot() []byte {
	var out []byte
	l.critical(func() {
		out = make([]byte, l.end)
		copy(out, l.mem[:l.end])
	})
	return out
}

// Bytes returns the live arena memory without copying. Callers must not
// mutate headers through it.
func (l *Light) Bytes() []byte { return l.mem[:l.end] }

// Layout returns the header layout in use.
func (l *Light) Layout() format.Layout { return l.layout }

func (l *Light) info(off int) BlockInfo {
	nx := l.next(off)
	b := BlockInfo{
		Offset:    off,
		Ptr:       Ptr(l.payload(off)),
		Used:      l.tag(off) == format.TagUsed,
		Requested: l.reqSize(off),
		Caller:    l.caller(off),
		Last:      nx == none,
	}
	if b.Last {
		b.Span = l.end - off - l.hdr
	} else {
		b.Span = l.spanAt(off, nx)
	}
	return b
}
