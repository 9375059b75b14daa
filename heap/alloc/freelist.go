package alloc

import "github.com/joshuapare/lightheap/internal/format"

// none is the in-memory spelling of format.NoBlock.
const none = -1

// Header field accessors. Every read and write of a header goes through these
// so the byte layout is decided in exactly one place (internal/format).

func (l *Light) tag(off int) uint32 {
	return format.ReadU32(l.mem, off+l.layout.Tag)
}

func (l *Light) setTag(off int, v uint32) {
	format.PutU32(l.mem, off+l.layout.Tag, v)
}

func (l *Light) link(off, field int) int {
	v := format.ReadU32(l.mem, off+field)
	if v == format.NoBlock {
		return none
	}
	return int(v)
}

func (l *Light) setLink(off, field, v int) {
	if v == none {
		format.PutU32(l.mem, off+field, format.NoBlock)
		return
	}
	format.PutU32(l.mem, off+field, uint32(v))
}

func (l *Light) next(off int) int         { return l.link(off, l.layout.Next) }
func (l *Light) setNext(off, v int)       { l.setLink(off, l.layout.Next, v) }
func (l *Light) nextFree(off int) int     { return l.link(off, l.layout.NextFree) }
func (l *Light) setNextFree(off, v int)   { l.setLink(off, l.layout.NextFree, v) }
func (l *Light) setPrevFree(off, v int)   { l.setLink(off, l.layout.PrevFree, v) }
func (l *Light) payload(off int) int      { return off + l.hdr }
func (l *Light) headerOf(p Ptr) int       { return int(p) - l.hdr }
func (l *Light) spanAt(off, next int) int { return next - off - l.hdr }

func (l *Light) reqSize(off int) int {
	if !l.layout.HasSize() {
		return 0
	}
	return int(format.ReadU32(l.mem, off+l.layout.ReqSize))
}

func (l *Light) setReqSize(off, v int) {
	if l.layout.HasSize() {
		format.PutU32(l.mem, off+l.layout.ReqSize, uint32(v))
	}
}

func (l *Light) caller(off int) uintptr {
	if !l.layout.HasCaller() {
		return 0
	}
	return uintptr(format.ReadU64(l.mem, off+l.layout.Caller))
}

func (l *Light) setCaller(off int, pc uintptr) {
	if l.layout.HasCaller() {
		format.PutU64(l.mem, off+l.layout.Caller, uint64(pc))
	}
}

// writeFree lays down a fresh free header at off.
func (l *Light) writeFree(off, next, nextFree, prevFree int) {
	h := format.Header{
		Off:      off,
		Tag:      format.TagFree,
		Next:     format.NoBlock,
		NextFree: format.NoBlock,
		PrevFree: format.NoBlock,
	}
	l.layout.Encode(l.mem, h)
	l.setNext(off, next)
	l.setNextFree(off, nextFree)
	l.setPrevFree(off, prevFree)
}

// unlink removes the free block at off from the free list. prev is its
// predecessor as found by the caller's walk from the head (none when off is the
// head). The block's own prevFree is never consulted: it is a cache that is
// only trusted after a fresh walk, and every caller already has that walk.
func (l *Light) unlink(off, prev int) {
	nf := l.nextFree(off)
	if prev == none {
		l.head = nf
	} else {
		l.setNextFree(prev, nf)
	}
	if nf != none {
		l.setPrevFree(nf, prev)
	}
}

// insert splices the block at off into the address-ordered free list and
// returns its new predecessor (none when it became the head).
//
// The walk always restarts from the head rather than trusting a possibly
// stale prevFree left in the header from the last time this block was free.
func (l *Light) insert(off int) int {
	prev := none
	if off > l.head {
		prev = l.head
		for {
			nf := l.nextFree(prev)
			if nf == none || nf > off {
				break
			}
			prev = nf
		}
	}

	var nf int
	if prev == none {
		nf = l.head
		l.head = off
	} else {
		nf = l.nextFree(prev)
		l.setNextFree(prev, off)
	}
	l.setNextFree(off, nf)
	l.setPrevFree(off, prev)
	if nf != none {
		l.setPrevFree(nf, off)
	}
	return prev
}

// absorb merges the free block b into the free block a. b must be both a's
// address successor and its free-list successor; no used block lies between.
// If b was the sentinel, a becomes the sentinel.
func (l *Light) absorb(a, b int) {
	l.setNext(a, l.next(b))
	nf := l.nextFree(b)
	l.setNextFree(a, nf)
	if nf != none {
		l.setPrevFree(nf, a)
	}
	if b == l.tail {
		l.tail = a
	}
	l.setTag(b, format.TagInvalid)
	if l.cfg.EnableStatistics {
		l.stats.Merges++
	}
}

// coalesce runs the cleanup pass for a block just inserted at off with free
// predecessor prev. Forward: while the address successor is also the free
// successor, swallow it, which collapses a free run up to the sentinel into a
// single new sentinel. Backward: fold off into prev when they touch.
func (l *Light) coalesce(off, prev int) bool {
	for {
		nx := l.next(off)
		if nx == none || nx != l.nextFree(off) {
			break
		}
		if !l.guardOK(nx, "free") {
			return false
		}
		l.absorb(off, nx)
	}
	if prev != none && l.next(prev) == off {
		if !l.guardOK(prev, "free") {
			return false
		}
		l.absorb(prev, off)
	}
	return true
}
