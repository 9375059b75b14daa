package alloc

import (
	"fmt"

	"github.com/joshuapare/lightheap/internal/format"
)

// Attach rebuilds an allocator over an arena that already holds blocks, for
// example a file-backed region written by an earlier process. cfg must carry
// the same layout options the arena was written with.
//
// The next chain is walked from offset 0. The lowest free block becomes the
// head and the block with no successor becomes the tail. The free list is
// rebuilt in address order, so stale nextFree/prevFree values in the image are
// repaired. Statistics are recomputed from live blocks when headers carry
// requested sizes.
func Attach(mem []byte, cfg *Config) (*Light, error) {
	l, err := newLight(mem, cfg)
	if err != nil {
		return nil, err
	}
	if err := l.rebuild(); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *Light) rebuild() error {
	var err error
	l.critical(func() {
		err = l.rebuildLocked()
	})
	return err
}

func (l *Light) rebuildLocked() error {
	l.head, l.tail = none, none
	l.stats = Stats{}
	lastFree := none

	off := 0
	for {
		if off+l.hdr > l.end {
			return fmt.Errorf("header at 0x%X past arena end 0x%X: %w", off, l.end, ErrCorrupt)
		}
		if err := l.layout.CheckGuards(l.mem, off); err != nil {
			return fmt.Errorf("attach: %w: %w", ErrCorrupt, err)
		}
		if err := l.layout.CheckTag(l.mem, off); err != nil {
			return fmt.Errorf("attach: %w: %w", ErrCorrupt, err)
		}

		nx := l.next(off)
		if nx != none && (nx <= off || nx+l.hdr > l.end || !format.IsWordAligned(nx)) {
			return fmt.Errorf("block 0x%X has next 0x%X: %w", off, nx, ErrCorrupt)
		}

		if l.tag(off) == format.TagFree {
			if lastFree == none {
				l.head = off
			} else {
				l.setNextFree(lastFree, off)
			}
			l.setPrevFree(off, lastFree)
			l.setNextFree(off, none)
			lastFree = off
		} else {
			if nx == none {
				return fmt.Errorf("last block 0x%X is in use: %w", off, ErrCorrupt)
			}
			if l.cfg.EnableStatistics {
				size := l.reqSize(off)
				l.stats.recordAlloc(l.bucketOf(size), size, l.spanAt(off, nx))
			}
		}

		if nx == none {
			l.tail = off
			break
		}
		off = nx
	}

	l.inited = true
	l.log.Debug("arena attached", "config", l.cfg.Name, "head", l.head, "tail", l.tail)
	return nil
}
