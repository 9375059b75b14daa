package alloc

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/joshuapare/lightheap/internal/buf"
	"github.com/joshuapare/lightheap/internal/format"
)

// Light is the fixed-arena allocator. It carves one byte region into blocks,
// each prefixed by a header, and keeps the free blocks on a list ordered by
// ascending offset. The highest block is always free and has no successor; it
// is the frontier that allocations extend when no interior block is taken.
//
// Every public method runs inside Config.Section.
type Light struct {
	cfg    Config
	layout format.Layout
	hdr    int // header size

	mem []byte
	end int // usable end of mem (word aligned)

	// Free list bounds: head is the lowest free block, tail is the sentinel.
	head int
	tail int

	inited bool
	stats  Stats

	sec   Section
	hook  Hook
	clock Clock
	log   *slog.Logger
}

var _ Allocator = (*Light)(nil)

// New creates an allocator over mem and initializes it.
//
// Parameters:
//   - mem: the arena; its contents are overwritten by Init
//   - cfg: optional behaviour (use nil for DefaultConfig)
func New(mem []byte, cfg *Config) (*Light, error) {
	l, err := newLight(mem, cfg)
	if err != nil {
		return nil, err
	}
	if err := l.Init(); err != nil {
		return nil, err
	}
	return l, nil
}

func newLight(mem []byte, cfg *Config) (*Light, error) {
	if cfg == nil {
		cfg = &DefaultConfig
	}
	c := cfg.withDefaults()
	layout := c.layout()

	end := format.AlignDownWord(len(mem))
	if end < layout.Size {
		return nil, fmt.Errorf("%d bytes for a %d byte header: %w", len(mem), layout.Size, ErrRegionTooSmall)
	}
	if uint64(end) >= uint64(format.NoBlock) {
		return nil, ErrRegionTooLarge
	}

	return &Light{
		cfg:    c,
		layout: layout,
		hdr:    layout.Size,
		mem:    mem,
		end:    end,
		head:   none,
		tail:   none,
		sec:    c.Section,
		hook:   c.Hook,
		clock:  c.Clock,
		log:    c.Logger,
	}, nil
}

// Init lays down the single sentinel block spanning the whole arena.
// Subsequent calls are no-ops.
func (l *Light) Init() error {
	l.critical(func() {
		if l.inited {
			return
		}
		l.writeFree(0, none, none, none)
		l.head, l.tail = 0, 0
		l.stats = Stats{}
		l.inited = true
		l.log.Debug("arena initialized", "config", l.cfg.Name, "capacity", l.end, "header", l.hdr)
	})
	return nil
}

// Alloc returns a zeroed payload of at least size bytes, word aligned.
// pool is accepted for interface compatibility; the arena is a single pool.
// The returned slice has len size and cap SizeOf(p).
func (l *Light) Alloc(size int, pool PoolID) (Ptr, []byte, error) {
	return l.allocPublic(size, l.callerPC())
}

// AllocZeroed allocates count*elemSize zeroed bytes.
func (l *Light) AllocZeroed(count, elemSize int) (Ptr, []byte, error) {
	size, ok := buf.MulSize(count, elemSize)
	if !ok {
		return Nil, nil, fmt.Errorf("%d x %d bytes: %w", count, elemSize, ErrInvalidSize)
	}
	return l.allocPublic(size, l.callerPC())
}

func (l *Light) allocPublic(size int, caller uintptr) (Ptr, []byte, error) {
	if size < 0 {
		return Nil, nil, fmt.Errorf("size %d: %w", size, ErrInvalidSize)
	}

	var (
		p       = Nil
		buf     []byte
		err     error
		elapsed time.Duration
		report  *Stats
	)
	l.critical(func() {
		var start time.Time
		if l.cfg.EnableBenchmark {
			start = l.clock.Now()
		}

		var off int
		off, err = l.alloc(size, caller)
		if err == nil {
			pi := l.payload(off)
			p = Ptr(pi)
			buf = l.mem[pi : pi+size : l.next(off)]
		}

		if l.cfg.EnableBenchmark {
			elapsed = l.clock.Now().Sub(start)
			if l.cfg.EnableStatistics {
				l.stats.recordDuration(elapsed)
			}
		}
		report = l.reportDue()
	})

	if l.hook != nil {
		l.hook.OnAlloc(p, size, elapsed)
		if report != nil {
			l.hook.OnReport(*report)
		}
	}
	if l.cfg.PanicOnOutOfMemory && errors.Is(err, ErrOutOfMemory) {
		var frontier int
		l.critical(func() { frontier = l.tail })
		panic(&OutOfMemoryError{Requested: size, Capacity: l.end, Frontier: frontier})
	}
	return p, buf, err
}

// reportDue returns a stats snapshot when the periodic report is due.
func (l *Light) reportDue() *Stats {
	if l.cfg.ReportEvery <= 0 || !l.cfg.EnableStatistics {
		return nil
	}
	if l.stats.AllocCalls%l.cfg.ReportEvery != 0 {
		return nil
	}
	s := l.stats
	return &s
}

// alloc is the scan-and-commit sequence. It runs inside the critical section
// and returns the header offset of the committed block.
//
// The free list is walked from the head. Every interior free block large
// enough is either taken at once (the anti-waste policy accepts it) or kept as
// the best fallback seen so far. At the sentinel the frontier is extended if
// it can also fit a new sentinel header; only when it cannot is the fallback
// used.
func (l *Light) alloc(size int, caller uintptr) (int, error) {
	if l.cfg.EnableStatistics {
		l.stats.AllocCalls++
	}
	if size > l.end {
		return l.outOfMemory(size)
	}

	cur, prev := l.head, none
	cand, candPrev, candAvail := none, none, 0

	for {
		if !l.guardOK(cur, "alloc") {
			return none, &CorruptionError{Offset: cur, Op: "alloc", Err: format.ErrGuard}
		}
		nx := l.next(cur)
		if nx == none {
			break
		}

		avail := l.spanAt(cur, nx)
		if avail >= size {
			if l.accept(avail, size) {
				l.unlink(cur, prev)
				l.commit(cur, size, caller)
				return cur, nil
			}
			if cand == none || avail < candAvail {
				cand, candPrev, candAvail = cur, prev, avail
			}
		}

		prev, cur = cur, l.nextFree(cur)
		if cur == none {
			l.corrupt(prev, "alloc", fmt.Errorf("free list ends before the sentinel"))
			return none, &CorruptionError{Offset: prev, Op: "alloc", Err: ErrCorrupt}
		}
	}

	// cur is the sentinel.
	if l.end-cur-l.hdr >= size+l.hdr {
		l.extend(cur, prev, size)
		l.commit(cur, size, caller)
		return cur, nil
	}

	if cand != none {
		l.unlink(cand, candPrev)
		l.commit(cand, size, caller)
		return cand, nil
	}

	return l.outOfMemory(size)
}

// accept is the anti-waste policy: take a block when the bytes it would waste
// are below available >> ReuseThresholdShift. Exact fits are always taken;
// shift 0 means plain first fit.
func (l *Light) accept(avail, size int) bool {
	k := l.cfg.ReuseThresholdShift
	waste := avail - size
	if k == 0 || waste == 0 {
		return true
	}
	return waste < avail>>k
}

// extend turns the sentinel at cur into a used block of size bytes and lays
// a new sentinel right after it. prev is the free block before cur.
func (l *Light) extend(cur, prev, size int) {
	newOff := format.AlignWord(cur + l.hdr + size)
	l.writeFree(newOff, none, none, prev)
	l.setNext(cur, newOff)
	l.setNextFree(cur, newOff)

	if prev == none {
		l.head = newOff
	} else {
		l.setNextFree(prev, newOff)
	}
	l.tail = newOff

	if l.cfg.EnableStatistics {
		l.stats.Splits++
	}
	if logAlloc {
		l.log.Debug("frontier extended", "block", cur, "size", size, "sentinel", newOff)
	}
}

// commit marks the block at off used and zeroes its span.
func (l *Light) commit(off, size int, caller uintptr) {
	l.setTag(off, format.TagUsed)
	l.setReqSize(off, size)
	l.setCaller(off, caller)

	nx := l.next(off)
	clear(l.mem[l.payload(off):nx])

	if l.cfg.EnableStatistics {
		l.stats.recordAlloc(l.bucketOf(size), size, l.spanAt(off, nx))
	}
}

func (l *Light) outOfMemory(size int) (int, error) {
	if l.cfg.EnableStatistics {
		l.stats.FailedAllocs++
	}
	l.log.Warn("allocation failed", "size", size, "capacity", l.end, "frontier", l.tail)
	return none, fmt.Errorf("%d bytes: %w", size, ErrOutOfMemory)
}

// Free returns the block at p to the free list.
func (l *Light) Free(p Ptr) error {
	if p == Nil {
		return ErrFree
	}
	var err error
	l.critical(func() {
		err = l.free(p)
	})
	if err == nil && l.hook != nil {
		l.hook.OnFree(p)
	}
	return err
}

// free runs inside the critical section.
func (l *Light) free(p Ptr) error {
	if p == Nil {
		return ErrFree
	}
	off, err := l.validUsed(p)
	if err != nil {
		return err
	}

	nx := l.next(off)
	if !l.guardOK(nx, "free") {
		return &CorruptionError{Offset: nx, Op: "free", Err: format.ErrGuard}
	}
	if l.cfg.EnableStatistics {
		size := l.reqSize(off)
		l.stats.recordFree(l.bucketOf(size), size, l.spanAt(off, nx))
	}

	prev := l.insert(off)
	l.setTag(off, format.TagFree)
	l.setReqSize(off, 0)
	l.setCaller(off, 0)

	if l.cfg.EnableFreeBlockCleanup && !l.coalesce(off, prev) {
		return &CorruptionError{Offset: off, Op: "free", Err: format.ErrGuard}
	}
	return nil
}

// Resize follows realloc semantics: size 0 frees p and returns Nil, a Nil p
// allocates, a block whose span already covers size is returned unchanged,
// otherwise the contents move to a new block and p is freed. On failure p is
// left untouched.
func (l *Light) Resize(p Ptr, size int) (Ptr, []byte, error) {
	if size < 0 {
		return Nil, nil, fmt.Errorf("size %d: %w", size, ErrInvalidSize)
	}
	if size == 0 {
		return Nil, nil, l.Free(p)
	}
	caller := l.callerPC()
	if p == Nil {
		return l.allocPublic(size, caller)
	}

	var (
		np    = Nil
		buf   []byte
		err   error
		moved bool
	)
	l.critical(func() {
		var off int
		off, err = l.validUsed(p)
		if err != nil {
			return
		}
		pi := int(p)
		nx := l.next(off)
		span := l.spanAt(off, nx)
		if span >= size {
			np, buf = p, l.mem[pi:pi+size:nx]
			return
		}

		var noff int
		noff, err = l.alloc(size, caller)
		if err != nil {
			return
		}
		npi := l.payload(noff)
		copy(l.mem[npi:npi+span], l.mem[pi:pi+span])
		np, buf = Ptr(npi), l.mem[npi:npi+size:l.next(noff)]
		moved = true
		err = l.free(p)
	})

	if moved && l.hook != nil {
		l.hook.OnAlloc(np, size, 0)
		l.hook.OnFree(p)
	}
	if l.cfg.PanicOnOutOfMemory && errors.Is(err, ErrOutOfMemory) {
		panic(&OutOfMemoryError{Requested: size, Capacity: l.end})
	}
	return np, buf, err
}

// SizeOf returns the usable span of the block at p: the bytes between its
// header and the next header. This may exceed the requested size. Returns 0
// for Nil or a pointer that does not name a live block.
func (l *Light) SizeOf(p Ptr) int {
	if p == Nil {
		return 0
	}
	var n int
	l.critical(func() {
		off := l.headerOf(p)
		if !buf.Fits(off, l.hdr, l.end) || !format.IsWordAligned(off) || l.tag(off) != format.TagUsed {
			return
		}
		nx := l.next(off)
		if nx == none {
			return
		}
		n = l.spanAt(off, nx)
	})
	return n
}

// Payload returns the full span of the block at p, or nil when p is not live.
func (l *Light) Payload(p Ptr) []byte {
	n := l.SizeOf(p)
	if n == 0 {
		return nil
	}
	pi := int(p)
	return l.mem[pi : pi+n : pi+n]
}

// UpperBound returns the offset one past the sentinel header: no byte at or
// above it has been touched since Init.
func (l *Light) UpperBound() int {
	var ub int
	l.critical(func() { ub = l.tail + l.hdr })
	return ub
}

// Capacity returns the usable arena size in bytes.
func (l *Light) Capacity() int { return l.end }

// HeaderSize returns the per-block header size.
func (l *Light) HeaderSize() int { return l.hdr }

// Config returns the resolved configuration.
func (l *Light) Config() Config { return l.cfg }

// Stats returns a snapshot of the statistics counters.
func (l *Light) Stats() Stats {
	var s Stats
	l.critical(func() { s = l.stats })
	return s
}

// critical runs fn inside the configured section. The deferred Exit keeps the
// section balanced when fn panics on corruption.
func (l *Light) critical(fn func()) {
	s := l.sec.Enter()
	defer l.sec.Exit(s)
	fn()
}

// callerPC returns the PC of the code that called the public method invoking
// it, when caller tracking is enabled.
func (l *Light) callerPC() uintptr {
	if !l.cfg.TrackCallers {
		return 0
	}
	pc, _, _, ok := runtime.Caller(2)
	if !ok {
		return 0
	}
	return pc
}
