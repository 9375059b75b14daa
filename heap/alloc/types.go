package alloc

import (
	"runtime"
	"time"

	"github.com/joshuapare/lightheap/heap/critical"
)

// Ptr is the payload offset of an allocated block within the arena.
// Offset 0 always holds the first block header, so no payload lives there and
// the zero value doubles as the nil pointer.
type Ptr = uint32

// Nil is the null pointer.
const Nil Ptr = 0

// PoolID is accepted for interface compatibility. The arena is a single pool.
type PoolID = uint8

// Allocator defines the allocation surface shared by arena implementations.
//
// Implementations:
//   - Light: fixed arena with an address-ordered free list
type Allocator interface {
	// Alloc returns a zeroed payload of at least size bytes.
	Alloc(size int, pool PoolID) (Ptr, []byte, error)

	// AllocZeroed is the calloc-style form of Alloc.
	AllocZeroed(count, elemSize int) (Ptr, []byte, error)

	// Free returns the block at p to the free list.
	Free(p Ptr) error

	// Resize grows a block, returning the same pointer when it already fits.
	Resize(p Ptr, size int) (Ptr, []byte, error)

	// SizeOf returns the usable span of the block at p.
	SizeOf(p Ptr) int
}

// Hook observes allocator events. Hooks run after the critical section has
// been left, so they may call back into the allocator.
type Hook interface {
	// OnAlloc is called after every Alloc attempt. p is Nil when it failed.
	// elapsed is zero unless Config.EnableBenchmark is set.
	OnAlloc(p Ptr, size int, elapsed time.Duration)

	// OnFree is called after every successful Free.
	OnFree(p Ptr)

	// OnReport is called every Config.ReportEvery allocations with a snapshot.
	OnReport(s Stats)
}

// Clock supplies timestamps for allocation benchmarking.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

// Now returns time.Now().
func (SystemClock) Now() time.Time { return time.Now() }

// Section is re-exported so callers configuring an allocator need only this package.
type Section = critical.Section

// BlockInfo describes one block as seen by Walk.
type BlockInfo struct {
	Offset    int     // header offset
	Ptr       Ptr     // payload offset
	Span      int     // usable bytes up to the next header (arena end for the sentinel)
	Used      bool    // allocated
	Requested int     // requested size, when statistics are enabled
	Caller    uintptr // allocation site, when caller tracking is enabled
	Last      bool    // the sentinel
}

// CallerFunc resolves Caller to a function name, or "" when unknown.
func (b BlockInfo) CallerFunc() string {
	if b.Caller == 0 {
		return ""
	}
	fn := runtime.FuncForPC(b.Caller)
	if fn == nil {
		return ""
	}
	return fn.Name()
}
