// Package alloc provides a fixed-arena heap allocator with an address-ordered
// free list.
//
// # Overview
//
// Light carves one caller-supplied byte region into blocks. Every block is
// prefixed by a header holding a tag, the offset of the next block and, for
// free blocks, the neighbouring free blocks. No metadata lives outside the
// arena, so an arena written to a file can be reattached later.
//
// # Allocator Interface
//
// The core abstraction is the Allocator interface:
//
//   - Alloc(size, pool): Allocate a zeroed block of at least size bytes
//   - AllocZeroed(count, elemSize): calloc-style allocation
//   - Free(p): Return a block to the free list
//   - Resize(p, size): realloc semantics
//   - SizeOf(p): Usable span of a live block
//
// # The Sentinel
//
// The highest block is always free and has no successor. It is the free-list
// tail and the frontier: when no interior free block is taken, the sentinel is
// turned into the new block and a fresh sentinel is written right after it.
//
//	0        hdr+32       ...                          end
//	[H|used ][H|free ][H|used   ][H|sentinel .........]
//
// # Placement Policy
//
// The free list is walked from the lowest address. A block large enough is
// taken at once when the bytes it would waste are below available>>k, where k
// is Config.ReuseThresholdShift. Rejected blocks are remembered and the
// smallest is used only when the frontier cannot fit the request. k = 0 is
// plain first fit.
//
// # Usage Example
//
//	a, err := alloc.New(make([]byte, 64<<10), &alloc.DefaultConfig)
//	if err != nil {
//	    return err
//	}
//
//	p, buf, err := a.Alloc(256, 0)
//	if err != nil {
//	    return err
//	}
//	copy(buf, payload)
//
//	// Later
//	err = a.Free(p)
//
// # Pointers
//
// Ptr is the payload offset within the arena. Offset 0 always holds a header,
// so Nil (0) never names a payload.
//
// # Thread Safety
//
// Every public method runs inside Config.Section, by default a mutex. Hooks
// run after the section is left.
//
// # Related Packages
//
//   - github.com/joshuapare/lightheap/heap/critical: Critical section implementations
//   - github.com/joshuapare/lightheap/heap/verify: Arena invariant checks
//   - github.com/joshuapare/lightheap/internal/format: Header layout and constants
package alloc
