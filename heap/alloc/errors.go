package alloc

import (
	"errors"
	"fmt"
)

var (
	// ErrOutOfMemory indicates no free block large enough was found and the
	// frontier could not be extended.
	ErrOutOfMemory = errors.New("alloc: out of memory")

	// ErrFree indicates Free was called with a nil pointer.
	ErrFree = errors.New("alloc: free of nil pointer")

	// ErrBadPtr indicates a pointer outside the arena or not on a payload boundary.
	ErrBadPtr = errors.New("alloc: bad pointer")

	// ErrNotAllocated indicates an attempt to free or resize a block that is not in use.
	ErrNotAllocated = errors.New("alloc: block not allocated")

	// ErrInvalidSize indicates a negative or overflowing size request.
	ErrInvalidSize = errors.New("alloc: invalid size")

	// ErrRegionTooSmall indicates the region cannot hold even one block header.
	ErrRegionTooSmall = errors.New("alloc: region too small for a block header")

	// ErrRegionTooLarge indicates the region exceeds the 32-bit offset space.
	ErrRegionTooLarge = errors.New("alloc: region exceeds 32-bit offsets")

	// ErrCorrupt indicates the arena structure is inconsistent.
	ErrCorrupt = errors.New("alloc: arena corrupt")
)

// CorruptionError reports a damaged header found while touching a block.
// It is an invariant violation, not a recoverable condition: continuing to use
// the arena after one is reported risks further damage.
type CorruptionError struct {
	Offset int    // header offset where the damage was found
	Op     string // operation that touched the header
	Err    error  // underlying cause (format.ErrGuard, format.ErrBadTag, ...)
}

func (e *CorruptionError) Error() string {
	return fmt.Sprintf("alloc: corruption at 0x%X during %s: %v", e.Offset, e.Op, e.Err)
}

// Unwrap lets errors.Is match both ErrCorrupt and the underlying cause.
func (e *CorruptionError) Unwrap() []error {
	return []error{ErrCorrupt, e.Err}
}

// OutOfMemoryError is the panic value raised when Config.PanicOnOutOfMemory is set.
type OutOfMemoryError struct {
	Requested int
	Capacity  int
	Frontier  int
}

func (e *OutOfMemoryError) Error() string {
	return fmt.Sprintf("alloc: out of memory (requested=%d, capacity=%d, frontier=0x%X)",
		e.Requested, e.Capacity, e.Frontier)
}

// Unwrap lets errors.Is(err, ErrOutOfMemory) match.
func (e *OutOfMemoryError) Unwrap() error { return ErrOutOfMemory }
