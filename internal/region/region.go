// Package region provides the backing memory an arena is carved from.
//
// On a microcontroller the linker hands the allocator a fixed [start, end)
// section. Here the equivalent is a Region: either an anonymous mapping that
// lives for the process, or a file-backed mapping whose contents survive the
// process so an arena image can be inspected later.
package region

import "errors"

// ErrInvalidSize indicates a non-positive region size.
var ErrInvalidSize = errors.New("region: size must be positive")

// Region is a contiguous byte range owned by one allocator.
type Region struct {
	data   []byte
	path   string
	flush  func([]byte) error
	unmap  func([]byte) error
	closed bool
}

// Bytes returns the mapped memory. The slice is invalid after Close.
func (r *Region) Bytes() []byte { return r.data }

// Len returns the region length in bytes.
func (r *Region) Len() int { return len(r.data) }

// Path returns the backing file path, or "" for anonymous regions.
func (r *Region) Path() string { return r.path }

// Flush synchronously writes a file-backed region to disk. No-op for anonymous regions.
func (r *Region) Flush() error {
	if r.closed || r.flush == nil {
		return nil
	}
	return r.flush(r.data)
}

// Close releases the mapping. Calling Close twice is a no-op.
func (r *Region) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	data := r.data
	r.data = nil
	if r.unmap == nil {
		return nil
	}
	return r.unmap(data)
}

// FromBytes wraps caller-owned memory as a region. Close and Flush are no-ops.
func FromBytes(b []byte) *Region {
	return &Region{data: b}
}
