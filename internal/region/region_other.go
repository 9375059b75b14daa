//go:build !unix

package region

import (
	"os"
)

// Anonymous allocates size zeroed bytes from the Go heap when mmap is not available.
func Anonymous(size int) (*Region, error) {
	if size <= 0 {
		return nil, ErrInvalidSize
	}
	return &Region{data: make([]byte, size)}, nil
}

// MapFile reads the file into memory and writes it back on Flush when mmap
// is not available.
func MapFile(path string, size int) (*Region, error) {
	if size < 0 {
		return nil, ErrInvalidSize
	}
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	if size == 0 {
		if len(data) == 0 {
			return nil, ErrInvalidSize
		}
		size = len(data)
	}
	if len(data) < size {
		grown := make([]byte, size)
		copy(grown, data)
		data = grown
	}
	write := func(b []byte) error { return os.WriteFile(path, b, 0o644) }
	return &Region{data: data[:size], path: path, flush: write}, nil
}
