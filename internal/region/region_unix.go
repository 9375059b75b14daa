//go:build unix

package region

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// Anonymous maps size bytes of zeroed, private memory.
func Anonymous(size int) (*Region, error) {
	if size <= 0 {
		return nil, ErrInvalidSize
	}
	data, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, fmt.Errorf("region: mmap anonymous %d bytes: %w", size, err)
	}
	return &Region{data: data, unmap: munmap}, nil
}

// MapFile maps the file at path read-write and shared, so arena mutations land
// in the file. When size > 0 the file is created or grown to size bytes; when
// size == 0 the existing file length is used.
func MapFile(path string, size int) (*Region, error) {
	if size < 0 {
		return nil, ErrInvalidSize
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, err
	}
	defer f.Close() // safe before return; mapping keeps pages alive

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if size == 0 {
		if info.Size() == 0 {
			return nil, ErrInvalidSize
		}
		if info.Size() > int64(^uint(0)>>1) {
			return nil, fmt.Errorf("region: file too large to map (%d bytes)", info.Size())
		}
		size = int(info.Size())
	} else if info.Size() < int64(size) {
		if err := f.Truncate(int64(size)); err != nil {
			return nil, fmt.Errorf("region: grow %s: %w", path, err)
		}
	}

	data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("region: mmap %s: %w", path, err)
	}
	return &Region{data: data, path: path, flush: msync, unmap: munmap}, nil
}

func msync(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	return unix.Msync(data, unix.MS_SYNC)
}

func munmap(data []byte) error {
	if data == nil {
		return nil
	}
	err := unix.Munmap(data)
	if errors.Is(err, unix.EINVAL) {
		// Treat double-unmap as no-op for callers.
		return nil
	}
	return err
}
