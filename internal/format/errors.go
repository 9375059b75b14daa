package format

import "errors"

var (
	// ErrTruncated indicates the buffer lacked the bytes required for a header.
	ErrTruncated = errors.New("format: truncated buffer")
	// ErrBadTag indicates a header carried a tag that is neither free nor used.
	ErrBadTag = errors.New("format: unknown block tag")
	// ErrGuard indicates a guard pattern around a header was overwritten.
	ErrGuard = errors.New("format: guard pattern mismatch")
)
