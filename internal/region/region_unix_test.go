//go:build unix

package region

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAnonymousIsZeroed(t *testing.T) {
	r, err := Anonymous(4096)
	require.NoError(t, err)
	defer func() { require.NoError(t, r.Close()) }()

	require.Equal(t, 4096, r.Len())
	for i, b := range r.Bytes() {
		require.Zero(t, b, "byte %d not zero", i)
	}
	r.Bytes()[0] = 0x42
	require.NoError(t, r.Flush(), "flush on anonymous region is a no-op")
}

func TestAnonymousRejectsBadSize(t *testing.T) {
	_, err := Anonymous(0)
	require.ErrorIs(t, err, ErrInvalidSize)
}

func TestMapFilePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "arena.img")

	r, err := MapFile(path, 512)
	require.NoError(t, err)
	require.Equal(t, path, r.Path())
	copy(r.Bytes()[100:], []byte{0xde, 0xad, 0xbe, 0xef})
	require.NoError(t, r.Flush())
	require.NoError(t, r.Close())
	require.NoError(t, r.Close(), "double close is a no-op")

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Len(t, raw, 512)
	require.Equal(t, []byte{0xde, 0xad, 0xbe, 0xef}, raw[100:104])

	// Reopen using the existing length.
	r2, err := MapFile(path, 0)
	require.NoError(t, err)
	defer r2.Close()
	require.Equal(t, 512, r2.Len())
	require.Equal(t, byte(0xef), r2.Bytes()[103])
}

func TestMapFileEmptyWithoutSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.img")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	_, err := MapFile(path, 0)
	require.ErrorIs(t, err, ErrInvalidSize)
}
