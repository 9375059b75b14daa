package verify_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/lightheap/heap/alloc"
	"github.com/joshuapare/lightheap/heap/verify"
	"github.com/joshuapare/lightheap/internal/format"
)

func buildArena(t *testing.T, cfg *alloc.Config) (*alloc.Light, []alloc.Ptr) {
	t.Helper()
	a, err := alloc.New(make([]byte, 1024), cfg)
	require.NoError(t, err)

	var ptrs []alloc.Ptr
	for _, sz := range []int{16, 48, 8, 100} {
		p, _, err := a.Alloc(sz, 0)
		require.NoError(t, err)
		ptrs = append(ptrs, p)
	}
	require.NoError(t, a.Free(ptrs[1]))
	return a, ptrs
}

func requireType(t *testing.T, err error, typ string) {
	t.Helper()
	require.Error(t, err)
	var ve *verify.ValidationError
	require.True(t, errors.As(err, &ve), "want *ValidationError, got %T", err)
	require.Equal(t, typ, ve.Type, ve.Error())
}

func TestAllInvariants_Valid(t *testing.T) {
	for _, cfg := range []*alloc.Config{&alloc.MinimalConfig, &alloc.DefaultConfig, &alloc.DebugConfig} {
		a, _ := buildArena(t, cfg)
		require.NoError(t, verify.AllInvariants(a), cfg.Name)
		require.NoError(t, verify.Image(a.Snapshot(), cfg), cfg.Name)
	}
}

func TestImage_FreshArena(t *testing.T) {
	a, err := alloc.New(make([]byte, 64), nil)
	require.NoError(t, err)
	require.NoError(t, verify.Image(a.Snapshot(), nil))
}

func TestBlockChain_BadTag(t *testing.T) {
	a, ptrs := buildArena(t, nil)
	data := a.Snapshot()
	off := int(ptrs[2]) - a.HeaderSize()
	format.PutU32(data, off+a.Layout().Tag, 0xCAFEBABE)

	requireType(t, verify.Image(data, nil), "BlockChain")
}

func TestBlockChain_DescendingNext(t *testing.T) {
	a, ptrs := buildArena(t, nil)
	data := a.Snapshot()
	off := int(ptrs[2]) - a.HeaderSize()
	format.PutU32(data, off+a.Layout().Next, 0)

	requireType(t, verify.Image(data, nil), "BlockChain")
}

func TestBlockChain_UnalignedNext(t *testing.T) {
	a, ptrs := buildArena(t, nil)
	data := a.Snapshot()
	off := int(ptrs[0]) - a.HeaderSize()
	next := format.ReadU32(data, off+a.Layout().Next)
	format.PutU32(data, off+a.Layout().Next, next+4)

	requireType(t, verify.Image(data, nil), "BlockChain")
}

func TestBlockChain_UsedSentinel(t *testing.T) {
	a, _ := buildArena(t, nil)
	data := a.Snapshot()
	_, tail := a.Bounds()
	format.PutU32(data, tail+a.Layout().Tag, format.TagUsed)

	err := verify.Image(data, nil)
	requireType(t, err, "BlockChain")
	require.Contains(t, err.Error(), "not free")
}

func TestBlockChain_Guards(t *testing.T) {
	a, ptrs := buildArena(t, &alloc.DebugConfig)
	data := a.Snapshot()
	off := int(ptrs[3]) - a.HeaderSize()
	format.PutU32(data, off+a.Layout().GuardSuffix, 0)

	requireType(t, verify.Image(data, &alloc.DebugConfig), "BlockChain")
}

func TestFreeChain_ReachesUsedBlock(t *testing.T) {
	a, _ := buildArena(t, nil)
	data := a.Snapshot()
	head, _ := a.Bounds()

	var used int
	for _, b := range a.Blocks() {
		if b.Used && b.Offset > head {
			used = b.Offset
			break
		}
	}
	require.NotZero(t, used)
	format.PutU32(data, head+a.Layout().NextFree, uint32(used))

	err := verify.Image(data, nil)
	requireType(t, err, "FreeChain")
	require.Contains(t, err.Error(), "not free")
}

func TestFreeChain_BadPrevFree(t *testing.T) {
	a, _ := buildArena(t, nil)
	data := a.Snapshot()
	_, tail := a.Bounds()
	format.PutU32(data, tail+a.Layout().PrevFree, format.NoBlock)

	err := verify.Image(data, nil)
	requireType(t, err, "FreeChain")
	require.Contains(t, err.Error(), "prevFree")
}

func TestFreeChain_EndsEarly(t *testing.T) {
	a, _ := buildArena(t, nil)
	data := a.Snapshot()
	head, _ := a.Bounds()
	format.PutU32(data, head+a.Layout().NextFree, format.NoBlock)

	requireType(t, verify.Image(data, nil), "FreeChain")
}

func TestFreeChain_MissingBlock(t *testing.T) {
	// Two interior free blocks; linking the first straight to the sentinel
	// leaves the second off the list.
	a, err := alloc.New(make([]byte, 1024), &alloc.MinimalConfig)
	require.NoError(t, err)
	var ptrs []alloc.Ptr
	for i := 0; i < 4; i++ {
		p, _, err := a.Alloc(16, 0)
		require.NoError(t, err)
		ptrs = append(ptrs, p)
	}
	require.NoError(t, a.Free(ptrs[0]))
	require.NoError(t, a.Free(ptrs[2]))

	data := a.Snapshot()
	_, tail := a.Bounds()
	format.PutU32(data, a.Layout().NextFree, uint32(tail))
	format.PutU32(data, tail+a.Layout().PrevFree, 0)

	err = verify.Image(data, &alloc.MinimalConfig)
	requireType(t, err, "FreeChain")
	require.Contains(t, err.Error(), "of 3 free blocks")
}
