package alloc_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/lightheap/heap/alloc"
	"github.com/joshuapare/lightheap/heap/verify"
	"github.com/joshuapare/lightheap/internal/format"
	"github.com/joshuapare/lightheap/internal/region"
)

// populated returns an arena with a mix of live and free blocks.
func populated(t *testing.T, cfg *alloc.Config) (*alloc.Light, []byte) {
	t.Helper()
	mem := make([]byte, 2048)
	a, err := alloc.New(mem, cfg)
	require.NoError(t, err)

	var ptrs []alloc.Ptr
	for _, sz := range []int{24, 100, 8, 300, 40, 64} {
		p, _ := mustAlloc(t, a, sz)
		ptrs = append(ptrs, p)
	}
	mustFree(t, a, ptrs[1])
	mustFree(t, a, ptrs[3])
	return a, mem
}

func Test_Attach_RoundTrip(t *testing.T) {
	a, mem := populated(t, nil)

	b, err := alloc.Attach(append([]byte(nil), mem...), nil)
	require.NoError(t, err)
	requireInvariants(t, b)

	assert.Equal(t, a.Blocks(), b.Blocks())
	assert.Equal(t, a.FreeList(), b.FreeList())
	ah, at := a.Bounds()
	bh, bt := b.Bounds()
	assert.Equal(t, ah, bh)
	assert.Equal(t, at, bt)

	as, bs := a.Stats(), b.Stats()
	assert.Equal(t, as.Live, bs.Live)
	assert.Equal(t, as.BytesAllocated, bs.BytesAllocated)
	assert.Equal(t, as.BytesLost, bs.BytesLost)

	p, _ := mustAlloc(t, b, 90)
	assert.NotEqual(t, alloc.Nil, p)
}

func Test_Attach_RepairsFreeLinks(t *testing.T) {
	_, mem := populated(t, nil)
	layout := format.NewLayout(true, false, false)

	// Break every free link in the image; the next chain is authoritative.
	for off := 0; ; {
		h, err := layout.Decode(mem, off)
		require.NoError(t, err)
		if h.Free() {
			format.PutU32(mem, off+layout.NextFree, format.NoBlock)
			format.PutU32(mem, off+layout.PrevFree, 0x1234)
		}
		if h.Last() {
			break
		}
		off = int(h.Next)
	}
	require.Error(t, verify.Image(mem, nil))

	b, err := alloc.Attach(mem, nil)
	require.NoError(t, err)
	requireInvariants(t, b)
	require.NoError(t, verify.Image(mem, nil))
}

func Test_Attach_RejectsDamage(t *testing.T) {
	layout := format.NewLayout(true, false, false)

	t.Run("BadTag", func(t *testing.T) {
		_, mem := populated(t, nil)
		format.PutU32(mem, layout.Tag, 0x12345678)
		_, err := alloc.Attach(mem, nil)
		require.ErrorIs(t, err, alloc.ErrCorrupt)
	})

	t.Run("UsedSentinel", func(t *testing.T) {
		a, mem := populated(t, nil)
		_, tail := a.Bounds()
		format.PutU32(mem, tail+layout.Tag, format.TagUsed)
		_, err := alloc.Attach(mem, nil)
		require.ErrorIs(t, err, alloc.ErrCorrupt)
	})

	t.Run("BackwardLink", func(t *testing.T) {
		a, mem := populated(t, nil)
		blocks := a.Blocks()
		format.PutU32(mem, blocks[2].Offset+layout.Next, uint32(blocks[1].Offset))
		_, err := alloc.Attach(mem, nil)
		require.ErrorIs(t, err, alloc.ErrCorrupt)
	})

	t.Run("LayoutMismatch", func(t *testing.T) {
		_, mem := populated(t, nil)
		_, err := alloc.Attach(mem, &alloc.DebugConfig)
		require.ErrorIs(t, err, alloc.ErrCorrupt)
	})
}

func Test_Attach_FileBacked(t *testing.T) {
	path := filepath.Join(t.TempDir(), "arena.img")

	r, err := region.MapFile(path, 4096)
	require.NoError(t, err)
	a, err := alloc.New(r.Bytes(), &alloc.DebugConfig)
	require.NoError(t, err)
	p, buf := mustAlloc(t, a, 11)
	copy(buf, "persisted!!")
	require.NoError(t, r.Flush())
	require.NoError(t, r.Close())

	r, err = region.MapFile(path, 0)
	require.NoError(t, err)
	defer r.Close()
	b, err := alloc.Attach(r.Bytes(), &alloc.DebugConfig)
	require.NoError(t, err)
	requireInvariants(t, b)

	require.EqualValues(t, 11, b.Stats().BytesAllocated)
	require.Equal(t, "persisted!!", string(b.Payload(p)[:11]))
}
