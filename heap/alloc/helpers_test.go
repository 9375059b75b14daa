package alloc_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/lightheap/heap/alloc"
	"github.com/joshuapare/lightheap/heap/verify"
)

// ============================================================================
// Test Helpers
// ============================================================================

// bareCfg returns 16-byte headers with the given policy and cleanup settings.
func bareCfg(shift uint, cleanup bool) *alloc.Config {
	return &alloc.Config{
		Name:                   "test",
		ReuseThresholdShift:    shift,
		EnableFreeBlockCleanup: cleanup,
	}
}

// newArena creates an allocator over a fresh size-byte arena.
func newArena(t testing.TB, size int, cfg *alloc.Config) *alloc.Light {
	t.Helper()
	a, err := alloc.New(make([]byte, size), cfg)
	require.NoError(t, err)
	requireInvariants(t, a)
	return a
}

// mustAlloc allocates or fails the test.
func mustAlloc(t testing.TB, a *alloc.Light, size int) (alloc.Ptr, []byte) {
	t.Helper()
	p, buf, err := a.Alloc(size, 0)
	require.NoError(t, err, "Alloc(%d)", size)
	require.NotEqual(t, alloc.Nil, p)
	requireInvariants(t, a)
	return p, buf
}

// mustFree frees or fails the test.
func mustFree(t testing.TB, a *alloc.Light, p alloc.Ptr) {
	t.Helper()
	require.NoError(t, a.Free(p), "Free(0x%X)", p)
	requireInvariants(t, a)
}

// requireInvariants checks every arena invariant.
func requireInvariants(t testing.TB, a *alloc.Light) {
	t.Helper()
	require.NoError(t, verify.AllInvariants(a))
}

// fakeClock advances by step on every Now call.
type fakeClock struct {
	now  time.Time
	step time.Duration
}

func (c *fakeClock) Now() time.Time {
	c.now = c.now.Add(c.step)
	return c.now
}

// hookRecorder captures hook invocations.
type hookRecorder struct {
	allocs  []alloc.Ptr
	sizes   []int
	elapsed []time.Duration
	frees   []alloc.Ptr
	reports []alloc.Stats
}

func (h *hookRecorder) OnAlloc(p alloc.Ptr, size int, elapsed time.Duration) {
	h.allocs = append(h.allocs, p)
	h.sizes = append(h.sizes, size)
	h.elapsed = append(h.elapsed, elapsed)
}

func (h *hookRecorder) OnFree(p alloc.Ptr) { h.frees = append(h.frees, p) }

func (h *hookRecorder) OnReport(s alloc.Stats) { h.reports = append(h.reports, s) }
