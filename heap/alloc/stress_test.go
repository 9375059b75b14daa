package alloc_test

import (
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/lightheap/heap/alloc"
)

// Test_RandomWorkload runs a seeded mix of alloc/free/resize and checks every
// invariant after each step, across the preset configurations.
func Test_RandomWorkload(t *testing.T) {
	configs := []alloc.Config{
		alloc.MinimalConfig,
		alloc.DefaultConfig,
		alloc.DebugConfig,
		{Name: "Shift3", ReuseThresholdShift: 3, EnableFreeBlockCleanup: true},
	}

	for _, cfg := range configs {
		cfg := cfg
		t.Run(cfg.Name, func(t *testing.T) {
			rng := rand.New(rand.NewSource(42))
			a := newArena(t, 8192, &cfg)

			live := map[alloc.Ptr]byte{}
			sizes := map[alloc.Ptr]int{}
			var order []alloc.Ptr

			for step := 0; step < 2000; step++ {
				switch op := rng.Intn(10); {
				case op < 5 || len(order) == 0:
					size := rng.Intn(200)
					p, buf, err := a.Alloc(size, 0)
					if err != nil {
						require.ErrorIs(t, err, alloc.ErrOutOfMemory)
						break
					}
					fill := byte(step)
					for i := range buf {
						buf[i] = fill
					}
					live[p], sizes[p] = fill, size
					order = append(order, p)

				case op < 8:
					i := rng.Intn(len(order))
					p := order[i]
					checkFill(t, a, p, live[p], sizes[p])
					require.NoError(t, a.Free(p))
					delete(live, p)
					delete(sizes, p)
					order = append(order[:i], order[i+1:]...)

				default:
					i := rng.Intn(len(order))
					p := order[i]
					size := 1 + rng.Intn(300)
					q, buf, err := a.Resize(p, size)
					if err != nil {
						require.ErrorIs(t, err, alloc.ErrOutOfMemory)
						checkFill(t, a, p, live[p], sizes[p])
						break
					}
					kept := min(size, sizes[p])
					for j := 0; j < kept; j++ {
						require.Equal(t, live[p], buf[j], "resize lost byte %d", j)
					}
					fill := live[p]
					for j := range buf {
						buf[j] = fill
					}
					delete(live, p)
					delete(sizes, p)
					live[q], sizes[q] = fill, size
					order[i] = q
				}
				requireInvariants(t, a)
			}

			for _, p := range order {
				require.NoError(t, a.Free(p))
			}
			requireInvariants(t, a)
			if cfg.EnableFreeBlockCleanup {
				require.Equal(t, []int{0}, a.FreeList(), "all blocks coalesced")
			}
		})
	}
}

func checkFill(t *testing.T, a *alloc.Light, p alloc.Ptr, fill byte, size int) {
	t.Helper()
	payload := a.Payload(p)
	if size == 0 {
		return
	}
	require.GreaterOrEqual(t, len(payload), size)
	for i := 0; i < size; i++ {
		require.Equal(t, fill, payload[i], "block 0x%X byte %d overwritten", p, i)
	}
}

func Test_Concurrent(t *testing.T) {
	a := newArena(t, 1<<16, nil)

	const workers = 8
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(id byte) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(int64(id)))
			var mine []alloc.Ptr
			for i := 0; i < 300; i++ {
				if len(mine) > 0 && rng.Intn(3) == 0 {
					p := mine[len(mine)-1]
					mine = mine[:len(mine)-1]
					for _, b := range a.Payload(p)[:8] {
						if b != id {
							errs <- alloc.ErrCorrupt
							return
						}
					}
					if err := a.Free(p); err != nil {
						errs <- err
						return
					}
					continue
				}
				p, buf, err := a.Alloc(8+rng.Intn(56), 0)
				if err != nil {
					continue
				}
				for j := range buf {
					buf[j] = id
				}
				mine = append(mine, p)
			}
			for _, p := range mine {
				if err := a.Free(p); err != nil {
					errs <- err
					return
				}
			}
		}(byte(w + 1))
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	requireInvariants(t, a)
	require.Equal(t, 0, a.Stats().Live)
	require.Equal(t, []int{0}, a.FreeList())
}
