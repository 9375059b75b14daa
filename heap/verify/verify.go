package verify

import (
	"fmt"

	"github.com/joshuapare/lightheap/heap/alloc"
	"github.com/joshuapare/lightheap/internal/format"
)

// ValidationError describes one broken invariant.
type ValidationError struct {
	Type    string
	Message string
	Offset  int
	Details map[string]interface{}
}

func (e *ValidationError) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("%s at offset 0x%X: %s", e.Type, e.Offset, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// AllInvariants validates a live allocator: the structure of a snapshot of its
// bytes and the head/tail it caches.
func AllInvariants(a *alloc.Light) error {
	cfg := a.Config()
	data := a.Snapshot()
	layout := a.Layout()

	blocks, err := BlockChain(data, layout)
	if err != nil {
		return err
	}
	if err := FreeChain(data, layout, blocks); err != nil {
		return err
	}

	head, tail := a.Bounds()
	wantHead, wantTail := firstFree(blocks), blocks[len(blocks)-1].Off
	if head != wantHead {
		return &ValidationError{
			Type:    "Bounds",
			Message: fmt.Sprintf("cached head 0x%X, lowest free block 0x%X", head, wantHead),
			Offset:  head,
			Details: map[string]interface{}{"config": cfg.Name},
		}
	}
	if tail != wantTail {
		return &ValidationError{
			Type:    "Bounds",
			Message: fmt.Sprintf("cached tail 0x%X, final block 0x%X", tail, wantTail),
			Offset:  tail,
			Details: map[string]interface{}{"config": cfg.Name},
		}
	}
	return nil
}

// Image validates raw arena bytes written with cfg's layout options.
func Image(data []byte, cfg *alloc.Config) error {
	if cfg == nil {
		cfg = &alloc.DefaultConfig
	}
	layout := format.NewLayout(cfg.EnableStatistics, cfg.EnableGuards, cfg.TrackCallers)
	data = data[:format.AlignDownWord(len(data))]

	blocks, err := BlockChain(data, layout)
	if err != nil {
		return err
	}
	return FreeChain(data, layout, blocks)
}

// BlockChain walks the next chain from offset 0 and returns every header in
// address order. It checks tags, guards, alignment, ascending links and the
// sentinel rule: exactly one block has no successor, and it is free.
func BlockChain(data []byte, layout format.Layout) ([]format.Header, error) {
	var blocks []format.Header

	off := 0
	for {
		h, err := layout.Decode(data, off)
		if err != nil {
			return nil, &ValidationError{Type: "BlockChain", Message: err.Error(), Offset: off}
		}
		if err := layout.CheckGuards(data, off); err != nil {
			return nil, &ValidationError{Type: "BlockChain", Message: err.Error(), Offset: off}
		}
		if err := layout.CheckTag(data, off); err != nil {
			return nil, &ValidationError{Type: "BlockChain", Message: err.Error(), Offset: off}
		}
		blocks = append(blocks, h)

		if h.Last() {
			if !h.Free() {
				return nil, &ValidationError{
					Type:    "BlockChain",
					Message: "final block is not free",
					Offset:  off,
				}
			}
			return blocks, nil
		}

		next := int(h.Next)
		if next <= off {
			return nil, &ValidationError{
				Type:    "BlockChain",
				Message: fmt.Sprintf("next 0x%X does not ascend", next),
				Offset:  off,
			}
		}
		if !format.IsWordAligned(next) {
			return nil, &ValidationError{
				Type:    "BlockChain",
				Message: fmt.Sprintf("next 0x%X not word aligned", next),
				Offset:  off,
			}
		}
		if next-off < layout.Size {
			return nil, &ValidationError{
				Type:    "BlockChain",
				Message: fmt.Sprintf("next 0x%X overlaps header", next),
				Offset:  off,
				Details: map[string]interface{}{"headerSize": layout.Size},
			}
		}
		off = next
	}
}

// FreeChain checks the free list implied by blocks: it starts at the lowest
// free block, ascends strictly, visits exactly the free blocks, keeps
// prevFree consistent and ends at the final block.
func FreeChain(data []byte, layout format.Layout, blocks []format.Header) error {
	free := make(map[int]bool)
	for _, b := range blocks {
		if b.Free() {
			free[b.Off] = true
		}
	}

	head := firstFree(blocks)
	tail := blocks[len(blocks)-1].Off

	prev := -1
	seen := 0
	for off := head; ; {
		if !free[off] {
			return &ValidationError{
				Type:    "FreeChain",
				Message: "free list reaches a block that is not free",
				Offset:  off,
			}
		}
		seen++
		if seen > len(free) {
			return &ValidationError{Type: "FreeChain", Message: "free list cycles", Offset: off}
		}

		h, _ := layout.Decode(data, off)
		wantPrev := format.NoBlock
		if prev >= 0 {
			wantPrev = uint32(prev)
		}
		if h.PrevFree != wantPrev {
			return &ValidationError{
				Type:    "FreeChain",
				Message: fmt.Sprintf("prevFree 0x%X, expected 0x%X", h.PrevFree, wantPrev),
				Offset:  off,
			}
		}

		if h.NextFree == format.NoBlock {
			if off != tail {
				return &ValidationError{
					Type:    "FreeChain",
					Message: fmt.Sprintf("free list ends before the final block 0x%X", tail),
					Offset:  off,
				}
			}
			break
		}
		next := int(h.NextFree)
		if next <= off {
			return &ValidationError{
				Type:    "FreeChain",
				Message: fmt.Sprintf("nextFree 0x%X does not ascend", next),
				Offset:  off,
			}
		}
		prev, off = off, next
	}

	if seen != len(free) {
		return &ValidationError{
			Type:    "FreeChain",
			Message: fmt.Sprintf("free list holds %d of %d free blocks", seen, len(free)),
			Offset:  -1,
		}
	}
	return nil
}

func firstFree(blocks []format.Header) int {
	for _, b := range blocks {
		if b.Free() {
			return b.Off
		}
	}
	return -1
}
