package printer

import (
	"encoding/hex"
	"strings"

	"github.com/joshuapare/lightheap/heap/alloc"
)

// printText prints the block map in human-readable text format.
func (p *Printer) printText() error {
	sum := Summarize(p.src)
	cfg := p.src.Config()

	p.num.Fprintf(p.writer, "Arena [%s]\n", cfg.Name)
	p.num.Fprintf(p.writer, "  Capacity: %d bytes, Header: %d bytes, Upper bound: %d\n",
		sum.Capacity, sum.HeaderSize, sum.UpperBound)
	p.num.Fprintf(p.writer, "  Blocks: %d (%d used, %d free), Free bytes: %d, Largest free: %d\n",
		sum.Blocks, sum.Used, sum.Free, sum.FreeBytes, sum.Largest)

	indent := strings.Repeat(" ", p.opts.IndentSize)
	for _, b := range p.visible() {
		p.printBlockText(b, indent)
	}

	if p.opts.ShowStats && cfg.EnableStatistics {
		p.printStatsText(p.src.Stats(), indent)
	}
	return nil
}

func (p *Printer) printBlockText(b alloc.BlockInfo, indent string) {
	state := "free"
	switch {
	case b.Last:
		state = "sentinel"
	case b.Used:
		state = "used"
	}

	p.num.Fprintf(p.writer, "%s0x%06X  %-8s span=%d", indent, b.Offset, state, b.Span)
	if b.Used && b.Requested > 0 {
		p.num.Fprintf(p.writer, " req=%d", b.Requested)
	}
	if p.opts.ShowCallers && b.Used {
		if fn := b.CallerFunc(); fn != "" {
			p.num.Fprintf(p.writer, " at %s", fn)
		}
	}
	p.num.Fprintf(p.writer, "\n")

	if data := p.payloadPrefix(b); len(data) > 0 {
		p.num.Fprintf(p.writer, "%s%s%s\n", indent, indent, hex.EncodeToString(data))
	}
}

// PrintStats writes only the statistics report.
func (p *Printer) PrintStats() {
	p.printStatsText(p.src.Stats(), "")
}

func (p *Printer) printStatsText(s alloc.Stats, indent string) {
	p.num.Fprintf(p.writer, "%sStatistics:\n", indent)
	p.num.Fprintf(p.writer, "%s  Calls: %d alloc, %d free, %d failed\n", indent, s.AllocCalls, s.FreeCalls, s.FailedAllocs)
	p.num.Fprintf(p.writer, "%s  Live: %d (peak %d)\n", indent, s.Live, s.PeakLive)
	p.num.Fprintf(p.writer, "%s  Small: %d (peak %d), Medium: %d (peak %d), Large: %d (peak %d)\n",
		indent, s.Small, s.PeakSmall, s.Medium, s.PeakMedium, s.Large, s.PeakLarge)
	p.num.Fprintf(p.writer, "%s  Bytes: %d allocated (peak %d), %d lost (peak %d)\n",
		indent, s.BytesAllocated, s.PeakBytesAllocated, s.BytesLost, s.PeakBytesLost)
	p.num.Fprintf(p.writer, "%s  Fragmentation: %.1f%%\n", indent, s.Fragmentation()*100)
	p.num.Fprintf(p.writer, "%s  Splits: %d, Merges: %d\n", indent, s.Splits, s.Merges)
	if s.TotalAllocDuration > 0 {
		p.num.Fprintf(p.writer, "%s  Alloc time: last %v, max %v, total %v\n",
			indent, s.LastAllocDuration, s.MaxAllocDuration, s.TotalAllocDuration)
	}
}
