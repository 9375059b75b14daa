package printer

import (
	"fmt"
	"io"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/joshuapare/lightheap/heap/alloc"
)

const (
	DefaultIndentSize   = 2
	DefaultMaxBlocks    = 0
	DefaultPayloadBytes = 0
)

// Format specifies the output format for printing.
type Format string

const (
	// FormatText outputs a human-readable block map.
	FormatText Format = "text"

	// FormatJSON outputs JSON format.
	FormatJSON Format = "json"
)

// Options controls printing behavior.
type Options struct {
	// Format specifies output format (text, json).
	// Default: FormatText
	Format Format

	// IndentSize is the number of spaces per indent level (text format only).
	// Default: 2
	IndentSize int

	// MaxBlocks limits how many blocks are listed (0 = unlimited).
	// Default: 0 (unlimited)
	MaxBlocks int

	// ShowFree includes free blocks in the block map.
	// Default: true
	ShowFree bool

	// ShowCallers resolves the allocation site of used blocks.
	// Only meaningful when the arena tracks callers.
	// Default: false
	ShowCallers bool

	// ShowStats appends the statistics report.
	// Default: true
	ShowStats bool

	// PayloadBytes dumps the first N payload bytes of used blocks in hex.
	// Default: 0 (none)
	PayloadBytes int
}

// DefaultOptions returns sensible defaults for printing.
func DefaultOptions() Options {
	return Options{
		Format:       FormatText,
		IndentSize:   DefaultIndentSize,
		MaxBlocks:    DefaultMaxBlocks,
		ShowFree:     true,
		ShowCallers:  false,
		ShowStats:    true,
		PayloadBytes: DefaultPayloadBytes,
	}
}

// Source is the view of an arena the printer reads. *alloc.Light implements it.
type Source interface {
	Blocks() []alloc.BlockInfo
	Stats() alloc.Stats
	Capacity() int
	HeaderSize() int
	UpperBound() int
	Config() alloc.Config
	Payload(p alloc.Ptr) []byte
}

var _ Source = (*alloc.Light)(nil)

// Printer handles formatted output of arena structures.
type Printer struct {
	opts   Options
	writer io.Writer
	src    Source
	num    *message.Printer
}

// New creates a new Printer.
//
// Example:
//
//	a, _ := alloc.New(mem, nil)
//	p := printer.New(a, os.Stdout, printer.DefaultOptions())
//	p.Print()
func New(src Source, w io.Writer, opts Options) *Printer {
	if opts.IndentSize <= 0 {
		opts.IndentSize = DefaultIndentSize
	}
	return &Printer{
		src:    src,
		writer: w,
		opts:   opts,
		num:    message.NewPrinter(language.English),
	}
}

// Print writes the block map and, when enabled, the statistics report.
func (p *Printer) Print() error {
	switch p.opts.Format {
	case FormatText, "":
		return p.printText()
	case FormatJSON:
		return p.printJSON()
	default:
		return fmt.Errorf("unsupported format: %s", p.opts.Format)
	}
}

// Summary describes the arena as a whole.
type Summary struct {
	Capacity   int
	HeaderSize int
	UpperBound int
	Blocks     int
	Used       int
	Free       int
	FreeBytes  int
	Largest    int // largest free span, including the sentinel
}

// Summarize walks the blocks once.
func Summarize(src Source) Summary {
	s := Summary{
		Capacity:   src.Capacity(),
		HeaderSize: src.HeaderSize(),
		UpperBound: src.UpperBound(),
	}
	for _, b := range src.Blocks() {
		s.Blocks++
		if b.Used {
			s.Used++
			continue
		}
		s.Free++
		s.FreeBytes += b.Span
		s.Largest = max(s.Largest, b.Span)
	}
	return s
}

// visible returns the blocks the options select.
func (p *Printer) visible() []alloc.BlockInfo {
	var out []alloc.BlockInfo
	for _, b := range p.src.Blocks() {
		if !b.Used && !p.opts.ShowFree {
			continue
		}
		out = append(out, b)
		if p.opts.MaxBlocks > 0 && len(out) == p.opts.MaxBlocks {
			break
		}
	}
	return out
}

func (p *Printer) payloadPrefix(b alloc.BlockInfo) []byte {
	if p.opts.PayloadBytes <= 0 || !b.Used {
		return nil
	}
	data := p.src.Payload(b.Ptr)
	return data[:min(len(data), p.opts.PayloadBytes)]
}
