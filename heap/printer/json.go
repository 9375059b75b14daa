package printer

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/joshuapare/lightheap/heap/alloc"
)

// jsonArena represents an arena in JSON format.
type jsonArena struct {
	Name    string       `json:"name"`
	Summary Summary      `json:"summary"`
	Blocks  []jsonBlock  `json:"blocks"`
	Stats   *alloc.Stats `json:"stats,omitempty"`
}

// jsonBlock represents one block in JSON format.
type jsonBlock struct {
	Offset    int    `json:"offset"`
	Ptr       uint32 `json:"ptr"`
	Span      int    `json:"span"`
	Used      bool   `json:"used"`
	Sentinel  bool   `json:"sentinel,omitempty"`
	Requested int    `json:"requested,omitempty"`
	Caller    string `json:"caller,omitempty"`
	Payload   string `json:"payload,omitempty"`
}

// printJSON prints the arena in JSON format.
func (p *Printer) printJSON() error {
	cfg := p.src.Config()
	out := jsonArena{
		Name:    cfg.Name,
		Summary: Summarize(p.src),
		Blocks:  []jsonBlock{},
	}

	for _, b := range p.visible() {
		jb := jsonBlock{
			Offset:    b.Offset,
			Ptr:       b.Ptr,
			Span:      b.Span,
			Used:      b.Used,
			Sentinel:  b.Last,
			Requested: b.Requested,
		}
		if p.opts.ShowCallers && b.Used {
			jb.Caller = b.CallerFunc()
		}
		if data := p.payloadPrefix(b); len(data) > 0 {
			jb.Payload = hex.EncodeToString(data)
		}
		out.Blocks = append(out.Blocks, jb)
	}

	if p.opts.ShowStats && cfg.EnableStatistics {
		s := p.src.Stats()
		out.Stats = &s
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(p.writer, "%s\n", data)
	return err
}
