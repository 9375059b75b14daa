package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/joshuapare/lightheap/heap/alloc"
	"github.com/joshuapare/lightheap/heap/verify"
)

// OpKind is one replay script verb.
type OpKind string

const (
	OpAlloc  OpKind = "alloc"  // alloc <name> <size>
	OpCalloc OpKind = "calloc" // calloc <name> <count> <elemSize>
	OpFree   OpKind = "free"   // free <name>
	OpResize OpKind = "resize" // resize <name> <size>
	OpCheck  OpKind = "check"  // check
	OpExpect OpKind = "expect" // expect oom
)

// Op is one parsed script line.
type Op struct {
	Line int
	Kind OpKind
	Name string
	Args []int
}

// ParseScript reads a replay script. Blank lines and lines starting with '#'
// are ignored.
func ParseScript(r io.Reader) ([]Op, error) {
	var ops []Op
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)
		op := Op{Line: line, Kind: OpKind(strings.ToLower(fields[0]))}

		var want int // numeric arguments after the name
		switch op.Kind {
		case OpAlloc, OpResize:
			want = 1
		case OpCalloc:
			want = 2
		case OpFree:
			want = 0
		case OpCheck:
			if len(fields) != 1 {
				return nil, fmt.Errorf("line %d: check takes no arguments", line)
			}
			ops = append(ops, op)
			continue
		case OpExpect:
			if len(fields) != 2 || fields[1] != "oom" {
				return nil, fmt.Errorf("line %d: usage: expect oom", line)
			}
			ops = append(ops, op)
			continue
		default:
			return nil, fmt.Errorf("line %d: unknown operation %q", line, fields[0])
		}

		if len(fields) != 2+want {
			return nil, fmt.Errorf("line %d: %s expects %d argument(s), got %d", line, op.Kind, 1+want, len(fields)-1)
		}
		op.Name = fields[1]
		for _, f := range fields[2:] {
			n, err := strconv.Atoi(f)
			if err != nil || n < 0 {
				return nil, fmt.Errorf("line %d: invalid size %q", line, f)
			}
			op.Args = append(op.Args, n)
		}
		ops = append(ops, op)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return ops, nil
}

// ReplayResult summarizes a script run.
type ReplayResult struct {
	Ops    int                  `json:"ops"`
	Failed int                  `json:"failed"`
	Live   map[string]alloc.Ptr `json:"live"`
}

// Replay executes ops against a. Out-of-memory failures are counted and the
// run continues; an "expect oom" line asserts that the preceding operation hit
// one. Any other error stops the run.
func Replay(a *alloc.Light, ops []Op) (*ReplayResult, error) {
	res := &ReplayResult{Live: map[string]alloc.Ptr{}}
	var lastErr error

	for _, op := range ops {
		res.Ops++
		var err error

		switch op.Kind {
		case OpAlloc, OpCalloc:
			if _, ok := res.Live[op.Name]; ok {
				return res, fmt.Errorf("line %d: %s already allocated", op.Line, op.Name)
			}
			var p alloc.Ptr
			if op.Kind == OpAlloc {
				p, _, err = a.Alloc(op.Args[0], 0)
			} else {
				p, _, err = a.AllocZeroed(op.Args[0], op.Args[1])
			}
			if err == nil {
				res.Live[op.Name] = p
			}

		case OpFree:
			p, ok := res.Live[op.Name]
			if !ok {
				return res, fmt.Errorf("line %d: %s is not allocated", op.Line, op.Name)
			}
			if err = a.Free(p); err == nil {
				delete(res.Live, op.Name)
			}

		case OpResize:
			p := res.Live[op.Name] // Nil allocates
			var q alloc.Ptr
			q, _, err = a.Resize(p, op.Args[0])
			if err == nil {
				if q == alloc.Nil {
					delete(res.Live, op.Name)
				} else {
					res.Live[op.Name] = q
				}
			}

		case OpCheck:
			if err := verify.AllInvariants(a); err != nil {
				return res, fmt.Errorf("line %d: %w", op.Line, err)
			}
			continue

		case OpExpect:
			if !errors.Is(lastErr, alloc.ErrOutOfMemory) {
				return res, fmt.Errorf("line %d: expected out of memory, got %v", op.Line, lastErr)
			}
			lastErr = nil
			continue
		}

		if err != nil {
			res.Failed++
			if !errors.Is(err, alloc.ErrOutOfMemory) {
				return res, fmt.Errorf("line %d: %s %s: %w", op.Line, op.Kind, op.Name, err)
			}
		}
		lastErr = err
	}
	return res, nil
}
