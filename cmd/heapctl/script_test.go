package main

import (
	"strings"
	"testing"

	"github.com/joshuapare/lightheap/heap/alloc"
)

const scenarioB = `
# adjacent frees coalesce
alloc p1 16
alloc p2 16
alloc p3 16
free p2
free p1
check
alloc big 40
check
`

func TestParseScript(t *testing.T) {
	ops, err := ParseScript(strings.NewReader(scenarioB))
	if err != nil {
		t.Fatalf("ParseScript: %v", err)
	}
	if len(ops) != 8 {
		t.Fatalf("got %d ops, want 8", len(ops))
	}
	if ops[0].Kind != OpAlloc || ops[0].Name != "p1" || ops[0].Args[0] != 16 {
		t.Errorf("first op = %+v", ops[0])
	}
	if ops[0].Line != 3 {
		t.Errorf("line = %d, want 3", ops[0].Line)
	}
	if ops[3].Kind != OpFree || len(ops[3].Args) != 0 {
		t.Errorf("free op = %+v", ops[3])
	}
}

func TestParseScript_Errors(t *testing.T) {
	tests := []struct {
		name   string
		script string
		want   string
	}{
		{"unknown verb", "grow p 1", "unknown operation"},
		{"missing size", "alloc p", "expects 2 argument(s)"},
		{"negative size", "alloc p -3", "invalid size"},
		{"calloc arity", "calloc p 3", "expects 3 argument(s)"},
		{"check args", "check now", "no arguments"},
		{"expect what", "expect success", "usage: expect oom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScript(strings.NewReader(tt.script))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err = %v, want %q", err, tt.want)
			}
		})
	}
}

func newTestArena(t *testing.T, size int, cfg alloc.Config) *alloc.Light {
	t.Helper()
	a, err := alloc.New(make([]byte, size), &cfg)
	if err != nil {
		t.Fatalf("alloc.New: %v", err)
	}
	return a
}

func TestReplay_Coalesce(t *testing.T) {
	cfg := alloc.Config{Name: "test", EnableFreeBlockCleanup: true}
	a := newTestArena(t, 256, cfg)

	ops, err := ParseScript(strings.NewReader(scenarioB))
	if err != nil {
		t.Fatal(err)
	}
	res, err := Replay(a, ops)
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if res.Live["big"] != alloc.Ptr(16) {
		t.Errorf("big = 0x%X, want the merged block at 0x10", res.Live["big"])
	}
	if len(res.Live) != 2 {
		t.Errorf("live = %v", res.Live)
	}
}

func TestReplay_ExpectOOM(t *testing.T) {
	a := newTestArena(t, 256, alloc.MinimalConfig)
	script := "alloc a 32\nalloc b 10000\nexpect oom\nresize a 8\nresize a 0\ncheck\n"
	ops, err := ParseScript(strings.NewReader(script))
	if err != nil {
		t.Fatal(err)
	}
	res, err := Replay(a, ops)
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if res.Failed != 1 {
		t.Errorf("failed = %d, want 1", res.Failed)
	}
	if len(res.Live) != 0 {
		t.Errorf("live = %v, want none", res.Live)
	}
}

func TestReplay_Errors(t *testing.T) {
	tests := []struct {
		name   string
		script string
		want   string
	}{
		{"double alloc", "alloc a 8\nalloc a 8", "already allocated"},
		{"unknown free", "free a", "not allocated"},
		{"unmet expect", "alloc a 8\nexpect oom", "expected out of memory"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestArena(t, 256, alloc.DefaultConfig)
			ops, err := ParseScript(strings.NewReader(tt.script))
			if err != nil {
				t.Fatal(err)
			}
			_, err = Replay(a, ops)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err = %v, want %q", err, tt.want)
			}
		})
	}
}
