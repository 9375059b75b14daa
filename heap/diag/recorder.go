package diag

import (
	"sync"
	"time"

	"github.com/joshuapare/lightheap/heap/alloc"
)

// EventKind identifies a recorded hook call.
type EventKind int

const (
	EventAlloc EventKind = iota
	EventFree
	EventReport
)

func (k EventKind) String() string {
	switch k {
	case EventAlloc:
		return "alloc"
	case EventFree:
		return "free"
	case EventReport:
		return "report"
	default:
		return "unknown"
	}
}

// Event is one recorded hook call.
type Event struct {
	Kind    EventKind
	Ptr     alloc.Ptr
	Size    int
	Elapsed time.Duration
	Stats   alloc.Stats // EventReport only
}

// Recorder keeps every hook call in memory. Safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

var _ alloc.Hook = (*Recorder)(nil)

func (r *Recorder) add(e Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

// OnAlloc records an allocation attempt.
func (r *Recorder) OnAlloc(p alloc.Ptr, size int, elapsed time.Duration) {
	r.add(Event{Kind: EventAlloc, Ptr: p, Size: size, Elapsed: elapsed})
}

// OnFree records a free.
func (r *Recorder) OnFree(p alloc.Ptr) {
	r.add(Event{Kind: EventFree, Ptr: p})
}

// OnReport records a statistics snapshot.
func (r *Recorder) OnReport(s alloc.Stats) {
	r.add(Event{Kind: EventReport, Stats: s})
}

// Events returns a copy of everything recorded so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Count returns how many events of kind were recorded.
func (r *Recorder) Count(kind EventKind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

// Failed returns the number of allocation attempts that returned Nil.
func (r *Recorder) Failed() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Kind == EventAlloc && e.Ptr == alloc.Nil {
			n++
		}
	}
	return n
}

// Reset discards all recorded events.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.events = nil
	r.mu.Unlock()
}
