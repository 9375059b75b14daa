package diag

import (
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/joshuapare/lightheap/heap/alloc"
)

const (
	// DefaultEventsPerSecond bounds per-event log lines.
	DefaultEventsPerSecond = 100
	// DefaultBurst is the number of events logged before throttling starts.
	DefaultBurst = 100
)

// LogHook writes allocator events to a slog.Logger. Allocation and free
// events are logged at debug level and throttled; failed allocations are
// logged at warn level and periodic reports at info level, both unthrottled.
type LogHook struct {
	log     *slog.Logger
	limiter *rate.Limiter
	dropped atomic.Int64
}

var _ alloc.Hook = (*LogHook)(nil)

// Per converts "n events per d" into a rate.Limit.
func Per(n int, d time.Duration) rate.Limit {
	if n <= 0 {
		return rate.Inf
	}
	return rate.Every(d / time.Duration(n))
}

// NewLogHook creates a LogHook. A nil logger uses slog.Default(). limit
// rate.Inf disables throttling.
func NewLogHook(log *slog.Logger, limit rate.Limit, burst int) *LogHook {
	if log == nil {
		log = slog.Default()
	}
	if burst <= 0 {
		burst = DefaultBurst
	}
	return &LogHook{
		log:     log.With("component", "alloc"),
		limiter: rate.NewLimiter(limit, burst),
	}
}

// OnAlloc logs one allocation attempt.
func (h *LogHook) OnAlloc(p alloc.Ptr, size int, elapsed time.Duration) {
	if p == alloc.Nil {
		h.log.Warn("allocation failed", "size", size)
		return
	}
	if !h.limiter.Allow() {
		h.dropped.Add(1)
		return
	}
	h.log.Debug("alloc", "ptr", p, "size", size, "elapsed", elapsed)
}

// OnFree logs one free.
func (h *LogHook) OnFree(p alloc.Ptr) {
	if !h.limiter.Allow() {
		h.dropped.Add(1)
		return
	}
	h.log.Debug("free", "ptr", p)
}

// OnReport logs a statistics snapshot along with the number of event lines
// suppressed since the previous report.
func (h *LogHook) OnReport(s alloc.Stats) {
	h.log.Info("allocator report",
		"allocs", s.AllocCalls,
		"frees", s.FreeCalls,
		"failed", s.FailedAllocs,
		"live", s.Live,
		"peak_live", s.PeakLive,
		"bytes", s.BytesAllocated,
		"lost", s.BytesLost,
		"fragmentation", s.Fragmentation(),
		"merges", s.Merges,
		"dropped", h.dropped.Swap(0),
	)
}

// Dropped returns the number of throttled event lines not yet reported.
func (h *LogHook) Dropped() int64 { return h.dropped.Load() }

// Tee returns a hook that forwards every event to each non-nil hook in order.
func Tee(hooks ...alloc.Hook) alloc.Hook {
	var hs tee
	for _, h := range hooks {
		if h != nil {
			hs = append(hs, h)
		}
	}
	return hs
}

type tee []alloc.Hook

func (t tee) OnAlloc(p alloc.Ptr, size int, elapsed time.Duration) {
	for _, h := range t {
		h.OnAlloc(p, size, elapsed)
	}
}

func (t tee) OnFree(p alloc.Ptr) {
	for _, h := range t {
		h.OnFree(p)
	}
}

func (t tee) OnReport(s alloc.Stats) {
	for _, h := range t {
		h.OnReport(s)
	}
}
