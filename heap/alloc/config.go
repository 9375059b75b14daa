package alloc

import (
	"io"
	"log/slog"
	"os"

	"github.com/joshuapare/lightheap/heap/critical"
	"github.com/joshuapare/lightheap/internal/format"
)

// Config selects the optional behaviour of a Light allocator. Every field that
// changes the header layout (EnableStatistics, EnableGuards, TrackCallers)
// must match between the allocator that wrote an arena and one that Attaches
// to it.
type Config struct {
	// Name for this configuration (for reports and benchmarks)
	Name string

	// EnableStatistics adds a requested-size field to every header and keeps
	// the Stats counters.
	EnableStatistics bool

	// EnableGuards surrounds every header with guard patterns that are
	// checked whenever an operation touches the header.
	EnableGuards bool

	// EnableFreeBlockCleanup merges a freed block with free neighbours.
	EnableFreeBlockCleanup bool

	// EnableBenchmark times every allocation with Clock.
	EnableBenchmark bool

	// TrackCallers records the allocation site of every block.
	TrackCallers bool

	// ReuseThresholdShift (k) is the anti-waste policy: an interior free block
	// is taken at once when the bytes it would waste are below available>>k.
	// Otherwise it is remembered as a fallback, used only when the frontier
	// cannot be extended. Larger k accepts less waste but tends to grow the
	// frontier sooner; 0 disables the policy (plain first fit).
	ReuseThresholdShift uint

	// SmallThreshold and LargeThreshold bucket requests for the histogram:
	// size <= SmallThreshold is small, size >= LargeThreshold is large.
	SmallThreshold int
	LargeThreshold int

	// ReportEvery invokes Hook.OnReport every N allocation calls (0 = never).
	// Requires EnableStatistics.
	ReportEvery int

	// PanicOnOutOfMemory turns ErrOutOfMemory into a panic carrying
	// *OutOfMemoryError. Meant for debug builds that want to trap early.
	PanicOnOutOfMemory bool

	// Section brackets every public operation. Default: a fresh critical.Mutex.
	Section Section

	// Hook observes allocate/free events. Optional.
	Hook Hook

	// Clock times allocations when EnableBenchmark is set. Default: SystemClock.
	Clock Clock

	// Logger receives diagnostic output. Default: discarded, or stderr at debug
	// level when LIGHTHEAP_LOG_ALLOC is set.
	Logger *slog.Logger

	// OnCorruption receives guard or structure damage. When nil the allocator
	// panics with the *CorruptionError. Runs inside the critical section and
	// must not call back into the allocator.
	OnCorruption func(*CorruptionError)
}

const (
	// DefaultReuseThresholdShift accepts a free block when it wastes less than
	// half of itself.
	DefaultReuseThresholdShift = 1

	DefaultSmallThreshold = 64
	DefaultLargeThreshold = 512
)

// Predefined configurations.
var (
	// MinimalConfig: bare 16-byte headers, first fit, no cleanup.
	MinimalConfig = Config{
		Name: "Minimal",
	}

	// DefaultConfig: statistics and cleanup on, anti-waste policy at 1/2.
	DefaultConfig = Config{
		Name:                   "Default",
		EnableStatistics:       true,
		EnableFreeBlockCleanup: true,
		ReuseThresholdShift:    DefaultReuseThresholdShift,
		SmallThreshold:         DefaultSmallThreshold,
		LargeThreshold:         DefaultLargeThreshold,
	}

	// DebugConfig: everything on, including guards, caller tracking and
	// allocation timing.
	DebugConfig = Config{
		Name:                   "Debug",
		EnableStatistics:       true,
		EnableGuards:           true,
		EnableFreeBlockCleanup: true,
		EnableBenchmark:        true,
		TrackCallers:           true,
		ReuseThresholdShift:    DefaultReuseThresholdShift,
		SmallThreshold:         DefaultSmallThreshold,
		LargeThreshold:         DefaultLargeThreshold,
	}
)

// Runtime debug flag for allocation logging - controlled by LIGHTHEAP_LOG_ALLOC env var.
var logAlloc = os.Getenv("LIGHTHEAP_LOG_ALLOC") != ""

// layout returns the header layout implied by the config.
func (c *Config) layout() format.Layout {
	return format.NewLayout(c.EnableStatistics, c.EnableGuards, c.TrackCallers)
}

// withDefaults returns a copy with collaborators and thresholds filled in.
func (c Config) withDefaults() Config {
	if c.Section == nil {
		c.Section = &critical.Mutex{}
	}
	if c.Clock == nil {
		c.Clock = SystemClock{}
	}
	if c.Logger == nil {
		if logAlloc {
			c.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
		} else {
			c.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
		}
	}
	if c.SmallThreshold <= 0 {
		c.SmallThreshold = DefaultSmallThreshold
	}
	if c.LargeThreshold <= c.SmallThreshold {
		c.LargeThreshold = max(DefaultLargeThreshold, c.SmallThreshold+1)
	}
	return c
}

// HeaderSize returns the header size a config produces. nil means DefaultConfig.
func HeaderSize(cfg *Config) int {
	if cfg == nil {
		cfg = &DefaultConfig
	}
	return cfg.layout().Size
}
