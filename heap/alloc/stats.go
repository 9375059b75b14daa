package alloc

import "time"

// Stats holds allocator statistics. Kept only when Config.EnableStatistics is set.
type Stats struct {
	AllocCalls   int // Total Alloc() calls, including failed ones
	FreeCalls    int // Successful Free() calls
	FailedAllocs int // Alloc() calls that returned ErrOutOfMemory

	Live     int // Blocks currently allocated
	PeakLive int

	// Size-bucket histogram of live blocks (by requested size)
	Small      int
	PeakSmall  int
	Medium     int
	PeakMedium int
	Large      int
	PeakLarge  int

	BytesAllocated     int64 // Requested bytes currently live
	PeakBytesAllocated int64
	BytesLost          int64 // Span minus requested bytes across live blocks
	PeakBytesLost      int64

	Splits int // Frontier extensions that carved a new sentinel
	Merges int // Headers removed by coalescing

	LastAllocDuration  time.Duration // Only with EnableBenchmark
	MaxAllocDuration   time.Duration
	TotalAllocDuration time.Duration
}

type bucket int

const (
	bucketSmall bucket = iota
	bucketMedium
	bucketLarge
)

func (l *Light) bucketOf(size int) bucket {
	switch {
	case size <= l.cfg.SmallThreshold:
		return bucketSmall
	case size >= l.cfg.LargeThreshold:
		return bucketLarge
	default:
		return bucketMedium
	}
}

// recordAlloc accounts a committed block of the given requested size and span.
func (s *Stats) recordAlloc(b bucket, size, span int) {
	s.Live++
	s.PeakLive = max(s.PeakLive, s.Live)

	switch b {
	case bucketSmall:
		s.Small++
		s.PeakSmall = max(s.PeakSmall, s.Small)
	case bucketMedium:
		s.Medium++
		s.PeakMedium = max(s.PeakMedium, s.Medium)
	case bucketLarge:
		s.Large++
		s.PeakLarge = max(s.PeakLarge, s.Large)
	}

	s.BytesAllocated += int64(size)
	s.PeakBytesAllocated = max(s.PeakBytesAllocated, s.BytesAllocated)
	s.BytesLost += int64(span - size)
	s.PeakBytesLost = max(s.PeakBytesLost, s.BytesLost)
}

// recordFree reverses recordAlloc for a block leaving use.
func (s *Stats) recordFree(b bucket, size, span int) {
	s.FreeCalls++
	s.Live--

	switch b {
	case bucketSmall:
		s.Small--
	case bucketMedium:
		s.Medium--
	case bucketLarge:
		s.Large--
	}

	s.BytesAllocated -= int64(size)
	s.BytesLost -= int64(span - size)
}

func (s *Stats) recordDuration(d time.Duration) {
	s.LastAllocDuration = d
	s.MaxAllocDuration = max(s.MaxAllocDuration, d)
	s.TotalAllocDuration += d
}

// Fragmentation returns lost bytes as a fraction of live span (0 when idle).
func (s Stats) Fragmentation() float64 {
	total := s.BytesAllocated + s.BytesLost
	if total == 0 {
		return 0
	}
	return float64(s.BytesLost) / float64(total)
}
