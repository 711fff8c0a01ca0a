// Package stats holds the run counters the FaultRouter updates and the
// reporter later reads, plus an optional pprof profile of per-segment
// fault activity.
package stats

import "sync/atomic"

// Counter is a monotonically increasing counter safe to update from the
// fault-servicing goroutine without locking.
type Counter struct {
	v int64
}

// Inc adds 1 and returns the new value.
func (c *Counter) Inc() int64 { return atomic.AddInt64(&c.v, 1) }

// Add adds n and returns the new value.
func (c *Counter) Add(n int64) int64 { return atomic.AddInt64(&c.v, n) }

// Load returns the current value.
func (c *Counter) Load() int64 { return atomic.LoadInt64(&c.v) }

// Stats holds the three run counters spec.md mandates: page_faults,
// pages_allocated, and fragmentation_bytes.
type Stats struct {
	PageFaults         Counter
	PagesAllocated     Counter
	FragmentationBytes Counter
}

// Snapshot is an immutable, instant-in-time read of Stats, used by the
// reporter and by tests.
type Snapshot struct {
	PageFaults         int64
	PagesAllocated     int64
	FragmentationBytes int64
}

// Load takes a consistent-enough snapshot for reporting after the entry
// function has returned and no further faults can occur.
func (s *Stats) Load() Snapshot {
	return Snapshot{
		PageFaults:         s.PageFaults.Load(),
		PagesAllocated:     s.PagesAllocated.Load(),
		FragmentationBytes: s.FragmentationBytes.Load(),
	}
}

// FragmentationKB returns fragmentation_bytes in kilobytes
// (bytes / 1024.0), unrounded; report.WriteSummary formats it with
// exactly four fractional digits.
func (s Snapshot) FragmentationKB() float64 {
	return float64(s.FragmentationBytes) / 1024.0
}
