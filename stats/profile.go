package stats

import (
	"fmt"
	"io"
	"time"

	"github.com/google/pprof/profile"
)

// SegmentActivity is a per-segment rollup of fault/fragmentation counts,
// updated by the pager's router inline on the fault-servicing path
// alongside the aggregate Counters.
type SegmentActivity struct {
	Vaddr         uint32
	Faults        int64
	Fragmentation int64
}

// WriteProfile emits a pprof-format profile sampling page faults and
// fragmentation bytes per segment, so a run can be inspected with the
// standard `go tool pprof`. This is purely a diagnostic convenience; the
// canonical stdout report (package report) never depends on it.
func WriteProfile(w io.Writer, segments []SegmentActivity) error {
	p := &profile.Profile{
		SampleType: []*profile.ValueType{
			{Type: "faults", Unit: "count"},
			{Type: "fragmentation", Unit: "bytes"},
		},
		TimeNanos:     time.Now().UnixNano(),
		DurationNanos: 0,
	}

	fn := &profile.Function{ID: 1, Name: "segment"}
	p.Function = []*profile.Function{fn}

	for i, seg := range segments {
		loc := &profile.Location{
			ID:      uint64(i + 1),
			Address: uint64(seg.Vaddr),
			Line: []profile.Line{
				{Function: fn},
			},
		}
		p.Location = append(p.Location, loc)

		p.Sample = append(p.Sample, &profile.Sample{
			Location: []*profile.Location{loc},
			Value:    []int64{seg.Faults, seg.Fragmentation},
			Label: map[string][]string{
				"segment_vaddr": {fmt.Sprintf("0x%x", seg.Vaddr)},
			},
		})
	}

	return p.Write(w)
}
