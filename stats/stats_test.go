package stats

import "testing"

func TestCounterIncAndLoad(t *testing.T) {
	var c Counter
	c.Inc()
	c.Inc()
	c.Add(3)
	if got := c.Load(); got != 5 {
		t.Errorf("Load() = %d, want 5", got)
	}
}

func TestFragmentationKB(t *testing.T) {
	cases := []struct {
		bytes int64
		want  float64
	}{
		{0, 0},
		{3192, 3.1171875},
		{1024, 1},
	}
	for _, c := range cases {
		snap := Snapshot{FragmentationBytes: c.bytes}
		if got := snap.FragmentationKB(); got != c.want {
			t.Errorf("FragmentationKB() for %d bytes = %v, want %v", c.bytes, got, c.want)
		}
	}
}

func TestStatsLoadSnapshot(t *testing.T) {
	var s Stats
	s.PageFaults.Inc()
	s.PagesAllocated.Inc()
	s.FragmentationBytes.Add(512)

	snap := s.Load()
	if snap.PageFaults != 1 || snap.PagesAllocated != 1 || snap.FragmentationBytes != 512 {
		t.Errorf("unexpected snapshot: %+v", snap)
	}
}
