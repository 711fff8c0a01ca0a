package report

import (
	"bytes"
	"testing"

	"pager/stats"
)

func TestWriteSummaryScenario1(t *testing.T) {
	var buf bytes.Buffer
	snap := stats.Snapshot{PageFaults: 1, PagesAllocated: 1, FragmentationBytes: 0}
	if err := WriteSummary(&buf, 42, snap); err != nil {
		t.Fatalf("WriteSummary: %v", err)
	}
	want := "User _start return value = 42\n" +
		"Total page faults: 1\n" +
		"Pages Allocated: 1\n" +
		"Total fragmentation (in KB): 0.0000KB\n"
	if buf.String() != want {
		t.Errorf("WriteSummary output = %q, want %q", buf.String(), want)
	}
}

func TestWriteSummaryScenario2(t *testing.T) {
	var buf bytes.Buffer
	snap := stats.Snapshot{PageFaults: 2, PagesAllocated: 2, FragmentationBytes: 3192}
	if err := WriteSummary(&buf, 7, snap); err != nil {
		t.Fatalf("WriteSummary: %v", err)
	}
	want := "User _start return value = 7\n" +
		"Total page faults: 2\n" +
		"Pages Allocated: 2\n" +
		"Total fragmentation (in KB): 3.1172KB\n"
	if buf.String() != want {
		t.Errorf("WriteSummary output = %q, want %q", buf.String(), want)
	}
}

func TestWriteSummaryNegativeReturn(t *testing.T) {
	var buf bytes.Buffer
	snap := stats.Snapshot{PageFaults: 1, PagesAllocated: 1}
	if err := WriteSummary(&buf, -5, snap); err != nil {
		t.Fatalf("WriteSummary: %v", err)
	}
	want := "User _start return value = -5\n" +
		"Total page faults: 1\n" +
		"Pages Allocated: 1\n" +
		"Total fragmentation (in KB): 0.0000KB\n"
	if buf.String() != want {
		t.Errorf("WriteSummary output = %q, want %q", buf.String(), want)
	}
}
