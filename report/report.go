// Package report writes the loader's external output contract: four
// fixed-format lines to stdout after the entry function returns, and an
// optional pluralized human summary to stderr under --verbose. The two
// never share formatting code, so a locale-sensitive verbose mode can
// never perturb the canonical lines.
package report

import (
	"fmt"
	"io"

	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"pager/stats"
)

// WriteSummary writes the exact four-line canonical report to w:
//
//	User _start return value = <signed decimal>
//	Total page faults: <decimal>
//	Pages Allocated: <decimal>
//	Total fragmentation (in KB): <decimal with exactly 4 fractional digits>KB
func WriteSummary(w io.Writer, entryReturn int32, snap stats.Snapshot) error {
	_, err := fmt.Fprintf(w,
		"User _start return value = %d\nTotal page faults: %d\nPages Allocated: %d\nTotal fragmentation (in KB): %.4fKB\n",
		entryReturn, snap.PageFaults, snap.PagesAllocated, snap.FragmentationKB())
	return err
}

// WriteVerbose writes an optional, pluralized human-readable summary to w.
// It is purely a diagnostic convenience for --verbose and is never
// consulted by WriteSummary or by anything that checks the loader's
// external output contract.
func WriteVerbose(w io.Writer, entryReturn int32, snap stats.Snapshot) {
	p := message.NewPrinter(message.MatchLanguage("en"))
	p.Fprintf(w, "entry returned %d after %v page %v (%v %v allocated, %v of fragmentation)\n",
		entryReturn,
		number.Decimal(snap.PageFaults),
		plural(snap.PageFaults, "fault", "faults"),
		number.Decimal(snap.PagesAllocated),
		plural(snap.PagesAllocated, "page", "pages"),
		number.Decimal(snap.FragmentationBytes),
	)
}

func plural(n int64, singular, pluralForm string) string {
	if n == 1 {
		return singular
	}
	return pluralForm
}
