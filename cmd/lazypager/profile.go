package main

import (
	"os"

	"pager/pager"
	"pager/stats"
)

// writeProfile emits the optional .pprof profile of per-segment fault and
// fragmentation activity, gathered from router after the run completes.
func writeProfile(path string, router *pager.Router) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return stats.WriteProfile(f, router.SegmentActivity())
}
