package main

import (
	"context"
	"os"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"pager/elfimage"
	"pager/launch"
	"pager/pager"
	"pager/report"
	"pager/stats"
)

// runLoader wires together the four external collaborators (elfimage,
// pager, launch, report) around the fault-router core: load, arm,
// launch, teardown, report — in that order, with teardown attempted once
// the router is armed, even when the run fails midway.
func runLoader(path string) error {
	log := newLogger()

	img, err := elfimage.Load(path)
	if err != nil {
		log.WithError(err).Error("failed to load ELF image")
		return err
	}

	var st stats.Stats
	router, err := pager.Arm(img, &st, maxPagesFlag)
	if err != nil {
		img.Close()
		log.WithError(err).Error("failed to arm fault router")
		return err
	}

	entryReturn, runErr := launchUnderFaultRouter(router, img.Entry, log)

	if tdErr := router.Teardown(); tdErr != nil {
		log.WithError(tdErr).Warn("teardown reported a non-fatal error")
	}

	if runErr != nil {
		log.WithError(runErr).Error("run terminated with a fatal error")
		return runErr
	}

	snap := st.Load()
	if verboseFlag {
		report.WriteVerbose(os.Stderr, entryReturn, snap)
	}
	if profileFlag != "" {
		if err := writeProfile(profileFlag, router); err != nil {
			log.WithError(err).Warn("failed to write profile")
		}
	}

	return report.WriteSummary(os.Stdout, entryReturn, snap)
}

// launchUnderFaultRouter coordinates the fault-servicing goroutine and
// the launcher goroutine with an errgroup, the same shape
// e2b-dev-infra's Userfaultfd.Serve uses alongside the guest it serves.
func launchUnderFaultRouter(router *pager.Router, entry uint32, log *logrus.Logger) (int32, error) {
	g, ctx := errgroup.WithContext(context.Background())

	var entryReturn int32

	g.Go(func() error {
		return router.Serve(ctx)
	})

	g.Go(func() error {
		defer router.Stop()
		entryReturn = launch.Run(uintptr(entry))
		return nil
	})

	if err := g.Wait(); err != nil {
		return entryReturn, err
	}
	return entryReturn, nil
}
