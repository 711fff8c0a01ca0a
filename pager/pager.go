//go:build linux

// Package pager is the core of the loader: the FaultRouter, PageTable,
// and the userfaultfd plumbing that lets a background goroutine stand in
// for the POSIX SIGSEGV handler the original design used (see
// SPEC_FULL.md §2 for why). Everything on the path between reading one
// fault message and completing its UFFDIO_COPY follows the same
// safety-floor rule the signal-handler variant would have needed: no
// locking I/O, no GC-triggering allocation, no recursive fault handling.
package pager

import (
	"context"
	"errors"
	"fmt"
	"os"
	"unsafe"

	"golang.org/x/sys/unix"

	"pager/elfimage"
	"pager/internal/ialign"
	"pager/stats"
)

// PageSize is the granularity at which the router materializes pages.
const PageSize = elfimage.PageSize

// ErrFaultOutsideSegment marks a genuine access violation: a fault at an
// address no loadable segment covers.
var ErrFaultOutsideSegment = errors.New("pager: fault address outside any segment")

// ErrPageBudgetExceeded marks a fault that would exceed an
// operator-configured --max-pages ceiling.
var ErrPageBudgetExceeded = errors.New("pager: page budget exceeded")

// ErrDoubleMaterialize marks reentry onto a page the router already
// mapped; under correct operation this cannot happen, so it is fatal.
var ErrDoubleMaterialize = errors.New("pager: page materialized twice")

// PageTable tracks every page-aligned address the router has
// materialized. It has a single writer (the fault-servicing goroutine)
// for the run's duration; Drain is only safe to call after that
// goroutine has returned.
type PageTable struct {
	pages map[uint32]struct{}
}

// NewPageTable returns an empty, unbounded page table. Unlike the
// original 50-entry array, nothing here limits how many pages it can
// hold beyond host memory.
func NewPageTable() *PageTable {
	return &PageTable{pages: make(map[uint32]struct{})}
}

func (pt *PageTable) record(page uint32) error {
	if _, dup := pt.pages[page]; dup {
		return fmt.Errorf("%w: 0x%x", ErrDoubleMaterialize, page)
	}
	pt.pages[page] = struct{}{}
	return nil
}

// Len reports how many pages have been materialized so far.
func (pt *PageTable) Len() int { return len(pt.pages) }

// Drain returns every recorded page address, in no particular order, and
// empties the table.
func (pt *PageTable) Drain() []uint32 {
	out := make([]uint32, 0, len(pt.pages))
	for p := range pt.pages {
		out = append(out, p)
	}
	pt.pages = make(map[uint32]struct{})
	return out
}

type region struct {
	base, length uintptr
}

// Router is the armed FaultRouter: an ElfImage with its segments
// registered for userfaultfd handling, ready to service
// UFFD_EVENT_PAGEFAULT messages.
type Router struct {
	img    *elfimage.ElfImage
	pt     *PageTable
	st     *stats.Stats
	budget *pageBudget

	uffd    *os.File
	regions []region
	scratch [PageSize]byte

	exitR, exitW *os.File

	// segActivity rolls up per-segment fault/fragmentation counts for the
	// optional --profile output. It has the same single-writer contract
	// as PageTable: only resolvePage mutates it, only after Serve returns
	// may anyone else read it.
	segActivity map[uint32]*stats.SegmentActivity
}

// Arm reserves and registers a userfaultfd-backed virtual range for every
// loadable segment in img, rounded out to whole pages, and returns a
// Router ready for Serve. It performs the "placement" spec.md step 5
// describes once per segment, up front, rather than once per page: under
// userfaultfd the per-page write happens later, in UFFDIO_COPY.
func Arm(img *elfimage.ElfImage, st *stats.Stats, maxPages int) (*Router, error) {
	uffd, err := newUffd()
	if err != nil {
		return nil, fmt.Errorf("pager: arm: %w", err)
	}

	exitR, exitW, err := os.Pipe()
	if err != nil {
		uffd.Close()
		return nil, fmt.Errorf("pager: arm: %w", err)
	}

	r := &Router{
		img:         img,
		pt:          NewPageTable(),
		st:          st,
		budget:      newPageBudget(maxPages),
		uffd:        uffd,
		exitR:       exitR,
		exitW:       exitW,
		segActivity: make(map[uint32]*stats.SegmentActivity),
	}
	for _, s := range img.Segments {
		r.segActivity[s.Vaddr] = &stats.SegmentActivity{Vaddr: s.Vaddr}
	}

	for _, s := range img.Segments {
		base := uintptr(ialign.Rounddown(s.Vaddr, uint32(PageSize)))
		end := uintptr(ialign.Roundup(s.End(), uint32(PageSize)))
		length := end - base

		if err := reserveFixed(base, length); err != nil {
			r.closeHandles()
			return nil, fmt.Errorf("pager: arm: %w", err)
		}
		if err := uffdRegister(int(uffd.Fd()), base, length, RegisterModeMissing); err != nil {
			releaseFixed(base, length)
			r.closeHandles()
			return nil, fmt.Errorf("pager: arm: register 0x%x: %w", base, err)
		}
		r.regions = append(r.regions, region{base: base, length: length})
	}

	return r, nil
}

func (r *Router) closeHandles() {
	r.uffd.Close()
	r.exitR.Close()
	r.exitW.Close()
}

// Serve blocks, reading UFFD_EVENT_PAGEFAULT messages and resolving them,
// until Stop is called or a fatal error occurs. It is meant to run in its
// own goroutine, coordinated via errgroup alongside the Launcher.
func (r *Router) Serve(ctx context.Context) error {
	pollFds := []unix.PollFd{
		{Fd: int32(r.uffd.Fd()), Events: unix.POLLIN},
		{Fd: int32(r.exitR.Fd()), Events: unix.POLLIN},
	}

	var msg uffdMsg
	msgBuf := (*[unsafe.Sizeof(uffdMsg{})]byte)(unsafe.Pointer(&msg))[:]

	for {
		if ctx.Err() != nil {
			return nil
		}

		if _, err := unix.Poll(pollFds, -1); err != nil {
			if err == unix.EINTR {
				continue
			}
			return fmt.Errorf("pager: poll: %w", err)
		}

		if pollFds[1].Revents&unix.POLLIN != 0 {
			return nil
		}
		if pollFds[0].Revents&unix.POLLIN == 0 {
			continue
		}

		n, err := unix.Read(int(r.uffd.Fd()), msgBuf)
		if err != nil {
			if err == unix.EINTR || err == unix.EAGAIN {
				continue
			}
			return fmt.Errorf("pager: read uffd: %w", err)
		}
		if n != len(msgBuf) {
			continue
		}

		if msg.Event != UFFD_EVENT_PAGEFAULT {
			faultSafeWrite(msgUnexpectedEvent)
			return fmt.Errorf("pager: unexpected uffd event %d", msg.Event)
		}

		pf := decodePagefault(&msg)
		if err := r.resolvePage(uint32(pf.Address)); err != nil {
			return err
		}
	}
}

// Stop wakes a blocked Serve call. Safe to call once, after the entry
// function has returned.
func (r *Router) Stop() {
	r.exitW.Write([]byte{0})
}

// resolvePage implements spec.md §4.1 steps 1-8 for a single fault at
// addr. It is the only function that runs on the fault-servicing path and
// therefore the only one bound by the async-safety floor.
func (r *Router) resolvePage(addr uint32) error {
	r.st.PageFaults.Inc()

	seg, ok := r.img.SegmentFor(addr)
	if !ok {
		faultSafeWrite(msgFaultOutsideSeg)
		return fmt.Errorf("%w: 0x%x", ErrFaultOutsideSegment, addr)
	}

	pageBase, overshoot, fileCursor, bytesToCopy := planFault(*seg, addr)
	act := r.segActivity[seg.Vaddr]
	act.Faults++
	if overshoot > 0 {
		r.st.FragmentationBytes.Add(overshoot)
		act.Fragmentation += overshoot
	}

	if !r.budget.take() {
		faultSafeWrite(msgPageBudgetExceeded)
		return fmt.Errorf("%w at 0x%x", ErrPageBudgetExceeded, pageBase)
	}

	for i := bytesToCopy; i < PageSize; i++ {
		r.scratch[i] = 0
	}
	if bytesToCopy > 0 {
		if _, err := r.img.ReadAt(r.scratch[:bytesToCopy], fileCursor); err != nil {
			faultSafeWrite(msgFileReadFailed)
			return fmt.Errorf("pager: read segment at 0x%x: %w", pageBase, err)
		}
	}

	if err := uffdCopy(int(r.uffd.Fd()), uintptr(pageBase), uintptr(unsafe.Pointer(&r.scratch[0])), PageSize); err != nil {
		faultSafeWrite(msgUffdioCopyFailed)
		return fmt.Errorf("pager: copy page at 0x%x: %w", pageBase, err)
	}

	if err := r.pt.record(pageBase); err != nil {
		faultSafeWrite(msgPageRecordedTwice)
		return err
	}
	r.st.PagesAllocated.Inc()
	return nil
}

// Teardown releases every userfaultfd registration and virtual-memory
// region, then closes the ELF file handle — preserving smloader.c's
// loader_cleanup ordering: release the paging machinery first, only then
// give up the file backing it.
func (r *Router) Teardown() error {
	var firstErr error
	record := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	for _, reg := range r.regions {
		record(uffdUnregister(int(r.uffd.Fd()), reg.base, reg.length))
	}
	r.pt.Drain()
	for _, reg := range r.regions {
		record(releaseFixed(reg.base, reg.length))
	}

	record(r.uffd.Close())
	record(r.exitR.Close())
	record(r.exitW.Close())
	record(r.img.Close())

	return firstErr
}

// PageTable exposes the router's page table. Per-segment activity for
// --profile comes from SegmentActivity, not from this table.
func (r *Router) PageTable() *PageTable { return r.pt }

// SegmentActivity returns the per-segment fault/fragmentation rollup
// gathered during the run, for --profile. Only safe to call after Serve
// has returned.
func (r *Router) SegmentActivity() []stats.SegmentActivity {
	out := make([]stats.SegmentActivity, 0, len(r.segActivity))
	for _, s := range r.img.Segments {
		out = append(out, *r.segActivity[s.Vaddr])
	}
	return out
}
