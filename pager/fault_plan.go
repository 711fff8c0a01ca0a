package pager

import (
	"pager/elfimage"
	"pager/internal/ialign"
)

// planFault is the pure, syscall-free portion of spec.md §4.1's
// algorithm: given the segment governing a fault and the faulting
// address, compute the page-aligned base, the fragmentation overshoot (if
// this is the segment's final page), the ELF file cursor, and how many
// file-backed bytes belong in the page. Split out from resolvePage so the
// arithmetic can be tested without a live userfaultfd descriptor.
func planFault(seg elfimage.Segment, addr uint32) (pageBase uint32, overshoot int64, fileCursor int64, bytesToCopy int64) {
	pageBase = ialign.Rounddown(addr, uint32(PageSize))

	overshoot = int64(pageBase) + PageSize - int64(seg.End())
	if overshoot < 0 {
		overshoot = 0
	}

	fileCursor = int64(seg.Offset) + int64(pageBase-seg.Vaddr)

	bytesToCopy = ialign.Min(int64(PageSize), int64(seg.Vaddr)+int64(seg.Filesz)-int64(pageBase))
	if bytesToCopy < 0 {
		bytesToCopy = 0
	}
	return
}
