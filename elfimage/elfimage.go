// Package elfimage parses a 32-bit ELF executable into the immutable
// descriptor the pager core operates on. It is the loader-init
// collaborator: argument validation and reporting live outside this
// package, but ELF magic validation and program-header ingestion are
// done here, once, before the fault router is armed.
package elfimage

import (
	"debug/elf"
	"fmt"
	"io"
	"os"
	"sort"
)

// PageSize is the granularity at which the pager materializes backing
// storage. Only x86 32-bit targets are in scope, so this is fixed.
const PageSize = 4096

// Flags carries the informational read/write/execute bits from the
// program header. The pager never consults them: every mapping is RWX.
type Flags uint32

const (
	FlagExec Flags = 1 << iota
	FlagWrite
	FlagRead
)

// Segment describes one loadable program-header entry.
type Segment struct {
	Vaddr  uint32
	Memsz  uint32
	Filesz uint32
	Offset uint32
	Flags  Flags
}

// Contains reports whether the page-aligned or raw address addr falls
// within the segment's declared virtual range.
func (s Segment) Contains(addr uint32) bool {
	return addr >= s.Vaddr && addr < s.Vaddr+s.Memsz
}

// End returns the first address past the segment.
func (s Segment) End() uint32 { return s.Vaddr + s.Memsz }

// ElfImage is the immutable, validated descriptor of the target binary:
// entry address, ordered loadable segments, and the still-open file the
// FaultRouter reads segment contents from.
type ElfImage struct {
	Entry    uint32
	Segments []Segment

	file *os.File
}

// Load validates fn's ELF magic, parses its 32-bit program-header table,
// and returns the resulting descriptor. The returned ElfImage owns the
// open file handle until Close is called.
func Load(fn string) (*ElfImage, error) {
	f, err := os.Open(fn)
	if err != nil {
		return nil, fmt.Errorf("elfimage: open %s: %w", fn, err)
	}

	img, err := load(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return img, nil
}

func load(f *os.File) (*ElfImage, error) {
	var magic [4]byte
	if _, err := f.ReadAt(magic[:], 0); err != nil {
		return nil, fmt.Errorf("elfimage: read magic: %w", err)
	}
	if magic != [4]byte{0x7f, 'E', 'L', 'F'} {
		return nil, fmt.Errorf("elfimage: %w", ErrBadMagic)
	}

	ef, err := elf.NewFile(f)
	if err != nil {
		return nil, fmt.Errorf("elfimage: %w: %v", ErrBadMagic, err)
	}
	if ef.Class != elf.ELFCLASS32 {
		return nil, fmt.Errorf("elfimage: %w: not a 32-bit ELF", ErrBadMagic)
	}
	if ef.Type != elf.ET_EXEC {
		return nil, fmt.Errorf("elfimage: %w: not an executable ELF", ErrBadMagic)
	}

	fi, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("elfimage: stat: %w", err)
	}
	fileLen := fi.Size()

	var segs []Segment
	for _, p := range ef.Progs {
		if p.Type != elf.PT_LOAD {
			continue
		}
		s := Segment{
			Vaddr:  uint32(p.Vaddr),
			Memsz:  uint32(p.Memsz),
			Filesz: uint32(p.Filesz),
			Offset: uint32(p.Off),
		}
		if p.Flags&elf.PF_R != 0 {
			s.Flags |= FlagRead
		}
		if p.Flags&elf.PF_W != 0 {
			s.Flags |= FlagWrite
		}
		if p.Flags&elf.PF_X != 0 {
			s.Flags |= FlagExec
		}
		if s.Filesz > s.Memsz {
			return nil, fmt.Errorf("elfimage: %w: segment at 0x%x has filesz > memsz", ErrInvalidSegment, s.Vaddr)
		}
		if int64(s.Offset)+int64(s.Filesz) > fileLen {
			return nil, fmt.Errorf("elfimage: %w: segment at 0x%x extends past end of file", ErrInvalidSegment, s.Vaddr)
		}
		segs = append(segs, s)
	}

	sort.Slice(segs, func(i, j int) bool { return segs[i].Vaddr < segs[j].Vaddr })
	for i := 1; i < len(segs); i++ {
		if segs[i].Vaddr < segs[i-1].End() {
			return nil, fmt.Errorf("elfimage: %w: segments at 0x%x and 0x%x overlap",
				ErrInvalidSegment, segs[i-1].Vaddr, segs[i].Vaddr)
		}
	}

	img := &ElfImage{
		Entry:    uint32(ef.Entry),
		Segments: segs,
		file:     f,
	}
	if _, ok := img.SegmentFor(img.Entry); !ok {
		return nil, fmt.Errorf("elfimage: %w", ErrEntryOutsideSegment)
	}
	return img, nil
}

// SegmentFor returns the unique loadable segment governing addr, per the
// non-overlap invariant enforced at load time.
func (img *ElfImage) SegmentFor(addr uint32) (*Segment, bool) {
	for i := range img.Segments {
		if img.Segments[i].Contains(addr) {
			return &img.Segments[i], true
		}
	}
	return nil, false
}

// ReadSegmentPage reads up to len(dst) bytes of s's file-backed content
// starting fileOff bytes into the segment's file region. It is used only
// outside the fault-servicing path (e.g. test fixtures); the router reads
// the file directly via ReadAt to stay allocation-free.
func (img *ElfImage) ReadSegmentPage(s Segment, fileOff uint32, dst []byte) (int, error) {
	n, err := img.file.ReadAt(dst, int64(s.Offset)+int64(fileOff))
	if err != nil && err != io.EOF {
		return n, err
	}
	return n, nil
}

// ReadAt positions the underlying file at off and reads into p. It is the
// single fault-context-safe entry point the pager package uses; no other
// part of the program may read from this file while a run is in progress.
func (img *ElfImage) ReadAt(p []byte, off int64) (int, error) {
	return img.file.ReadAt(p, off)
}

// Close releases the underlying file handle. Call only after the
// FaultRouter's PageTable has been drained by teardown.
func (img *ElfImage) Close() error {
	return img.file.Close()
}
