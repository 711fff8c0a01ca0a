// Package testelf builds minimal synthetic 32-bit ELF executables for use
// as test fixtures by elfimage and pager. It is not a _test.go
// file because more than one package's tests import it.
package testelf

import (
	"bytes"
	"encoding/binary"
)

const (
	ehdrSize = 52
	phdrSize = 32

	ptLoad = 1

	pfX = 1
	pfW = 2
	pfR = 4
)

// Seg describes one loadable segment to embed in a synthetic binary.
type Seg struct {
	Vaddr uint32
	Memsz uint32
	Data  []byte // file-backed bytes; len(Data) becomes filesz
	Flags uint32 // pfR | pfW | pfX
}

const (
	FlagR = pfR
	FlagW = pfW
	FlagX = pfX
)

// Build lays out a minimal ET_EXEC, EM_386, little-endian ELF32 file with
// one program header per seg, placed sequentially in the file immediately
// after the program-header table. entry is recorded verbatim as e_entry.
func Build(entry uint32, segs []Seg) []byte {
	phoff := uint32(ehdrSize)
	dataStart := phoff + uint32(len(segs))*phdrSize

	buf := new(bytes.Buffer)
	buf.Grow(int(dataStart))

	writeEhdr(buf, entry, phoff, uint16(len(segs)))

	offsets := make([]uint32, len(segs))
	off := dataStart
	for i, s := range segs {
		offsets[i] = off
		off += uint32(len(s.Data))
	}
	for i, s := range segs {
		writePhdr(buf, s, offsets[i])
	}
	for _, s := range segs {
		buf.Write(s.Data)
	}
	return buf.Bytes()
}

func writeEhdr(buf *bytes.Buffer, entry, phoff uint32, phnum uint16) {
	ident := [16]byte{0x7f, 'E', 'L', 'F', 1 /* ELFCLASS32 */, 1 /* ELFDATA2LSB */, 1 /* EV_CURRENT */}
	buf.Write(ident[:])
	binary.Write(buf, binary.LittleEndian, uint16(2))  // e_type = ET_EXEC
	binary.Write(buf, binary.LittleEndian, uint16(3))  // e_machine = EM_386
	binary.Write(buf, binary.LittleEndian, uint32(1))  // e_version = EV_CURRENT
	binary.Write(buf, binary.LittleEndian, entry)      // e_entry
	binary.Write(buf, binary.LittleEndian, phoff)      // e_phoff
	binary.Write(buf, binary.LittleEndian, uint32(0))  // e_shoff
	binary.Write(buf, binary.LittleEndian, uint32(0))  // e_flags
	binary.Write(buf, binary.LittleEndian, uint16(ehdrSize)) // e_ehsize
	binary.Write(buf, binary.LittleEndian, uint16(phdrSize)) // e_phentsize
	binary.Write(buf, binary.LittleEndian, phnum)      // e_phnum
	binary.Write(buf, binary.LittleEndian, uint16(0))  // e_shentsize
	binary.Write(buf, binary.LittleEndian, uint16(0))  // e_shnum
	binary.Write(buf, binary.LittleEndian, uint16(0))  // e_shstrndx
}

func writePhdr(buf *bytes.Buffer, s Seg, fileOff uint32) {
	binary.Write(buf, binary.LittleEndian, uint32(ptLoad))
	binary.Write(buf, binary.LittleEndian, fileOff)
	binary.Write(buf, binary.LittleEndian, s.Vaddr)
	binary.Write(buf, binary.LittleEndian, s.Vaddr) // p_paddr, unused
	binary.Write(buf, binary.LittleEndian, uint32(len(s.Data)))
	binary.Write(buf, binary.LittleEndian, s.Memsz)
	binary.Write(buf, binary.LittleEndian, s.Flags)
	binary.Write(buf, binary.LittleEndian, uint32(4096)) // p_align
}
