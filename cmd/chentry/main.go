// Command chentry patches the entry address of a 32-bit ELF executable
// in place. It is a standalone tool; the repository's own test suites
// build their fixtures with internal/testelf, which takes the entry
// address directly, and do not run chentry.
package main

import (
	"debug/elf"
	"encoding/binary"
	"fmt"
	"log"
	"os"
	"strconv"
)

func usage(me string) {
	fmt.Printf("%s <filename> <addr>\n\nChange the ELF entry point of <filename> to <addr>\n", me)
	os.Exit(1)
}

// chkELF validates that eh describes a 32-bit little-endian x86
// executable ELF. The ELF magic itself is already checked by
// elf.NewFile, which rejects files that do not start with it.
func chkELF(eh *elf.FileHeader) {
	if eh.Class != elf.ELFCLASS32 {
		log.Fatal("not a 32-bit elf")
	}
	if eh.Data != elf.ELFDATA2LSB {
		log.Fatal("not little-endian")
	}
	if eh.Type != elf.ET_EXEC {
		log.Fatal("not an executable elf")
	}
	if eh.Machine != elf.EM_386 {
		log.Fatal("not a 32-bit x86 elf")
	}
}

func main() {
	if len(os.Args) != 3 {
		usage(os.Args[0])
	}
	fn := os.Args[1]
	addr, err := parseAddr(os.Args[2])
	if err != nil {
		log.Fatal(err)
	}
	if addr>>32 != 0 {
		log.Fatal("entry is not a 32-bit address")
	}

	f, err := os.OpenFile(fn, os.O_RDWR, 0)
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()

	ef, err := elf.NewFile(f)
	if err != nil {
		log.Fatal(err)
	}
	chkELF(&ef.FileHeader)

	fmt.Printf("using address 0x%x\n", addr)

	// The ELF32 entry field sits at byte offset 24 in the on-disk header
	// (e_ident[16] + e_type[2] + e_machine[2] + e_version[4]); patch it
	// directly rather than re-serializing the whole parsed FileHeader,
	// since debug/elf.FileHeader isn't wire-compatible with the on-disk
	// layout (it carries a ByteOrder interface field, among others).
	var entry [4]byte
	binary.LittleEndian.PutUint32(entry[:], uint32(addr))
	if _, err := f.WriteAt(entry[:], 24); err != nil {
		log.Fatal(err)
	}
}

// parseAddr converts the supplied string into a uint32 address, matching
// C's strtoul with base 0: decimal or 0x-prefixed hexadecimal.
func parseAddr(s string) (uint64, error) {
	a, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid address %q", s)
	}
	return a, nil
}
