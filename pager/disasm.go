package pager

import (
	"fmt"

	"golang.org/x/arch/x86/x86asm"
)

// DescribeFault decodes the instruction at addr into a human-readable
// string. Disassembly allocates and is not safe on the fault-servicing
// path, so Router.Serve and Router.resolvePage never call it. No command
// in this repository calls it either; --verbose output does not include
// disassembly.
func DescribeFault(code []byte, addr uint32) string {
	inst, err := x86asm.Decode(code, 32)
	if err != nil {
		return fmt.Sprintf("0x%x: <undecodable: %v>", addr, err)
	}
	syntax := x86asm.GoSyntax(inst, uint64(addr), nil)
	return fmt.Sprintf("0x%x: %s", addr, syntax)
}
