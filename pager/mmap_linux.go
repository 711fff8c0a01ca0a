//go:build linux

package pager

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// reserveFixed reserves length bytes of anonymous RWX memory at the exact
// virtual address addr, so the region can be registered with userfaultfd
// and later resolved page-by-page with uffdCopy. Unlike a plain
// unix.Mmap, this needs the kernel-chosen-vs-caller-chosen address
// distinction MAP_FIXED provides, so it goes through the raw syscall
// directly (mirrors the fixed-address mmap pattern used for JIT code
// pages elsewhere in this corpus).
func reserveFixed(addr, length uintptr) error {
	got, _, errno := unix.Syscall6(
		unix.SYS_MMAP,
		addr,
		length,
		unix.PROT_READ|unix.PROT_WRITE|unix.PROT_EXEC,
		unix.MAP_PRIVATE|unix.MAP_ANONYMOUS|unix.MAP_FIXED,
		^uintptr(0), // fd = -1
		0,
	)
	if errno != 0 {
		return fmt.Errorf("pager: mmap fixed at 0x%x: %w", addr, errno)
	}
	if got != addr {
		return fmt.Errorf("pager: kernel placed mapping at 0x%x, wanted 0x%x", got, addr)
	}
	return nil
}

func releaseFixed(addr, length uintptr) error {
	_, _, errno := unix.Syscall(unix.SYS_MUNMAP, addr, length, 0)
	if errno != 0 {
		return fmt.Errorf("pager: munmap at 0x%x: %w", addr, errno)
	}
	return nil
}
