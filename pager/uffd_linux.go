//go:build linux

package pager

// Thin ioctl wrapper around Linux's userfaultfd(2) API, covering only the
// subset the FaultRouter needs (API handshake, register, copy,
// unregister). Adapted from the ricardobranco777/go-userfaultfd wrapper
// in shape and naming; trimmed to the operations this loader exercises
// and folded into this package instead of kept as a separate module,
// since nothing else in this repository needs the rest of the ioctl
// surface (CONTINUE, MOVE, POISON, WRITEPROTECT, ZEROPAGE).

import (
	"os"
	"unsafe"

	"golang.org/x/sys/unix"
)

const (
	uffdioMagic = 0xAA

	nrAPI        = 0x3F
	nrRegister   = 0x00
	nrUnregister = 0x01
	nrCopy       = 0x03

	iocWrite = 1
	iocRead  = 2

	iocNRBits   = 8
	iocTypeBits = 8
	iocSizeBits = 14

	iocNRShift   = 0
	iocTypeShift = iocNRShift + iocNRBits
	iocSizeShift = iocTypeShift + iocTypeBits
	iocDirShift  = iocSizeShift + iocSizeBits
)

func ioc(dir, typ, nr, size uintptr) uintptr {
	return (dir << iocDirShift) | (typ << iocTypeShift) | (nr << iocNRShift) | (size << iocSizeShift)
}

func iowr(nr, size uintptr) uintptr {
	return ioc(iocRead|iocWrite, uffdioMagic, nr, size)
}

// UFFD_API is the only protocol version this wrapper speaks.
const UFFD_API = 0xAA

// Registration modes (UFFDIO_REGISTER_MODE_*).
const (
	RegisterModeMissing = 1 << 0
)

// UFFD_EVENT_PAGEFAULT is the only event type this wrapper expects to see;
// any other event read off the descriptor is treated as fatal by Serve.
const UFFD_EVENT_PAGEFAULT = 0x12

// Pagefault flags (UFFD_PAGEFAULT_FLAG_*).
const (
	PagefaultFlagWrite = 1 << 0
	PagefaultFlagWP    = 1 << 1
)

type uffdioAPI struct {
	API      uint64
	Features uint64
	Ioctls   uint64
}

type uffdioRange struct {
	Start uint64
	Len   uint64
}

type uffdioRegister struct {
	Range  uffdioRange
	Mode   uint64
	Ioctls uint64
}

type uffdioCopy struct {
	Dst  uint64
	Src  uint64
	Len  uint64
	Mode uint64
	Copy int64
}

// uffdMsg mirrors struct uffd_msg from <linux/userfaultfd.h>: an 8-byte
// header followed by a 24-byte union, here left as raw bytes and
// reinterpreted by decodePagefault.
type uffdMsg struct {
	Event     uint8
	Reserved1 uint8
	Reserved2 uint16
	Reserved3 uint32
	Arg       [24]byte
}

type uffdPagefault struct {
	Flags   uint64
	Address uint64
}

func decodePagefault(m *uffdMsg) uffdPagefault {
	return *(*uffdPagefault)(unsafe.Pointer(&m.Arg[0]))
}

var (
	ioctlAPI        = iowr(nrAPI, unsafe.Sizeof(uffdioAPI{}))
	ioctlRegister   = iowr(nrRegister, unsafe.Sizeof(uffdioRegister{}))
	// UFFDIO_UNREGISTER is _IOR(UFFDIO, _UFFDIO_UNREGISTER, struct uffdio_range)
	// in <linux/userfaultfd.h>: direction _IOC_READ, not _IOC_WRITE.
	ioctlUnregister = ioc(iocRead, uffdioMagic, nrUnregister, unsafe.Sizeof(uffdioRange{}))
	ioctlCopy       = iowr(nrCopy, unsafe.Sizeof(uffdioCopy{}))
)

func ioctl(fd int, op uintptr, arg unsafe.Pointer) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), op, uintptr(arg))
	if errno != 0 {
		return os.NewSyscallError("ioctl", errno)
	}
	return nil
}

// newUffd opens a userfaultfd descriptor and negotiates the API version.
func newUffd() (*os.File, error) {
	fd, _, errno := unix.Syscall(unix.SYS_USERFAULTFD, 0, 0, 0)
	if errno != 0 {
		return nil, os.NewSyscallError("userfaultfd", errno)
	}
	f := os.NewFile(fd, "userfaultfd")

	api := uffdioAPI{API: UFFD_API}
	if err := ioctl(int(fd), ioctlAPI, unsafe.Pointer(&api)); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

func uffdRegister(fd int, start, length uintptr, mode uint64) error {
	reg := uffdioRegister{
		Range: uffdioRange{Start: uint64(start), Len: uint64(length)},
		Mode:  mode,
	}
	return ioctl(fd, ioctlRegister, unsafe.Pointer(&reg))
}

func uffdUnregister(fd int, start, length uintptr) error {
	r := uffdioRange{Start: uint64(start), Len: uint64(length)}
	return ioctl(fd, ioctlUnregister, unsafe.Pointer(&r))
}

// uffdCopy services a missing-page fault by copying length bytes from src
// into the guest range at dst. It is called only from the fault-servicing
// goroutine and performs a single ioctl: no allocation, no locking.
func uffdCopy(fd int, dst, src, length uintptr) error {
	c := uffdioCopy{Dst: uint64(dst), Src: uint64(src), Len: uint64(length)}
	return ioctl(fd, ioctlCopy, unsafe.Pointer(&c))
}
