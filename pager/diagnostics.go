package pager

import "golang.org/x/sys/unix"

// Fixed diagnostic messages for the fault-servicing path, preconverted to
// []byte at package init so faultSafeWrite never allocates on the path
// spec.md's async-safety floor (§5, §9) forbids allocation on.
var (
	msgUnexpectedEvent    = []byte("pager: unexpected uffd event\n")
	msgFaultOutsideSeg    = []byte("pager: fault outside any segment\n")
	msgPageBudgetExceeded = []byte("pager: page budget exceeded\n")
	msgFileReadFailed     = []byte("pager: file read failed\n")
	msgUffdioCopyFailed   = []byte("pager: uffdio copy failed\n")
	msgPageRecordedTwice  = []byte("pager: page recorded twice\n")
)

// faultSafeWrite writes msg straight to stderr with a single write(2)
// syscall. Callers must only ever pass one of the package-level msg*
// vars above, never a freshly constructed []byte, so this never
// allocates on the fault-servicing path.
func faultSafeWrite(msg []byte) {
	unix.Write(2, msg)
}
