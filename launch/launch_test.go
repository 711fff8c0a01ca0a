package launch

import (
	"reflect"
	"testing"
)

func sampleEntry() int32 { return 42 }

// TestFromAddressRoundTrip exercises the unsafe address-to-function-value
// cast against a real, already-linked Go function instead of raw machine
// code from a mapped ELF segment: it pins down that FromAddress's cast
// faithfully reconstructs a callable value of the right shape, without
// requiring a live userfaultfd-backed mapping the way an end-to-end run
// would.
func TestFromAddressRoundTrip(t *testing.T) {
	addr := reflect.ValueOf(sampleEntry).Pointer()

	entry := FromAddress(addr)
	if got := entry(); got != 42 {
		t.Errorf("entry() = %d, want 42", got)
	}
}

func TestRunReturnsEntryValue(t *testing.T) {
	addr := reflect.ValueOf(sampleEntry).Pointer()
	if got := Run(addr); got != 42 {
		t.Errorf("Run() = %d, want 42", got)
	}
}
