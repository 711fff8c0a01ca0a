package elfimage

import "errors"

var (
	// ErrBadMagic is returned when the file does not begin with the ELF
	// magic identifier or is not a 32-bit executable ELF.
	ErrBadMagic = errors.New("not a valid 32-bit ELF executable")

	// ErrInvalidSegment is returned when a program header violates the
	// filesz/memsz or non-overlap invariants.
	ErrInvalidSegment = errors.New("invalid loadable segment")

	// ErrEntryOutsideSegment is returned when the ELF entry address does
	// not fall inside any loadable segment.
	ErrEntryOutsideSegment = errors.New("entry address outside any loadable segment")
)
