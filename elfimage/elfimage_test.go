package elfimage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"pager/internal/testelf"
)

func writeFixture(t *testing.T, data []byte) string {
	t.Helper()
	dir := t.TempDir()
	fn := filepath.Join(dir, "fixture.elf")
	if err := os.WriteFile(fn, data, 0o755); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return fn
}

func TestLoadSinglePageSegment(t *testing.T) {
	data := testelf.Build(0x08048000, []testelf.Seg{
		{Vaddr: 0x08048000, Memsz: 4096, Data: make([]byte, 4096), Flags: testelf.FlagR | testelf.FlagX},
	})
	fn := writeFixture(t, data)

	img, err := Load(fn)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	defer img.Close()

	if img.Entry != 0x08048000 {
		t.Errorf("Entry = 0x%x, want 0x08048000", img.Entry)
	}
	if len(img.Segments) != 1 {
		t.Fatalf("len(Segments) = %d, want 1", len(img.Segments))
	}
	s := img.Segments[0]
	if s.Vaddr != 0x08048000 || s.Memsz != 4096 || s.Filesz != 4096 {
		t.Errorf("unexpected segment: %+v", s)
	}
}

func TestLoadZeroFilledTail(t *testing.T) {
	data := testelf.Build(0x08048000, []testelf.Seg{
		{Vaddr: 0x08048000, Memsz: 8192, Data: make([]byte, 4096), Flags: testelf.FlagR | testelf.FlagW},
	})
	fn := writeFixture(t, data)

	img, err := Load(fn)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	defer img.Close()

	s := img.Segments[0]
	if s.Filesz != 4096 || s.Memsz != 8192 {
		t.Errorf("unexpected segment: %+v", s)
	}
}

func TestLoadRejectsBadMagic(t *testing.T) {
	fn := writeFixture(t, []byte("not an elf at all, just junk bytes"))

	_, err := Load(fn)
	if !errors.Is(err, ErrBadMagic) {
		t.Errorf("Load error = %v, want ErrBadMagic", err)
	}
}

func TestLoadRejectsEntryOutsideSegment(t *testing.T) {
	data := testelf.Build(0xDEADBEEF, []testelf.Seg{
		{Vaddr: 0x08048000, Memsz: 4096, Data: make([]byte, 4096), Flags: testelf.FlagR | testelf.FlagX},
	})
	fn := writeFixture(t, data)

	_, err := Load(fn)
	if !errors.Is(err, ErrEntryOutsideSegment) {
		t.Errorf("Load error = %v, want ErrEntryOutsideSegment", err)
	}
}

func TestLoadRejectsOverlappingSegments(t *testing.T) {
	data := testelf.Build(0x08048000, []testelf.Seg{
		{Vaddr: 0x08048000, Memsz: 8192, Data: make([]byte, 8192), Flags: testelf.FlagR},
		{Vaddr: 0x08049000, Memsz: 4096, Data: make([]byte, 4096), Flags: testelf.FlagR},
	})
	fn := writeFixture(t, data)

	_, err := Load(fn)
	if !errors.Is(err, ErrInvalidSegment) {
		t.Errorf("Load error = %v, want ErrInvalidSegment", err)
	}
}

func TestSegmentForAndContains(t *testing.T) {
	s := Segment{Vaddr: 0x1000, Memsz: 0x1000}
	if !s.Contains(0x1000) {
		t.Error("Contains(first byte) = false, want true")
	}
	if !s.Contains(0x1fff) {
		t.Error("Contains(last byte) = false, want true")
	}
	if s.Contains(0x2000) {
		t.Error("Contains(one past end) = true, want false")
	}

	img := &ElfImage{Segments: []Segment{s}}
	if got, ok := img.SegmentFor(0x1800); !ok || got.Vaddr != 0x1000 {
		t.Errorf("SegmentFor(0x1800) = %+v, %v; want segment at 0x1000, true", got, ok)
	}
	if _, ok := img.SegmentFor(0x2000); ok {
		t.Error("SegmentFor(one past end) ok = true, want false")
	}
}
