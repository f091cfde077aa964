package heap

import (
	"fmt"
	"unsafe"
)

// fakeProvider is an in-process Provider backed by ordinary Go byte
// slices — no real syscalls — so every scenario in spec.md section 8
// can be driven deterministically and fast. The program break is
// emulated by a single pre-sized arena walked forward by curBreak;
// each Map call gets its own independently-sized slice, matching how
// a real mmap region is independent of its neighbors.
type fakeProvider struct {
	arena    []byte
	curBreak uintptr
	mappings map[uintptr][]byte
	pageSize int
}

// newFakeProvider returns a fakeProvider whose simulated program break
// can grow up to arenaSize bytes before reporting exhaustion.
func newFakeProvider(arenaSize, pageSize int) *fakeProvider {
	return &fakeProvider{
		arena:    make([]byte, arenaSize),
		mappings: make(map[uintptr][]byte),
		pageSize: pageSize,
	}
}

func (f *fakeProvider) arenaBase() uintptr {
	return uintptr(unsafe.Pointer(&f.arena[0]))
}

func (f *fakeProvider) ExtendBreak(delta uintptr) (uintptr, error) {
	base := f.arenaBase() + f.curBreak
	newBreak := f.curBreak + delta

	if newBreak > uintptr(len(f.arena)) {
		return 0, fmt.Errorf("fake arena exhausted: need %d bytes, have %d", newBreak, len(f.arena))
	}

	f.curBreak = newBreak

	return base, nil
}

func (f *fakeProvider) Map(size uintptr) (uintptr, error) {
	b := make([]byte, size)
	base := uintptr(unsafe.Pointer(&b[0]))
	f.mappings[base] = b

	return base, nil
}

func (f *fakeProvider) Unmap(base, size uintptr) error {
	b, ok := f.mappings[base]
	if !ok {
		return fmt.Errorf("unmap: unknown mapping %#x", base)
	}

	if uintptr(len(b)) != size {
		return fmt.Errorf("unmap: size mismatch for %#x: got %d, want %d", base, size, len(b))
	}

	delete(f.mappings, base)

	return nil
}

func (f *fakeProvider) PageSize() int {
	return f.pageSize
}

// currentBreak reports the simulated break's absolute address.
func (f *fakeProvider) currentBreak() uintptr {
	return f.arenaBase() + f.curBreak
}

const testArenaSize = 16 << 20 // 16 MiB, generously larger than any single test's brk usage
const testPageSize = 4096
