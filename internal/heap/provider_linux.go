//go:build linux

package heap

import (
	"fmt"
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"
)

// osProvider is the real Linux Provider: brk(2) for the program break
// and mmap(2)/munmap(2) for standalone mappings, grounded on the
// syscall style of asyncio's zerocopy_unix_file.go (build-tagged file,
// golang.org/x/sys/unix, raw unix.Syscall for primitives x/sys does
// not wrap directly).
type osProvider struct {
	mu       sync.Mutex
	curBreak uintptr
	started  bool
}

// newOSProvider returns the production Provider for this platform.
func newOSProvider() Provider {
	return &osProvider{}
}

func (p *osProvider) ExtendBreak(delta uintptr) (uintptr, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		// brk(0) queries the current break without changing it.
		cur, _, errno := unix.Syscall(unix.SYS_BRK, 0, 0, 0)
		if errno != 0 {
			return 0, fmt.Errorf("brk(0) query failed: %w", errno)
		}

		p.curBreak = cur
		p.started = true
	}

	base := p.curBreak
	want := base + delta

	got, _, errno := unix.Syscall(unix.SYS_BRK, want, 0, 0)
	if errno != 0 || got < want {
		return 0, fmt.Errorf("brk(%#x) failed: %w", want, errno)
	}

	p.curBreak = got

	return base, nil
}

func (p *osProvider) Map(size uintptr) (uintptr, error) {
	data, err := unix.Mmap(-1, 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return 0, fmt.Errorf("mmap(%d) failed: %w", size, err)
	}

	return uintptr(unsafe.Pointer(&data[0])), nil
}

func (p *osProvider) Unmap(base, size uintptr) error {
	data := unsafe.Slice((*byte)(unsafe.Pointer(base)), int(size))
	if err := unix.Munmap(data); err != nil {
		return fmt.Errorf("munmap(%#x, %d) failed: %w", base, size, err)
	}

	return nil
}

func (p *osProvider) PageSize() int {
	return unix.Getpagesize()
}
