//go:build darwin || freebsd || netbsd || openbsd || dragonfly

package heap

import (
	"fmt"
	"os"
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"
)

// reservedBreakSpan is the size of the address-space reservation used
// to emulate a growable program break on kernels without a usable
// brk(2) (notably Darwin, where the break cannot be grown past the
// size fixed at process start). This is generous relative to
// MMAPThreshold so ordinary brk-sized workloads never exhaust it.
const reservedBreakSpan = 1 << 32

// osProvider emulates the program-break primitive by reserving one
// large PROT_NONE mapping up front and walking its protection boundary
// forward with mprotect as ExtendBreak is called — the same
// "reserve, then commit" technique used by arena-style DMA allocators
// (tamago, gvisor) that cannot rely on a portable brk(2). Anonymous
// mappings still go through mmap/munmap directly.
type osProvider struct {
	mu        sync.Mutex
	reserved  uintptr
	committed uintptr
}

func newOSProvider() Provider {
	return &osProvider{}
}

func (p *osProvider) ExtendBreak(delta uintptr) (uintptr, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.reserved == 0 {
		data, err := unix.Mmap(-1, 0, reservedBreakSpan, unix.PROT_NONE, unix.MAP_PRIVATE|unix.MAP_ANON)
		if err != nil {
			return 0, fmt.Errorf("reserve program-break span failed: %w", err)
		}

		p.reserved = uintptr(unsafe.Pointer(&data[0]))
	}

	base := p.reserved + p.committed
	newCommitted := p.committed + delta

	if newCommitted > reservedBreakSpan {
		return 0, fmt.Errorf("program-break reservation of %d bytes exhausted", reservedBreakSpan)
	}

	if delta > 0 {
		region := unsafe.Slice((*byte)(unsafe.Pointer(base)), int(delta))
		if err := unix.Mprotect(region, unix.PROT_READ|unix.PROT_WRITE); err != nil {
			return 0, fmt.Errorf("mprotect(%#x, %d) failed: %w", base, delta, err)
		}
	}

	p.committed = newCommitted

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
	return os.Getpagesize()
}
