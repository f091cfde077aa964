package heap

import "unsafe"

// Free releases the block owning p, returning its memory to the
// allocator (brk-resident blocks) or to the OS (mapped blocks).
// Freeing nil is a no-op. Freeing a pointer not currently owned by
// this allocator — a wild pointer, or one already freed — is
// undefined behavior: no magic numbers or allocation set are kept to
// detect it.
func (a *Allocator) Free(p unsafe.Pointer) {
	if p == nil {
		return
	}

	header := headerFromUser(p)

	if header.status == statusMapped {
		a.unmapBlock(header)
		a.coalesceAllFree()
		auditChain(a)

		return
	}

	header.status = statusFree
	a.coalesceAllFree()
	auditChain(a)
}

// unmapBlock removes a MAPPED block from the chain and returns its
// memory to the OS. If header was the head of the chain, prefix
// advances to its successor, and if it was also heapStart, heapStart
// is cleared. When that leaves the chain empty, the next allocation
// re-enters cold start.
func (a *Allocator) unmapBlock(header *blockHeader) {
	switch {
	case header == a.prefix:
		a.prefix = header.next
		if header == a.heapStart {
			a.heapStart = nil
		}
	default:
		if prev := a.predecessorOf(header); prev != nil {
			prev.next = header.next
		}
	}

	base, size := header.addr(), header.size
	if err := a.provider.Unmap(base, size); err != nil {
		fatal("heap: unmap failed: %v", err)
	}
}

// predecessorOf linear-scans from prefix to find target's predecessor
// in the chain. The chain is singly linked by design (see block.go's
// doc comment), so this is the only way to recover it.
func (a *Allocator) predecessorOf(target *blockHeader) *blockHeader {
	for b := a.prefix; b != nil; b = b.next {
		if b.next == target {
			return b
		}
	}

	return nil
}
