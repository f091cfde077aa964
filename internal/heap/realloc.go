package heap

import "unsafe"

// Realloc resizes the allocation owning p to n bytes, returning a
// pointer to a block of at least that size — which may or may not be
// p — or nil if p was already free or n <= 0.
//
// p == nil behaves as Malloc(n). n <= 0 behaves as Free(p) followed by
// returning nil. Realloc of a block that is currently FREE (including
// a double-realloc) is treated as caller misuse and returns nil
// without touching anything, per spec: the interface does not offer a
// "resurrect a freed block" behavior.
func (a *Allocator) Realloc(p unsafe.Pointer, n int) unsafe.Pointer {
	if p == nil {
		return a.Malloc(n)
	}

	if n <= 0 {
		a.Free(p)
		return nil
	}

	header := headerFromUser(p)
	if header.status == statusFree {
		return nil
	}

	old := header.size
	wantTotal := wantSize(uintptr(n))

	// MAPPED blocks are islands: they are never chained to brk
	// neighbors in any meaningful address-space sense, so they can
	// only ever be resized via copy-migrate, whether growing or
	// shrinking and regardless of whether the new size would still be
	// mapped-appropriate.
	if header.status != statusMapped {
		if old >= wantTotal {
			if a.kindAppropriate(header.status, wantTotal) {
				if old-wantTotal >= minSplitResidue {
					split(header, wantTotal)
					coalesceNext(header.next, unboundedCap)
				}

				auditChain(a)

				return header.userPtr()
			}
			// Shrinking crosses the brk/mmap kind boundary: neither status
			// transition happens in place, so fall through to copy-migrate.
		} else {
			// header.next == nil is exactly "header is the last block in
			// the chain" — no scan needed, since the chain has no entries
			// past the last one by construction.
			if header.next == nil && header.status == statusAlloc && wantTotal < MMAPThreshold {
				delta := wantTotal - old

				if _, err := a.provider.ExtendBreak(delta); err != nil {
					fatal("heap: extend-break failed: %v", err)
					return nil
				}

				header.size = wantTotal
				auditChain(a)

				return header.userPtr()
			}

			coalesceNext(header, wantTotal)

			if header.size >= wantTotal && a.kindAppropriate(header.status, wantTotal) {
				if header.size-wantTotal >= minSplitResidue {
					split(header, wantTotal)
				}

				auditChain(a)

				return header.userPtr()
			}
		}
	}

	p2 := a.copyMigrate(p, header, n)
	auditChain(a)

	return p2
}

// kindAppropriate reports whether status remains the correct
// allocation kind for a block of aligned total size total: MAPPED
// blocks are appropriate only at or above MMAPThreshold, ALLOC blocks
// only below it. This check always compares against the fixed
// MMAPThreshold — not whatever threshold originally routed the block
// (e.g. Calloc's page-size threshold) — because the kind boundary is
// a property of the current request, not of history.
func (a *Allocator) kindAppropriate(s status, total uintptr) bool {
	switch s {
	case statusMapped:
		return total >= MMAPThreshold
	case statusAlloc:
		return total < MMAPThreshold
	default:
		return false
	}
}

// copyMigrate allocates a fresh n-byte block, copies over the
// overlapping payload bytes, frees the original, and returns the new
// pointer. This is the fallback used whenever neither an in-place
// shrink nor an in-place grow can satisfy the request.
func (a *Allocator) copyMigrate(oldUser unsafe.Pointer, oldHeader *blockHeader, n int) unsafe.Pointer {
	newUser := a.Malloc(n)
	if newUser == nil {
		return nil
	}

	oldPayload := oldHeader.payloadCap()

	copyLen := oldPayload
	if uintptr(n) < copyLen {
		copyLen = uintptr(n)
	}

	if copyLen > 0 {
		src := unsafe.Slice((*byte)(oldUser), int(copyLen))
		dst := unsafe.Slice((*byte)(newUser), int(copyLen))
		copy(dst, src)
	}

	a.Free(oldUser)

	return newUser
}
