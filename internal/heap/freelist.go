package heap

// unboundedCap disables the size cap in coalesceNext, requesting
// unconditional coalescing.
const unboundedCap = ^uintptr(0)

// coalesceNext walks forward from start, absorbing each immediately
// following FREE neighbor into start (growing start.size and
// unlinking the neighbor), until it meets the first non-FREE
// neighbor, the end of the chain, or start.size reaches cap. start
// itself may be FREE, ALLOC, or (in principle) MAPPED — its own
// status is never inspected or changed; only its neighbors' status
// gates the merge. MAPPED neighbors are never absorbed: they are
// islands within the chain.
//
// Used two ways: coalesceAllFree calls it on every FREE block to
// restore the no-adjacent-free invariant (cap = unboundedCap), and
// the reallocation engine calls it on a live ALLOC block to grow it
// in place by swallowing trailing free space (cap = the target size).
func coalesceNext(start *blockHeader, cap uintptr) {
	for start.size < cap {
		next := start.next
		if next == nil || next.status != statusFree {
			return
		}

		start.size += next.size
		start.next = next.next
	}
}

// coalesceAllFree sweeps the entire chain, coalescing every FREE
// block with its FREE successors. After this call, no two chained
// FREE blocks are adjacent.
func (a *Allocator) coalesceAllFree() {
	for b := a.prefix; b != nil; b = b.next {
		if b.status == statusFree {
			coalesceNext(b, unboundedCap)
		}
	}
}

// split carves a new FREE block at block+want, sized block.size-want,
// and links it immediately after block in the chain. Precondition:
// block.size >= want+minSplitResidue (checked by callers, not here).
func split(block *blockHeader, want uintptr) {
	tail := blockAt(block.addr() + want)
	tail.size = block.size - want
	tail.status = statusFree
	tail.next = block.next

	block.size = want
	block.next = tail
}

// findFit runs a coalesce-all-free pass and then selects the FREE
// block of minimum size that is still >= want (best-fit, chosen to
// minimize fragmentation now that adjacent free blocks have just been
// merged). It also returns last, the final block visited on the walk,
// which callers use as an insertion anchor when no fit exists.
func (a *Allocator) findFit(want uintptr) (fit, last *blockHeader) {
	a.coalesceAllFree()

	for b := a.prefix; b != nil; b = b.next {
		if b.status == statusFree && b.size >= want {
			if fit == nil || b.size < fit.size {
				fit = b
			}
		}

		last = b
	}

	return fit, last
}
