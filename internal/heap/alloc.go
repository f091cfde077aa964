package heap

import "unsafe"

// MMAPThreshold is the aligned total-size boundary (payload + header)
// at or above which a request is satisfied by a fresh anonymous
// mapping instead of the program break.
const MMAPThreshold = uintptr(128 * 1024)

// preludeSize is the one-time program-break extension performed the
// first time the break is ever used, regardless of the size of the
// request that triggered it. It amortizes the brk syscall across many
// subsequent small allocations.
const preludeSize = uintptr(128 * 1024)

// Allocator is a single-threaded general purpose heap allocator over a
// program-break segment and per-request anonymous mappings. Its state
// — heapStart, prefix and firstBrk — lives for the lifetime of the
// value; there is no teardown. Nothing here is safe for concurrent
// use: a caller sharing an *Allocator across goroutines must
// serialize every Malloc/Free/Calloc/Realloc call itself, for example
// behind a sync.Mutex.
type Allocator struct {
	provider Provider

	heapStart *blockHeader // first block ever created, or nil
	prefix    *blockHeader // current head of the traversal chain
	firstBrk  bool         // true until the program break is first extended

	pageSize uintptr
}

// New returns an Allocator backed by this platform's real OS memory
// provider (brk/mmap on Linux, a reserved-and-committed mapping
// emulating brk on Darwin and the BSDs).
func New() *Allocator {
	return newWithProvider(newOSProvider())
}

// newWithProvider builds an Allocator over an arbitrary Provider. Used
// directly by tests to substitute fakeProvider.
func newWithProvider(p Provider) *Allocator {
	return &Allocator{
		provider: p,
		firstBrk: true,
		pageSize: uintptr(p.PageSize()),
	}
}

// wantSize computes align(n+headerSize), floored at headerSize so
// that every block — even the smallest — is large enough to host its
// own header once it is eventually freed.
func wantSize(n uintptr) uintptr {
	want := alignUp(n+headerSize, Alignment)
	if want < headerSize {
		want = headerSize
	}

	return want
}

// Malloc returns a pointer to n uninitialized, Alignment-aligned
// bytes, or nil if n <= 0.
func (a *Allocator) Malloc(n int) unsafe.Pointer {
	if n <= 0 {
		return nil
	}

	p := a.allocate(uintptr(n), MMAPThreshold)
	auditChain(a)

	return p
}

// Calloc returns a pointer to k*n zeroed, Alignment-aligned bytes, or
// nil if either k or n is <= 0. The brk-vs-mmap threshold here is the
// system page size rather than MMAPThreshold, an intentional
// divergence: a large request (aligned total size at or above the
// page size) that no existing free block satisfies gets a fresh
// mapping instead of program-break memory. A large request that does
// fit an existing free block reuses it. The payload is zeroed
// explicitly in every case.
func (a *Allocator) Calloc(k, n int) unsafe.Pointer {
	if k <= 0 || n <= 0 {
		return nil
	}

	total := uintptr(k) * uintptr(n)

	p := a.allocate(total, a.pageSize)
	if p == nil {
		return nil
	}

	zeroBytes(p, total)
	auditChain(a)

	return p
}

// allocate implements the shared decision tree behind Malloc and
// Calloc. threshold decides, for this call only, whether a
// newly-created block is satisfied from the program break or from a
// fresh mapping; it does not affect blocks that already exist.
func (a *Allocator) allocate(n, threshold uintptr) unsafe.Pointer {
	want := wantSize(n)

	if a.prefix == nil {
		block := a.acquireBlock(want, threshold)
		if block == nil {
			return nil
		}

		a.heapStart = block
		a.prefix = block

		return block.userPtr()
	}

	fit, last := a.findFit(want)
	if fit != nil {
		if fit.size-want >= minSplitResidue {
			split(fit, want)
		}

		fit.status = statusAlloc

		return fit.userPtr()
	}

	if last.status == statusFree {
		delta := want - last.size
		if _, err := a.provider.ExtendBreak(delta); err != nil {
			fatal("heap: extend-break failed: %v", err)
			return nil
		}

		last.size = want
		last.status = statusAlloc

		return last.userPtr()
	}

	block := a.acquireBlock(want, threshold)
	if block == nil {
		return nil
	}

	last.next = block

	return block.userPtr()
}

// acquireBlock creates a brand new block of aligned total size want,
// either by growing the program break or by mapping a fresh region,
// per threshold. It is shared by cold start and by the warm path's
// "append a new terminal block" branch — both follow exactly the same
// brk-vs-mmap and prelude-vs-exact-size rules.
func (a *Allocator) acquireBlock(want, threshold uintptr) *blockHeader {
	if want < threshold {
		extend := want
		if a.firstBrk {
			extend = preludeSize
			a.firstBrk = false
		}

		base, err := a.provider.ExtendBreak(extend)
		if err != nil {
			fatal("heap: extend-break failed: %v", err)
			return nil
		}

		b := blockAt(base)
		b.size = extend
		b.status = statusAlloc
		b.next = nil

		return b
	}

	base, err := a.provider.Map(want)
	if err != nil {
		fatal("heap: map failed: %v", err)
		return nil
	}

	b := blockAt(base)
	b.size = want
	b.status = statusMapped
	b.next = nil

	return b
}

func zeroBytes(p unsafe.Pointer, n uintptr) {
	if n == 0 {
		return
	}

	b := unsafe.Slice((*byte)(p), int(n))
	for i := range b {
		b[i] = 0
	}
}
