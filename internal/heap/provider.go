package heap

import "log"

// Provider is the OS memory boundary spec'd as two primitives: grow a
// contiguous program-break segment, and create/destroy standalone
// anonymous mappings. Production code uses the per-OS syscall
// implementations in provider_linux.go / provider_other.go; tests use
// fakeProvider (provider_fake_test.go), an in-process byte-slice
// stand-in that makes every allocator scenario deterministic and free
// of real syscalls.
type Provider interface {
	// ExtendBreak requests delta additional bytes (delta >= 0) at the
	// end of the program-break segment and returns the base address of
	// the newly added range. Every call extends the same underlying
	// segment; the base returned by the first call plus the sum of all
	// prior deltas equals the base returned by a later call.
	ExtendBreak(delta uintptr) (base uintptr, err error)

	// Map creates a fresh private anonymous mapping of size bytes and
	// returns its base address.
	Map(size uintptr) (base uintptr, err error)

	// Unmap destroys a mapping previously returned by Map. base and
	// size must match a prior Map call exactly.
	Unmap(base, size uintptr) error

	// PageSize returns the system page size in bytes.
	PageSize() int
}

// fatal reports failure of an OS primitive. spec.md treats this as an
// unrecoverable condition: the allocator's invariants cannot be
// preserved once extend-break/map/unmap fails, so the process
// terminates with a diagnostic rather than returning an error the
// caller might paper over.
//
// It is a package variable rather than a hard-coded log.Fatalf call so
// tests can replace it with a function that panics a sentinel type,
// exercising the fatal path without killing the test binary.
var fatal = func(format string, args ...any) {
	log.Fatalf(format, args...)
}
