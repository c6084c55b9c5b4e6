// Package stage implements the stage graph primitives (§4.1): process-wide
// stage identity, the typed Stage contract, per-tick memoization, and graph
// inspection for the debug DOT renderer and host probe/shape registration.
package stage

import "sync/atomic"

// ID is a process-wide monotonic stage identity, used as a memoization key,
// for graph inspection, and for overlay shape registration.
type ID uint64

// Allocator hands out monotonic IDs. Hidden behind a handle (rather than a
// bare package-level counter) so tests can start a fresh sequence.
type Allocator struct {
	next uint64
}

// NewAllocator returns an allocator whose first ID is 1 (0 is reserved as
// the zero value / "no stage").
func NewAllocator() *Allocator {
	return &Allocator{next: 1}
}

// Next returns the next stage ID.
func (a *Allocator) Next() ID {
	return ID(atomic.AddUint64(&a.next, 1) - 1)
}
