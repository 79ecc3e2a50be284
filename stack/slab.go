package stack

import (
	"math"
	"math/bits"
	"unsafe"
)

// layout describes a region of n contiguous elements of one type. It is
// derived from (n, T) only, so the same pair always produces the same layout.
type layout struct {
	size  uintptr
	align uintptr
	n     int
	bytes uintptr
}

func arrayLayout[T any](n int) layout {
	var zero T
	size := unsafe.Sizeof(zero)
	hi, lo := bits.Mul(uint(size), uint(n))
	if n < 0 || hi != 0 || lo > math.MaxInt {
		fatal(ErrAllocation, "%d elements of %d bytes exceeds the addressable size", n, size)
	}
	return layout{
		size:  size,
		align: unsafe.Alignof(zero),
		n:     n,
		bytes: uintptr(lo),
	}
}

// slab is a raw region with room for exactly layout.n values of T. It has no
// notion of which slots hold values; that bookkeeping belongs to the owner.
type slab[T any] struct {
	base   unsafe.Pointer
	layout layout
}

func allocSlab[T any](l layout) slab[T] {
	base := makeRegion[T](l)
	if base == nil {
		fatal(ErrAllocation, "%d bytes: no storage returned", l.bytes)
	}
	if l.align > 1 && uintptr(base)%l.align != 0 {
		fatal(ErrAllocation, "%d bytes: storage not aligned to %d", l.bytes, l.align)
	}
	return slab[T]{base: base, layout: l}
}

// makeRegion asks the runtime for the region. The runtime rejects lengths it
// cannot address with a recoverable panic; that is reported as ErrAllocation.
// Running out of memory outright still terminates the process.
func makeRegion[T any](l layout) (base unsafe.Pointer) {
	defer func() {
		if r := recover(); r != nil {
			fatal(ErrAllocation, "%d bytes: %v", l.bytes, r)
		}
	}()

	// The region is typed so the collector still scans pointers held in T.
	return unsafe.Pointer(unsafe.SliceData(make([]T, l.n)))
}

// slot returns the address of slot i. Callers must keep i in [0, layout.n).
func (s *slab[T]) slot(i int) *T {
	return (*T)(unsafe.Add(s.base, uintptr(i)*s.layout.size))
}

// free gives the region back. l must be the layout the region was allocated
// with.
func (s *slab[T]) free(l layout) {
	if s.base == nil {
		fatal(ErrReleased, "region already freed")
	}
	if l != s.layout {
		fatal(ErrAllocation, "release with layout %+v, allocated with %+v", l, s.layout)
	}
	s.base = nil
}
