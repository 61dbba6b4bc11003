package l3pressure

import (
	"fmt"
)

// Backing selects where slab memory comes from.
type Backing string

const (
	BackingHeap Backing = "heap" // Regular Go allocation
	BackingMmap Backing = "mmap" // Anonymous private mapping (linux only, heap elsewhere)
)

// Slab is the memory region subjected to random access.
// Its length never changes after allocation.
type Slab struct {
	Buf     []byte
	Backing Backing

	release func() error
}

// SlabSize returns the slab length for an L2 size hint and a slab/cache ratio.
// A ratio above 1 makes the slab spill out of L2.
func SlabSize(l2Size int, ratio float64) int {
	return int(ratio * float64(l2Size))
}

// AllocateSlab allocates a zeroed slab of size bytes.
func AllocateSlab(size int, backing Backing) (*Slab, error) {
	if size <= 0 {
		return nil, fmt.Errorf("invalid slab size %d: %w", size, ErrEmptySlab)
	}
	switch backing {
	case BackingHeap, "":
		return &Slab{Buf: make([]byte, size), Backing: BackingHeap}, nil
	case BackingMmap:
		return mmapSlab(size)
	default:
		return nil, fmt.Errorf("unknown slab backing %q", backing)
	}
}

// Close releases mapped memory. Heap slabs are left to the GC.
func (s *Slab) Close() error {
	if s.release == nil {
		s.Buf = nil
		return nil
	}
	err := s.release()
	s.release = nil
	s.Buf = nil
	return err
}
