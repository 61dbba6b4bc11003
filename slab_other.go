//go:build !linux

package l3pressure

// Anonymous mappings are only wired on linux; other platforms use the heap.
func mmapSlab(size int) (*Slab, error) {
	return &Slab{Buf: make([]byte, size), Backing: BackingHeap}, nil
}
