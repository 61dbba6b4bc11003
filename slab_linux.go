//go:build linux

package l3pressure

import (
	"fmt"

	"golang.org/x/sys/unix"
)

func mmapSlab(size int) (*Slab, error) {
	b, err := unix.Mmap(-1, 0, size,
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return nil, fmt.Errorf("mmap slab of %d bytes: %w", size, err)
	}
	// Huge pages would change the TLB profile of the workload; best effort.
	_ = unix.Madvise(b, unix.MADV_NOHUGEPAGE)
	return &Slab{
		Buf:     b,
		Backing: BackingMmap,
		release: func() error {
			return unix.Munmap(b)
		},
	}, nil
}
