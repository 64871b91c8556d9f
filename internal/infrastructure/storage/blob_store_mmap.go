//go:build unix

package storage

import (
	"os"

	"golang.org/x/sys/unix"
)

// writeAt maps the page-aligned window that covers the range and copies data
// into it. The mapping is private to this call.
func writeAt(f *os.File, start int64, data []byte) error {
	pageSize := int64(os.Getpagesize())
	alignedStart := start - start%pageSize
	delta := int(start - alignedStart)

	mapped, err := unix.Mmap(int(f.Fd()), alignedStart, delta+len(data), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return err
	}
	copy(mapped[delta:], data)

	syncErr := unix.Msync(mapped, unix.MS_SYNC)
	if err := unix.Munmap(mapped); err != nil {
		return err
	}
	return syncErr
}
