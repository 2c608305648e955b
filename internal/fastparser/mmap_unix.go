//go:build unix

package fastparser

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// mapFile maps filename read-only so ParseFile can hand out value ranges
// that point into the page cache. The descriptor is closed right away; the
// mapping stays valid until release unmaps it. An empty file maps to an
// empty slice.
func mapFile(filename string) (data []byte, release func(), err error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, nil, fmt.Errorf("range parser: %w", err)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, nil, fmt.Errorf("range parser: %w", err)
	}
	if fi.Size() == 0 {
		return []byte{}, func() {}, nil
	}

	data, err = unix.Mmap(int(f.Fd()), 0, int(fi.Size()), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, nil, fmt.Errorf("range parser: map %s: %w", filename, err)
	}
	return data, func() { _ = unix.Munmap(data) }, nil
}
