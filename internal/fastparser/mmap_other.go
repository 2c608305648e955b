//go:build !unix

package fastparser

import (
	"fmt"
	"os"
)

// mapFile reads filename into memory where mmap is unavailable. release is
// a no-op.
func mapFile(filename string) ([]byte, func(), error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, nil, fmt.Errorf("range parser: %w", err)
	}
	return data, func() {}, nil
}
