package fastparser

import (
	"unsafe"

	"github.com/shapestone/shape-dsv/pkg/format"
)

// ParseFile maps filename and parses it in place. The result borrows the
// mapping: call cleanup only after the last use of its ranges. A nil result
// with a nil error means no header could be established.
func ParseFile(filename string, f format.DatasetFormat) (*Result, func(), error) {
	data, cleanup, err := mapFile(filename)
	if err != nil {
		return nil, nil, err
	}
	return Parse(bytesToString(data), f), cleanup, nil
}

// bytesToString views data as a string without copying. data must not be
// modified while the string is in use.
func bytesToString(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	return unsafe.String(unsafe.SliceData(data), len(data))
}
