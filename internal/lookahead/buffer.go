// Package lookahead provides a fixed-size ring buffer of characters over a
// pull Source, giving bounded random access ahead of a moving head.
package lookahead

import (
	"errors"
	"fmt"
	"io"
)

// EOS is returned by At for positions past the end of the stream.
const EOS rune = -1

// maxEmptyReads bounds consecutive (0, nil) reads before giving up.
const maxEmptyReads = 100

// ErrLookaheadExceeded is the sentinel behind every OverflowError.
var ErrLookaheadExceeded = errors.New("lookahead exceeded configured limit")

// OverflowError reports a single request for more characters than the
// buffer can ever hold. It is not a parse error: either the limit is too
// small for the data or a value is pathologically long.
type OverflowError struct {
	Requested int
	Capacity  int
}

func (e *OverflowError) Error() string {
	return fmt.Sprintf("%v: requested %d characters, capacity %d", ErrLookaheadExceeded, e.Requested, e.Capacity)
}

// Unwrap returns ErrLookaheadExceeded.
func (e *OverflowError) Unwrap() error {
	return ErrLookaheadExceeded
}

// Buffer is a circular character buffer. It owns the source and must be
// closed exactly once.
type Buffer struct {
	src    Source
	data   []rune
	head   int
	size   int
	eof    bool
	err    error
	closed bool
}

// New creates a buffer holding at most capacity characters.
func New(src Source, capacity int) *Buffer {
	if capacity < 1 {
		capacity = 1
	}
	return &Buffer{
		src:  src,
		data: make([]rune, capacity),
	}
}

// Ensure makes at least n characters available ahead of the head, or all
// remaining ones if the stream ends first. It returns the number available,
// capped at n.
func (b *Buffer) Ensure(n int) (int, error) {
	if n <= b.size || b.eof {
		return min(n, b.size), nil
	}
	if n > len(b.data) {
		return b.size, &OverflowError{Requested: n, Capacity: len(b.data)}
	}
	if b.err != nil {
		return b.size, b.err
	}

	empty := 0
	for b.size < n && !b.eof {
		free := len(b.data) - b.size
		want := n - b.size
		if batch := free * 3 / 4; batch > want {
			want = batch
		}
		tail := (b.head + b.size) % len(b.data)
		end := min(tail+want, len(b.data))

		got, err := b.src.ReadChars(b.data[tail:end])
		b.size += got
		if errors.Is(err, io.EOF) {
			b.eof = true
			break
		}
		if err != nil {
			b.err = fmt.Errorf("lookahead: read: %w", err)
			return min(n, b.size), b.err
		}
		if got == 0 {
			empty++
			if empty >= maxEmptyReads {
				b.err = fmt.Errorf("lookahead: read: %w", io.ErrNoProgress)
				return min(n, b.size), b.err
			}
			continue
		}
		empty = 0
	}
	return min(n, b.size), nil
}

// At returns the i-th character ahead of the head, or EOS when the stream
// ended before it. Asking for a position that was never ensured panics.
func (b *Buffer) At(i int) rune {
	if i < 0 {
		panic(fmt.Sprintf("lookahead: negative index %d", i))
	}
	if i < b.size {
		return b.data[(b.head+i)%len(b.data)]
	}
	if b.eof {
		return EOS
	}
	panic(fmt.Sprintf("lookahead: index %d not buffered (have %d)", i, b.size))
}

// Advance drops the first n buffered characters.
func (b *Buffer) Advance(n int) {
	if n > b.size {
		n = b.size
	}
	if n <= 0 {
		return
	}
	b.head = (b.head + n) % len(b.data)
	b.size -= n
}

// Substring returns n buffered characters starting at from.
func (b *Buffer) Substring(from, n int) string {
	if from < 0 || n < 0 || from+n > b.size {
		panic(fmt.Sprintf("lookahead: substring [%d,%d) out of buffered range %d", from, from+n, b.size))
	}
	start := (b.head + from) % len(b.data)
	if start+n <= len(b.data) {
		return string(b.data[start : start+n])
	}
	first := len(b.data) - start
	out := make([]rune, 0, n)
	out = append(out, b.data[start:]...)
	out = append(out, b.data[:n-first]...)
	return string(out)
}

// Close closes the source if it implements io.Closer. Later calls are no-ops.
func (b *Buffer) Close() error {
	if b.closed {
		return nil
	}
	b.closed = true
	if c, ok := b.src.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
