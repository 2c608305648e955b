package lookahead

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chunkSource hands out at most chunk characters per call and counts calls.
type chunkSource struct {
	data   []rune
	chunk  int
	calls  int
	closed int
	err    error
}

func (s *chunkSource) ReadChars(dst []rune) (int, error) {
	s.calls++
	if s.err != nil {
		return 0, s.err
	}
	if len(s.data) == 0 {
		return 0, io.EOF
	}
	n := min(len(dst), s.chunk, len(s.data))
	copy(dst, s.data[:n])
	s.data = s.data[n:]
	return n, nil
}

func (s *chunkSource) Close() error {
	s.closed++
	return nil
}

func TestBufferEnsureAndAt(t *testing.T) {
	src := &chunkSource{data: []rune("héllo, wörld"), chunk: 3}
	b := New(src, 8)

	n, err := b.Ensure(5)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, 'h', b.At(0))
	assert.Equal(t, 'é', b.At(1))
	assert.Equal(t, "héllo", b.Substring(0, 5))

	b.Advance(5)
	n, err = b.Ensure(7)
	require.NoError(t, err)
	assert.Equal(t, 7, n)
	assert.Equal(t, ", wörld", b.Substring(0, 7))

	b.Advance(7)
	n, err = b.Ensure(1)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, EOS, b.At(0))
}

func TestBufferWrapsAround(t *testing.T) {
	text := strings.Repeat("abcdefghij", 10)
	src := &chunkSource{data: []rune(text), chunk: 4}
	b := New(src, 7)

	var got strings.Builder
	for {
		n, err := b.Ensure(6)
		require.NoError(t, err)
		if n == 0 {
			break
		}
		step := min(n, 5)
		got.WriteString(b.Substring(0, step))
		b.Advance(step)
	}
	assert.Equal(t, text, got.String())
}

func TestBufferBatchesReads(t *testing.T) {
	src := &chunkSource{data: []rune(strings.Repeat("x", 1000)), chunk: 1000}
	b := New(src, 100)

	_, err := b.Ensure(1)
	require.NoError(t, err)
	// One read should have filled three quarters of the free space.
	assert.Equal(t, 1, src.calls)
	assert.Equal(t, 75, b.size)
}

func TestBufferOverflow(t *testing.T) {
	src := &chunkSource{data: []rune("0123456789"), chunk: 10}
	b := New(src, 4)

	_, err := b.Ensure(5)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLookaheadExceeded))

	var oe *OverflowError
	require.True(t, errors.As(err, &oe))
	assert.Equal(t, 5, oe.Requested)
	assert.Equal(t, 4, oe.Capacity)
}

func TestBufferAdvanceCaps(t *testing.T) {
	b := New(&chunkSource{data: []rune("abc"), chunk: 10}, 8)
	_, err := b.Ensure(3)
	require.NoError(t, err)
	b.Advance(10)
	assert.Equal(t, 0, b.size)
}

func TestBufferUnbufferedIndexPanics(t *testing.T) {
	b := New(&chunkSource{data: []rune("abc"), chunk: 10}, 8)
	assert.Panics(t, func() { b.At(0) })
}

func TestBufferReadError(t *testing.T) {
	boom := errors.New("boom")
	b := New(&chunkSource{err: boom}, 8)
	_, err := b.Ensure(1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, boom))
}

func TestBufferCloseOnce(t *testing.T) {
	src := &chunkSource{}
	b := New(src, 8)
	require.NoError(t, b.Close())
	require.NoError(t, b.Close())
	assert.Equal(t, 1, src.closed)
}

func TestStreamSource(t *testing.T) {
	b := New(NewReaderSource(strings.NewReader("a,b\nc")), 16)
	n, err := b.Ensure(16)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, "a,b\nc", b.Substring(0, 5))
	assert.True(t, b.eof)

	b = New(NewStringSource("xyz"), 2)
	n, err = b.Ensure(2)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, "xy", b.Substring(0, 2))
}
