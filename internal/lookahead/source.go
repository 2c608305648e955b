package lookahead

import (
	"io"

	"github.com/shapestone/shape-core/pkg/tokenizer"
)

// Source is a pull interface over a character stream.
//
// ReadChars fills dst with up to len(dst) characters and returns how many
// were written. At end of stream it returns io.EOF, possibly together with
// a final n > 0. Any other error is a read failure.
type Source interface {
	ReadChars(dst []rune) (int, error)
}

// StreamSource pulls characters from a shape-core tokenizer stream.
type StreamSource struct {
	stream tokenizer.Stream
	closer io.Closer
}

// NewStreamSource wraps an existing stream.
func NewStreamSource(stream tokenizer.Stream) *StreamSource {
	return &StreamSource{stream: stream}
}

// NewReaderSource decodes UTF-8 characters from r using shape-core's
// buffered reader stream. If r is an io.Closer it is closed with the source.
func NewReaderSource(r io.Reader) *StreamSource {
	s := &StreamSource{stream: tokenizer.NewStreamFromReader(r)}
	if c, ok := r.(io.Closer); ok {
		s.closer = c
	}
	return s
}

// NewStringSource streams the characters of s.
func NewStringSource(s string) *StreamSource {
	return &StreamSource{stream: tokenizer.NewStream(s)}
}

// ReadChars implements Source.
func (s *StreamSource) ReadChars(dst []rune) (int, error) {
	n := 0
	for n < len(dst) {
		r, ok := s.stream.NextChar()
		if !ok {
			return n, io.EOF
		}
		dst[n] = r
		n++
	}
	return n, nil
}

// Close releases the underlying reader, if it is closable.
func (s *StreamSource) Close() error {
	if s.closer == nil {
		return nil
	}
	c := s.closer
	s.closer = nil
	return c.Close()
}
