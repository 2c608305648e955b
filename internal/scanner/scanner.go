// Package scanner provides newline-normalizing match primitives over a
// lookahead buffer. Positions passed to the match methods are relative to
// the committed head; nothing is consumed until Commit.
package scanner

import (
	"github.com/shapestone/shape-dsv/internal/grammar"
	"github.com/shapestone/shape-dsv/internal/lookahead"
)

// NoMatch is returned by the match methods when nothing matched.
const NoMatch = -1

// Position locates the committed head in the source.
type Position struct {
	// Offset counts source characters consumed so far, from 0.
	Offset int64
	// Line is 1-based. "\r\n" counts as one line break.
	Line int64
	// Column is the 1-based character position within the line.
	Column int64
}

// Scanner tracks the committed position over a lookahead.Buffer and
// implements grammar.Input for uncommitted lookahead.
type Scanner struct {
	buf       *lookahead.Buffer
	pos       Position
	pendingCR bool
}

// New creates a scanner reading from buf.
func New(buf *lookahead.Buffer) *Scanner {
	return &Scanner{
		buf: buf,
		pos: Position{Line: 1, Column: 1},
	}
}

// Position returns the position of the committed head.
func (s *Scanner) Position() Position {
	return s.pos
}

// Next implements grammar.Input. A line ending of any style is returned as
// '\n' together with its width in source characters.
func (s *Scanner) Next(pos int) (rune, int, error) {
	if _, err := s.buf.Ensure(pos + 1); err != nil {
		return grammar.EOS, 0, err
	}
	c := s.buf.At(pos)
	switch c {
	case lookahead.EOS:
		return grammar.EOS, 0, nil
	case '\r':
		if _, err := s.buf.Ensure(pos + 2); err != nil {
			return grammar.EOS, 0, err
		}
		if s.buf.At(pos+1) == '\n' {
			return '\n', 2, nil
		}
		return '\n', 1, nil
	}
	return c, 1, nil
}

// Prev implements grammar.Input. It only looks at characters that are
// already buffered and never before the head.
func (s *Scanner) Prev(pos int) (rune, int) {
	if pos <= 0 {
		return grammar.EOS, 0
	}
	switch c := s.buf.At(pos - 1); c {
	case '\n':
		if pos >= 2 && s.buf.At(pos-2) == '\r' {
			return '\n', 2
		}
		return '\n', 1
	case '\r':
		return '\n', 1
	default:
		return c, 1
	}
}

// AtEnd reports whether pos is at the end of the stream.
func (s *Scanner) AtEnd(pos int) (bool, error) {
	r, _, err := s.Next(pos)
	return r == grammar.EOS, err
}

// MatchLiteral matches the normalized literal lit at pos and returns the
// number of source characters it covers. When eofOK is set, reaching the
// end of the stream part way through counts as a match of what was read.
func (s *Scanner) MatchLiteral(pos int, lit []rune, eofOK bool) (int, error) {
	cur := pos
	for _, want := range lit {
		r, w, err := s.Next(cur)
		if err != nil {
			return NoMatch, err
		}
		if r == grammar.EOS {
			if eofOK {
				return cur - pos, nil
			}
			return NoMatch, nil
		}
		if r != want {
			return NoMatch, nil
		}
		cur += w
	}
	return cur - pos, nil
}

// MatchPattern runs p forward from pos and returns the length of its
// longest match.
func (s *Scanner) MatchPattern(pos int, p *grammar.Pattern) (int, error) {
	return p.Match(s, pos)
}

// MatchBackward runs the reversed pattern p over the characters ending at
// end, not reading before limit.
func (s *Scanner) MatchBackward(end, limit int, p *grammar.Pattern) int {
	return p.MatchBackward(s, end, limit)
}

// Commit consumes n buffered characters and returns them.
func (s *Scanner) Commit(n int) string {
	if n <= 0 {
		return ""
	}
	text := s.buf.Substring(0, n)
	s.advance(text, n)
	return text
}

func (s *Scanner) advance(text string, n int) {
	for _, c := range text {
		switch {
		case c == '\r':
			s.pos.Line++
			s.pos.Column = 1
			s.pendingCR = true
		case c == '\n' && s.pendingCR:
			s.pendingCR = false
		case c == '\n':
			s.pos.Line++
			s.pos.Column = 1
		default:
			s.pos.Column++
			s.pendingCR = false
		}
	}
	s.pos.Offset += int64(n)
	s.buf.Advance(n)
}

// Close releases the buffer and its source.
func (s *Scanner) Close() error {
	return s.buf.Close()
}
