package tokenizer

import (
	"github.com/shapestone/shape-dsv/internal/grammar"
	"github.com/shapestone/shape-dsv/internal/scanner"
)

// Lexer produces tokens one at a time from a scanner. It is not safe for
// concurrent use.
type Lexer struct {
	sc *scanner.Scanner
	g  *grammar.Grammar
	m  machine
}

// NewLexer creates a lexer reading from sc with grammar g.
func NewLexer(sc *scanner.Scanner, g *grammar.Grammar) *Lexer {
	return &Lexer{sc: sc, g: g, m: newMachine()}
}

// Next returns the next token, or nil once the input is exhausted.
func (l *Lexer) Next() (*Token, error) {
	return l.m.next(l)
}

// SetGrammar switches the grammar used from the next token on. It is meant
// to be called at a record boundary.
func (l *Lexer) SetGrammar(g *grammar.Grammar) {
	l.g = g
}

// Done reports whether the input has been exhausted.
func (l *Lexer) Done() bool {
	return l.m.done
}

// Position returns the position of the first unconsumed character.
func (l *Lexer) Position() scanner.Position {
	return l.sc.Position()
}

// Close closes the underlying scanner.
func (l *Lexer) Close() error {
	return l.sc.Close()
}

func (l *Lexer) emit(typ TokenType, n int) *Token {
	p := l.sc.Position()
	return &Token{
		Type:   typ,
		Text:   l.sc.Commit(n),
		Line:   p.Line,
		Column: p.Column,
		Offset: p.Offset,
	}
}

func (l *Lexer) literal(typ TokenType, lit []rune) (*Token, error) {
	if len(lit) == 0 {
		return nil, nil
	}
	n, err := l.sc.MatchLiteral(0, lit, false)
	if err != nil || n < 0 {
		return nil, err
	}
	return l.emit(typ, n), nil
}

func (l *Lexer) atEnd() (bool, error) {
	return l.sc.AtEnd(0)
}

func (l *Lexer) prefix() (*Token, error) {
	return l.literal(Prefix, l.g.Prefix)
}

func (l *Lexer) suffix() (*Token, error) {
	return l.literal(Suffix, l.g.Suffix)
}

func (l *Lexer) emptyValue() *Token {
	return l.emit(Value, 0)
}

// value tries every quote pair in order, then falls back to a plain value.
// Quoted patterns read one delimiter past the value; the rewind pattern
// gives it back.
func (l *Lexer) value() (*Token, error) {
	for _, q := range l.g.Quotes {
		closed := true
		n, err := l.sc.MatchPattern(0, q.Closed)
		if err != nil {
			return nil, err
		}
		if n < 0 {
			closed = false
			if n, err = l.sc.MatchPattern(0, q.Improper); err != nil {
				return nil, err
			}
		}
		if n < 0 {
			continue
		}
		// Never give back the left quote or the blanks in front of it.
		limit, err := l.quoteStart(q)
		if err != nil {
			return nil, err
		}
		if back := l.sc.MatchBackward(n, limit+len(q.Right), l.g.Rewind); back > 0 {
			n -= back
		}
		tok := l.emit(QuotedValue, n)
		tok.Quote = q
		tok.Closed = closed
		return tok, nil
	}

	n, err := l.sc.MatchPattern(0, l.g.Plain)
	if err != nil {
		return nil, err
	}
	return l.emit(Value, max(n, 0)), nil
}

// quoteStart returns the width of the leading blanks and left quote of a
// quoted value at the head.
func (l *Lexer) quoteStart(q *grammar.Quote) (int, error) {
	pos := 0
	if l.g.Format.TrimWhitespace {
		for {
			r, w, err := l.sc.Next(pos)
			if err != nil {
				return 0, err
			}
			if r != ' ' && r != '\t' {
				break
			}
			pos += w
		}
	}
	n, err := l.sc.MatchLiteral(pos, q.Left, false)
	if err != nil {
		return 0, err
	}
	return pos + max(n, 0), nil
}

// delimiter matches what may follow a value. A suffix is only recognized
// directly in front of a record separator.
func (l *Lexer) delimiter(suffixConsumed bool) (*Token, error) {
	g := l.g
	if !suffixConsumed && len(g.Suffix) > 0 && len(g.RecordSeparator) > 0 {
		n, err := l.sc.MatchLiteral(0, g.Suffix, false)
		if err != nil {
			return nil, err
		}
		if n >= 0 {
			m, err := l.sc.MatchLiteral(n, g.RecordSeparator, false)
			if err != nil {
				return nil, err
			}
			if m >= 0 {
				return l.emit(Suffix, n), nil
			}
		}
	}
	if tok, err := l.literal(RecordSeparator, g.RecordSeparator); tok != nil || err != nil {
		return tok, err
	}
	return l.literal(ValueSeparator, g.ValueSeparator)
}
