package tokenizer

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shapestone/shape-dsv/internal/grammar"
	"github.com/shapestone/shape-dsv/internal/lookahead"
	"github.com/shapestone/shape-dsv/internal/scanner"
	"github.com/shapestone/shape-dsv/pkg/format"
)

func newLexer(f format.RecordFormat, input string, capacity int) *Lexer {
	buf := lookahead.New(lookahead.NewStringSource(input), capacity)
	return NewLexer(scanner.New(buf), grammar.Compile(f))
}

func lexAll(t *testing.T, f format.RecordFormat, input string) []*Token {
	t.Helper()
	l := newLexer(f, input, 64)
	defer l.Close()

	var toks []*Token
	for {
		tok, err := l.Next()
		require.NoError(t, err)
		if tok == nil {
			require.True(t, l.Done())
			return toks
		}
		toks = append(toks, tok)
	}
}

type tok struct {
	typ  TokenType
	text string
}

func simplify(toks []*Token) []tok {
	out := make([]tok, len(toks))
	for i, t := range toks {
		out[i] = tok{t.Type, t.Text}
	}
	return out
}

func TestLexer(t *testing.T) {
	framed := format.RecordFormat{Prefix: "(", Suffix: ")", ValueSeparator: ",", RecordSeparator: "\n"}

	tests := []struct {
		name   string
		format format.RecordFormat
		input  string
		want   []tok
	}{
		{
			name:   "empty input",
			format: format.CSV(),
			input:  "",
			want:   []tok{},
		},
		{
			name:   "separator inside quotes",
			format: format.CSV(),
			input:  "a,\"x,y\",c\n",
			want: []tok{
				{Value, "a"}, {ValueSeparator, ","}, {QuotedValue, `"x,y"`},
				{ValueSeparator, ","}, {Value, "c"}, {RecordSeparator, "\n"},
			},
		},
		{
			name:   "crlf",
			format: format.CSV(),
			input:  "a\r\nb",
			want:   []tok{{Value, "a"}, {RecordSeparator, "\r\n"}, {Value, "b"}},
		},
		{
			name:   "lone cr",
			format: format.CSV(),
			input:  "a\rb\r",
			want:   []tok{{Value, "a"}, {RecordSeparator, "\r"}, {Value, "b"}, {RecordSeparator, "\r"}},
		},
		{
			name:   "unterminated quote",
			format: format.CSV(),
			input:  "a,\"unterminated\n",
			want: []tok{
				{Value, "a"}, {ValueSeparator, ","}, {QuotedValue, `"unterminated`}, {RecordSeparator, "\n"},
			},
		},
		{
			name:   "trailing value separator",
			format: format.CSV(),
			input:  "a,",
			want:   []tok{{Value, "a"}, {ValueSeparator, ","}, {Value, ""}},
		},
		{
			name:   "empty values",
			format: format.CSV(),
			input:  ",\n",
			want:   []tok{{Value, ""}, {ValueSeparator, ","}, {Value, ""}, {RecordSeparator, "\n"}},
		},
		{
			name:   "stray quote in plain value",
			format: format.CSV(),
			input:  "\"a\"b,c",
			want:   []tok{{Value, `"a"b`}, {ValueSeparator, ","}, {Value, "c"}},
		},
		{
			name:   "framed records",
			format: framed,
			input:  "(a,b)\n(c)",
			want: []tok{
				{Prefix, "("}, {Value, "a"}, {ValueSeparator, ","}, {Value, "b"}, {Suffix, ")"}, {RecordSeparator, "\n"},
				{Prefix, "("}, {Value, "c"}, {Suffix, ")"},
			},
		},
		{
			name:   "suffix inside value",
			format: framed,
			input:  "(a)b)\n",
			want:   []tok{{Prefix, "("}, {Value, "a)b"}, {Suffix, ")"}, {RecordSeparator, "\n"}},
		},
		{
			name:   "missing prefix",
			format: framed,
			input:  "a)\n",
			want:   []tok{{Value, "a"}, {Suffix, ")"}, {RecordSeparator, "\n"}},
		},
		{
			name:   "multi character separators",
			format: format.RecordFormat{ValueSeparator: "||", RecordSeparator: "##"},
			input:  "a|b||c##d",
			want:   []tok{{Value, "a|b"}, {ValueSeparator, "||"}, {Value, "c"}, {RecordSeparator, "##"}, {Value, "d"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, simplify(lexAll(t, tt.format, tt.input)))
		})
	}
}

func TestLexerQuoteFlags(t *testing.T) {
	toks := lexAll(t, format.CSV(), "\"a\",\"b")
	require.Len(t, toks, 3)

	assert.Equal(t, QuotedValue, toks[0].Type)
	assert.True(t, toks[0].Closed)
	require.NotNil(t, toks[0].Quote)
	assert.Equal(t, `"`, toks[0].Quote.Pair.Left)

	assert.Equal(t, QuotedValue, toks[2].Type)
	assert.False(t, toks[2].Closed)
}

func TestLexerTrimmedUnterminatedQuote(t *testing.T) {
	f := format.CSV()
	f.TrimWhitespace = true

	assert.Equal(t, []tok{
		{Value, "a"}, {ValueSeparator, ","}, {QuotedValue, `  ",`},
	}, simplify(lexAll(t, f, `a,  ",`)))
	assert.Equal(t, []tok{
		{Value, "a"}, {ValueSeparator, ","}, {QuotedValue, ` "x  `},
	}, simplify(lexAll(t, f, `a, "x  `)))
	assert.Equal(t, []tok{
		{Value, "a"}, {ValueSeparator, ","}, {QuotedValue, "\t\"x,y"}, {RecordSeparator, "\n"},
	}, simplify(lexAll(t, f, "a,\t\"x,y\n")))
}

func TestLexerPositions(t *testing.T) {
	toks := lexAll(t, format.CSV(), "ab,cd\r\nef")
	require.Len(t, toks, 5)

	want := []struct{ line, col, off int64 }{
		{1, 1, 0}, {1, 3, 2}, {1, 4, 3}, {1, 6, 5}, {2, 1, 7},
	}
	for i, w := range want {
		assert.Equal(t, w.line, toks[i].Line, "token %d line", i)
		assert.Equal(t, w.col, toks[i].Column, "token %d column", i)
		assert.Equal(t, w.off, toks[i].Offset, "token %d offset", i)
	}
}

func TestLexerSetGrammar(t *testing.T) {
	l := newLexer(format.TSV(), "a\tb\nc,d\n", 64)
	defer l.Close()

	next := func() tok {
		t.Helper()
		tk, err := l.Next()
		require.NoError(t, err)
		require.NotNil(t, tk)
		return tok{tk.Type, tk.Text}
	}

	assert.Equal(t, tok{Value, "a"}, next())
	assert.Equal(t, tok{ValueSeparator, "\t"}, next())
	assert.Equal(t, tok{Value, "b"}, next())
	assert.Equal(t, tok{RecordSeparator, "\n"}, next())
	assert.Equal(t, RecordStart, l.m.state)

	l.SetGrammar(grammar.Compile(format.CSV()))
	assert.Equal(t, tok{Value, "c"}, next())
	assert.Equal(t, tok{ValueSeparator, ","}, next())
	assert.Equal(t, tok{Value, "d"}, next())
}

func TestLexerOverflow(t *testing.T) {
	l := newLexer(format.CSV(), `"`+strings.Repeat("x", 20)+`"`, 8)
	defer l.Close()

	_, err := l.Next()
	require.Error(t, err)
	assert.True(t, errors.Is(err, lookahead.ErrLookaheadExceeded))
}

func TestLexerNoProgress(t *testing.T) {
	l := newLexer(format.RecordFormat{}, "abc", 64)
	defer l.Close()

	var err error
	for i := 0; i < 10 && err == nil; i++ {
		_, err = l.Next()
	}
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoProgress))
}

func TestTokenLenCountsCharacters(t *testing.T) {
	assert.Equal(t, 5, (&Token{Text: "héllo"}).Len())
	assert.Equal(t, 0, (&Token{}).Len())
}
