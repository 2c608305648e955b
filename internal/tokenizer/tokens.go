// Package tokenizer provides the streaming lexer that turns a character
// stream into delimited-text tokens according to a compiled grammar.
package tokenizer

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/shapestone/shape-dsv/internal/grammar"
)

// TokenType identifies the lexical unit a Token covers.
type TokenType int

// Token types, one per terminal of the record grammar.
const (
	Prefix TokenType = iota
	Value
	QuotedValue
	ValueSeparator
	RecordSeparator
	Suffix
)

var tokenNames = [...]string{
	Prefix:          "prefix",
	Value:           "value",
	QuotedValue:     "quoted value",
	ValueSeparator:  "value separator",
	RecordSeparator: "record separator",
	Suffix:          "suffix",
}

// String returns the human-readable name used in diagnostics.
func (t TokenType) String() string {
	if t < 0 || int(t) >= len(tokenNames) {
		return fmt.Sprintf("TokenType(%d)", int(t))
	}
	return tokenNames[t]
}

// IsValue reports whether t carries record data.
func (t TokenType) IsValue() bool {
	return t == Value || t == QuotedValue
}

// Token is one lexical unit. Text is the raw source text, line endings
// included as they appeared in the input.
type Token struct {
	Type TokenType
	Text string

	// Line and Column are 1-based; Offset counts characters from 0.
	Line   int64
	Column int64
	Offset int64

	// Quote is the pair that matched a QuotedValue; Closed is false when
	// the value ran to the end of input without its right quote.
	Quote  *grammar.Quote
	Closed bool
}

var displayEscaper = strings.NewReplacer("\r", `\r`, "\n", `\n`, "\t", `\t`)

// String renders the token as "type (text)", e.g. "value separator (,)".
func (t *Token) String() string {
	if t == nil {
		return "end of file"
	}
	return fmt.Sprintf("%s (%s)", t.Type, displayEscaper.Replace(t.Text))
}

// Len returns the token length in characters.
func (t *Token) Len() int {
	return utf8.RuneCountInString(t.Text)
}
