package parser

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shapestone/shape-core/pkg/ast"

	"github.com/shapestone/shape-dsv/internal/scanner"
	"github.com/shapestone/shape-dsv/internal/tokenizer"
)

// Kind classifies a Diagnostic.
type Kind int

const (
	// UnexpectedToken reports a token of the wrong type for its place in
	// the record.
	UnexpectedToken Kind = iota
	// TooManyColumns reports a value separator after the expected number
	// of values.
	TooManyColumns
	// TooFewColumns reports a record that ended before the expected number
	// of values.
	TooFewColumns
	// ValueTooLong warns about a token that reached the maximum value size.
	ValueTooLong
)

// String returns the name of the kind, as used in metric labels.
func (k Kind) String() string {
	switch k {
	case UnexpectedToken:
		return "unexpected_token"
	case TooManyColumns:
		return "too_many_columns"
	case TooFewColumns:
		return "too_few_columns"
	case ValueTooLong:
		return "value_too_long"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

const previewLen = 32

// Diagnostic is a located problem found while parsing. Diagnostics never
// stop a batch; the malformed record is skipped instead.
type Diagnostic struct {
	Kind Kind

	// Actual is the offending token, nil for end of input. Its text is
	// shortened for ValueTooLong.
	Actual   *tokenizer.Token
	Expected []tokenizer.TokenType

	// ExpectedColumns and ActualColumns are set for the column kinds.
	// Length holds the full value length for ValueTooLong.
	ExpectedColumns int
	ActualColumns   int
	Length          int

	Line   int64
	Column int64
	Offset int64
}

// IsWarning reports whether the record was kept despite the diagnostic.
func (d Diagnostic) IsWarning() bool {
	return d.Kind == ValueTooLong
}

// Position returns the location as a shape AST position.
func (d Diagnostic) Position() ast.Position {
	return ast.NewPosition(int(d.Offset), int(d.Line), int(d.Column))
}

// Message renders the problem without its location.
func (d Diagnostic) Message() string {
	switch d.Kind {
	case TooManyColumns:
		return fmt.Sprintf("too many columns, expected %d: %s", d.ExpectedColumns, d.tokenMessage())
	case TooFewColumns:
		return fmt.Sprintf("too few columns: got %d, expected %d", d.ActualColumns, d.ExpectedColumns)
	case ValueTooLong:
		return fmt.Sprintf("value too long (%s characters): %s", humanize.Comma(int64(d.Length)), d.Actual.String())
	default:
		return d.tokenMessage()
	}
}

func (d Diagnostic) tokenMessage() string {
	names := make([]string, len(d.Expected))
	for i, t := range d.Expected {
		names[i] = t.String()
	}
	return fmt.Sprintf("actual: %s, expected: %s", d.Actual.String(), strings.Join(names, ", "))
}

func (d Diagnostic) Error() string {
	return fmt.Sprintf("line %d, column %d: %s", d.Line, d.Column, d.Message())
}

func newDiagnostic(kind Kind, actual *tokenizer.Token, at scanner.Position, expected ...tokenizer.TokenType) Diagnostic {
	d := Diagnostic{Kind: kind, Actual: actual, Expected: expected, Line: at.Line, Column: at.Column, Offset: at.Offset}
	if actual != nil {
		d.Line, d.Column, d.Offset = actual.Line, actual.Column, actual.Offset
	}
	return d
}

func tooLong(tok *tokenizer.Token, n int) Diagnostic {
	short := *tok
	if r := []rune(tok.Text); len(r) > previewLen {
		short.Text = string(r[:previewLen]) + "..."
	}
	d := newDiagnostic(ValueTooLong, &short, scanner.Position{})
	d.Length = n
	return d
}
