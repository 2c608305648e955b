package dsv

import (
	"errors"

	"github.com/shapestone/shape-dsv/internal/lookahead"
	"github.com/shapestone/shape-dsv/internal/parser"
	"github.com/shapestone/shape-dsv/internal/tokenizer"
)

// Diagnostic is a located problem found while parsing. Diagnostics never
// stop the parser.
type Diagnostic = parser.Diagnostic

// DiagnosticKind classifies a Diagnostic.
type DiagnosticKind = parser.Kind

const (
	UnexpectedToken = parser.UnexpectedToken
	TooManyColumns  = parser.TooManyColumns
	TooFewColumns   = parser.TooFewColumns
	// ValueTooLong is a warning: the value is still returned.
	ValueTooLong = parser.ValueTooLong
)

var (
	// ErrLookaheadExceeded is returned when a single token needs more
	// characters than the lookahead buffer holds. Match with errors.Is; the
	// error is a *lookahead.OverflowError.
	ErrLookaheadExceeded = lookahead.ErrLookaheadExceeded

	// ErrNoProgress is returned when the format cannot terminate a value.
	ErrNoProgress = tokenizer.ErrNoProgress

	// ErrNoHeader is returned by ParseRanges when no record could serve as
	// the header.
	ErrNoHeader = errors.New("dsv: no header record")

	// ErrMalformed wraps the first diagnostic returned by Validate.
	ErrMalformed = errors.New("dsv: malformed input")
)
