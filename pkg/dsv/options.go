package dsv

import (
	"github.com/go-kit/log"

	"github.com/shapestone/shape-dsv/internal/parser"
)

// DefaultMaxValueSize is the default value size limit in characters.
const DefaultMaxValueSize = parser.DefaultMaxValueSize

// Options configures parsing.
type Options struct {
	// MaxValueSize is the value size in characters that triggers a
	// ValueTooLong warning. Up to twice as many characters are buffered;
	// a longer value fails the parse.
	// Default: 1 Mi characters
	MaxValueSize int

	// MaxCharsPerBatch ends a batch after this many characters once it holds
	// a record. 0 parses the whole input in one batch.
	// Default: 0
	MaxCharsPerBatch int64

	// Logger receives debug logs for skipped records and warnings for long
	// values.
	// Default: no logging
	Logger log.Logger

	// Metrics, if set, counts records, diagnostics and characters.
	Metrics *Metrics
}

// DefaultOptions returns the default parsing options.
func DefaultOptions() Options {
	return Options{
		MaxValueSize: DefaultMaxValueSize,
		Logger:       log.NewNopLogger(),
	}
}

// Validate checks that the options are usable.
func (o Options) Validate() error {
	if o.MaxValueSize < 0 {
		return &OptionsError{Field: "MaxValueSize", Message: "must not be negative"}
	}
	if o.MaxCharsPerBatch < 0 {
		return &OptionsError{Field: "MaxCharsPerBatch", Message: "must not be negative"}
	}
	return nil
}

func (o Options) parserOptions() parser.Options {
	po := parser.DefaultOptions()
	if o.MaxValueSize > 0 {
		po.MaxValueSize = o.MaxValueSize
	}
	po.MaxCharsPerBatch = o.MaxCharsPerBatch
	po.Logger = nopLogger(o.Logger)
	if o.Metrics != nil {
		po.Observer = o.Metrics
	}
	return po
}

// OptionsError represents an invalid option.
type OptionsError struct {
	Field   string
	Message string
}

func (e *OptionsError) Error() string {
	return "dsv: invalid " + e.Field + ": " + e.Message
}
