// Package dsv parses delimiter-separated text whose record grammar is given
// at runtime: prefix and suffix framing, value and record separators of any
// length, several quote pairs, a null marker and an optional row number
// column.
//
// # Formats
//
// A format.DatasetFormat describes the input. The header record may use its
// own format; when no header format is given the first data record names
// the columns and is also returned as data:
//
//	f := format.DatasetFormat{Data: format.CSV()}
//	f := format.DatasetFormat{Header: &hdr, Data: format.TSV()}
//	f, err := format.LoadFile("orders.yaml")
//
// # Parsing APIs
//
// Parser is the streaming API. Each Parse call returns one batch bounded by
// Options.MaxCharsPerBatch, and never holds more than twice
// Options.MaxValueSize characters of input in memory:
//
//	p, err := dsv.NewParser(file, f, dsv.DefaultOptions())
//	defer p.Close()
//	for {
//	    batch, err := p.Parse()
//	    if err != nil {
//	        return err // fatal: I/O, value beyond lookahead, no progress
//	    }
//	    if batch == nil {
//	        break
//	    }
//	    for _, rec := range batch.Records { ... }
//	    for _, d := range batch.Errors { ... } // recovered problems
//	}
//
// ParseString and ParseReader collect every batch into one. Scanner yields
// one record at a time with access by header name.
//
// ParseRanges and ParseFile parse a complete in-memory sequence into byte
// ranges without copying values; ParseFile memory-maps the file.
//
// # Diagnostics
//
// Malformed records are skipped up to the next record separator and
// reported as Diagnostic values carrying line, column and offset. Records
// with the wrong number of columns are dropped. Values of MaxValueSize
// characters or more are kept and reported as warnings.
//
// # Thread Safety
//
// Parser and Scanner are not safe for concurrent use. Formats and the
// package-level functions are; compiled grammars are shared through a
// process-wide cache.
package dsv

import (
	"fmt"
	"io"

	"github.com/go-kit/log"

	"github.com/shapestone/shape-dsv/internal/lookahead"
	"github.com/shapestone/shape-dsv/internal/parser"
	"github.com/shapestone/shape-dsv/pkg/format"
)

// Batch is the result of one Parse call.
type Batch = parser.Result

// BatchRecord is a parsed record with positions.
type BatchRecord = parser.Record

// Value is a decoded value with its position.
type Value = parser.Value

// Parser is the streaming record parser.
type Parser struct {
	p *parser.Parser
}

// NewParser creates a parser reading r. The format is validated first. If r
// is an io.Closer, Close closes it.
//
// Example:
//
//	p, err := dsv.NewParser(os.Stdin, format.DatasetFormat{Data: format.CSV()}, dsv.DefaultOptions())
func NewParser(r io.Reader, f format.DatasetFormat, opts Options) (*Parser, error) {
	return newParser(lookahead.NewReaderSource(r), f, opts)
}

// NewStringParser creates a parser reading s.
func NewStringParser(s string, f format.DatasetFormat, opts Options) (*Parser, error) {
	return newParser(lookahead.NewStringSource(s), f, opts)
}

func newParser(src lookahead.Source, f format.DatasetFormat, opts Options) (*Parser, error) {
	err := f.Validate()
	if err == nil {
		err = opts.Validate()
	}
	if err != nil {
		if c, ok := src.(io.Closer); ok {
			_ = c.Close()
		}
		return nil, err
	}
	return &Parser{p: parser.New(src, f, opts.parserOptions())}, nil
}

// Parse parses the next batch. It returns nil, nil once the input holds
// nothing new. Errors are fatal and repeat on later calls.
func (p *Parser) Parse() (*Batch, error) {
	return p.p.Parse()
}

// Header returns the column names, nil until the header was parsed.
func (p *Parser) Header() []string {
	if h := p.p.Header(); h != nil {
		return h.Strings()
	}
	return nil
}

// Done reports whether the input is exhausted.
func (p *Parser) Done() bool {
	return p.p.Done()
}

// Close releases the input.
func (p *Parser) Close() error {
	return p.p.Close()
}

// ParseString parses s completely with default options. On a fatal error
// the records parsed before it are returned along with the error.
//
// Example:
//
//	batch, err := dsv.ParseString("name,age\nAlice,30\n", format.DatasetFormat{Data: format.CSV()})
//	// batch.Header.Strings(): [name age]
//	// batch.Records: [name age], [Alice 30]
func ParseString(s string, f format.DatasetFormat) (*Batch, error) {
	p, err := NewStringParser(s, f, DefaultOptions())
	if err != nil {
		return nil, err
	}
	defer p.Close()
	return collect(p)
}

// ParseReader parses everything r yields into a single batch. Like
// ParseString it keeps the records parsed before a fatal error.
func ParseReader(r io.Reader, f format.DatasetFormat, opts Options) (*Batch, error) {
	p, err := NewParser(r, f, opts)
	if err != nil {
		return nil, err
	}
	defer p.Close()
	return collect(p)
}

// Validate parses s and returns the first diagnostic as an error, or nil if
// every record is well formed.
func Validate(s string, f format.DatasetFormat) error {
	batch, err := ParseString(s, f)
	if err != nil {
		return err
	}
	for _, d := range batch.Errors {
		if !d.IsWarning() {
			return fmt.Errorf("%w: %w", ErrMalformed, d)
		}
	}
	return nil
}

// collect merges batches until p runs dry. The result is never nil, and on
// a fatal error it holds what was parsed before it.
func collect(p *Parser) (*Batch, error) {
	all := &Batch{}
	for {
		b, err := p.Parse()
		if err != nil {
			return all, err
		}
		if b == nil {
			break
		}
		all.Header = b.Header
		all.Records = append(all.Records, b.Records...)
		all.Errors = append(all.Errors, b.Errors...)
		all.CharactersConsumed += b.CharactersConsumed
	}
	return all, nil
}

func nopLogger(l log.Logger) log.Logger {
	if l == nil {
		return log.NewNopLogger()
	}
	return l
}
