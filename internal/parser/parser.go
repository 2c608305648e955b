// Package parser assembles lexer tokens into records. It switches from the
// header format to the data format after the first record, enforces the
// column count and recovers from malformed records by skipping to the next
// record separator.
package parser

import (
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/shapestone/shape-dsv/internal/grammar"
	"github.com/shapestone/shape-dsv/internal/lookahead"
	"github.com/shapestone/shape-dsv/internal/scanner"
	"github.com/shapestone/shape-dsv/internal/tokenizer"
	"github.com/shapestone/shape-dsv/pkg/format"
)

// DefaultMaxValueSize is the default limit on a single value, in characters.
const DefaultMaxValueSize = 1 << 20

// Observer receives a summary of every batch.
type Observer interface {
	ObserveBatch(records int, diagnostics []Diagnostic, characters int64)
}

// Options configures the parser behavior.
type Options struct {
	// MaxValueSize is the size in characters at which a value produces a
	// ValueTooLong warning. The lookahead buffer holds twice as many
	// characters; a value longer than that is a fatal error.
	MaxValueSize int
	// MaxCharsPerBatch ends a batch once at least one record was produced
	// and this many characters were consumed. 0 means unbounded.
	MaxCharsPerBatch int64
	// Logger receives debug logs for skipped records and warnings for long
	// values. Default: no logging.
	Logger log.Logger
	// Observer, if set, is called after every batch.
	Observer Observer
}

// DefaultOptions returns default parser options.
func DefaultOptions() Options {
	return Options{
		MaxValueSize: DefaultMaxValueSize,
		Logger:       log.NewNopLogger(),
	}
}

// Value is a decoded value.
type Value struct {
	Text string
	// Null is set for an unquoted value equal to the format's null text.
	Null   bool
	Quoted bool

	Line   int64
	Column int64
	Offset int64
}

// Record is one parsed record with the row number column removed.
type Record struct {
	Values []Value

	Line   int64
	Offset int64
	// HasRecordSeparator is false only for a last record that ran to the
	// end of input.
	HasRecordSeparator bool
}

// Strings returns the record's values as text. Null values are empty.
func (r *Record) Strings() []string {
	out := make([]string, len(r.Values))
	for i, v := range r.Values {
		out[i] = v.Text
	}
	return out
}

// Result is one batch of parsed records.
type Result struct {
	// Header is the established header, repeated in every batch.
	Header  *Record
	Records []*Record
	Errors  []Diagnostic
	// CharactersConsumed counts the characters read by this batch.
	CharactersConsumed int64
}

// Parser is a streaming record parser. It is not safe for concurrent use.
type Parser struct {
	lex    *tokenizer.Lexer
	header *grammar.Grammar
	data   *grammar.Grammar

	// headerIsData keeps the implicit header as the first data record.
	headerIsData bool

	opts   Options
	logger log.Logger

	headerRec *Record
	columns   int
	diags     []Diagnostic
	err       error
}

// New creates a parser reading characters from src. The parser owns src
// and closes it in Close.
func New(src lookahead.Source, f format.DatasetFormat, opts Options) *Parser {
	if opts.MaxValueSize <= 0 {
		opts.MaxValueSize = DefaultMaxValueSize
	}
	if opts.Logger == nil {
		opts.Logger = log.NewNopLogger()
	}

	hf, df := f.HeaderFormat(), f.DataFormat()
	p := &Parser{
		header:       grammar.Compile(hf),
		data:         grammar.Compile(df),
		headerIsData: f.Header == nil && !df.RowNumbers,
		opts:         opts,
		logger:       log.With(opts.Logger, "component", "dsv-parser"),
	}
	buf := lookahead.New(src, 2*opts.MaxValueSize)
	p.lex = tokenizer.NewLexer(scanner.New(buf), p.header)
	return p
}

// Header returns the header record once it has been parsed.
func (p *Parser) Header() *Record {
	return p.headerRec
}

// Done reports whether the input has been exhausted.
func (p *Parser) Done() bool {
	return p.lex.Done()
}

// Close releases the source. It is safe to call more than once.
func (p *Parser) Close() error {
	return p.lex.Close()
}

// Parse parses the next batch. It returns nil when nothing new could be
// parsed. A non-nil error is fatal and is returned again by later calls.
// Records completed before a fatal error are returned first, as a batch of
// their own; the error follows on the next call.
func (p *Parser) Parse() (*Result, error) {
	if p.err != nil {
		return nil, p.err
	}

	start := p.lex.Position().Offset
	res := &Result{}
	newHeader := false

	for {
		if p.opts.MaxCharsPerBatch > 0 && len(res.Records) > 0 &&
			p.lex.Position().Offset-start >= p.opts.MaxCharsPerBatch {
			break
		}

		g := p.data
		if p.headerRec == nil {
			g = p.header
		}
		rec, done, err := p.parseRecord(g)
		if err != nil {
			p.err = err
			level.Error(p.logger).Log("msg", "parse failed", "offset", p.lex.Position().Offset, "err", err)
			break
		}
		if done {
			break
		}
		if rec == nil {
			continue
		}

		if p.headerRec == nil {
			p.headerRec = rec
			p.columns = len(rec.Values)
			p.lex.SetGrammar(p.data)
			newHeader = true
			if !p.headerIsData {
				continue
			}
		}
		res.Records = append(res.Records, rec)
	}

	res.Header = p.headerRec
	res.Errors = p.diags
	res.CharactersConsumed = p.lex.Position().Offset - start
	p.diags = nil

	if p.opts.Observer != nil {
		p.opts.Observer.ObserveBatch(len(res.Records), res.Errors, res.CharactersConsumed)
	}
	if len(res.Records) == 0 && len(res.Errors) == 0 && !newHeader {
		return nil, p.err
	}
	return res, nil
}

// next reads a token and flags values reaching the size limit.
func (p *Parser) next() (*tokenizer.Token, error) {
	tok, err := p.lex.Next()
	if err != nil || tok == nil {
		return nil, err
	}
	if tok.Type.IsValue() {
		if n := tok.Len(); n >= p.opts.MaxValueSize {
			d := tooLong(tok, n)
			p.diags = append(p.diags, d)
			level.Warn(p.logger).Log("msg", "value reaches maximum size", "line", tok.Line, "offset", tok.Offset,
				"size", humanize.Comma(int64(n)), "limit", humanize.Comma(int64(p.opts.MaxValueSize)))
		}
	}
	return tok, nil
}

// parseRecord parses one record with grammar g. It returns done at the end
// of input and a nil record when the record was malformed and skipped.
//
//	Record = [ Prefix ] Value { ValueSeparator Value } [ Suffix ] ( RecordSeparator | EOF ) ;
func (p *Parser) parseRecord(g *grammar.Grammar) (*Record, bool, error) {
	tok, err := p.next()
	if err != nil || tok == nil {
		return nil, err == nil, err
	}

	rec := &Record{Line: tok.Line, Offset: tok.Offset}
	if len(g.Prefix) > 0 {
		if tok.Type != tokenizer.Prefix {
			return nil, false, p.fail(newDiagnostic(UnexpectedToken, tok, p.lex.Position(), tokenizer.Prefix))
		}
		if tok, err = p.next(); err != nil {
			return nil, false, err
		}
	}

	limit := 0
	if p.headerRec != nil && p.columns > 0 {
		limit = p.columns
		if g.Format.RowNumbers {
			limit++
		}
	}

	for {
		if tok == nil || !tok.Type.IsValue() {
			return nil, false, p.fail(newDiagnostic(UnexpectedToken, tok, p.lex.Position(),
				tokenizer.Value, tokenizer.QuotedValue))
		}
		rec.Values = append(rec.Values, decode(g, tok))

		if tok, err = p.next(); err != nil {
			return nil, false, err
		}
		if tok == nil || tok.Type != tokenizer.ValueSeparator {
			break
		}
		if limit > 0 && len(rec.Values) == limit {
			d := newDiagnostic(TooManyColumns, tok, p.lex.Position(), recordEnd(g)...)
			d.ExpectedColumns = p.columns
			return nil, false, p.fail(d)
		}
		if tok, err = p.next(); err != nil {
			return nil, false, err
		}
	}

	if len(g.Suffix) > 0 {
		if tok == nil || tok.Type != tokenizer.Suffix {
			return nil, false, p.fail(newDiagnostic(UnexpectedToken, tok, p.lex.Position(),
				tokenizer.ValueSeparator, tokenizer.Suffix))
		}
		if tok, err = p.next(); err != nil {
			return nil, false, err
		}
	}
	if tok != nil && tok.Type != tokenizer.RecordSeparator {
		return nil, false, p.fail(newDiagnostic(UnexpectedToken, tok, p.lex.Position(), recordEnd(g)...))
	}
	rec.HasRecordSeparator = tok != nil

	if g.Format.RowNumbers && len(rec.Values) > 0 {
		rec.Values = rec.Values[1:]
	}
	if limit > 0 && len(rec.Values) < p.columns {
		d := newDiagnostic(TooFewColumns, tok, p.lex.Position(), tokenizer.ValueSeparator)
		d.ExpectedColumns = p.columns
		d.ActualColumns = len(rec.Values)
		// The record separator was already consumed.
		p.diags = append(p.diags, d)
		p.logSkipped(d)
		return nil, false, nil
	}
	return rec, false, nil
}

// fail records d and skips the rest of the record unless d happened on
// its record separator.
func (p *Parser) fail(d Diagnostic) error {
	p.diags = append(p.diags, d)
	p.logSkipped(d)
	if d.Actual == nil || d.Actual.Type == tokenizer.RecordSeparator {
		return nil
	}
	for {
		tok, err := p.next()
		if err != nil {
			return err
		}
		if tok == nil || tok.Type == tokenizer.RecordSeparator {
			return nil
		}
	}
}

func (p *Parser) logSkipped(d Diagnostic) {
	level.Debug(p.logger).Log("msg", "skipped malformed record", "kind", d.Kind, "line", d.Line,
		"column", d.Column, "offset", d.Offset, "err", d.Message())
}

// recordEnd lists the token types that may end a record in g.
func recordEnd(g *grammar.Grammar) []tokenizer.TokenType {
	if len(g.Suffix) > 0 {
		return []tokenizer.TokenType{tokenizer.Suffix}
	}
	return []tokenizer.TokenType{tokenizer.RecordSeparator}
}

// decode strips quotes from a quoted value, trims and null-checks a plain
// one. Quoting is how the null text is written literally, so a quoted value
// is never null.
func decode(g *grammar.Grammar, tok *tokenizer.Token) Value {
	f := g.Format
	v := Value{Line: tok.Line, Column: tok.Column, Offset: tok.Offset}
	if tok.Type == tokenizer.QuotedValue {
		v.Quoted = true
		v.Text = tok.Quote.Unquote(tok.Text, tok.Closed, f.TrimWhitespace)
		return v
	}
	v.Text = tok.Text
	if f.TrimWhitespace {
		v.Text = strings.Trim(v.Text, " \t")
	}
	if f.NullText != "" && v.Text == f.NullText {
		v.Null = true
	}
	return v
}
