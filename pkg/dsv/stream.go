package dsv

import (
	"io"

	"github.com/shapestone/shape-dsv/pkg/format"
)

// Scanner reads records one at a time. It pulls batches from a streaming
// Parser, so memory use is bounded by the batch size rather than the input.
//
// Example usage:
//
//	file, _ := os.Open("data.csv")
//	defer file.Close()
//
//	scanner := dsv.NewScanner(file, format.DatasetFormat{Data: format.CSV()})
//	defer scanner.Close()
//	for scanner.Scan() {
//	    record := scanner.Record()
//	    name, _ := record.GetByName("name")
//	    fmt.Println(name)
//	}
//	if err := scanner.Err(); err != nil {
//	    // handle error
//	}
type Scanner struct {
	reader io.Reader
	format format.DatasetFormat
	opts   Options

	p       *Parser
	header  []string
	pending []*BatchRecord
	current *BatchRecord
	diags   []Diagnostic
	err     error
	done    bool
}

// NewScanner creates a Scanner reading r with format f.
func NewScanner(r io.Reader, f format.DatasetFormat) *Scanner {
	opts := DefaultOptions()
	opts.MaxCharsPerBatch = 64 * 1024
	return &Scanner{reader: r, format: f, opts: opts}
}

// SetOptions replaces the parser options. It must be called before the
// first Scan. Returns the Scanner for method chaining.
func (s *Scanner) SetOptions(opts Options) *Scanner {
	s.opts = opts
	return s
}

// Scan advances to the next record. It returns false at the end of input
// or on a fatal error; Err tells them apart.
func (s *Scanner) Scan() bool {
	if s.p == nil && !s.done {
		p, err := NewParser(s.reader, s.format, s.opts)
		if err != nil {
			s.fail(err)
			return false
		}
		s.p = p
	}
	for len(s.pending) == 0 {
		if s.done {
			s.current = nil
			return false
		}
		b, err := s.p.Parse()
		if err != nil {
			s.fail(err)
			return false
		}
		if b == nil {
			s.done = true
			continue
		}
		if b.Header != nil && s.header == nil {
			s.header = b.Header.Strings()
		}
		s.pending = b.Records
		s.diags = append(s.diags, b.Errors...)
	}
	s.current = s.pending[0]
	s.pending = s.pending[1:]
	return true
}

func (s *Scanner) fail(err error) {
	s.err = err
	s.done = true
	s.current = nil
}

// Record returns the current record. It is only valid after Scan returned
// true.
func (s *Scanner) Record() Record {
	if s.current == nil {
		return Record{headers: s.header}
	}
	return Record{rec: s.current, headers: s.header}
}

// Headers returns the column names, available after the first Scan.
func (s *Scanner) Headers() []string {
	return s.header
}

// Diagnostics returns every diagnostic reported so far.
func (s *Scanner) Diagnostics() []Diagnostic {
	return s.diags
}

// Err returns the fatal error that stopped the scanner, if any.
func (s *Scanner) Err() error {
	return s.err
}

// Close releases the underlying parser.
func (s *Scanner) Close() error {
	s.done = true
	if s.p == nil {
		return nil
	}
	return s.p.Close()
}

// Record is a single record with access by index or header name.
type Record struct {
	rec     *BatchRecord
	headers []string
}

// Len returns the number of values.
func (r Record) Len() int {
	if r.rec == nil {
		return 0
	}
	return len(r.rec.Values)
}

// Get returns the value at index i.
func (r Record) Get(i int) (string, bool) {
	if i < 0 || i >= r.Len() {
		return "", false
	}
	return r.rec.Values[i].Text, true
}

// GetByName returns the value in the column named name.
func (r Record) GetByName(name string) (string, bool) {
	for i, h := range r.headers {
		if h == name {
			return r.Get(i)
		}
	}
	return "", false
}

// IsNull reports whether the value at index i is the format's null text.
func (r Record) IsNull(i int) bool {
	return i >= 0 && i < r.Len() && r.rec.Values[i].Null
}

// Strings returns all values as text.
func (r Record) Strings() []string {
	if r.rec == nil {
		return []string{}
	}
	return r.rec.Strings()
}

// Line returns the line the record starts on.
func (r Record) Line() int64 {
	if r.rec == nil {
		return 0
	}
	return r.rec.Line
}
