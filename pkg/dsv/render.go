package dsv

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shapestone/shape-dsv/internal/grammar"
	"github.com/shapestone/shape-dsv/pkg/format"
)

// ErrUnquotable is returned when a value needs quoting but the format has
// no quote pair.
var ErrUnquotable = errors.New("dsv: value needs quoting but format has no quotes")

// Writer writes records in a DatasetFormat. Values are quoted with the
// first quote pair when they contain a delimiter or a quote, when they
// would be trimmed, or when they equal the null text.
//
// Example:
//
//	w := dsv.NewWriter(os.Stdout, format.DatasetFormat{Data: format.TSV()})
//	w.WriteHeader([]string{"name", "age"})
//	w.Write([]string{"Alice", "30"})
//	w.Flush()
type Writer struct {
	w      *bufio.Writer
	header *grammar.Grammar
	data   *grammar.Grammar
	rowNum bool
	rows   int
}

// NewWriter returns a Writer writing to w.
func NewWriter(w io.Writer, f format.DatasetFormat) *Writer {
	return &Writer{
		w:      bufio.NewWriter(w),
		header: grammar.Compile(f.HeaderFormat()),
		data:   grammar.Compile(f.DataFormat()),
		rowNum: f.DataFormat().RowNumbers,
	}
}

// WriteHeader writes names with the header format. The row number column
// of a header is left empty.
func (w *Writer) WriteHeader(names []string) error {
	vals := make([]Value, len(names))
	for i, n := range names {
		vals[i] = Value{Text: n}
	}
	return w.writeRecord(w.header, "", vals)
}

// Write writes a data record.
func (w *Writer) Write(values []string) error {
	vals := make([]Value, len(values))
	for i, v := range values {
		vals[i] = Value{Text: v}
	}
	return w.WriteValues(vals)
}

// WriteValues writes a data record; null values are written as the null
// text.
func (w *Writer) WriteValues(values []Value) error {
	w.rows++
	return w.writeRecord(w.data, strconv.Itoa(w.rows), values)
}

// Flush writes any buffered data to the underlying io.Writer.
func (w *Writer) Flush() error {
	return w.w.Flush()
}

func (w *Writer) writeRecord(g *grammar.Grammar, rowNum string, values []Value) error {
	f := g.Format
	var b strings.Builder
	b.WriteString(f.Prefix)
	if w.rowNum {
		b.WriteString(rowNum)
		b.WriteString(f.ValueSeparator)
	}
	for i, v := range values {
		if i > 0 {
			b.WriteString(f.ValueSeparator)
		}
		if err := writeValue(&b, g, v); err != nil {
			return fmt.Errorf("value %d: %w", i, err)
		}
	}
	b.WriteString(f.Suffix)
	b.WriteString(f.RecordSeparator)
	_, err := w.w.WriteString(b.String())
	return err
}

func writeValue(b *strings.Builder, g *grammar.Grammar, v Value) error {
	f := g.Format
	if v.Null {
		b.WriteString(f.NullText)
		return nil
	}
	if !needsQuoting(g, v.Text) {
		b.WriteString(v.Text)
		return nil
	}
	if len(g.Quotes) == 0 {
		return ErrUnquotable
	}
	q := g.Quotes[0]
	b.WriteString(q.Pair.Left)
	b.WriteString(q.Escape(v.Text))
	b.WriteString(q.Pair.Right)
	return nil
}

func needsQuoting(g *grammar.Grammar, s string) bool {
	f := g.Format
	if f.NullText != "" && s == f.NullText {
		return true
	}
	if f.TrimWhitespace && strings.Trim(s, " \t") != s {
		return true
	}
	n := format.NormalizeNewlines(s)
	for _, lit := range []string{string(g.ValueSeparator), string(g.RecordSeparator), string(g.Suffix)} {
		if lit != "" && strings.Contains(n, lit) {
			return true
		}
	}
	if len(g.Prefix) > 0 && strings.HasPrefix(n, string(g.Prefix)) {
		return true
	}
	for _, q := range g.Quotes {
		if strings.Contains(n, q.Pair.Left) || strings.Contains(n, q.Pair.Right) {
			return true
		}
	}
	return false
}

// Render writes a parsed batch back in format f. The header is written
// separately only when f does not read it as a data record.
func Render(w io.Writer, b *Batch, f format.DatasetFormat) error {
	out := NewWriter(w, f)
	if b.Header != nil && (f.Header != nil || f.DataFormat().RowNumbers) {
		if err := out.WriteHeader(b.Header.Strings()); err != nil {
			return err
		}
	}
	for _, rec := range b.Records {
		if err := out.WriteValues(rec.Values); err != nil {
			return err
		}
	}
	return out.Flush()
}
